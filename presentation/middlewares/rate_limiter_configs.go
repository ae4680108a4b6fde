package middlewares

import "time"

// StrictRateLimiterConfig for write endpoints
func StrictRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 5,
	}
}

// ModerateRateLimiterConfig for normal API endpoints
func ModerateRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		BlockDuration:     time.Minute * 2,
	}
}

// LenientRateLimiterConfig for internal producers that write in bulk
func LenientRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerWindow: 1200,
		Window:            time.Minute,
		BlockDuration:     time.Minute,
	}
}

// RateLimiterConfigByName maps server.rateLimit to a preset. "off" disables limiting.
func RateLimiterConfigByName(name string) (RateLimiterConfig, bool) {
	switch name {
	case "off", "none", "disabled":
		return RateLimiterConfig{}, false
	case "strict":
		return StrictRateLimiterConfig(), true
	case "lenient":
		return LenientRateLimiterConfig(), true
	default:
		return ModerateRateLimiterConfig(), true
	}
}
