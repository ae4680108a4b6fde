package rpc

// Audit service messages.

type LogEventRequest struct {
	UserID     uint64 `json:"user_id"`
	Action     string `json:"action"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Scope      string `json:"scope"`
	Details    string `json:"details"`
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent"`
}

type LogEventResponse struct {
	Success bool   `json:"success"`
	ID      uint64 `json:"id"`
}

type BatchLogEventsRequest struct {
	Events []LogEventRequest `json:"events"`
}

type BatchLogEventsResponse struct {
	Count uint32 `json:"count"`
}

type GetLogsRequest struct {
	UserID uint64 `json:"user_id"`
	Action string `json:"action"`
	Page   uint32 `json:"page"`
	Limit  uint32 `json:"limit"`
}

type AuditLogEntry struct {
	ID         uint64 `json:"id"`
	UserID     uint64 `json:"user_id"`
	Action     string `json:"action"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Scope      string `json:"scope"`
	Details    string `json:"details"`
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent"`
	CreatedAt  string `json:"created_at"`
}

type GetLogsResponse struct {
	Logs  []AuditLogEntry `json:"logs"`
	Total int64           `json:"total"`
}

// Search service messages.

type SearchMessagesRequest struct {
	Query     string `json:"query"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
	AuthorID  string `json:"author_id"`
	Limit     int32  `json:"limit"`
	Offset    int32  `json:"offset"`
}

type SearchResult struct {
	MessageID uint64  `json:"message_id"`
	Content   string  `json:"content"`
	AuthorID  uint64  `json:"author_id"`
	ChannelID string  `json:"channel_id"`
	GuildID   string  `json:"guild_id"`
	Score     float64 `json:"score"`
	CreatedAt string  `json:"created_at"`
}

type SearchMessagesResponse struct {
	Results   []SearchResult `json:"results"`
	TotalHits int64          `json:"total_hits"`
}

type IndexMessageRequest struct {
	MessageID uint64 `json:"message_id"`
	Content   string `json:"content"`
	AuthorID  uint64 `json:"author_id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
	CreatedAt string `json:"created_at"`
}

type IndexMessageResponse struct {
	Success bool `json:"success"`
}
