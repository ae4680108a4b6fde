package audit

type LogEventRequest struct {
	UserID     uint64 `json:"user_id"`
	Action     string `json:"action" binding:"required,max=128"`
	TargetType string `json:"target_type" binding:"max=64"`
	TargetID   string `json:"target_id" binding:"max=128"`
	Scope      string `json:"scope" binding:"max=128"`
	Details    string `json:"details"`
	IPAddress  string `json:"ip_address" binding:"max=64"`
	UserAgent  string `json:"user_agent"`
}

// BatchEvent is not validated per field: an invalid event is dropped by the store and the rest
// of the batch is kept.
type BatchEvent struct {
	UserID     uint64 `json:"user_id"`
	Action     string `json:"action"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Scope      string `json:"scope"`
	Details    string `json:"details"`
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent"`
}

type BatchLogEventsRequest struct {
	Events []BatchEvent `json:"events" binding:"max=1000"`
}

type LogEventResponse struct {
	Success bool   `json:"success"`
	ID      uint64 `json:"id"`
}

type BatchLogEventsResponse struct {
	Count int `json:"count"`
}

type AuditLogResponse struct {
	ID         uint64 `json:"id"`
	UserID     int64  `json:"user_id"`
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
	Entries []AuditLogResponse `json:"entries"`
	Total   int64              `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
