package search

type IndexMessageRequest struct {
	MessageID uint64 `json:"message_id" binding:"required,gt=0"`
	Content   string `json:"content"`
	AuthorID  uint64 `json:"author_id"`
	ChannelID string `json:"channel_id" binding:"max=64"`
	GuildID   string `json:"guild_id" binding:"max=64"`
	CreatedAt string `json:"created_at"`
}

type IndexMessageResponse struct {
	Success bool `json:"success"`
}

type SearchResultResponse struct {
	MessageID uint64  `json:"message_id"`
	AuthorID  uint64  `json:"author_id"`
	ChannelID string  `json:"channel_id"`
	GuildID   string  `json:"guild_id"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	CreatedAt string  `json:"created_at"`
}

type SearchMessagesResponse struct {
	Results   []SearchResultResponse `json:"results"`
	TotalHits int64                  `json:"total_hits"`
	Ranked    bool                   `json:"ranked"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
