package model

// FallbackScore is reported by the relational path, which has no ranking.
const FallbackScore = 1.0

type SearchResult struct {
	MessageID uint64  `json:"message_id"`
	AuthorID  uint64  `json:"author_id"`
	ChannelID string  `json:"channel_id"`
	GuildID   string  `json:"guild_id"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	CreatedAt string  `json:"created_at"`
}

// SearchPage holds one window of results. TotalHits is the true match count on the index path
// and, unless exact totals are enabled, only the page size on the fallback path.
type SearchPage struct {
	Results   []SearchResult `json:"results"`
	TotalHits int64          `json:"total_hits"`
	Ranked    bool           `json:"ranked"`
}

// IndexDocument is one message as stored in the text index.
type IndexDocument struct {
	MessageID uint64
	Content   string
	AuthorID  uint64
	ChannelID string
	GuildID   string
	CreatedAt string
}
