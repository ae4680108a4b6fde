package filter

import "strings"

// AuditLogFilter selects audit entries. Zero values are no-ops, not "match nothing".
type AuditLogFilter struct {
	UserID uint64 `json:"user_id,omitempty"`
	Action string `json:"action,omitempty"`
}

func (f AuditLogFilter) HasFilters() bool {
	return f.UserID != 0 || f.Action != ""
}

// MessageFilter narrows a message search. Empty fields are ignored.
type MessageFilter struct {
	ChannelID string `json:"channel_id,omitempty"`
	GuildID   string `json:"guild_id,omitempty"`
	AuthorID  string `json:"author_id,omitempty"`
}

func (f MessageFilter) Normalize() MessageFilter {
	return MessageFilter{
		ChannelID: strings.TrimSpace(f.ChannelID),
		GuildID:   strings.TrimSpace(f.GuildID),
		AuthorID:  strings.TrimSpace(f.AuthorID),
	}
}

func (f MessageFilter) HasFilters() bool {
	return f.ChannelID != "" || f.GuildID != "" || f.AuthorID != ""
}

// MessageQuery is a full search request after clamping.
type MessageQuery struct {
	Text   string
	Filter MessageFilter
	Window Window
}
