package queue

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/nemaks/recordstore/domain/model"
)

// flexID accepts an identifier encoded either as a JSON string or a JSON number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type AuditEventMessage struct {
	UserID     uint64 `json:"user_id"`
	Action     string `json:"action"`
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Scope      string `json:"scope"`
	Details    string `json:"details"`
	IPAddress  string `json:"ip_address"`
	UserAgent  string `json:"user_agent"`
}

func (m AuditEventMessage) ToEvent() model.AuditEvent {
	return model.AuditEvent{
		UserID:     m.UserID,
		Action:     m.Action,
		TargetType: m.TargetType,
		TargetID:   m.TargetID,
		Scope:      m.Scope,
		Details:    m.Details,
		IPAddress:  m.IPAddress,
		UserAgent:  m.UserAgent,
	}
}

// MessageCreatedEvent is published by the message service for every new chat message.
type MessageCreatedEvent struct {
	MessageID uint64 `json:"message_id"`
	Content   string `json:"content"`
	AuthorID  uint64 `json:"author_id"`
	ChannelID flexID `json:"channel_id"`
	GuildID   flexID `json:"guild_id"`
	CreatedAt string `json:"created_at"`
}

func (e MessageCreatedEvent) ToDocument() model.IndexDocument {
	return model.IndexDocument{
		MessageID: e.MessageID,
		Content:   e.Content,
		AuthorID:  e.AuthorID,
		ChannelID: string(e.ChannelID),
		GuildID:   string(e.GuildID),
		CreatedAt: e.CreatedAt,
	}
}

func decodeAuditEvent(value []byte) (model.AuditEvent, error) {
	var m AuditEventMessage
	if err := json.Unmarshal(value, &m); err != nil {
		return model.AuditEvent{}, err
	}
	return m.ToEvent(), nil
}

func decodeMessageCreated(value []byte) (model.IndexDocument, error) {
	var e MessageCreatedEvent
	if err := json.Unmarshal(value, &e); err != nil {
		return model.IndexDocument{}, err
	}
	if e.MessageID == 0 {
		return model.IndexDocument{}, strconv.ErrSyntax
	}
	return e.ToDocument(), nil
}
