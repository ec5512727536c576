package telegram

import "time"

// Chat is a resolved chat or channel.
type Chat struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	HasTopics bool   `json:"has_topics"`
}

// Sender identifies who sent a message. Name may be empty for deleted
// accounts; callers fall back to Username and then the numeric ID.
type Sender struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Kind     string `json:"kind,omitempty"` // user | bot | channel
}

// ReplyHeader carries the reply/thread metadata of a message.
type ReplyHeader struct {
	MessageID int64 `json:"msg_id"`
	TopicID   int64 `json:"top_id,omitempty"` // root message of the topic thread, 0 if none
}

// Media describes an attachment. The binary content is fetched separately
// via Client.Download using FileID.
type Media struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Message is one raw message as returned by the gateway.
type Message struct {
	ID       int64        `json:"id"`
	Date     int64        `json:"date"` // unix seconds, UTC
	EditDate int64        `json:"edit_date,omitempty"`
	From     Sender       `json:"from"`
	Text     string       `json:"text"`
	ReplyTo  *ReplyHeader `json:"reply_to,omitempty"`
	Media    *Media       `json:"media,omitempty"`
	Service  bool         `json:"is_service,omitempty"`
}

// Time returns the message timestamp in UTC.
func (m *Message) Time() time.Time {
	return time.Unix(m.Date, 0).UTC()
}

// EditTime returns the last-edit timestamp in UTC, or the zero time if the
// message was never edited.
func (m *Message) EditTime() time.Time {
	if m.EditDate == 0 {
		return time.Time{}
	}
	return time.Unix(m.EditDate, 0).UTC()
}
