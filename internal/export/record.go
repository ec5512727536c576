package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/ehsankolivand/telegramExtractor/internal/telegram"
)

// Sender mirrors telegram.Sender in the JSONL output.
type Sender struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Kind     string `json:"type,omitempty"`
}

// Display is the sender label used in the document output and reply
// previews: name, then username, then the numeric id.
func (s Sender) Display() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Username != "" {
		return s.Username
	}
	return strconv.FormatInt(s.ID, 10)
}

// ReplyRef points at the message this record replies to.
type ReplyRef struct {
	MessageID int64 `json:"msg_id"`
	TopicID   int64 `json:"top_id,omitempty"`
}

// Media is the attachment descriptor. LocalPath stays nil until the media
// fetcher saves the content; a nil LocalPath with a non-nil Media means
// metadata only.
type Media struct {
	Kind      string  `json:"kind"`
	FileName  string  `json:"file_name,omitempty"`
	MimeType  string  `json:"mime_type,omitempty"`
	Size      int64   `json:"size,omitempty"`
	LocalPath *string `json:"local_path"`

	fileID string
}

// FileID is the gateway handle for fetching the binary content.
func (m *Media) FileID() string { return m.fileID }

// Mentions are the entities extracted from the body text.
type Mentions struct {
	Usernames []string `json:"usernames,omitempty"`
	Links     []string `json:"links,omitempty"`
	Hashtags  []string `json:"hashtags,omitempty"`
}

// Record is the normalized form of one message: one JSONL line and one
// document block. Immutable once written.
type Record struct {
	ID          int64     `json:"id"`
	DateUTC     string    `json:"date_utc"`
	From        Sender    `json:"from"`
	Text        string    `json:"text"`
	ReplyTo     *ReplyRef `json:"reply_to"`
	Mentions    Mentions  `json:"mentions"`
	HasMedia    bool      `json:"has_media"`
	Media       *Media    `json:"media"`
	EditedUTC   string    `json:"edited_utc,omitempty"`
	IsService   bool      `json:"is_service,omitempty"`
	IsTopicRoot bool      `json:"is_topic_root,omitempty"`
	TopicID     int64     `json:"topic_id,omitempty"`
}

// Build converts a raw message into a Record. Pure: no lookups, no I/O.
func Build(msg *telegram.Message, topicID int64) Record {
	rec := Record{
		ID:        msg.ID,
		DateUTC:   msg.Time().Format(time.RFC3339),
		From:      Sender(msg.From),
		Text:      msg.Text,
		Mentions:  ExtractMentions(msg.Text),
		IsService: msg.Service,
		TopicID:   topicID,
	}

	if !msg.EditTime().IsZero() {
		rec.EditedUTC = msg.EditTime().Format(time.RFC3339)
	}

	if msg.ReplyTo != nil {
		rec.ReplyTo = &ReplyRef{MessageID: msg.ReplyTo.MessageID, TopicID: msg.ReplyTo.TopicID}
	}

	if msg.Media != nil {
		rec.HasMedia = true
		rec.Media = &Media{
			Kind:     mediaKind(msg.Media.MimeType),
			FileName: msg.Media.FileName,
			MimeType: msg.Media.MimeType,
			Size:     msg.Media.Size,
			fileID:   msg.Media.FileID,
		}
	}

	return rec
}

// mediaKind classifies an attachment by its content type.
func mediaKind(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "photo"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	default:
		return "document"
	}
}
