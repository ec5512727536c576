package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RunState summarizes one export run. It is written next to the outputs at
// the end of the run (and after interruptions) so a later inspection can
// tell how far the export got.
type RunState struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Link       string    `json:"link"`
	ChatID     int64     `json:"chat_id"`
	TopicID    int64     `json:"topic_id"`
	Exported   int       `json:"exported"`
	MediaSaved int       `json:"media_saved"`
	Errors     []string  `json:"errors,omitempty"`

	path string
}

func NewRunState(path, link string) *RunState {
	return &RunState{StartedAt: time.Now().UTC(), Link: link, path: path}
}

func (s *RunState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

func (s *RunState) Save() error {
	s.FinishedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}
	return os.WriteFile(s.path, data, 0o644)
}
