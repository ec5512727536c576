package export

import (
	"fmt"
	"os"
)

const schemaDoc = `Schema (messages.jsonl)
- id: message id
- date_utc: ISO-8601 UTC timestamp
- from: {id, name, username, type}
- text: body text, possibly empty
- reply_to: {msg_id, top_id} or null
- mentions: {usernames, links, hashtags}
- has_media: bool
- media: {kind, file_name, mime_type, size, local_path} or null
  (local_path is null when the content was not downloaded)
- edited_utc: ISO-8601 UTC timestamp, absent if never edited
- is_service: present and true for service messages
- is_topic_root: present and true for the exported topic root
- topic_id: root message id of the topic, absent for whole-chat exports
`

// WriteSchema emits the static record-shape description once per output
// directory.
func WriteSchema(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(schemaDoc), 0o644); err != nil {
		return fmt.Errorf("write schema doc: %w", err)
	}
	return nil
}
