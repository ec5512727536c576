package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/ehsankolivand/telegramExtractor/internal/index"
)

// BlockSeparator terminates every message block in the document output.
// The splitter relies on this exact line to find block boundaries.
const BlockSeparator = "-----"

// ReplyNotFound is the quoted line used when a reply target was never
// indexed, e.g. the topic root fell outside the export range.
const ReplyNotFound = "> original message not found"

var headerRE = regexp.MustCompile(`\(id: (\d+)\)$`)

// HeaderID extracts the message id from a block header line, returning
// ok=false for lines that are not headers.
func HeaderID(line string) (int64, bool) {
	m := headerRE.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Writer appends each record to the JSONL stream and the document stream.
// Both outputs are append-only; a fatal error mid-run leaves flushed
// records intact.
type Writer struct {
	jsonlFile *os.File
	docFile   *os.File
	jsonl     *bufio.Writer
	doc       *bufio.Writer
	store     index.PreviewStore
}

func NewWriter(jsonlPath, docPath string, store index.PreviewStore) (*Writer, error) {
	jf, err := os.Create(jsonlPath)
	if err != nil {
		return nil, fmt.Errorf("create jsonl output: %w", err)
	}
	df, err := os.Create(docPath)
	if err != nil {
		jf.Close()
		return nil, fmt.Errorf("create document output: %w", err)
	}
	return &Writer{
		jsonlFile: jf,
		docFile:   df,
		jsonl:     bufio.NewWriter(jf),
		doc:       bufio.NewWriter(df),
		store:     store,
	}, nil
}

// Write emits one JSONL line and one document block for the record, in
// arrival order.
func (w *Writer) Write(rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %d: %w", rec.ID, err)
	}
	if _, err := w.jsonl.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write jsonl record %d: %w", rec.ID, err)
	}

	if err := w.writeBlock(rec); err != nil {
		return fmt.Errorf("write document block %d: %w", rec.ID, err)
	}
	return nil
}

func (w *Writer) writeBlock(rec Record) error {
	fmt.Fprintf(w.doc, "%s @ %s (id: %d)\n", rec.From.Display(), rec.DateUTC, rec.ID)

	if rec.ReplyTo != nil && rec.ReplyTo.MessageID > 0 {
		p, err := w.store.Get(rec.ReplyTo.MessageID)
		if err != nil {
			return fmt.Errorf("reply lookup %d: %w", rec.ReplyTo.MessageID, err)
		}
		if p == nil {
			fmt.Fprintln(w.doc, ReplyNotFound)
		} else {
			fmt.Fprintf(w.doc, "> %s: %s\n", p.Sender, p.Text)
		}
	}

	if rec.Text != "" {
		fmt.Fprintln(w.doc, rec.Text)
	}

	if rec.Media != nil {
		if rec.Media.LocalPath != nil {
			fmt.Fprintf(w.doc, "[media: %s %q -> %s]\n", rec.Media.Kind, rec.Media.FileName, *rec.Media.LocalPath)
		} else {
			fmt.Fprintf(w.doc, "[media: %s %q, metadata only]\n", rec.Media.Kind, rec.Media.FileName)
		}
	}

	fmt.Fprintln(w.doc, BlockSeparator)
	return w.doc.Flush()
}

// WriteError emits a _error JSONL entry for a message that failed
// mid-pipeline without aborting the run.
func (w *Writer) WriteError(msgID int64, cause error) error {
	entry := map[string]any{
		"_error": map[string]any{"id": msgID, "error": cause.Error()},
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = w.jsonl.Write(append(line, '\n'))
	return err
}

func (w *Writer) Close() error {
	if err := w.jsonl.Flush(); err != nil {
		return err
	}
	if err := w.doc.Flush(); err != nil {
		return err
	}
	if err := w.jsonlFile.Close(); err != nil {
		return err
	}
	return w.docFile.Close()
}
