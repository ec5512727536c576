package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/ehsankolivand/telegramExtractor/internal/index"
	"github.com/ehsankolivand/telegramExtractor/internal/resolver"
	"github.com/ehsankolivand/telegramExtractor/internal/telegram"
)

const pageSize = 100

// Config holds the export run configuration, validated by the caller.
type Config struct {
	Link           string
	ForceTopicRoot int64 // 0 = detect from the link
	MaxMessages    int   // 0 = all
	DownloadMedia  bool
	OutputBaseDir  string
}

// Runner drives the sequential export pipeline: resolve, paginate, build,
// fetch media, index, write. One in-flight request at a time; records are
// emitted in exact fetch order.
type Runner struct {
	api    telegram.API
	cfg    Config
	logger *slog.Logger
}

func NewRunner(api telegram.API, cfg Config, logger *slog.Logger) *Runner {
	return &Runner{api: api, cfg: cfg, logger: logger}
}

// Run executes one export. Resolution failures are fatal and happen before
// any output is written; per-message failures are recorded and skipped.
func (r *Runner) Run(ctx context.Context) (*RunState, error) {
	topic, err := resolver.Resolve(ctx, r.api, r.cfg.Link, r.cfg.ForceTopicRoot, r.logger)
	if err != nil {
		return nil, fmt.Errorf("resolve target: %w", err)
	}

	outDir := filepath.Join(r.cfg.OutputBaseDir, outDirName(topic))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	r.logger.Info("export starting",
		"chat", topic.Chat.Slug,
		"topic", topic.RootID,
		"out", outDir,
	)

	state := NewRunState(filepath.Join(outDir, "run_state.json"), r.cfg.Link)
	state.ChatID = topic.Chat.ID
	state.TopicID = topic.RootID

	if err := WriteSchema(filepath.Join(outDir, "SCHEMA.md")); err != nil {
		return nil, err
	}

	store, err := index.Open(filepath.Join(outDir, "message_index.sqlite"))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	writer, err := NewWriter(
		filepath.Join(outDir, "messages.jsonl"),
		filepath.Join(outDir, "messages.md"),
		store,
	)
	if err != nil {
		return nil, err
	}
	defer writer.Close()

	var fetcher *MediaFetcher
	if r.cfg.DownloadMedia {
		fetcher = NewMediaFetcher(r.api, filepath.Join(outDir, "media"), r.logger)
	}

	// Topic root first, for context.
	if topic.RootID > 0 && !r.done(state) {
		root, err := r.api.GetMessage(ctx, topic.Chat.ID, topic.RootID)
		if err != nil {
			return nil, fmt.Errorf("fetch topic root %d: %w", topic.RootID, err)
		}
		rec := Build(root, topic.RootID)
		rec.IsTopicRoot = true
		if err := r.process(ctx, &rec, fetcher, store, writer, state); err != nil {
			_ = state.Save()
			return state, err
		}
	}

	offset := int64(0)
	for !r.done(state) {
		select {
		case <-ctx.Done():
			r.logger.Info("export interrupted, saving state")
			_ = state.Save()
			return state, ctx.Err()
		default:
		}

		msgs, err := r.api.History(ctx, topic.Chat.ID, topic.RootID, offset, pageSize)
		if err != nil {
			_ = state.Save()
			return state, fmt.Errorf("fetch history: %w", err)
		}
		if len(msgs) == 0 {
			break
		}
		offset = msgs[len(msgs)-1].ID

		for i := range msgs {
			if r.done(state) {
				break
			}
			msg := &msgs[i]
			if msg.ID == topic.RootID {
				continue // already exported first
			}

			rec := Build(msg, topic.RootID)
			if err := r.process(ctx, &rec, fetcher, store, writer, state); err != nil {
				r.logger.Error("message failed, skipping", "msg_id", msg.ID, "error", err)
				state.AddError(fmt.Sprintf("message %d: %v", msg.ID, err))
				_ = writer.WriteError(msg.ID, err)
			}
		}
	}

	if err := state.Save(); err != nil {
		return state, err
	}

	r.logger.Info("export complete",
		"exported", state.Exported,
		"media_saved", state.MediaSaved,
		"errors", len(state.Errors),
		"out", outDir,
	)
	return state, nil
}

// process runs one record through media fetch, index and output.
func (r *Runner) process(ctx context.Context, rec *Record, fetcher *MediaFetcher, store index.PreviewStore, writer *Writer, state *RunState) error {
	if fetcher != nil {
		fetcher.Fetch(ctx, rec)
		if rec.Media != nil && rec.Media.LocalPath != nil {
			state.MediaSaved++
		}
	}

	preview := index.Preview{
		Sender:  rec.From.Display(),
		DateUTC: rec.DateUTC,
		Text:    index.Truncate(rec.Text, index.PreviewLen),
	}
	if err := store.Put(rec.ID, preview); err != nil {
		return err
	}

	if err := writer.Write(*rec); err != nil {
		return err
	}

	state.Exported++
	if state.Exported%500 == 0 {
		r.logger.Info("export progress", "exported", state.Exported)
	}
	return nil
}

func (r *Runner) done(state *RunState) bool {
	return r.cfg.MaxMessages > 0 && state.Exported >= r.cfg.MaxMessages
}

var slugRE = regexp.MustCompile(`[^\w\-.]+`)

// outDirName builds the per-run output directory name, e.g.
// "gophers_topic_42" or "gophers_topic_ALL".
func outDirName(topic *resolver.Topic) string {
	slug := slugRE.ReplaceAllString(topic.Chat.Slug, "_")
	if len(slug) > 80 {
		slug = slug[:80]
	}
	if slug == "" {
		slug = "chat"
	}

	suffix := "ALL"
	if topic.RootID > 0 {
		suffix = strconv.FormatInt(topic.RootID, 10)
	}
	return slug + "_topic_" + suffix
}
