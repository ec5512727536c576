package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ehsankolivand/telegramExtractor/internal/telegram"
	"github.com/google/uuid"
)

// MediaFetcher downloads attachment content into the media directory.
// Failures are soft: the record keeps its metadata and gains no local path.
type MediaFetcher struct {
	api    telegram.API
	dir    string
	made   bool
	logger *slog.Logger
}

func NewMediaFetcher(api telegram.API, dir string, logger *slog.Logger) *MediaFetcher {
	return &MediaFetcher{api: api, dir: dir, logger: logger}
}

// Fetch downloads the record's attachment to <dir>/<msg_id>_<filename> and
// sets Media.LocalPath on success. Records without media are a no-op.
func (f *MediaFetcher) Fetch(ctx context.Context, rec *Record) {
	if rec.Media == nil {
		return
	}

	if !f.made {
		if err := os.MkdirAll(f.dir, 0o755); err != nil {
			f.logger.Warn("media dir unavailable, keeping metadata only", "dir", f.dir, "error", err)
			return
		}
		f.made = true
	}

	name := rec.Media.FileName
	if name == "" {
		name = uuid.NewString() + mediaExt(rec.Media.MimeType)
	}
	path := filepath.Join(f.dir, fmt.Sprintf("%d_%s", rec.ID, name))

	if err := f.download(ctx, rec.Media.FileID(), path); err != nil {
		f.logger.Warn("media download failed, keeping metadata only",
			"msg_id", rec.ID,
			"file", rec.Media.FileName,
			"error", err,
		)
		return
	}

	rec.Media.LocalPath = &path
}

func (f *MediaFetcher) download(ctx context.Context, fileID, path string) error {
	rc, err := f.api.Download(ctx, fileID)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("save media: %w", err)
	}
	return out.Close()
}

func mediaExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
