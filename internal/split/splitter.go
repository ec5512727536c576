// Package split partitions a generated document into size-bounded parts
// along message-block boundaries.
package split

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ehsankolivand/telegramExtractor/internal/export"
)

// Options configures one splitter run.
type Options struct {
	Input    string
	OutDir   string
	MaxBytes int64
	Prefix   string
}

// Part describes one produced file.
type Part struct {
	Filename string `json:"filename"`
	Bytes    int64  `json:"size_bytes"`
	FirstID  int64  `json:"first_id"`
	LastID   int64  `json:"last_id"`
}

// Manifest is the structured listing of all parts, written as manifest.json.
type Manifest struct {
	SourceFile string `json:"source_file"`
	OutputDir  string `json:"output_dir"`
	MaxBytes   int64  `json:"max_bytes"`
	Parts      []Part `json:"parts"`
}

// Run reads the document, groups its lines into message blocks on the
// writer's separator convention, and writes greedily accumulated parts.
// A single block larger than MaxBytes gets a part of its own; blocks are
// never split internally.
func Run(opts Options, logger *slog.Logger) (*Manifest, error) {
	if opts.MaxBytes <= 0 {
		return nil, fmt.Errorf("max part size must be positive, got %d", opts.MaxBytes)
	}
	if opts.Prefix == "" {
		opts.Prefix = "part_"
	}

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	blocks := scanBlocks(data)
	chunks := accumulate(blocks, opts.MaxBytes)

	manifest := &Manifest{
		SourceFile: opts.Input,
		OutputDir:  opts.OutDir,
		MaxBytes:   opts.MaxBytes,
		Parts:      []Part{},
	}

	for i, chunk := range chunks {
		name := fmt.Sprintf("%s%04d.md", opts.Prefix, i+1)
		if err := os.WriteFile(filepath.Join(opts.OutDir, name), chunk, 0o644); err != nil {
			return nil, fmt.Errorf("write part %s: %w", name, err)
		}

		first, last := headerRange(chunk)
		manifest.Parts = append(manifest.Parts, Part{
			Filename: name,
			Bytes:    int64(len(chunk)),
			FirstID:  first,
			LastID:   last,
		})
		logger.Debug("part written", "file", name, "bytes", len(chunk))
	}

	if err := writeIndex(manifest); err != nil {
		return nil, err
	}
	if err := writeManifest(manifest); err != nil {
		return nil, err
	}

	logger.Info("split complete", "parts", len(manifest.Parts), "out", opts.OutDir)
	return manifest, nil
}

// scanBlocks groups the document's lines into message blocks. A block runs
// up to and including a separator line; trailing lines with no separator
// form a final block, so concatenating all blocks reproduces the input.
func scanBlocks(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}

	sep := []byte(export.BlockSeparator)
	var blocks [][]byte
	start := 0
	lineStart := 0

	for lineStart < len(data) {
		lineEnd := bytes.IndexByte(data[lineStart:], '\n')
		var next int
		var line []byte
		if lineEnd < 0 {
			line = data[lineStart:]
			next = len(data)
		} else {
			line = data[lineStart : lineStart+lineEnd]
			next = lineStart + lineEnd + 1
		}

		if bytes.Equal(line, sep) {
			blocks = append(blocks, data[start:next])
			start = next
		}
		lineStart = next
	}

	if start < len(data) {
		blocks = append(blocks, data[start:])
	}
	return blocks
}

// accumulate packs whole blocks into parts of at most maxBytes. The only
// permitted excess is a single block that alone exceeds the limit.
func accumulate(blocks [][]byte, maxBytes int64) [][]byte {
	var parts [][]byte
	var cur []byte

	for _, block := range blocks {
		if len(cur) > 0 && int64(len(cur)+len(block)) > maxBytes {
			parts = append(parts, cur)
			cur = nil
		}
		cur = append(cur, block...)
	}
	if len(cur) > 0 {
		parts = append(parts, cur)
	}
	return parts
}

// headerRange finds the first and last message ids in a part. Only block
// header lines count: the part's first line and the line following each
// separator. Body lines that happen to end in the header pattern are
// ignored. Zero means no header was found.
func headerRange(chunk []byte) (first, last int64) {
	header := true
	for _, line := range strings.Split(string(chunk), "\n") {
		if header {
			if id, ok := export.HeaderID(line); ok {
				if first == 0 {
					first = id
				}
				last = id
			}
			header = false
		}
		if line == export.BlockSeparator {
			header = true
		}
	}
	return first, last
}

func writeIndex(m *Manifest) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Source: %s\n", filepath.Base(m.SourceFile))
	fmt.Fprintf(&sb, "Total parts: %d\n", len(m.Parts))
	fmt.Fprintf(&sb, "Max per part: %d bytes\n\n", m.MaxBytes)
	for _, p := range m.Parts {
		fmt.Fprintf(&sb, "- %s  (%d bytes, ids %d..%d)\n", p.Filename, p.Bytes, p.FirstID, p.LastID)
	}

	path := filepath.Join(m.OutputDir, "INDEX.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write INDEX.txt: %w", err)
	}
	return nil
}

func writeManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(m.OutputDir, "manifest.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest.json: %w", err)
	}
	return nil
}
