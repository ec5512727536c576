package split

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ehsankolivand/telegramExtractor/internal/export"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// block builds one message block of roughly size bytes with a valid header.
func block(id int64, size int) string {
	header := fmt.Sprintf("Alice @ 2024-05-01T10:00:00Z (id: %d)\n", id)
	sep := export.BlockSeparator + "\n"
	n := size - len(header) - len(sep) - 1
	if n < 1 {
		n = 1
	}
	body := strings.Repeat("x", n) + "\n"
	return header + body + sep
}

func writeDoc(t *testing.T, blocks ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "messages.md")
	if err := os.WriteFile(path, []byte(strings.Join(blocks, "")), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return path
}

func runSplit(t *testing.T, input string, maxBytes int64) (*Manifest, string) {
	t.Helper()
	outDir := t.TempDir()
	m, err := Run(Options{Input: input, OutDir: outDir, MaxBytes: maxBytes, Prefix: "part_"}, testLogger())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return m, outDir
}

func TestRun_GreedyPacking(t *testing.T) {
	// three 400KB blocks, 1MB cap: {1,2} fit, 3 spills into its own part
	kb400 := 400 * 1024
	input := writeDoc(t, block(1, kb400), block(2, kb400), block(3, kb400))

	m, outDir := runSplit(t, input, 1024*1024)

	if len(m.Parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(m.Parts))
	}
	if m.Parts[0].Bytes != int64(2*kb400) {
		t.Errorf("part 1 bytes = %d, want %d", m.Parts[0].Bytes, 2*kb400)
	}
	if m.Parts[0].FirstID != 1 || m.Parts[0].LastID != 2 {
		t.Errorf("part 1 ids = %d..%d, want 1..2", m.Parts[0].FirstID, m.Parts[0].LastID)
	}
	if m.Parts[1].FirstID != 3 || m.Parts[1].LastID != 3 {
		t.Errorf("part 2 ids = %d..%d, want 3..3", m.Parts[1].FirstID, m.Parts[1].LastID)
	}

	for _, p := range m.Parts {
		info, err := os.Stat(filepath.Join(outDir, p.Filename))
		if err != nil {
			t.Fatalf("part file missing: %v", err)
		}
		if info.Size() != p.Bytes {
			t.Errorf("%s: manifest bytes %d != file size %d", p.Filename, p.Bytes, info.Size())
		}
	}
}

func TestRun_OversizedBlockGetsOwnPart(t *testing.T) {
	twoMB := 2 * 1024 * 1024
	input := writeDoc(t, block(1, 1000), block(2, twoMB), block(3, 1000))

	m, _ := runSplit(t, input, 1024*1024)

	if len(m.Parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(m.Parts))
	}
	// the oversized block is alone and exceeds the nominal cap
	if m.Parts[1].Bytes != int64(twoMB) {
		t.Errorf("oversized part bytes = %d, want %d", m.Parts[1].Bytes, twoMB)
	}
	if m.Parts[1].FirstID != 2 || m.Parts[1].LastID != 2 {
		t.Errorf("oversized part ids = %d..%d, want 2..2", m.Parts[1].FirstID, m.Parts[1].LastID)
	}
}

func TestRun_SingleOversizedBlock(t *testing.T) {
	twoMB := 2 * 1024 * 1024
	input := writeDoc(t, block(1, twoMB))

	m, outDir := runSplit(t, input, 1024*1024)

	if len(m.Parts) != 1 {
		t.Fatalf("parts = %d, want 1", len(m.Parts))
	}
	if m.Parts[0].Bytes != int64(twoMB) {
		t.Errorf("bytes = %d, want %d", m.Parts[0].Bytes, twoMB)
	}
	if _, err := os.Stat(filepath.Join(outDir, "part_0001.md")); err != nil {
		t.Errorf("expected part_0001.md: %v", err)
	}
}

func TestRun_RoundTrip(t *testing.T) {
	blocks := []string{
		block(10, 300), block(11, 900), block(12, 150),
		block(13, 2000), block(14, 40), block(15, 777),
	}
	input := writeDoc(t, blocks...)
	original, _ := os.ReadFile(input)

	m, outDir := runSplit(t, input, 1000)

	var joined []byte
	for _, p := range m.Parts {
		data, err := os.ReadFile(filepath.Join(outDir, p.Filename))
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		joined = append(joined, data...)
	}

	if string(joined) != string(original) {
		t.Error("concatenated parts differ from the original document")
	}
}

func TestHeaderRange_IgnoresHeaderLikeBodyLines(t *testing.T) {
	// quoted or pasted text ending in the header pattern must not skew ids
	sep := export.BlockSeparator + "\n"
	chunk := "Alice @ 2024-05-01T10:00:00Z (id: 7)\n" +
		"> Bob: as I said (id: 999)\n" +
		sep +
		"Bob @ 2024-05-01T10:01:00Z (id: 8)\n" +
		"body (id: 1000)\n" +
		sep

	first, last := headerRange([]byte(chunk))
	if first != 7 || last != 8 {
		t.Errorf("header range = %d..%d, want 7..8", first, last)
	}
}

func TestRun_NoPartExceedsCapExceptOversized(t *testing.T) {
	var blocks []string
	for i := 1; i <= 30; i++ {
		blocks = append(blocks, block(int64(i), 100+i*37))
	}
	input := writeDoc(t, blocks...)

	max := int64(1500)
	m, _ := runSplit(t, input, max)

	for _, p := range m.Parts {
		if p.Bytes > max && p.FirstID != p.LastID {
			t.Errorf("%s exceeds cap (%d > %d) with multiple blocks", p.Filename, p.Bytes, max)
		}
	}
}

func TestRun_EmptyInput(t *testing.T) {
	input := writeDoc(t) // zero bytes

	m, outDir := runSplit(t, input, 1024)

	if len(m.Parts) != 0 {
		t.Errorf("parts = %d, want 0", len(m.Parts))
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "part_*.md"))
	if len(matches) != 0 {
		t.Errorf("expected no part files, found %v", matches)
	}

	// manifest still written, with an empty array
	data, err := os.ReadFile(filepath.Join(outDir, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(data), `"parts": []`) {
		t.Errorf("manifest parts should be an empty array:\n%s", data)
	}
}

func TestRun_ManifestMatchesFiles(t *testing.T) {
	input := writeDoc(t, block(1, 500), block(2, 500), block(3, 500))

	m, outDir := runSplit(t, input, 600)

	matches, err := filepath.Glob(filepath.Join(outDir, "part_*.md"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != len(m.Parts) {
		t.Errorf("manifest lists %d parts, directory has %d files", len(m.Parts), len(matches))
	}

	var fromDisk Manifest
	data, err := os.ReadFile(filepath.Join(outDir, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := json.Unmarshal(data, &fromDisk); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if len(fromDisk.Parts) != len(m.Parts) {
		t.Errorf("manifest.json parts = %d, want %d", len(fromDisk.Parts), len(m.Parts))
	}

	names := make([]string, 0, len(fromDisk.Parts))
	for _, p := range fromDisk.Parts {
		names = append(names, p.Filename)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("part filenames not in sequence order: %v", names)
	}
}

func TestRun_IndexFile(t *testing.T) {
	input := writeDoc(t, block(1, 500), block(2, 500))

	m, outDir := runSplit(t, input, 2000)

	data, err := os.ReadFile(filepath.Join(outDir, "INDEX.txt"))
	if err != nil {
		t.Fatalf("read INDEX.txt: %v", err)
	}
	idx := string(data)
	if !strings.Contains(idx, "Total parts: 1") {
		t.Errorf("INDEX.txt missing part count:\n%s", idx)
	}
	if !strings.Contains(idx, m.Parts[0].Filename) {
		t.Errorf("INDEX.txt missing filename:\n%s", idx)
	}
}

func TestRun_NonPositiveMaxRejected(t *testing.T) {
	input := writeDoc(t, block(1, 100))
	for _, max := range []int64{0, -5} {
		if _, err := Run(Options{Input: input, OutDir: t.TempDir(), MaxBytes: max}, testLogger()); err == nil {
			t.Errorf("expected config error for max=%d", max)
		}
	}
}

func TestRun_UnreadableInput(t *testing.T) {
	_, err := Run(Options{
		Input:    filepath.Join(t.TempDir(), "does-not-exist.md"),
		OutDir:   t.TempDir(),
		MaxBytes: 1024,
	}, testLogger())
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestScanBlocks_TrailingLinesWithoutSeparator(t *testing.T) {
	data := []byte("a\n" + export.BlockSeparator + "\ntrailing\nlines")
	blocks := scanBlocks(data)
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if string(blocks[1]) != "trailing\nlines" {
		t.Errorf("trailing block = %q", blocks[1])
	}
}

func TestScanBlocks_SeparatorInsideBodyIgnoredUnlessAlone(t *testing.T) {
	// a body line merely containing the separator text does not end a block
	data := []byte("x " + export.BlockSeparator + " y\nbody\n" + export.BlockSeparator + "\n")
	blocks := scanBlocks(data)
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(blocks))
	}
}
