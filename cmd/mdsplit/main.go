package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ehsankolivand/telegramExtractor/internal/split"
)

func main() {
	var (
		outDir = flag.String("out", "./md_parts", "output directory")
		maxMB  = flag.Float64("max-mb", 1.0, "max size per part in MB")
		prefix = flag.String("prefix", "part_", "output filename prefix")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <messages.md>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	manifest, err := split.Run(split.Options{
		Input:    flag.Arg(0),
		OutDir:   *outDir,
		MaxBytes: int64(*maxMB * 1024 * 1024),
		Prefix:   *prefix,
	}, logger)
	if err != nil {
		logger.Error("split failed", "error", err)
		os.Exit(1)
	}

	var total int64
	for _, p := range manifest.Parts {
		total += p.Bytes
	}
	fmt.Printf("Parts: %d (total %d bytes)\n", len(manifest.Parts), total)
	fmt.Printf("Output: %s\n", *outDir)
	fmt.Println("Files: INDEX.txt, manifest.json")
}
