// Command glbpack compresses a GLB file from the command line. It is a thin
// caller of the engine: it picks a level, renders progress events, and
// writes the result; it never inspects the document itself.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	glbpack "github.com/logicossoftware/go-glbpack"
)

func main() {
	var (
		inPath  string
		outPath string
		level   int
		codec   string
		quiet   bool
	)
	flag.StringVar(&inPath, "in", "", "input .glb file")
	flag.StringVar(&outPath, "out", "", "output .glb file")
	flag.IntVar(&level, "level", 50, "compression level, 10-100")
	flag.StringVar(&codec, "codec", "", "optional BIN supercompression: zstd, lz4, or brotli")
	flag.BoolVar(&quiet, "q", false, "suppress progress output")
	flag.Parse()
	if inPath == "" || outPath == "" {
		log.Fatal("-in and -out are required")
	}

	input, err := os.ReadFile(inPath)
	if err != nil {
		log.Fatalf("read: %v", err)
	}

	opts := []glbpack.CompressOption{}
	if !quiet {
		opts = append(opts, glbpack.WithProgress(func(stage glbpack.Stage, index, total int) {
			if total > 1 {
				log.Printf("%s (%d/%d)", stage, index, total)
			} else {
				log.Printf("%s", stage)
			}
		}))
	}
	if codec != "" {
		c, ok := glbpack.CodecByName(codec)
		if !ok {
			log.Fatalf("unknown codec %q", codec)
		}
		opts = append(opts, glbpack.WithBinCompression(c))
	}

	out, report, err := glbpack.Compress(input, level, opts...)
	if err != nil {
		log.Fatalf("compress: %v", err)
	}
	for _, w := range report.Warnings {
		log.Printf("warning: %s", w)
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		log.Fatalf("write: %v", err)
	}
	fmt.Printf("%s: %d -> %d bytes (%.1f%%)\n", outPath, report.InputSize, report.OutputSize,
		100*float64(report.OutputSize)/float64(report.InputSize))
}
