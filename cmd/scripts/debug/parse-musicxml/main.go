package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Seg0r/MuShee-sub000/pkg/contenthash"
	"github.com/Seg0r/MuShee-sub000/pkg/musicxml"
	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
)

func main() {
	log := logger.New()

	var opts struct {
		Timeout    time.Duration `short:"t" long:"timeout" default:"5s" description:"How long metadata extraction may take"`
		DumpOutput string        `short:"o" long:"dump-output" description:"A path to write the extracted XML document to"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/parse-musicxml <path/to/score.musicxml|score.mxl>")
		os.Exit(1)
	}

	f, err := os.Open(args[0])
	if err != nil {
		log.Err(err).Fatal("open file error")
	}
	defer f.Close()

	var buf bytes.Buffer
	fileHash, err := contenthash.SumReader(io.TeeReader(f, &buf))
	if err != nil {
		log.Err(err).Fatal("read file error")
	}
	data := buf.Bytes()
	fmt.Printf("File Hash: %s\n", fileHash)

	doc, err := musicxml.ExtractXML(data)
	if err != nil {
		log.Err(err).Fatal("extract error")
	}
	fmt.Printf("Compressed: %v\nDocument Size: %d\nFingerprint: %s\n", musicxml.IsContainer(data), len(doc), contenthash.Sum([]byte(doc)))

	if opts.DumpOutput != "" {
		if err := os.WriteFile(opts.DumpOutput, []byte(doc), 0600); err != nil {
			log.Err(err).Fatal("file write error")
		}
	}

	pre, err := musicxml.Precheck(doc)
	if err != nil {
		log.Err(err).Fatal("precheck error")
	}
	fmt.Printf("Root Element: %s\nHas Metadata Markers: %v\n", pre.RootElement, pre.HasMetadata)

	md, err := musicxml.NewExtractor(opts.Timeout).Extract(context.Background(), doc)
	if err != nil {
		log.Err(err).Fatal("metadata error")
	}
	subtitle := ""
	if md.Subtitle != nil {
		subtitle = *md.Subtitle
	}
	fmt.Printf("Title: %s\nComposer: %s\nSubtitle: %s\n", md.Title, md.Composer, subtitle)
}
