package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/Seg0r/MuShee-sub000/pkg/blobstore"
	"github.com/Seg0r/MuShee-sub000/pkg/config"
	"github.com/Seg0r/MuShee-sub000/pkg/database"
	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/Seg0r/MuShee-sub000/pkg/musicxml"
	"github.com/Seg0r/MuShee-sub000/pkg/songs"
	"github.com/Seg0r/MuShee-sub000/pkg/uploads"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	app := &cli.App{
		Name:  "catalog",
		Usage: "maintain the public song catalog",
		Commands: []*cli.Command{
			{
				Name:      "seed",
				Usage:     "add every MusicXML file in a directory as a public song",
				ArgsUsage: "<dir>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("seed takes exactly one directory", 1)
					}
					blobs, err := blobstore.New(c.Context, cfg)
					if err != nil {
						return err
					}
					orchestrator := uploads.NewOrchestrator(
						songs.NewService(db),
						blobs,
						nil,
						musicxml.NewExtractor(cfg.MetadataParseTimeout),
					)
					return seed(c, log, orchestrator, c.Args().First(), cfg.SeedConcurrency)
				},
			},
			{
				Name:  "orphans",
				Usage: "list stored documents that no song references",
				Action: func(c *cli.Context) error {
					blobs, err := blobstore.New(c.Context, cfg)
					if err != nil {
						return err
					}
					keys, err := blobs.List(c.Context)
					if err != nil {
						return err
					}
					fingerprints, err := songs.NewService(db).ListFingerprints(c.Context)
					if err != nil {
						return err
					}
					for _, key := range orphanedKeys(keys, fingerprints) {
						fmt.Println(key)
					}
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

func seed(c *cli.Context, log logger.Logger, orchestrator *uploads.Orchestrator, dir string, concurrency int) error {
	overrides, err := loadManifest(dir)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.WithStack(err)
	}

	var created, skipped, failed atomic.Int64

	g, ctx := errgroup.WithContext(c.Context)
	if concurrency < 1 {
		concurrency = 1
	}
	g.SetLimit(concurrency)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == manifestName || strings.HasPrefix(name, ".") {
			continue
		}
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return errors.WithStack(err)
			}
			result, err := orchestrator.Seed(ctx, name, data, overrides[name])
			if err != nil {
				// Bad files are reported and skipped. Storage and database
				// failures stop the run.
				if errcodes.Kind(err) != "" {
					log.Warn("skipping file", logger.Data{"file": name, "reason": err.Error()})
					failed.Add(1)
					return nil
				}
				return errors.Wrapf(err, "failed to seed %s", name)
			}
			if result.Created {
				created.Add(1)
				log.Info("seeded song", logger.Data{"file": name, "song_id": result.SongID})
			} else {
				skipped.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	log.Info("seed finished", logger.Data{
		"created":  created.Load(),
		"existing": skipped.Load(),
		"rejected": failed.Load(),
	})
	return err
}
