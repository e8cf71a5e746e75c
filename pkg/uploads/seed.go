package uploads

import (
	"context"

	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/Seg0r/MuShee-sub000/pkg/musicxml"
	"github.com/Seg0r/MuShee-sub000/pkg/songs"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// SeedResult reports what seeding a single file did.
type SeedResult struct {
	SongID      string
	Fingerprint string
	Created     bool
}

// Seed adds a public song to the catalog without an uploader or any library
// membership. Fields set in override replace the extracted metadata. Files
// whose document is already cataloged are left untouched.
func (o *Orchestrator) Seed(ctx context.Context, filename string, data []byte, override *musicxml.Metadata) (*SeedResult, error) {
	if _, err := checkExtension(filename); err != nil {
		return nil, err
	}
	if err := checkSize(int64(len(data))); err != nil {
		return nil, err
	}

	p, err := o.prepare(ctx, data)
	if err != nil {
		return nil, err
	}
	md := applyOverride(p.metadata, override)

	rec, err := o.catalog.Reconcile(ctx, p.fingerprint, 0)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if rec.Song != nil {
		return &SeedResult{SongID: rec.Song.ID, Fingerprint: p.fingerprint}, nil
	}

	key := p.fingerprint + models.SongFileExtension
	if err := o.blobs.Put(ctx, key, []byte(p.document)); err != nil {
		return nil, errors.Wrapf(err, "failed to store %s", key)
	}

	song := &models.Song{
		Title:       md.Title,
		Composer:    md.Composer,
		Subtitle:    md.Subtitle,
		Fingerprint: p.fingerprint,
	}
	err = o.catalog.CreateSong(ctx, song)
	if errors.Is(err, songs.ErrFingerprintExists) {
		rec, err := o.catalog.Reconcile(ctx, p.fingerprint, 0)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		result := &SeedResult{Fingerprint: p.fingerprint}
		if rec.Song != nil {
			result.SongID = rec.Song.ID
		}
		return result, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("song creation failed, stored document is orphaned", logger.Data{"blob_key": key})
		return nil, errors.WithStack(err)
	}

	return &SeedResult{SongID: song.ID, Fingerprint: p.fingerprint, Created: true}, nil
}

func applyOverride(md, override *musicxml.Metadata) *musicxml.Metadata {
	if override == nil {
		return md
	}
	merged := *md
	if title := musicxml.Sanitize(override.Title); title != "" {
		merged.Title = title
	}
	if composer := musicxml.Sanitize(override.Composer); composer != "" {
		merged.Composer = composer
	}
	if override.Subtitle != nil {
		if subtitle := musicxml.Sanitize(*override.Subtitle); subtitle != "" {
			merged.Subtitle = &subtitle
		}
	}
	return &merged
}
