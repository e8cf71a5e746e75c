package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Seg0r/MuShee-sub000/pkg/contenthash"
	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/Seg0r/MuShee-sub000/pkg/musicxml"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// manifestName is the optional file in a seed directory that overrides the
// metadata of individual files, keyed by file name.
const manifestName = "seed.json"

// loadManifest reads dir's seed manifest. A missing manifest is not an error.
func loadManifest(dir string) (map[string]*musicxml.Metadata, error) {
	b, err := os.ReadFile(filepath.Join(dir, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]*musicxml.Metadata{}, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	overrides := map[string]*musicxml.Metadata{}
	if err := json.Unmarshal(b, &overrides); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", manifestName)
	}
	return overrides, nil
}

// orphanedKeys returns the stored song documents that don't belong to any of
// the given fingerprints, sorted. Keys that aren't named after a fingerprint
// are ignored.
func orphanedKeys(keys, fingerprints []string) []string {
	referenced := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		referenced[fp+models.SongFileExtension] = struct{}{}
	}

	var orphans []string
	for _, key := range keys {
		if _, ok := referenced[key]; ok {
			continue
		}
		fingerprint, ok := strings.CutSuffix(key, models.SongFileExtension)
		if !ok || !contenthash.Valid(fingerprint) {
			continue
		}
		orphans = append(orphans, key)
	}
	sort.Strings(orphans)
	return orphans
}
