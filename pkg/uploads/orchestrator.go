package uploads

import (
	"context"
	"time"

	"github.com/Seg0r/MuShee-sub000/pkg/contenthash"
	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/Seg0r/MuShee-sub000/pkg/musicxml"
	"github.com/Seg0r/MuShee-sub000/pkg/songs"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// RawUpload is a file as it was received, before any checks.
type RawUpload struct {
	Data        []byte
	Filename    string
	Size        int64
	ContentType string
}

// Result describes the library entry an upload produced. WasAlreadyKnown is
// true when the song was already in the catalog and has only been added to
// the user's library.
type Result struct {
	SongID          string             `json:"song_id"`
	Metadata        *musicxml.Metadata `json:"metadata"`
	Fingerprint     string             `json:"fingerprint"`
	CreatedAt       time.Time          `json:"created_at"`
	LibraryJoinedAt time.Time          `json:"library_joined_at"`
	WasAlreadyKnown bool               `json:"was_already_known"`
}

// Catalog is the song persistence the orchestrator needs.
type Catalog interface {
	Reconcile(ctx context.Context, fingerprint string, userID int) (*songs.Reconciliation, error)
	CreateSong(ctx context.Context, song *models.Song) error
	AddToLibrary(ctx context.Context, userID int, songID string) (*models.UserSong, error)
}

// BlobWriter stores song documents. Put must succeed when the key already
// exists.
type BlobWriter interface {
	Put(ctx context.Context, key string, data []byte) error
}

// ActorResolver identifies the user an upload is made on behalf of.
type ActorResolver interface {
	ActorID(ctx context.Context) (int, bool)
}

type MetadataExtractor interface {
	Extract(ctx context.Context, doc string) (*musicxml.Metadata, error)
}

type Orchestrator struct {
	catalog   Catalog
	blobs     BlobWriter
	actors    ActorResolver
	extractor MetadataExtractor
}

func NewOrchestrator(catalog Catalog, blobs BlobWriter, actors ActorResolver, extractor MetadataExtractor) *Orchestrator {
	return &Orchestrator{
		catalog:   catalog,
		blobs:     blobs,
		actors:    actors,
		extractor: extractor,
	}
}

// prepared is an upload's document with everything derived from it.
type prepared struct {
	document    string
	fingerprint string
	metadata    *musicxml.Metadata
}

// prepare extracts the MusicXML document, fingerprints it, and parses its
// metadata. The fingerprint covers the extracted document so a score hashes
// the same whether it arrived compressed or not.
func (o *Orchestrator) prepare(ctx context.Context, data []byte) (*prepared, error) {
	if int64(len(data)) > MaxUploadSize {
		return nil, errcodes.FileTooLarge(MaxUploadSize)
	}

	doc, err := musicxml.ExtractXML(data)
	if err != nil {
		return nil, err
	}
	fingerprint := contenthash.Sum([]byte(doc))

	if _, err := musicxml.Precheck(doc); err != nil {
		return nil, err
	}

	md, err := o.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	return &prepared{document: doc, fingerprint: fingerprint, metadata: md}, nil
}

// Upload adds the uploaded song to the current user's library, creating the
// catalog entry and storing the document if nobody has uploaded it before.
// Uploading a song the user already has fails with a conflict.
func (o *Orchestrator) Upload(ctx context.Context, upload *RawUpload) (*Result, error) {
	log := logger.FromContext(ctx)

	actorID, ok := o.actors.ActorID(ctx)
	if !ok {
		return nil, errcodes.Unauthenticated("You need to be signed in to upload songs.")
	}

	if err := Validate(upload.Filename, upload.Size, upload.ContentType); err != nil {
		return nil, err
	}

	p, err := o.prepare(ctx, upload.Data)
	if err != nil {
		return nil, err
	}

	rec, err := o.catalog.Reconcile(ctx, p.fingerprint, actorID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if rec.Song != nil {
		return o.attachExisting(ctx, actorID, rec)
	}

	key := p.fingerprint + models.SongFileExtension
	if err := o.blobs.Put(ctx, key, []byte(p.document)); err != nil {
		return nil, errors.Wrapf(err, "failed to store %s", key)
	}

	song := &models.Song{
		Title:       p.metadata.Title,
		Composer:    p.metadata.Composer,
		Subtitle:    p.metadata.Subtitle,
		Fingerprint: p.fingerprint,
		UploaderID:  &actorID,
	}
	err = o.catalog.CreateSong(ctx, song)
	if errors.Is(err, songs.ErrFingerprintExists) {
		// Someone else created the entry since we reconciled.
		log.Info("song created concurrently, attaching existing", logger.Data{"fingerprint": p.fingerprint, "user_id": actorID})
		rec, err := o.catalog.Reconcile(ctx, p.fingerprint, actorID)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if rec.Song == nil {
			return nil, errors.Errorf("song with fingerprint %s vanished after a unique violation", p.fingerprint)
		}
		return o.attachExisting(ctx, actorID, rec)
	}
	if err != nil {
		log.Err(err).Warn("song creation failed, stored document is orphaned", logger.Data{"blob_key": key, "user_id": actorID})
		return nil, errors.WithStack(err)
	}

	membership, err := o.catalog.AddToLibrary(ctx, actorID, song.ID)
	if err != nil {
		if errcodes.Kind(err) == "" {
			log.Err(err).Warn("library write failed after song creation", logger.Data{"blob_key": key, "song_id": song.ID, "user_id": actorID})
		}
		return nil, errors.WithStack(err)
	}

	log.Info("song created", logger.Data{"song_id": song.ID, "fingerprint": song.Fingerprint, "user_id": actorID})

	return &Result{
		SongID:          song.ID,
		Metadata:        p.metadata,
		Fingerprint:     song.Fingerprint,
		CreatedAt:       song.CreatedAt,
		LibraryJoinedAt: membership.CreatedAt,
		WasAlreadyKnown: false,
	}, nil
}

func (o *Orchestrator) attachExisting(ctx context.Context, actorID int, rec *songs.Reconciliation) (*Result, error) {
	log := logger.FromContext(ctx)
	song := rec.Song

	if rec.AlreadyOwned {
		log.Info("song already in library", logger.Data{"song_id": song.ID, "user_id": actorID})
		return nil, errcodes.Conflict("This song is already in your library.")
	}

	membership, err := o.catalog.AddToLibrary(ctx, actorID, song.ID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	log.Info("existing song attached", logger.Data{"song_id": song.ID, "user_id": actorID})

	return &Result{
		SongID: song.ID,
		Metadata: &musicxml.Metadata{
			Title:    song.Title,
			Composer: song.Composer,
			Subtitle: song.Subtitle,
		},
		Fingerprint:     song.Fingerprint,
		CreatedAt:       song.CreatedAt,
		LibraryJoinedAt: membership.CreatedAt,
		WasAlreadyKnown: true,
	}, nil
}
