package songs

import (
	"context"
	"database/sql"
	"time"

	"github.com/Seg0r/MuShee-sub000/pkg/database"
	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/Seg0r/MuShee-sub000/pkg/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// ErrFingerprintExists is returned by CreateSong when another catalog entry
// already holds the fingerprint.
var ErrFingerprintExists = errors.New("a song with this fingerprint already exists")

type RetrieveSongOptions struct {
	ID          *string
	Fingerprint *string
}

type ListLibraryOptions struct {
	UserID int
	Limit  *int
	Offset *int
	Search *string
}

// Reconciliation is what the catalog knows about a fingerprint from one
// user's point of view. Song is nil when the fingerprint is new.
type Reconciliation struct {
	Song         *models.Song
	AlreadyOwned bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

type songWithMembership struct {
	models.Song `bun:",extend"`

	IsMember bool `bun:"is_member"`
}

// Reconcile looks up the song holding fingerprint and whether userID already
// has it in their library, in a single query.
func (svc *Service) Reconcile(ctx context.Context, fingerprint string, userID int) (*Reconciliation, error) {
	row := &songWithMembership{}
	err := svc.db.
		NewSelect().
		Model(row).
		ColumnExpr("s.*").
		ColumnExpr("us.user_id IS NOT NULL AS is_member").
		Join("LEFT JOIN user_songs AS us ON us.song_id = s.id AND us.user_id = ?", userID).
		Where("s.fingerprint = ?", fingerprint).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Reconciliation{}, nil
		}
		return nil, errors.WithStack(err)
	}

	song := row.Song
	return &Reconciliation{Song: &song, AlreadyOwned: row.IsMember}, nil
}

// CreateSong inserts a new catalog entry. It returns ErrFingerprintExists when
// the fingerprint is already taken.
func (svc *Service) CreateSong(ctx context.Context, song *models.Song) error {
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now()
	}
	if song.ID == "" {
		id, err := uuid.NewRandom()
		if err != nil {
			return errors.WithStack(err)
		}
		song.ID = id.String()
	}

	_, err := svc.db.
		NewInsert().
		Model(song).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return errors.WithStack(ErrFingerprintExists)
		}
		return errors.WithStack(err)
	}
	return nil
}

// AddToLibrary links the song to the user. A second link for the same pair is
// a conflict.
func (svc *Service) AddToLibrary(ctx context.Context, userID int, songID string) (*models.UserSong, error) {
	membership := &models.UserSong{
		UserID:    userID,
		SongID:    songID,
		CreatedAt: time.Now(),
	}
	_, err := svc.db.
		NewInsert().
		Model(membership).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errcodes.Conflict("This song is already in your library.")
		}
		return nil, errors.WithStack(err)
	}
	return membership, nil
}

func (svc *Service) MembershipExists(ctx context.Context, userID int, songID string) (bool, error) {
	exists, err := svc.db.
		NewSelect().
		Model((*models.UserSong)(nil)).
		Where("us.user_id = ?", userID).
		Where("us.song_id = ?", songID).
		Exists(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return exists, nil
}

func (svc *Service) RetrieveSong(ctx context.Context, opts RetrieveSongOptions) (*models.Song, error) {
	song := &models.Song{}

	q := svc.db.
		NewSelect().
		Model(song)

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}
	if opts.Fingerprint != nil {
		q = q.Where("s.fingerprint = ?", *opts.Fingerprint)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Song")
		}
		return nil, errors.WithStack(err)
	}

	return song, nil
}

// ListLibrary returns the user's library, most recently added first, along
// with the total number of matching entries.
func (svc *Service) ListLibrary(ctx context.Context, opts ListLibraryOptions) ([]*models.UserSong, int, error) {
	memberships := []*models.UserSong{}

	q := svc.db.
		NewSelect().
		Model(&memberships).
		Relation("Song").
		Where("us.user_id = ?", opts.UserID).
		Order("us.created_at DESC", "us.song_id ASC")

	if opts.Search != nil && *opts.Search != "" {
		pattern := "%" + *opts.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("song.title LIKE ?", pattern).
				WhereOr("song.composer LIKE ?", pattern)
		})
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return memberships, total, nil
}

// RemoveFromLibrary unlinks the song from the user. The catalog entry and its
// stored document are left alone.
func (svc *Service) RemoveFromLibrary(ctx context.Context, userID int, songID string) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.UserSong)(nil)).
		Where("user_id = ?", userID).
		Where("song_id = ?", songID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return errcodes.NotFound("Song")
	}
	return nil
}

// ListFingerprints returns the fingerprint of every catalog entry.
func (svc *Service) ListFingerprints(ctx context.Context) ([]string, error) {
	var fingerprints []string
	err := svc.db.
		NewSelect().
		Model((*models.Song)(nil)).
		Column("fingerprint").
		Order("fingerprint ASC").
		Scan(ctx, &fingerprints)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return fingerprints, nil
}
