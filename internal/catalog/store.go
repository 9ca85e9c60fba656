// Package catalog persists shows and their track listings.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"airwaves/internal/services"
	"airwaves/internal/sqlstore"
)

const (
	dateLayout   = "2006-01-02"
	DefaultLimit = 20
	MaxLimit     = 100
)

const showColumns = "id, external_id, title, date, playlist_url, archive_url, audio_format, audio_path, raw_audio_path, raw_audio_format, processed, processing_state, downloaded_at, converted_at, created_at, updated_at"

// ErrDuplicatePlaylist is returned when a show with the same playlist URL exists.
var ErrDuplicatePlaylist = errors.New("playlist url already stored")

// Store reads and writes shows.
type Store struct {
	db  *sqlstore.DB
	now func() time.Time
}

// New creates a catalog store over an open database.
func New(db *sqlstore.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// FindByPlaylistURL returns the show stored for url, or nil.
func (s *Store) FindByPlaylistURL(ctx context.Context, url string) (*Show, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE playlist_url = ?`, url)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find show by playlist url: %w", err)
	}
	return show, nil
}

// GetByID returns the show with id, or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Show, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
	show, err := scanShow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get show: %w", err)
	}
	return show, nil
}

// Get returns the show with its tracks, or an ErrNotFound error.
func (s *Store) Get(ctx context.Context, id string) (*Show, error) {
	show, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if show == nil {
		return nil, services.Public(services.ErrNotFound, fmt.Sprintf("Show with ID %s not found", id))
	}
	tracks, err := s.Tracks(ctx, id)
	if err != nil {
		return nil, err
	}
	show.Tracks = tracks
	return show, nil
}

// Create inserts a show and its tracks in one transaction.
func (s *Store) Create(ctx context.Context, in NewShow) (*Show, error) {
	if strings.TrimSpace(in.PlaylistURL) == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "create", "playlist url required", nil)
	}
	if in.Date.IsZero() {
		return nil, services.Wrap(services.ErrValidation, "catalog", "create", "show date required", nil)
	}
	id := uuid.NewString()
	now := sqlstore.FormatTime(s.now())

	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shows (id, external_id, title, date, playlist_url, archive_url, audio_format, processed, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			id,
			sqlstore.NullableString(in.ExternalID),
			sqlstore.NullableString(in.Title),
			in.Date.Format(dateLayout),
			in.PlaylistURL,
			sqlstore.NullableString(in.ArchiveURL),
			sqlstore.NullableString(in.AudioFormat),
			now,
			now,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrDuplicatePlaylist, in.PlaylistURL)
			}
			return err
		}
		for _, track := range in.Tracks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tracks (id, show_id, position, artist, title, album, label, year, comments, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(),
				id,
				track.Position,
				track.Artist,
				track.Title,
				sqlstore.NullableString(track.Album),
				sqlstore.NullableString(track.Label),
				nullableInt(track.Year),
				sqlstore.NullableString(track.Comments),
				now,
			); err != nil {
				return fmt.Errorf("insert track %d: %w", track.Position, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create show: %w", err)
	}
	return s.GetByID(ctx, id)
}

// ApplyPatch writes the non-nil fields of patch. An empty patch is a no-op.
func (s *Store) ApplyPatch(ctx context.Context, id string, patch Patch) error {
	if patch.Empty() {
		return nil
	}
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, sqlstore.NullableString(*patch.Title))
	}
	if patch.ArchiveURL != nil {
		sets = append(sets, "archive_url = ?")
		args = append(args, sqlstore.NullableString(*patch.ArchiveURL))
	}
	if patch.AudioFormat != nil {
		sets = append(sets, "audio_format = ?")
		args = append(args, sqlstore.NullableString(*patch.AudioFormat))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, sqlstore.FormatTime(s.now()), id)

	return s.update(ctx, "patch show", `UPDATE shows SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
}

// MarkDownloaded records a raw artifact and moves the show to downloaded.
func (s *Store) MarkDownloaded(ctx context.Context, id string, d Downloaded) error {
	return s.update(ctx, "mark downloaded",
		`UPDATE shows SET raw_audio_path = ?, raw_audio_format = ?, downloaded_at = ?, processing_state = ?, updated_at = ? WHERE id = ?`,
		d.RawAudioPath,
		d.RawAudioFormat,
		sqlstore.FormatTime(d.At),
		string(StateDownloaded),
		sqlstore.FormatTime(s.now()),
		id,
	)
}

// MarkConverted records the canonical artifact and marks the show processed.
func (s *Store) MarkConverted(ctx context.Context, id string, c Converted) error {
	return s.update(ctx, "mark converted",
		`UPDATE shows SET audio_path = ?, audio_format = ?, processed = 1, processing_state = ?, converted_at = ?, updated_at = ? WHERE id = ?`,
		c.AudioPath,
		c.AudioFormat,
		string(StateConverted),
		sqlstore.FormatTime(c.At),
		sqlstore.FormatTime(s.now()),
		id,
	)
}

func (s *Store) update(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "catalog", op, "show not found", nil)
	}
	return nil
}

// Tracks returns the tracks of a show ordered by position.
func (s *Store) Tracks(ctx context.Context, showID string) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, show_id, position, artist, title, album, label, year, comments
         FROM tracks WHERE show_id = ? ORDER BY position ASC`, showID)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var (
			t        Track
			album    sql.NullString
			label    sql.NullString
			year     sql.NullInt64
			comments sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.ShowID, &t.Position, &t.Artist, &t.Title, &album, &label, &year, &comments); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		t.Album = album.String
		t.Label = label.String
		t.Comments = comments.String
		if year.Valid {
			y := int(year.Int64)
			t.Year = &y
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// List returns one page of shows ordered by date, newest first.
func (s *Store) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM shows`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count shows: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+showColumns+` FROM shows ORDER BY date DESC, created_at DESC LIMIT ? OFFSET ?`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	defer rows.Close()

	shows := make([]Show, 0, limit)
	for rows.Next() {
		show, err := scanShow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan show: %w", err)
		}
		shows = append(shows, *show)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &Page{
		Shows:      shows,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func scanShow(scanner interface{ Scan(dest ...any) error }) (*Show, error) {
	var (
		show           Show
		externalID     sql.NullString
		title          sql.NullString
		dateRaw        string
		archiveURL     sql.NullString
		audioFormat    sql.NullString
		audioPath      sql.NullString
		rawAudioPath   sql.NullString
		rawAudioFormat sql.NullString
		processed      int
		state          sql.NullString
		downloadedRaw  sql.NullString
		convertedRaw   sql.NullString
		createdRaw     string
		updatedRaw     string
	)
	if err := scanner.Scan(
		&show.ID,
		&externalID,
		&title,
		&dateRaw,
		&show.PlaylistURL,
		&archiveURL,
		&audioFormat,
		&audioPath,
		&rawAudioPath,
		&rawAudioFormat,
		&processed,
		&state,
		&downloadedRaw,
		&convertedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	show.ExternalID = externalID.String
	show.Title = title.String
	show.ArchiveURL = archiveURL.String
	show.AudioFormat = audioFormat.String
	show.AudioPath = audioPath.String
	show.RawAudioPath = rawAudioPath.String
	show.RawAudioFormat = rawAudioFormat.String
	show.Processed = processed != 0
	show.ProcessingState = ProcessingState(state.String)
	if date, err := time.Parse(dateLayout, dateRaw); err == nil {
		show.Date = date
	}
	show.DownloadedAt = sqlstore.ParseTimePtr(downloadedRaw.String)
	show.ConvertedAt = sqlstore.ParseTimePtr(convertedRaw.String)
	if created, err := sqlstore.ParseTime(createdRaw); err == nil {
		show.CreatedAt = created
	}
	if updated, err := sqlstore.ParseTime(updatedRaw); err == nil {
		show.UpdatedAt = updated
	}
	return &show, nil
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
