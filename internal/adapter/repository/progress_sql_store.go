package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/eslsoft/yorlect/internal/entity"
	"github.com/eslsoft/yorlect/internal/infrastructure/database"
	"github.com/eslsoft/yorlect/internal/infrastructure/database/types"
	"github.com/eslsoft/yorlect/internal/repository"
)

const (
	progressTable     = "user_progress"
	defaultMaxRetries = 5
)

var progressColumns = []string{"username", "seq", "metadata", "assigned", "translations", "cursor_pos", "version"}

// SQLStore keeps one row per user and applies updates with an optimistic
// version check, so concurrent writers never overwrite each other.
type SQLStore struct {
	db         *sql.DB
	dialect    string
	maxRetries int
	clock      func() time.Time
}

var _ repository.ProgressStore = (*SQLStore)(nil)

// NewSQLStore wraps an open database. driver is "sqlite3" or "postgres".
func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	var d string
	switch driver {
	case "sqlite3":
		d = dialect.SQLite
	case "postgres":
		d = dialect.Postgres
	default:
		return nil, fmt.Errorf("unsupported SQL store driver %q", driver)
	}
	return &SQLStore{db: db, dialect: d, maxRetries: defaultMaxRetries, clock: time.Now}, nil
}

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

func (s *SQLStore) Load(ctx context.Context) (*entity.ProgressSnapshot, error) {
	query, args := s.builder().
		Select(progressColumns...).
		From(entsql.Table(progressTable)).
		OrderBy("seq").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var records []*entity.UserRecord
	for rows.Next() {
		rec, _, err := scanProgressRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entity.NewProgressSnapshot(records...), nil
}

func (s *SQLStore) Save(ctx context.Context, snapshot *entity.ProgressSnapshot) error {
	return database.WithTx(ctx, s.db, func(ctx context.Context, tx database.DBTX) error {
		query, args := s.builder().Delete(progressTable).Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		for _, rec := range snapshot.Records() {
			if err := s.insert(ctx, tx, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) Get(ctx context.Context, username string) (*entity.UserRecord, error) {
	rec, _, err := s.get(ctx, s.db, username)
	return rec, err
}

func (s *SQLStore) Update(ctx context.Context, username string, fn repository.UpdateFunc) (*entity.UserRecord, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, version, err := s.get(ctx, s.db, username)
		created := false
		switch {
		case errors.Is(err, entity.ErrUserNotFound):
			seq, err := s.nextSeq(ctx)
			if err != nil {
				return nil, err
			}
			rec = entity.NewUserRecord(username, seq)
			created = true
		case err != nil:
			return nil, err
		}

		if err := fn(rec); err != nil {
			if errors.Is(err, entity.ErrNoChange) {
				return rec, nil
			}
			return nil, err
		}
		rec.Username = username
		rec.Normalize()

		if created {
			if err := s.insert(ctx, s.db, rec); err != nil {
				// another writer created the row or took the seq; re-read
				lastErr = err
				continue
			}
			return rec, nil
		}

		ok, err := s.compareAndSwap(ctx, rec, version)
		if err != nil {
			return nil, err
		}
		if ok {
			return rec, nil
		}
		lastErr = nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrConcurrentUpdate, lastErr)
	}
	return nil, entity.ErrConcurrentUpdate
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) get(ctx context.Context, db database.DBTX, username string) (*entity.UserRecord, int64, error) {
	query, args := s.builder().
		Select(progressColumns...).
		From(entsql.Table(progressTable)).
		Where(entsql.EQ("username", username)).
		Query()

	rec, version, err := scanProgressRow(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, entity.ErrUserNotFound
		}
		return nil, 0, err
	}
	return rec, version, nil
}

func (s *SQLStore) nextSeq(ctx context.Context) (int, error) {
	query, args := s.builder().
		Select(entsql.Max("seq")).
		From(entsql.Table(progressTable)).
		Query()

	var maxSeq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&maxSeq); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	if !maxSeq.Valid {
		return 0, nil
	}
	return int(maxSeq.Int64) + 1, nil
}

func (s *SQLStore) insert(ctx context.Context, db database.DBTX, rec *entity.UserRecord) error {
	query, args := s.builder().
		Insert(progressTable).
		Columns("username", "seq", "metadata", "assigned", "translations", "cursor_pos", "version", "updated_at").
		Values(rec.Username, rec.Seq, types.Metadata(rec.Metadata), types.IndexList(rec.Assigned), types.Translations(rec.Translations), rec.Index, 1, s.clock().UTC()).
		Query()

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SQLStore) compareAndSwap(ctx context.Context, rec *entity.UserRecord, version int64) (bool, error) {
	query, args := s.builder().
		Update(progressTable).
		Set("metadata", types.Metadata(rec.Metadata)).
		Set("assigned", types.IndexList(rec.Assigned)).
		Set("translations", types.Translations(rec.Translations)).
		Set("cursor_pos", rec.Index).
		Set("version", version+1).
		Set("updated_at", s.clock().UTC()).
		Where(entsql.And(
			entsql.EQ("username", rec.Username),
			entsql.EQ("version", version),
		)).
		Query()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgressRow(row rowScanner) (*entity.UserRecord, int64, error) {
	var (
		rec          entity.UserRecord
		metadata     types.Metadata
		assigned     types.IndexList
		translations types.Translations
		version      int64
	)
	if err := row.Scan(&rec.Username, &rec.Seq, &metadata, &assigned, &translations, &rec.Index, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	rec.Metadata = entity.Metadata(metadata)
	rec.Assigned = []int(assigned)
	rec.Translations = map[string]entity.TranslationEntry(translations)
	rec.Normalize()
	return &rec, version, nil
}
