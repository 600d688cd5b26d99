package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/zeusync/simstore/internal/config"
	"github.com/zeusync/simstore/internal/core/models"
	"github.com/zeusync/simstore/internal/core/observability/log"
)

var (
	ErrNoSnapshot        = errors.New("no snapshot stored")
	ErrChecksumMismatch  = errors.New("entity payload checksum mismatch")
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
)

// Record is one encoded entity inside a snapshot.
type Record struct {
	Category models.Category
	Kind     models.EntityKind
	GUID     uuid.UUID
	Payload  []byte
}

// Snapshot is the persisted world: the tick it was taken at and every entity.
type Snapshot struct {
	Tick     uint64
	SavedAt  time.Time
	Entities []Record
}

// Checksum is the stored integrity hash of a payload.
func Checksum(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}

// Store keeps the latest snapshot in a SQL database.
type Store struct {
	db      *sql.DB
	dialect dialect
	log     log.Log
}

// Open connects with the configured driver and applies migrations.
func Open(ctx context.Context, cfg config.StorageConfig, logger log.Log) (*Store, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := openDB(d, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", cfg.Driver, err)
	}

	if err := RunMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("snapshot store ready", log.String("driver", cfg.Driver))
	return &Store{db: db, dialect: d, log: logger}, nil
}

func openDB(d dialect, dsn string) (*sql.DB, error) {
	if d.driver == "pgx" {
		connCfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		return stdlib.OpenDB(*connCfg), nil
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d.driver, err)
	}
	return db, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveSnapshot replaces the stored world with snap in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) (err error) {
	started := time.Now()
	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = started
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM entities`); err != nil {
		return fmt.Errorf("clear entities: %w", err)
	}
	if _, err = tx.ExecContext(ctx, s.dialect.rebind(
		`INSERT INTO world_state (id, tick, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET tick = excluded.tick, saved_at = excluded.saved_at`),
		int64(snap.Tick), savedAt.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("store tick: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
		`INSERT INTO entities (seq, category, kind, guid, payload, checksum) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare entity insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range snap.Entities {
		if _, err = stmt.ExecContext(ctx,
			i, int(rec.Category), int(rec.Kind), rec.GUID.String(), rec.Payload, int64(Checksum(rec.Payload)),
		); err != nil {
			return fmt.Errorf("store entity %d (%s): %w", i, rec.GUID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	s.log.Debug("snapshot saved",
		log.Uint64("tick", snap.Tick),
		log.Int("entities", len(snap.Entities)),
		log.Duration("took", time.Since(started)),
	)
	return nil
}

// LoadSnapshot returns the stored world. Every payload is verified against
// its checksum.
func (s *Store) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	var tick, savedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT tick, saved_at FROM world_state WHERE id = 1`).Scan(&tick, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load tick: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, category, kind, guid, payload, checksum FROM entities ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	defer rows.Close()

	snap := &Snapshot{Tick: uint64(tick), SavedAt: time.UnixMilli(savedAt).UTC()}
	for rows.Next() {
		var (
			seq, category, kind int
			guid                string
			payload             []byte
			sum                 int64
		)
		if err := rows.Scan(&seq, &category, &kind, &guid, &payload, &sum); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		if Checksum(payload) != uint64(sum) {
			return nil, fmt.Errorf("entity %d: %w", seq, ErrChecksumMismatch)
		}
		id, err := uuid.Parse(guid)
		if err != nil {
			return nil, fmt.Errorf("entity %d guid: %w", seq, err)
		}
		snap.Entities = append(snap.Entities, Record{
			Category: models.Category(category),
			Kind:     models.EntityKind(kind),
			GUID:     id,
			Payload:  payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return snap, nil
}
