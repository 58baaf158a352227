package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rdelaney/powerplay/internal/model"
)

const dateLayout = "2006-01-02"

// ErrNoDraws indicates the draws table is empty.
var ErrNoDraws = errors.New("no draws stored")

// DrawRepository handles database operations for draw records.
type DrawRepository interface {
	// Insert stores a draw record. A record whose draw date already exists
	// is ignored so re-imports stay idempotent.
	Insert(ctx context.Context, rec model.DrawRecord) error

	// InsertBatch stores many records, skipping duplicates by date.
	// Returns the number of newly inserted rows.
	InsertBatch(ctx context.Context, records []model.DrawRecord) (int, error)

	// GetAll returns every stored draw ordered by ascending draw date.
	GetAll(ctx context.Context) ([]model.DrawRecord, error)

	// GetLatest returns the most recent draw, or ErrNoDraws.
	GetLatest(ctx context.Context) (model.DrawRecord, error)

	// Count returns the number of stored draws.
	Count(ctx context.Context) (int, error)
}

type drawRepository struct {
	db *sql.DB
}

// NewDrawRepository creates a draw repository over an open database.
func NewDrawRepository(db *sql.DB) DrawRepository {
	return &drawRepository{db: db}
}

func (r *drawRepository) Insert(ctx context.Context, rec model.DrawRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	query := `
		INSERT OR IGNORE INTO draws (
			draw_date, white_1, white_2, white_3, white_4, white_5, red, power_play
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.Date.Format(dateLayout),
		rec.Whites[0], rec.Whites[1], rec.Whites[2], rec.Whites[3], rec.Whites[4],
		rec.Red,
		nullableInt(rec.PowerPlay),
	)
	if err != nil {
		return fmt.Errorf("insert draw %s: %w", rec.Date.Format(dateLayout), err)
	}
	return nil
}

func (r *drawRepository) InsertBatch(ctx context.Context, records []model.DrawRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO draws (
			draw_date, white_1, white_2, white_3, white_4, white_5, red, power_play
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			// One bad row never aborts the batch.
			continue
		}
		res, err := stmt.ExecContext(ctx,
			rec.Date.Format(dateLayout),
			rec.Whites[0], rec.Whites[1], rec.Whites[2], rec.Whites[3], rec.Whites[4],
			rec.Red,
			nullableInt(rec.PowerPlay),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert draw %s: %w", rec.Date.Format(dateLayout), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

func (r *drawRepository) GetAll(ctx context.Context) ([]model.DrawRecord, error) {
	query := `
		SELECT draw_date, white_1, white_2, white_3, white_4, white_5, red, power_play
		FROM draws
		ORDER BY draw_date ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query draws: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.DrawRecord
	for rows.Next() {
		rec, err := scanDraw(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draws: %w", err)
	}
	return records, nil
}

func (r *drawRepository) GetLatest(ctx context.Context) (model.DrawRecord, error) {
	query := `
		SELECT draw_date, white_1, white_2, white_3, white_4, white_5, red, power_play
		FROM draws
		ORDER BY draw_date DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query)
	rec, err := scanDraw(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DrawRecord{}, ErrNoDraws
	}
	return rec, err
}

func (r *drawRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM draws`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count draws: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraw(row scanner) (model.DrawRecord, error) {
	var (
		dateStr   string
		rec       model.DrawRecord
		powerPlay sql.NullInt64
	)
	err := row.Scan(&dateStr,
		&rec.Whites[0], &rec.Whites[1], &rec.Whites[2], &rec.Whites[3], &rec.Whites[4],
		&rec.Red, &powerPlay)
	if err != nil {
		return model.DrawRecord{}, err
	}

	rec.Date, err = time.Parse(dateLayout, dateStr)
	if err != nil {
		return model.DrawRecord{}, fmt.Errorf("parse draw date %q: %w", dateStr, err)
	}
	if powerPlay.Valid {
		rec.PowerPlay = int(powerPlay.Int64)
	}
	return rec, nil
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
