package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rdelaney/powerplay/internal/storage"
)

// latestFetchSize bounds how many recent draws an incremental update pulls.
// Three draws a week means 30 covers well over two months of downtime.
const latestFetchSize = 30

// Updater keeps the local draw database in sync with the remote API.
type Updater struct {
	client *Client
	repo   storage.DrawRepository
	logger *slog.Logger
}

// NewUpdater creates an updater over the given client and repository.
func NewUpdater(client *Client, repo storage.DrawRepository, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{client: client, repo: repo, logger: logger}
}

// Update fetches draws newer than the latest stored draw and inserts them.
// An empty database triggers a full backfill. Returns the number of newly
// stored draws. A cooldown skip is reported as (0, nil).
func (u *Updater) Update(ctx context.Context, force bool) (int, error) {
	latest, err := u.repo.GetLatest(ctx)
	if errors.Is(err, storage.ErrNoDraws) {
		return u.backfill(ctx, force)
	}
	if err != nil {
		return 0, fmt.Errorf("read latest stored draw: %w", err)
	}

	remote, err := u.client.Latest(ctx, latestFetchSize, force)
	if errors.Is(err, ErrCooldown) {
		u.logger.Info("update skipped", "reason", err)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetch latest draws: %w", err)
	}

	var fresh int
	for _, rec := range remote {
		if !rec.Date.After(latest.Date) {
			continue
		}
		if err := u.repo.Insert(ctx, rec); err != nil {
			return fresh, fmt.Errorf("store draw %s: %w", rec.Date.Format("2006-01-02"), err)
		}
		fresh++
	}

	if fresh > 0 {
		u.logger.Info("update complete", "new_draws", fresh)
	} else {
		u.logger.Debug("no new draws")
	}
	return fresh, nil
}

func (u *Updater) backfill(ctx context.Context, force bool) (int, error) {
	u.logger.Info("database empty, running full backfill")

	records, err := u.client.Backfill(ctx, force)
	if errors.Is(err, ErrCooldown) {
		u.logger.Info("backfill skipped", "reason", err)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("backfill draws: %w", err)
	}

	inserted, err := u.repo.InsertBatch(ctx, records)
	if err != nil {
		return inserted, fmt.Errorf("store backfilled draws: %w", err)
	}
	u.logger.Info("backfill stored", "new_draws", inserted)
	return inserted, nil
}
