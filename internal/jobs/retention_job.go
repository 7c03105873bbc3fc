package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/internal/storage"
)

// RetentionJob is the nightly housekeeping pass: it prunes old history rows
// and sweeps drafts that outlived their TTL. The sweep also covers deploys
// running without the task queue, where no per-draft expiry is scheduled.
type RetentionJob struct {
	hr          repository.HistoryRepository
	pr          repository.PostRepository
	st          storage.Storage
	historyDays int
	draftTTL    time.Duration
}

func NewRetentionJob(hr repository.HistoryRepository, pr repository.PostRepository, st storage.Storage, historyDays, draftTTLHours int) *RetentionJob {
	return &RetentionJob{
		hr:          hr,
		pr:          pr,
		st:          st,
		historyDays: historyDays,
		draftTTL:    time.Duration(draftTTLHours) * time.Hour,
	}
}

func (c *RetentionJob) Run() {
	c.PruneHistory()
	c.SweepStaleDrafts()
}

func (c *RetentionJob) PruneHistory() {
	ctx := context.Background()

	cutoff := time.Now().AddDate(0, 0, -c.historyDays)
	deleted, err := c.hr.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if deleted > 0 {
		slog.Info("pruned watch history", "rows", deleted)
	}
}

func (c *RetentionJob) SweepStaleDrafts() {
	ctx := context.Background()

	cutoff := time.Now().Add(-c.draftTTL)
	drafts, err := c.pr.ListStaleDrafts(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, d := range drafts {
		if d.Status != models.PostStatusDraft {
			continue
		}
		if err := c.pr.Remove(ctx, d.ID); err != nil {
			slog.Info(err.Error())
			continue
		}
		if err := c.st.Delete(ctx, d.FileName); err != nil {
			slog.Info(err.Error())
		}
		if d.ThumbnailName != "" {
			if err := c.st.Delete(ctx, d.ThumbnailName); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	if len(drafts) > 0 {
		slog.Info("swept stale drafts", "count", len(drafts))
	}
}
