package resume

import (
	"context"

	"github.com/avoronin/cvmatch/internal/embedding"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultSweepSchedule = "@every 1m"
	defaultSweepBatch    = 20
)

// PendingStore is the storage surface the sweeper needs.
type PendingStore interface {
	ListPending(ctx context.Context, limit int) ([]Profile, error)
	SaveEmbedding(ctx context.Context, id string, vector []float64) error
	MarkFailed(ctx context.Context, id string) error
}

// Sweeper computes embeddings for documents that are still pending. Each
// document gets exactly one attempt: success stores the vector, failure
// marks the document failed and it is never picked up again. The cron
// schedule only exists so documents orphaned by a crash still get their
// attempt.
type Sweeper struct {
	store    PendingStore
	embedder embedding.Embedder
	schedule string
	batch    int
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewSweeper(store PendingStore, embedder embedding.Embedder, schedule string, logger *zap.Logger) *Sweeper {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	return &Sweeper{
		store:    store,
		embedder: embedder,
		schedule: schedule,
		batch:    defaultSweepBatch,
		logger:   logger,
	}
}

// Start registers the cron entry and begins sweeping in the background.
func (s *Sweeper) Start() error {
	s.cron = cron.New()

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("embedding sweeper started", zap.String("schedule", s.schedule))

	return nil
}

// Stop halts the cron scheduler. A sweep already in flight finishes.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep runs one pass over pending documents.
func (s *Sweeper) Sweep(ctx context.Context) {
	profiles, err := s.store.ListPending(ctx, s.batch)
	if err != nil {
		s.logger.Error("listing pending documents", zap.Error(err))
		return
	}

	if len(profiles) == 0 {
		return
	}

	s.logger.Info("embedding pending documents", zap.Int("count", len(profiles)))

	for _, profile := range profiles {
		vector, err := s.embedder.Embed(ctx, profile.Text)
		if err != nil {
			s.logger.Warn("embedding attempt failed, will not retry",
				zap.String("document_id", profile.ID),
				zap.Error(err),
			)
			if err := s.store.MarkFailed(ctx, profile.ID); err != nil {
				s.logger.Error("marking document failed", zap.String("document_id", profile.ID), zap.Error(err))
			}
			continue
		}

		if err := s.store.SaveEmbedding(ctx, profile.ID, vector); err != nil {
			s.logger.Error("saving embedding", zap.String("document_id", profile.ID), zap.Error(err))
			continue
		}

		s.logger.Info("embedding computed", zap.String("document_id", profile.ID))
	}
}
