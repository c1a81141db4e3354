package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker periodically rematches every user's ledger so catalog edits
// and freshly synced transactions get picked up without waiting for an
// on-demand run.
type Worker struct {
	service  *Service
	interval time.Duration
	workers  int
	stopCh   chan struct{}
}

func NewWorker(service *Service, interval time.Duration, workers int) *Worker {
	if interval == 0 {
		interval = 6 * time.Hour
	}
	return &Worker{
		service:  service,
		interval: interval,
		workers:  workers,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting reconciliation worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *Worker) Stop() {
	log.Info().Msg("Stopping reconciliation worker...")
	close(w.stopCh)
}

func (w *Worker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runBatch()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) runBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	log.Debug().Msg("Starting scheduled rematch batch...")

	if _, err := w.service.RematchAll(ctx, w.workers); err != nil {
		log.Error().Err(err).Msg("Scheduled rematch batch failed")
	}

	log.Debug().Msg("Finished scheduled rematch batch")
}
