package workers

import (
	"context"

	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/repositories"
	"github.com/cbodonnell/ducktag/pkg/repositories/models"
)

// DefaultResultsBufferSize is the suggested capacity of the results channel.
const DefaultResultsBufferSize = 16

type MatchResultWorker struct {
	repository repositories.Repository
	resultChan <-chan *models.MatchResult
	logger     *log.Logger
}

type NewMatchResultWorkerOptions struct {
	Repository repositories.Repository
	ResultChan <-chan *models.MatchResult
	Logger     *log.Logger
}

// NewMatchResultWorker creates a new MatchResultWorker.
// The worker persists match results produced by the game loop
// so that a slow database never stalls a tick.
func NewMatchResultWorker(opts NewMatchResultWorkerOptions) *MatchResultWorker {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &MatchResultWorker{
		repository: opts.Repository,
		resultChan: opts.ResultChan,
		logger:     logger,
	}
}

// Start saves results until the context is cancelled or the channel is closed.
func (w *MatchResultWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-w.resultChan:
			if !ok {
				return
			}
			w.saveMatchResult(ctx, result)
		}
	}
}

func (w *MatchResultWorker) saveMatchResult(ctx context.Context, result *models.MatchResult) {
	saved, err := w.repository.SaveMatchResult(ctx, result)
	if err != nil {
		w.logger.Error("Failed to save match result: %v", err)
		return
	}
	w.logger.Info("Saved match result %d: winner %s", saved.ID, saved.WinnerID)
}
