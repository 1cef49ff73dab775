package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/observability"
	"github.com/cleantrack/cleantrack-api/internal/scoring"
)

// Source names the rung of the fallback ladder that produced a confidence.
type Source string

const (
	SourceNeutral   Source = "neutral"
	SourceModel     Source = "model"
	SourceKeyword   Source = "keyword"
	SourceAbandoned Source = "abandoned"
)

const defaultWriteTimeout = 5 * time.Second

// ConfidenceWriter persists a score onto one ticket without touching other columns.
type ConfidenceWriter interface {
	SetConfidence(ctx context.Context, ticketID string, confidence float64) error
}

// Result is the outcome of one scoring task.
type Result struct {
	TicketID   string
	Confidence float64
	Source     Source
	// Err is set when the confidence could not be written.
	Err error
}

// Task is a handle on a detached scoring run.
type Task struct {
	done   chan struct{}
	result Result
}

// Done is closed once the task has either written its score or given up.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes.
func (t *Task) Wait() Result {
	<-t.done
	return t.result
}

// ScoringWorker runs urgency scoring outside the request lifecycle.
type ScoringWorker struct {
	writer       ConfidenceWriter
	scorer       scoring.Scorer
	timeout      time.Duration
	writeTimeout time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger

	wg sync.WaitGroup
}

// NewScoringWorker builds a worker. A nil scorer means no scoring credential is
// configured and every ticket gets the neutral score.
func NewScoringWorker(writer ConfidenceWriter, scorer scoring.Scorer, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *ScoringWorker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ScoringWorker{
		writer:       writer,
		scorer:       scorer,
		timeout:      timeout,
		writeTimeout: defaultWriteTimeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// Submit starts scoring the ticket in the background and returns immediately.
func (w *ScoringWorker) Submit(ticketID, description string) *Task {
	task := &Task{done: make(chan struct{})}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(task.done)
		task.result = w.run(ticketID, description)
	}()
	return task
}

func (w *ScoringWorker) run(ticketID, description string) (result Result) {
	result.TicketID = ticketID
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("scoring task panicked", zap.String("ticket_id", ticketID), zap.Any("panic", r))
			result.Source = SourceAbandoned
			result.Err = errors.New("scoring task panicked")
			w.metrics.RecordScoring(string(SourceAbandoned))
		}
	}()

	result.Confidence, result.Source = w.score(ticketID, description)

	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()
	if err := w.writer.SetConfidence(ctx, ticketID, result.Confidence); err != nil {
		w.logger.Error("abandoning confidence write",
			zap.String("ticket_id", ticketID),
			zap.Float64("confidence", result.Confidence),
			zap.String("source", string(result.Source)),
			zap.Error(err),
		)
		result.Err = err
		result.Source = SourceAbandoned
		w.metrics.RecordScoring(string(SourceAbandoned))
		return result
	}

	w.logger.Info("ticket scored",
		zap.String("ticket_id", ticketID),
		zap.Float64("confidence", result.Confidence),
		zap.String("source", string(result.Source)),
	)
	w.metrics.RecordScoring(string(result.Source))
	return result
}

func (w *ScoringWorker) score(ticketID, description string) (float64, Source) {
	if w.scorer == nil {
		return scoring.NeutralScore, SourceNeutral
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	score, err := w.scorer.Score(ctx, description)
	if err != nil {
		w.logger.Warn("scorer unavailable, using keyword heuristic",
			zap.String("ticket_id", ticketID),
			zap.Error(err),
		)
		return scoring.KeywordScore(description), SourceKeyword
	}
	return score, SourceModel
}

// Shutdown waits for in-flight tasks until ctx expires. Tasks still running
// afterwards are left to finish or die with the process.
func (w *ScoringWorker) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
