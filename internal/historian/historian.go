// Package historian drains the Redis action queue into the persistent action log.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Writer persists a batch of action records.
type Writer interface {
	WriteActions(ctx context.Context, actions []models.GameAction) error
}

// WriterFunc adapts a function to Writer.
type WriterFunc func(ctx context.Context, actions []models.GameAction) error

func (f WriterFunc) WriteActions(ctx context.Context, actions []models.GameAction) error {
	return f(ctx, actions)
}

// Service batches records popped from a Redis list and hands them to a Writer.
// A batch is flushed when it reaches batchSize or every flushDelay, whichever is first.
type Service struct {
	rdb        *redis.Client
	writer     Writer
	queue      string
	batchSize  int
	flushDelay time.Duration
	popTimeout time.Duration
	logger     logrus.FieldLogger

	batchMu sync.Mutex
	batch   []models.GameAction
}

// NewService builds a historian reading queue.
func NewService(rdb *redis.Client, writer Writer, queue string, batchSize int, flushDelay time.Duration, logger logrus.FieldLogger) *Service {
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	return &Service{
		rdb:        rdb,
		writer:     writer,
		queue:      queue,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		popTimeout: 3 * time.Second,
		logger:     logger,
		batch:      make([]models.GameAction, 0, batchSize),
	}
}

// Run reads until ctx is cancelled, then flushes whatever is still batched.
func (s *Service) Run(ctx context.Context) {
	s.logger.WithField("queue", s.queue).Info("historian started")

	go s.flushLoop(ctx)
	s.readLoop(ctx)

	s.Flush(context.WithoutCancel(ctx))
	s.logger.Info("historian stopped")
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

// readLoop uses BLPop with a timeout so that cancellation is noticed.
func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := s.rdb.BLPop(ctx, s.popTimeout, s.queue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				s.logger.WithError(err).Error("BLPop")
				time.Sleep(time.Second)
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		if len(res) < 2 {
			continue
		}
		s.Handle(ctx, res[1])
	}
}

// Handle decodes one queued payload and adds it to the batch, flushing when full.
func (s *Service) Handle(ctx context.Context, payload string) {
	var rec models.GameAction
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		s.logger.WithError(err).Warn("invalid action record")
		return
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.batchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the current batch. A failed batch is put back in front of newer records.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := s.batch
	s.batch = make([]models.GameAction, 0, s.batchSize)
	s.batchMu.Unlock()

	if err := s.writer.WriteActions(ctx, pending); err != nil {
		s.logger.WithError(err).WithField("count", len(pending)).Error("flush actions")
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.batchMu.Unlock()
		return
	}
	s.logger.WithField("count", len(pending)).Debug("flushed actions")
}

// Pending is the number of records waiting for the next flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}
