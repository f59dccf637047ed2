package reaperservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sushihentaime/inkpost/internal/blobstore"
	"github.com/sushihentaime/inkpost/internal/common"
)

const (
	maxRetries = 5
	baseDelay  = 500 * time.Millisecond
)

// ReaperService deletes blobs that HardDelete could not remove.
type ReaperService struct {
	mb      common.MessageConsumer
	blobs   blobstore.Store
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool

	attempts  int
	baseDelay time.Duration
}

func NewReaperService(mb common.MessageConsumer, blobs blobstore.Store, logger *slog.Logger) *ReaperService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ReaperService{
		mb:        mb,
		blobs:     blobs,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		attempts:  maxRetries,
		baseDelay: baseDelay,
	}
}

// ReapOrphans consumes blob.orphaned messages until Close is called. A message is
// acked once every key is gone or has used up its retries. A message interrupted
// by Close is requeued.
func (s *ReaperService) ReapOrphans() {
	s.started.Store(true)
	defer close(s.done)

	msgs, err := s.mb.Consume(common.BlobOrphanedKey, common.BlobExchange, common.BlobOrphanedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var orphans blobstore.OrphanedBlobs
			if err := json.Unmarshal(msg.Body, &orphans); err != nil {
				s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
				msg.Ack(false)
				continue
			}

			interrupted := false
			for _, key := range orphans.Keys {
				if err := s.reap(key); err != nil && s.ctx.Err() != nil {
					interrupted = true
					break
				}
			}

			if interrupted {
				s.logger.Info("requeueing orphaned blobs", slog.Int("keys", len(orphans.Keys)))
				msg.Nack(false, true)
				return
			}

			msg.Ack(false)

		case <-s.ctx.Done():
			s.logger.Info("stopping ReapOrphans due to context cancellation")
			return
		}
	}
}

func (s *ReaperService) reap(key string) error {
	err := common.Retry(s.ctx, s.attempts, s.baseDelay, func() error {
		err := s.blobs.Delete(s.ctx, key)
		if errors.Is(err, blobstore.ErrObjectNotFound) {
			return nil
		}
		return err
	}, func(attempt int, delay time.Duration) {
		s.logger.Info("delaying blob delete", slog.String("key", key), slog.Int("attempt", attempt), slog.Duration("delay", delay))
	})
	if err != nil {
		s.logger.Error("could not delete orphaned blob", slog.String("key", key), slog.String("error", err.Error()))
		return err
	}

	s.logger.Info("orphaned blob deleted", slog.String("key", key))
	return nil
}

func (s *ReaperService) Close() {
	s.cancel()
	if s.started.Load() {
		<-s.done
	}
}
