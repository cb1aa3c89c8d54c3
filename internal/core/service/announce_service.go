package service

import (
	"context"
	"time"

	"github.com/eshop/storefront/internal/port"
	"github.com/eshop/storefront/pkg/logx"
)

type Announcement struct {
	Text      string
	MediaPath string
}

// AnnounceService posts store and product announcements best-effort. The
// queue decouples posting from the request that triggered it, and the
// contract is visible here: a full queue drops the announcement and a
// failed post is logged and discarded, never surfaced to the caller.
type AnnounceService struct {
	announcer port.Announcer
	queue     chan Announcement
}

func NewAnnounceService(announcer port.Announcer, queueSize int) *AnnounceService {
	return &AnnounceService{
		announcer: announcer,
		queue:     make(chan Announcement, queueSize),
	}
}

// Enqueue never blocks the caller.
func (s *AnnounceService) Enqueue(a Announcement) {
	select {
	case s.queue <- a:
	default:
		logx.Warn().Str("text", a.Text).Msg("announcement queue full, dropping")
	}
}

// Queue exposes the pending announcements, mainly for tests and the
// worker loop.
func (s *AnnounceService) Queue() <-chan Announcement {
	return s.queue
}

// Worker drains the queue until Close. Run one goroutine per worker.
func (s *AnnounceService) Worker(id int) {
	for a := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.announcer.Post(ctx, a.Text, a.MediaPath); err != nil {
			logx.Warn().Int("worker", id).Err(err).Msg("announcement post failed")
		}
		cancel()
	}
}

func (s *AnnounceService) Close() {
	close(s.queue)
}
