package leaderboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

// ErrSinkClosed is returned when reporting after Close
var ErrSinkClosed = errors.New("sync sink closed")

const sendTimeout = 10 * time.Second

type job struct {
	kind    string
	payload interface{}
}

// Sink delivers progress reports in the background. Reports are fire-and-forget:
// failures are logged and never retried, and a full queue drops the report.
type Sink struct {
	client *Client
	logger *zap.Logger
	jobs   chan job
	wg     sync.WaitGroup

	closeMu sync.Mutex
	closed  bool
}

// NewSink starts a single delivery worker with the given queue capacity
func NewSink(client *Client, queue int, logger *zap.Logger) *Sink {
	if queue <= 0 {
		queue = 32
	}
	s := &Sink{
		client: client,
		logger: logger,
		jobs:   make(chan job, queue),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Sink) run() {
	defer s.wg.Done()
	for j := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := s.client.send(ctx, j.payload)
		cancel()
		if err != nil {
			s.logger.Warn("Failed to sync progress", zap.String("kind", j.kind), zap.Error(err))
			continue
		}
		s.logger.Debug("Progress synced", zap.String("kind", j.kind))
	}
}

func (s *Sink) submit(j job) error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	select {
	case s.jobs <- j:
		return nil
	default:
		s.logger.Warn("Sync queue full, dropping report", zap.String("kind", j.kind))
		return nil
	}
}

// Report queues a login or chapter completion report
func (s *Sink) Report(report models.ProgressReport) {
	if err := s.submit(job{kind: "progress", payload: report}); err != nil {
		s.logger.Warn("Progress report dropped", zap.Error(err))
	}
}

// UpdateMemberStatus queues a membership flag change
func (s *Sink) UpdateMemberStatus(username string, isSuperMember bool) {
	payload := memberStatusRequest{Username: username, Action: "updateMemberStatus", IsSuperMember: isSuperMember}
	if err := s.submit(job{kind: "member_status", payload: payload}); err != nil {
		s.logger.Warn("Member status update dropped", zap.Error(err))
	}
}

// UpdateLocation queues the reader's self-reported location
func (s *Sink) UpdateLocation(username, location string) {
	payload := locationRequest{Username: username, Action: "updateLocation", Location: location}
	if err := s.submit(job{kind: "location", payload: payload}); err != nil {
		s.logger.Warn("Location update dropped", zap.Error(err))
	}
}

// Close stops accepting reports and waits for queued ones to be delivered
func (s *Sink) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.jobs)
	s.closeMu.Unlock()
	s.wg.Wait()
}
