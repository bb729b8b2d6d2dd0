package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"MarketSnapshot/internal/logger"
	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/notifier"
	"MarketSnapshot/internal/recorder"
)

// Builder produces one snapshot for a symbol list.
type Builder interface {
	Build(ctx context.Context, symbols []string) (*model.Snapshot, error)
}

// Sender delivers run summaries; a nil Sender disables notifications.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs snapshot builds on a cron schedule and on demand. At
// most one build runs at a time.
type Scheduler struct {
	Cron     *cron.Cron
	Builder  Builder
	Symbols  []string
	Notifier Sender
	Recorder recorder.Recorder
	Ctx      context.Context

	mu      sync.Mutex
	running bool
	last    *recorder.RunSummary
	lastErr error
	entry   cron.EntryID
	wg      sync.WaitGroup
	log     *logger.Entry
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, b Builder, symbols []string, n Sender, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Builder:  b,
		Symbols:  symbols,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
		log:      logger.GetLogger().WithComponent("scheduler"),
	}
}

// Register schedules the snapshot build. The cron expression has a
// leading seconds field.
func (s *Scheduler) Register(expr string) error {
	id, err := s.Cron.AddFunc(expr, func() { s.RunNow() })
	if err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	s.entry = id
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running build.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// RunNow executes a build immediately. It returns false without building
// when another build is already running.
func (s *Scheduler) RunNow() bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("snapshot already running, trigger ignored")
		return false
	}
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.log.Info("running snapshot task")
	start := time.Now()
	snap, err := s.Builder.Build(s.Ctx, s.Symbols)
	took := time.Since(start)

	s.mu.Lock()
	s.running = false
	s.lastErr = err
	if snap != nil {
		s.last = &recorder.RunSummary{
			RunID:    snap.RunID,
			AsOfUTC:  snap.AsOfUTC,
			Interval: snap.Interval,
			Period:   snap.Period,
			RiskFree: snap.RiskFree,
			Count:    snap.Count,
			Duration: took,
		}
	}
	s.mu.Unlock()

	switch {
	case snap == nil:
		s.log.WithError(err).Error("snapshot task failed")
		s.trySend(fmt.Sprintf("❌ Snapshot build failed: %v", err))
	default:
		if err != nil {
			s.log.WithError(err).Warn("snapshot built with publishing errors")
		}
		s.trySend(notifier.FormatRunSummary(snap, took))
	}
	return true
}

// Status reports the running flag, last run and next scheduled time. With
// no run in this process the recorder's latest run is used.
func (s *Scheduler) Status() notifier.Status {
	s.mu.Lock()
	st := notifier.Status{Running: s.running, Last: s.last, LastErr: s.lastErr}
	s.mu.Unlock()

	if st.Last == nil {
		if r, err := s.Recorder.LatestRun(); err != nil {
			s.log.WithError(err).Warn("read latest run")
		} else {
			st.Last = r
		}
	}
	if s.entry != 0 {
		st.Next = s.Cron.Entry(s.entry).Next
	}
	return st
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Group chats address commands as /cmd@botname.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	switch name {
	case "/snapshot":
		s.mu.Lock()
		busy := s.running
		s.mu.Unlock()
		if busy {
			return "⏳ A snapshot build is already running."
		}
		go s.RunNow()
		return "🚀 Snapshot build started."
	case "/status":
		return notifier.FormatStatus(s.Status())
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}
