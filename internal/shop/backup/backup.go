// Package backup snapshots the shop file on a cron schedule so a bad edit
// or a corrupted write can be rolled back by hand.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/shopbot/core/logger"
	"log/slog"
)

// Options configures the snapshot scheduler.
type Options struct {
	// Spec is a standard 5-field cron expression.
	Spec   string
	Source string
	Dir    string
	// Retain bounds how many snapshots are kept; older ones are pruned.
	Retain int
}

// Scheduler runs periodic copies of the shop file.
type Scheduler struct {
	opts Options
	cron *cron.Cron
}

// New validates the cron spec and builds a scheduler.
func New(opts Options) (*Scheduler, error) {
	if opts.Spec == "" {
		return nil, fmt.Errorf("backup: empty cron spec")
	}
	if opts.Retain <= 0 {
		opts.Retain = 14
	}
	s := &Scheduler{opts: opts, cron: cron.New()}
	if _, err := s.cron.AddFunc(opts.Spec, s.snapshot); err != nil {
		return nil, fmt.Errorf("backup: invalid cron spec %q: %w", opts.Spec, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	logger.SVCBackup.Info("backup schedule started",
		slog.String("event", "start"),
		slog.String("spec", s.opts.Spec),
		slog.String("dir", s.opts.Dir),
	)
	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

func (s *Scheduler) snapshot() {
	start := time.Now()
	dest, err := s.copyOnce()
	if err != nil {
		logger.SVCBackup.Error("backup failed",
			slog.String("event", "snapshot"),
			slog.String("err", err.Error()),
		)
		return
	}
	pruned, err := s.prune()
	if err != nil {
		logger.SVCBackup.Warn("backup prune failed",
			slog.String("event", "prune"),
			slog.String("err", err.Error()),
		)
	}
	logger.SVCBackup.Info("backup complete",
		slog.String("event", "snapshot"),
		slog.String("dest", dest),
		slog.Int("pruned", pruned),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}

func (s *Scheduler) copyOnce() (string, error) {
	data, err := os.ReadFile(s.opts.Source)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("shop-%s.json", time.Now().UTC().Format("20060102-150405"))
	dest := filepath.Join(s.opts.Dir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", err
	}
	return dest, nil
}

func (s *Scheduler) prune() (int, error) {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return 0, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if matched, _ := filepath.Match("shop-*.json", e.Name()); matched {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.opts.Retain {
		return 0, nil
	}
	// timestamped names sort chronologically
	sort.Strings(names)
	stale := names[:len(names)-s.opts.Retain]
	pruned := 0
	for _, n := range stale {
		if err := os.Remove(filepath.Join(s.opts.Dir, n)); err == nil {
			pruned++
		}
	}
	return pruned, nil
}
