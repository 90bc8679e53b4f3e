// Package audit periodically compares every account with its discovery
// record and reports drift.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/kimbucha/roomiesBolt-sub000/internal/consistency"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/service"
)

// Service is what an audit run needs from the account service.
type Service interface {
	ListAccounts(ctx context.Context) ([]models.AccountRecord, error)
	Audit(ctx context.Context, id string) ([]consistency.Difference, error)
	RebuildDiscovery(ctx context.Context, id string) (*models.DiscoveryRecord, error)
}

// Summary is the outcome of one audit run.
type Summary struct {
	Accounts   int
	InSync     int
	Drifted    int
	Missing    int
	Failed     int
	Repaired   int
	BySeverity map[consistency.Severity]int
}

// Auditor runs consistency audits on a cron schedule.
type Auditor struct {
	svc    Service
	repair bool
	cron   *cron.Cron

	mu      sync.Mutex
	running bool
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithRepair rebuilds discovery records that are missing or carry a
// high-severity difference.
func WithRepair() Option {
	return func(a *Auditor) { a.repair = true }
}

// New creates an Auditor.
func New(svc Service, opts ...Option) *Auditor {
	a := &Auditor{
		svc:  svc,
		cron: cron.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start registers the audit with the cron schedule and starts the scheduler. Runs that would
// overlap a run still in progress are skipped.
func (a *Auditor) Start(schedule string) error {
	_, err := a.cron.AddFunc(schedule, func() {
		if _, err := a.RunOnce(context.Background()); err != nil {
			slog.Error("Consistency audit failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit %q: %w", schedule, err)
	}
	a.cron.Start()
	slog.Info("Consistency audit scheduled", "schedule", schedule)
	return nil
}

// Stop stops the scheduler and waits for a running audit to finish.
func (a *Auditor) Stop() {
	<-a.cron.Stop().Done()
	slog.Info("Consistency audit stopped")
}

// RunOnce audits every account. A failure on one account is counted and
// does not stop the run.
func (a *Auditor) RunOnce(ctx context.Context) (Summary, error) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		slog.Warn("Consistency audit already running, skipping")
		return Summary{}, nil
	}
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	accounts, err := a.svc.ListAccounts(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	sum := Summary{Accounts: len(accounts), BySeverity: make(map[consistency.Severity]int)}
	for _, acct := range accounts {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		a.auditOne(ctx, acct.ID, &sum)
	}

	slog.Info("Consistency audit finished",
		"accounts", sum.Accounts,
		"in_sync", sum.InSync,
		"drifted", sum.Drifted,
		"missing", sum.Missing,
		"failed", sum.Failed,
		"repaired", sum.Repaired,
	)
	return sum, nil
}

func (a *Auditor) auditOne(ctx context.Context, id string, sum *Summary) {
	diffs, err := a.svc.Audit(ctx, id)
	switch {
	case errors.Is(err, service.ErrDiscoveryNotFound):
		sum.Missing++
		a.rebuild(ctx, id, sum)
		return
	case err != nil:
		sum.Failed++
		slog.Warn("Failed to audit account", "user_id", id, "error", err)
		return
	case len(diffs) == 0:
		sum.InSync++
		return
	}

	sum.Drifted++
	counts := consistency.CountBySeverity(diffs)
	for sev, n := range counts {
		sum.BySeverity[sev] += n
	}
	slog.Warn("Discovery profile drifted", "user_id", id, "differences", len(diffs), "high", counts[consistency.SeverityHigh])
	if counts[consistency.SeverityHigh] > 0 {
		a.rebuild(ctx, id, sum)
	}
}

func (a *Auditor) rebuild(ctx context.Context, id string, sum *Summary) {
	if !a.repair {
		return
	}
	if _, err := a.svc.RebuildDiscovery(ctx, id); err != nil {
		slog.Error("Failed to repair discovery profile", "user_id", id, "error", err)
		return
	}
	sum.Repaired++
}
