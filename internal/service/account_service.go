package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kimbucha/roomiesBolt-sub000/internal/consistency"
	"github.com/kimbucha/roomiesBolt-sub000/internal/metrics"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/profilesync"
	"github.com/kimbucha/roomiesBolt-sub000/internal/remote"
	"github.com/kimbucha/roomiesBolt-sub000/internal/storage"
	"github.com/kimbucha/roomiesBolt-sub000/internal/validation"
)

const (
	tracerName = "github.com/kimbucha/roomiesBolt-sub000/internal/service"

	// remoteTimeout bounds background propagation calls.
	remoteTimeout = 15 * time.Second
)

// DiscoveryObserver is told about every discovery record the service writes.
// Observers are registered when the service is built and must not block.
type DiscoveryObserver interface {
	DiscoveryChanged(ctx context.Context, rec models.DiscoveryRecord)
}

// UpdateOptions tunes UpdateUserAndProfile.
type UpdateOptions struct {
	// SkipValidation is for trusted internal callers only.
	SkipValidation bool
}

// AccountDeps are the collaborators of an AccountService. Accounts and
// Discovery are required; the rest have defaults.
type AccountDeps struct {
	Accounts     storage.AccountRepository
	Discovery    storage.DiscoveryStore
	Synchronizer *profilesync.Synchronizer
	Remote       remote.Backend
	Metrics      *metrics.Metrics
	Observers    []DiscoveryObserver
	Clock        func() time.Time
}

// AccountService owns every account mutation. It validates, commits the
// account record, keeps the paired discovery record in step and propagates
// the change to the remote backend. Mutations for one identity are
// serialized; different identities proceed in parallel.
type AccountService struct {
	accounts  storage.AccountRepository
	discovery storage.DiscoveryStore
	sync      *profilesync.Synchronizer
	remote    remote.Backend
	metrics   *metrics.Metrics
	observers []DiscoveryObserver
	now       func() time.Time
	tracer    trace.Tracer

	locks *keyedMutex

	// closeMu orders inflight.Add against Close.
	closeMu  sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewAccountService creates the service. It panics with a *StateError when a
// required store is missing.
func NewAccountService(deps AccountDeps) *AccountService {
	if deps.Accounts == nil {
		stateViolation("NewAccountService", "account repository is required")
	}
	if deps.Discovery == nil {
		stateViolation("NewAccountService", "discovery store is required")
	}
	s := &AccountService{
		accounts:  deps.Accounts,
		discovery: deps.Discovery,
		sync:      deps.Synchronizer,
		remote:    deps.Remote,
		metrics:   deps.Metrics,
		observers: deps.Observers,
		now:       deps.Clock,
		tracer:    otel.Tracer(tracerName),
		locks:     newKeyedMutex(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sync == nil {
		s.sync = profilesync.NewSynchronizer(
			profilesync.WithClock(s.now),
			profilesync.WithFallbackRecorder(s.metrics),
		)
	}
	if s.remote == nil {
		s.remote = remote.Noop{}
	}
	return s
}

// Close waits for in-flight remote propagation. The service must not be
// used afterwards.
func (s *AccountService) Close() {
	s.closeMu.Lock()
	s.closed = true
	s.closeMu.Unlock()
	s.inflight.Wait()
}

// GetAccount returns the account for id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*models.AccountRecord, error) {
	s.checkOpen("GetAccount")
	return s.load(ctx, id)
}

// ListAccounts returns every stored account.
func (s *AccountService) ListAccounts(ctx context.Context) ([]models.AccountRecord, error) {
	s.checkOpen("ListAccounts")
	return s.accounts.ListAccounts(ctx)
}

// GetDiscovery returns the discovery record for id.
func (s *AccountService) GetDiscovery(ctx context.Context, id string) (*models.DiscoveryRecord, error) {
	s.checkOpen("GetDiscovery")
	rec, err := s.discovery.GetDiscovery(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDiscoveryNotFound
	}
	return rec, err
}

// ListDiscovery pages through discovery records.
func (s *AccountService) ListDiscovery(ctx context.Context, opts storage.ListOptions) ([]models.DiscoveryRecord, error) {
	s.checkOpen("ListDiscovery")
	return s.discovery.ListDiscovery(ctx, opts)
}

// CompleteOnboardingStep validates patch against step, merges it, syncs the
// discovery record, records the step as completed and advances the current
// step. Steps outside the known flow are recorded without advancing.
func (s *AccountService) CompleteOnboardingStep(ctx context.Context, id string, step models.Step, patch models.AccountPatch) (*models.AccountRecord, error) {
	s.checkOpen("CompleteOnboardingStep")
	ctx, span := s.startSpan(ctx, "AccountService.CompleteOnboardingStep", id, attribute.String("onboarding.step", string(step)))
	defer span.End()
	defer s.metrics.ObserveAccountOp("complete_step", time.Now())

	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.load(ctx, id)
	if err != nil {
		return nil, spanErr(span, err)
	}

	if res := validation.ValidateOnboardingStep(step, stepPayload(step, patch, acct)); !res.IsValid {
		s.metrics.IncValidationFailure("step")
		slog.Info("Onboarding step rejected", "user_id", id, "step", step, "errors", res.Errors)
		return nil, res.Err()
	}
	if err := s.checkEmailAvailable(ctx, id, patch); err != nil {
		return nil, spanErr(span, err)
	}

	patch.ApplyTo(acct)
	acct.Onboarding.MarkCompleted(step)
	reachedComplete := false
	if next, ok := models.NextStep(step, acct.HasPlace); ok {
		acct.Onboarding.CurrentStep = next
		if next == models.StepComplete && !acct.Onboarding.IsComplete {
			acct.Onboarding.IsComplete = true
			reachedComplete = true
		}
	}
	acct.UpdatedAt = s.now().Unix()

	if err := s.save(ctx, acct); err != nil {
		return nil, spanErr(span, err)
	}

	// Completing onboarding always leaves a fully built discovery record.
	syncPatch := &patch
	if reachedComplete {
		syncPatch = nil
	}
	s.syncDiscovery(ctx, *acct, syncPatch)
	s.metrics.IncOnboardingStep(string(step))
	s.propagate(remote.OpUpdateProfile, id, patch)

	slog.Info("Onboarding step completed",
		"user_id", id,
		"step", step,
		"current_step", acct.Onboarding.CurrentStep,
		"is_complete", acct.Onboarding.IsComplete,
	)
	return acct, nil
}

// stepPayload fills in the has-place answer from the stored account when
// the place-details payload does not carry it.
func stepPayload(step models.Step, patch models.AccountPatch, acct *models.AccountRecord) models.AccountPatch {
	if step == models.StepPlaceDetails && patch.HasPlace == nil && patch.UserRole == nil {
		patch.HasPlace = models.Ptr(acct.HasPlace || acct.UserRole == models.RolePlaceLister)
	}
	return patch
}

// ResetOnboardingProgress returns the account to the first onboarding step,
// strips every onboarding answer while keeping identity and contact, and
// resets the discovery record to its neutral shape.
func (s *AccountService) ResetOnboardingProgress(ctx context.Context, id string) (*models.AccountRecord, error) {
	s.checkOpen("ResetOnboardingProgress")
	ctx, span := s.startSpan(ctx, "AccountService.ResetOnboardingProgress", id)
	defer span.End()
	defer s.metrics.ObserveAccountOp("reset", time.Now())

	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.load(ctx, id)
	if err != nil {
		return nil, spanErr(span, err)
	}

	acct.StripOnboarding()
	acct.UpdatedAt = s.now().Unix()
	if err := s.save(ctx, acct); err != nil {
		return nil, spanErr(span, err)
	}

	rec, err := s.discovery.GetDiscovery(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rec = &models.DiscoveryRecord{ID: id, Name: acct.Name}
	case err != nil:
		slog.Error("Failed to load discovery profile for reset", "user_id", id, "error", err)
		return acct, nil
	}
	s.sync.ResetDiscoveryRecord(id).ApplyTo(rec)
	s.putDiscovery(ctx, *rec, "reset")

	payload := acct.Clone()
	payload.PasswordHash = ""
	s.propagate(remote.OpUpdateProfile, id, payload)

	slog.Info("Onboarding progress reset", "user_id", id)
	return acct, nil
}

// UpdateUserAndProfile applies a bulk update outside the onboarding flow.
func (s *AccountService) UpdateUserAndProfile(ctx context.Context, id string, patch models.AccountPatch, opts UpdateOptions) (*models.AccountRecord, error) {
	s.checkOpen("UpdateUserAndProfile")
	ctx, span := s.startSpan(ctx, "AccountService.UpdateUserAndProfile", id, attribute.Bool("validation.skipped", opts.SkipValidation))
	defer span.End()
	defer s.metrics.ObserveAccountOp("update", time.Now())

	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.applyPatch(ctx, id, patch, opts)
	if err != nil {
		return nil, spanErr(span, err)
	}
	if !patch.IsEmpty() {
		s.propagate(remote.OpUpdateProfile, id, patch)
	}
	return acct, nil
}

// applyPatch validates, merges, saves and syncs. Callers hold the lock.
func (s *AccountService) applyPatch(ctx context.Context, id string, patch models.AccountPatch, opts UpdateOptions) (*models.AccountRecord, error) {
	acct, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return acct, nil
	}

	if !opts.SkipValidation {
		if res := validation.ValidateAccountMutation(patch); !res.IsValid {
			s.metrics.IncValidationFailure("mutation")
			slog.Info("Profile update rejected", "user_id", id, "errors", res.Errors)
			return nil, res.Err()
		}
	}
	if err := s.checkEmailAvailable(ctx, id, patch); err != nil {
		return nil, err
	}

	patch.ApplyTo(acct)
	acct.UpdatedAt = s.now().Unix()
	if err := s.save(ctx, acct); err != nil {
		return nil, err
	}
	s.syncDiscovery(ctx, *acct, &patch)

	slog.Info("Profile updated", "user_id", id, "validation_skipped", opts.SkipValidation)
	return acct, nil
}

// checkEmailAvailable rejects a patch that moves the account onto an email
// registered to another identity.
func (s *AccountService) checkEmailAvailable(ctx context.Context, id string, patch models.AccountPatch) error {
	if patch.Email == nil {
		return nil
	}
	owner, err := s.accounts.GetAccountByEmail(ctx, models.NormalizeEmail(*patch.Email))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check email: %w", err)
	case owner.ID != id:
		slog.Info("Email change rejected", "user_id", id, "reason", "email in use")
		return storage.ErrEmailTaken
	}
	return nil
}

// RebuildDiscovery replaces the discovery record with a full build from the
// account.
func (s *AccountService) RebuildDiscovery(ctx context.Context, id string) (*models.DiscoveryRecord, error) {
	s.checkOpen("RebuildDiscovery")
	ctx, span := s.startSpan(ctx, "AccountService.RebuildDiscovery", id)
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	acct, err := s.load(ctx, id)
	if err != nil {
		return nil, spanErr(span, err)
	}
	rec, ok := s.syncDiscovery(ctx, *acct, nil)
	if !ok {
		return nil, spanErr(span, fmt.Errorf("failed to rebuild discovery profile for %s", id))
	}
	return &rec, nil
}

// Audit compares the account with its discovery record.
func (s *AccountService) Audit(ctx context.Context, id string) ([]consistency.Difference, error) {
	s.checkOpen("Audit")
	ctx, span := s.startSpan(ctx, "AccountService.Audit", id)
	defer span.End()

	acct, err := s.load(ctx, id)
	if err != nil {
		return nil, spanErr(span, err)
	}
	rec, err := s.discovery.GetDiscovery(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDiscoveryNotFound
	}
	if err != nil {
		return nil, spanErr(span, fmt.Errorf("failed to load discovery profile: %w", err))
	}

	diffs := consistency.Diff(*acct, *rec)
	for sev, n := range consistency.CountBySeverity(diffs) {
		s.metrics.AddConsistencyDiffs(string(sev), n)
	}
	span.SetAttributes(attribute.Int("consistency.differences", len(diffs)))
	return diffs, nil
}

// Verify asks the backend to verify the account and mirrors the result
// locally. A backend failure is returned and nothing changes locally.
func (s *AccountService) Verify(ctx context.Context, id string) (*models.AccountRecord, error) {
	return s.remoteFlag(ctx, "Verify", remote.OpVerify, id, models.AccountPatch{IsVerified: models.Ptr(true)})
}

// Upgrade asks the backend to upgrade the account to premium and mirrors the
// result locally.
func (s *AccountService) Upgrade(ctx context.Context, id string) (*models.AccountRecord, error) {
	return s.remoteFlag(ctx, "Upgrade", remote.OpUpgrade, id, models.AccountPatch{IsPremium: models.Ptr(true)})
}

func (s *AccountService) remoteFlag(ctx context.Context, name string, op remote.Op, id string, patch models.AccountPatch) (*models.AccountRecord, error) {
	s.checkOpen(name)
	ctx, span := s.startSpan(ctx, "AccountService."+name, id)
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.load(ctx, id); err != nil {
		return nil, spanErr(span, err)
	}
	if err := s.remote.Call(ctx, op, id, nil).ErrFor(op); err != nil {
		s.metrics.IncRemoteError(string(op))
		slog.Warn("Remote call failed", "op", op, "user_id", id, "error", err)
		return nil, spanErr(span, err)
	}
	acct, err := s.applyPatch(ctx, id, patch, UpdateOptions{SkipValidation: true})
	if err != nil {
		return nil, spanErr(span, err)
	}
	return acct, nil
}

// RefreshFromRemote fetches the backend copy of the profile and merges it
// into the local account as a trusted update.
func (s *AccountService) RefreshFromRemote(ctx context.Context, id string) (*models.AccountRecord, error) {
	s.checkOpen("RefreshFromRemote")
	ctx, span := s.startSpan(ctx, "AccountService.RefreshFromRemote", id)
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	resp := s.remote.Call(ctx, remote.OpFetchProfile, id, nil)
	if err := resp.ErrFor(remote.OpFetchProfile); err != nil {
		s.metrics.IncRemoteError(string(remote.OpFetchProfile))
		slog.Warn("Remote call failed", "op", remote.OpFetchProfile, "user_id", id, "error", err)
		return nil, spanErr(span, err)
	}
	var patch models.AccountPatch
	if err := resp.Decode(&patch); err != nil {
		return nil, spanErr(span, err)
	}
	// Identity and credentials are owned locally.
	patch.Email = nil

	acct, err := s.applyPatch(ctx, id, patch, UpdateOptions{SkipValidation: true})
	if err != nil {
		return nil, spanErr(span, err)
	}
	return acct, nil
}

// syncDiscovery patches the existing discovery record, or builds it when none
// exists or patch is nil. Failures are logged; the account commit stands.
func (s *AccountService) syncDiscovery(ctx context.Context, acct models.AccountRecord, patch *models.AccountPatch) (models.DiscoveryRecord, bool) {
	existing, err := s.discovery.GetDiscovery(ctx, acct.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Error("Failed to load discovery profile", "user_id", acct.ID, "error", err)
		return models.DiscoveryRecord{}, false
	}

	if existing == nil || patch == nil {
		rec, err := s.sync.Build(acct)
		if err != nil {
			slog.Error("Failed to build discovery profile", "user_id", acct.ID, "error", err)
			return models.DiscoveryRecord{}, false
		}
		return rec, s.putDiscovery(ctx, rec, "build")
	}

	rec := *existing
	s.sync.Patch(&rec, acct, *patch)
	return rec, s.putDiscovery(ctx, rec, "patch")
}

func (s *AccountService) putDiscovery(ctx context.Context, rec models.DiscoveryRecord, mode string) bool {
	if err := s.discovery.PutDiscovery(ctx, &rec); err != nil {
		slog.Error("Failed to save discovery profile", "user_id", rec.ID, "mode", mode, "error", err)
		return false
	}
	s.metrics.IncDiscoverySync(mode)
	slog.Debug("Discovery profile synced", "user_id", rec.ID, "mode", mode)
	for _, o := range s.observers {
		o.DiscoveryChanged(ctx, rec)
	}
	return true
}

// propagate pushes a committed change to the backend in the background.
// Failures are logged and counted; the local commit is never undone.
func (s *AccountService) propagate(op remote.Op, id string, payload any) {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		s.metrics.IncRemoteError(string(op))
		slog.Warn("Remote propagation dropped, service closed", "op", op, "user_id", id)
		return
	}
	s.inflight.Add(1)
	s.closeMu.Unlock()

	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()

		if err := s.remote.Call(ctx, op, id, payload).ErrFor(op); err != nil {
			s.metrics.IncRemoteError(string(op))
			slog.Warn("Remote propagation failed", "op", op, "user_id", id, "error", err)
		}
	}()
}

func (s *AccountService) load(ctx context.Context, id string) (*models.AccountRecord, error) {
	acct, err := s.accounts.GetAccount(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return acct, nil
}

func (s *AccountService) save(ctx context.Context, acct *models.AccountRecord) error {
	if err := s.accounts.SaveAccount(ctx, acct); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (s *AccountService) checkOpen(op string) {
	s.closeMu.Lock()
	closed := s.closed
	s.closeMu.Unlock()
	if closed {
		stateViolation(op, "account service is closed")
	}
}

func (s *AccountService) startSpan(ctx context.Context, name, id string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("user.id", id))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
