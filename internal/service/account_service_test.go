package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kimbucha/roomiesBolt-sub000/internal/consistency"
	"github.com/kimbucha/roomiesBolt-sub000/internal/lifestyle"
	"github.com/kimbucha/roomiesBolt-sub000/internal/metrics"
	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/profilesync"
	"github.com/kimbucha/roomiesBolt-sub000/internal/remote"
	"github.com/kimbucha/roomiesBolt-sub000/internal/storage"
	"github.com/kimbucha/roomiesBolt-sub000/internal/storage/memory"
	"github.com/kimbucha/roomiesBolt-sub000/internal/validation"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Call(ctx context.Context, op remote.Op, userID string, payload any) remote.Response {
	args := m.Called(ctx, op, userID, payload)
	return args.Get(0).(remote.Response)
}

type recordingObserver struct {
	mu   sync.Mutex
	recs []models.DiscoveryRecord
}

func (o *recordingObserver) DiscoveryChanged(_ context.Context, rec models.DiscoveryRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recs = append(o.recs, rec)
}

type AccountServiceSuite struct {
	suite.Suite
	ctx       context.Context
	accounts  *storage.KVAccounts
	discovery *memory.DiscoveryStore
	backend   *mockBackend
	observer  *recordingObserver
	metrics   *metrics.Metrics
	svc       *AccountService
	closed    bool
}

var testNow = time.Date(2024, time.September, 1, 10, 0, 0, 0, time.UTC)

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.accounts = storage.NewKVAccounts(memory.NewKV())
	s.discovery = memory.NewDiscoveryStore()
	s.backend = &mockBackend{}
	s.observer = &recordingObserver{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.closed = false
	s.svc = NewAccountService(AccountDeps{
		Accounts:  s.accounts,
		Discovery: s.discovery,
		Remote:    s.backend,
		Metrics:   s.metrics,
		Observers: []DiscoveryObserver{s.observer},
		Clock:     func() time.Time { return testNow },
	})
}

func (s *AccountServiceSuite) TearDownTest() {
	s.closeService()
}

// closeService drains background propagation so mock expectations and
// metrics can be asserted.
func (s *AccountServiceSuite) closeService() {
	if !s.closed {
		s.svc.Close()
		s.closed = true
	}
}

func (s *AccountServiceSuite) expectRemote(op remote.Op, resp remote.Response) {
	s.backend.On("Call", mock.Anything, op, mock.Anything, mock.Anything).Return(resp)
}

func (s *AccountServiceSuite) newAccount() *models.AccountRecord {
	acct := models.NewAccount("ana@example.com", "Ana Ruiz", "hash")
	s.Require().NoError(s.accounts.SaveAccount(s.ctx, acct))
	return acct
}

func (s *AccountServiceSuite) TestOnboardingFlow() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()

	steps := []struct {
		step     models.Step
		patch    models.AccountPatch
		wantNext models.Step
	}{
		{models.StepAccount, models.AccountPatch{Email: models.Ptr("ana@example.com"), Name: models.Ptr("Ana Ruiz")}, models.StepAboutYou},
		{models.StepAboutYou, models.AccountPatch{DateOfBirth: models.Ptr("2001-02-03"), University: models.Ptr("UCLA")}, models.StepBudget},
		{models.StepBudget, models.AccountPatch{
			Budget:   &models.BudgetRange{Min: 500, Max: 1500},
			Location: &models.Location{City: "Los Angeles", State: "CA"},
		}, models.StepLifestyle},
		{models.StepLifestyle, models.AccountPatch{Lifestyle: &models.LifestylePatch{
			Cleanliness: models.Ptr(1), NoiseLevel: models.Ptr(2), GuestFrequency: models.Ptr(0),
			Smoking: models.Ptr(false), NightOwl: models.Ptr(true),
		}}, models.StepPhotos},
		{models.StepPhotos, models.AccountPatch{ProfilePicture: models.Ptr(models.ImageURL("https://cdn.example.com/ana.jpg"))}, models.StepNotifications},
		{models.StepNotifications, models.AccountPatch{NotificationsEnabled: models.Ptr(true)}, models.StepComplete},
	}

	for i, st := range steps {
		got, err := s.svc.CompleteOnboardingStep(s.ctx, acct.ID, st.step, st.patch)
		s.Require().NoError(err, st.step)
		s.Equal(st.wantNext, got.Onboarding.CurrentStep, st.step)
		s.Len(got.Onboarding.CompletedSteps, i+1)

		// The discovery record exists from the first step on.
		_, err = s.svc.GetDiscovery(s.ctx, acct.ID)
		s.Require().NoError(err)
	}

	final, err := s.svc.GetAccount(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.True(final.Onboarding.IsComplete)

	rec, err := s.svc.GetDiscovery(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("$500-1500", rec.Budget)
	s.Equal("Los Angeles, CA", rec.Location)
	s.Equal("https://cdn.example.com/ana.jpg", rec.Image)
	s.Equal(lifestyle.VeryClean, rec.Lifestyle.Cleanliness)
	s.Equal(lifestyle.NightOwl, rec.Lifestyle.SleepSchedule)
	s.Equal(23, rec.Age)

	diffs, err := s.svc.Audit(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Empty(diffs)

	s.closeService()
	s.Equal(2.0, testutil.ToFloat64(s.metrics.DiscoverySyncs.WithLabelValues("build")), "first step and completion build")
	s.backend.AssertNumberOfCalls(s.T(), "Call", len(steps))
}

func (s *AccountServiceSuite) TestCompletingStepTwiceKeepsSet() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()
	patch := models.AccountPatch{
		Budget:   &models.BudgetRange{Min: 700},
		Location: &models.Location{City: "Austin"},
	}

	_, err := s.svc.CompleteOnboardingStep(s.ctx, acct.ID, models.StepBudget, patch)
	s.Require().NoError(err)
	got, err := s.svc.CompleteOnboardingStep(s.ctx, acct.ID, models.StepBudget, patch)
	s.Require().NoError(err)

	s.Equal([]models.Step{models.StepBudget}, got.Onboarding.CompletedSteps)
	s.Equal(models.StepLifestyle, got.Onboarding.CurrentStep)
}

func (s *AccountServiceSuite) TestConcurrentStepsForOneIdentity() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.CompleteOnboardingStep(s.ctx, acct.ID, models.StepNotifications, models.AccountPatch{})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.svc.GetAccount(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal([]models.Step{models.StepNotifications}, got.Onboarding.CompletedSteps)
}

func (s *AccountServiceSuite) TestInvalidBudgetStepIsRejected() {
	acct := s.newAccount()

	_, err := s.svc.CompleteOnboardingStep(s.ctx, acct.ID, models.StepBudget, models.AccountPatch{
		Budget:   &models.BudgetRange{Min: 1500, Max: 500},
		Location: &models.Location{City: "Austin"},
	})

	var verr *validation.Error
	s.Require().True(errors.As(err, &verr))
	s.Equal("Minimum budget cannot be greater than maximum budget", err.Error())

	got, err := s.svc.GetAccount(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Nil(got.Budget)
	s.Empty(got.Onboarding.CompletedSteps)

	_, err = s.svc.GetDiscovery(s.ctx, acct.ID)
	s.ErrorIs(err, ErrDiscoveryNotFound)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ValidationFailures.WithLabelValues("step")))
}

func (s *AccountServiceSuite) TestUnknownStepIsRecordedWithoutAdvancing() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()

	got, err := s.svc.CompleteOnboardingStep(s.ctx, acct.ID, models.Step("roommate-quiz"), models.AccountPatch{})
	s.Require().NoError(err)
	s.Equal(models.InitialStep, got.Onboarding.CurrentStep)
	s.True(got.Onboarding.HasCompleted("roommate-quiz"))
}

func (s *AccountServiceSuite) TestPlaceDetailsUsesStoredHasPlace() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()
	_, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, models.AccountPatch{HasPlace: models.Ptr(true)}, UpdateOptions{})
	s.Require().NoError(err)

	_, err = s.svc.CompleteOnboardingStep(s.ctx, acct.ID, models.StepPlaceDetails, models.AccountPatch{})
	s.Error(err)

	got, err := s.svc.CompleteOnboardingStep(s.ctx, acct.ID, models.StepPlaceDetails, models.AccountPatch{
		PlaceDetails: &models.PlaceDetails{RoomType: "studio", Amenities: []string{"wifi"}},
	})
	s.Require().NoError(err)
	s.Equal(models.StepNotifications, got.Onboarding.CurrentStep)

	rec, err := s.svc.GetDiscovery(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("studio", rec.RoomType)
	s.True(rec.HasPlace)
}

func (s *AccountServiceSuite) TestPhotosStepSkipsPlaceDetailsWithoutPlace() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()

	got, err := s.svc.CompleteOnboardingStep(s.ctx, acct.ID, models.StepPhotos, models.AccountPatch{
		Photos: []string{"https://cdn.example.com/1.jpg"},
	})
	s.Require().NoError(err)
	s.Equal(models.StepNotifications, got.Onboarding.CurrentStep)
}

func (s *AccountServiceSuite) TestResetOnboardingProgress() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()
	_, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, models.AccountPatch{
		University:        models.Ptr("X"),
		PersonalityTraits: []string{"calm"},
		Photos:            []string{"https://cdn.example.com/1.jpg"},
	}, UpdateOptions{})
	s.Require().NoError(err)
	_, err = s.svc.CompleteOnboardingStep(s.ctx, acct.ID, models.StepNotifications, models.AccountPatch{})
	s.Require().NoError(err)

	got, err := s.svc.ResetOnboardingProgress(s.ctx, acct.ID)
	s.Require().NoError(err)

	s.Equal(acct.ID, got.ID)
	s.Equal("ana@example.com", got.Email)
	s.Empty(got.University)
	s.Empty(got.Photos)
	s.Equal(models.InitialStep, got.Onboarding.CurrentStep)
	s.Empty(got.Onboarding.CompletedSteps)
	s.False(got.Onboarding.IsComplete)

	rec, err := s.svc.GetDiscovery(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal(acct.ID, rec.ID)
	s.Equal(profilesync.DefaultPlaceholderImage, rec.Image)
	s.Equal(profilesync.DefaultBudget, rec.Budget)
	s.Empty(rec.University)
	s.Empty(rec.PersonalityTraits)
	s.Empty(rec.Photos)
}

func (s *AccountServiceSuite) TestResetWithoutDiscoveryCreatesNeutralRecord() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()

	_, err := s.svc.ResetOnboardingProgress(s.ctx, acct.ID)
	s.Require().NoError(err)

	rec, err := s.svc.GetDiscovery(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("Ana Ruiz", rec.Name)
	s.Equal(profilesync.DefaultLocation, rec.Location)
}

func (s *AccountServiceSuite) TestUpdateValidationAndBypass() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()
	bad := models.AccountPatch{Name: models.Ptr("A")}

	_, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, bad, UpdateOptions{})
	s.EqualError(err, "Name must be at least 2 characters")

	got, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, bad, UpdateOptions{SkipValidation: true})
	s.Require().NoError(err)
	s.Equal("A", got.Name)

	rec, err := s.svc.GetDiscovery(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("A", rec.Name)
}

func (s *AccountServiceSuite) TestEmptyUpdateIsNoop() {
	acct := s.newAccount()

	got, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, models.AccountPatch{}, UpdateOptions{})
	s.Require().NoError(err)
	s.Equal(acct.ID, got.ID)

	_, err = s.svc.GetDiscovery(s.ctx, acct.ID)
	s.ErrorIs(err, ErrDiscoveryNotFound)
	s.closeService()
	s.backend.AssertNotCalled(s.T(), "Call", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AccountServiceSuite) TestRemoteFailureDoesNotRollBack() {
	s.expectRemote(remote.OpUpdateProfile, remote.Failed(503, "backend down"))
	acct := s.newAccount()

	_, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, models.AccountPatch{Bio: models.Ptr("Hello")}, UpdateOptions{})
	s.Require().NoError(err)
	s.closeService()

	got, err := s.accounts.GetAccount(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("Hello", got.Bio)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RemoteErrors.WithLabelValues(string(remote.OpUpdateProfile))))
	s.backend.AssertExpectations(s.T())
}

func (s *AccountServiceSuite) TestVerifyAndUpgrade() {
	acct := s.newAccount()

	s.Run("backend error is surfaced", func() {
		s.backend.On("Call", mock.Anything, remote.OpVerify, acct.ID, mock.Anything).Return(remote.Failed(409, "documents missing")).Once()

		_, err := s.svc.Verify(s.ctx, acct.ID)
		var rerr *remote.Error
		s.Require().True(errors.As(err, &rerr))
		s.Equal(remote.OpVerify, rerr.Op)
		s.Equal(409, rerr.Status)

		got, err := s.svc.GetAccount(s.ctx, acct.ID)
		s.Require().NoError(err)
		s.False(got.IsVerified)
	})

	s.Run("success mirrors flags", func() {
		s.backend.On("Call", mock.Anything, remote.OpVerify, acct.ID, mock.Anything).Return(remote.Response{Status: 200}).Once()
		s.backend.On("Call", mock.Anything, remote.OpUpgrade, acct.ID, mock.Anything).Return(remote.Response{Status: 200}).Once()

		got, err := s.svc.Verify(s.ctx, acct.ID)
		s.Require().NoError(err)
		s.True(got.IsVerified)

		got, err = s.svc.Upgrade(s.ctx, acct.ID)
		s.Require().NoError(err)
		s.True(got.IsPremium)

		rec, err := s.svc.GetDiscovery(s.ctx, acct.ID)
		s.Require().NoError(err)
		s.True(rec.Verified)
		s.True(rec.IsPremium)
	})
}

func (s *AccountServiceSuite) TestRefreshFromRemote() {
	acct := s.newAccount()
	s.expectRemote(remote.OpFetchProfile, remote.OK(map[string]any{
		"bio":   "Synced from backend",
		"email": "hijack@example.com",
	}))

	got, err := s.svc.RefreshFromRemote(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("Synced from backend", got.Bio)
	s.Equal("ana@example.com", got.Email)
}

func (s *AccountServiceSuite) TestAuditReportsDrift() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()
	_, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, models.AccountPatch{Major: models.Ptr("Math")}, UpdateOptions{})
	s.Require().NoError(err)

	rec, err := s.discovery.GetDiscovery(s.ctx, acct.ID)
	s.Require().NoError(err)
	rec.Name = "Someone Else"
	s.Require().NoError(s.discovery.PutDiscovery(s.ctx, rec))

	diffs, err := s.svc.Audit(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Require().Len(diffs, 1)
	s.Equal(consistency.SeverityHigh, diffs[0].Severity)

	rebuilt, err := s.svc.RebuildDiscovery(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("Ana Ruiz", rebuilt.Name)

	diffs, err = s.svc.Audit(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Empty(diffs)
}

func (s *AccountServiceSuite) TestObserversSeeEveryWrite() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()

	_, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, models.AccountPatch{Bio: models.Ptr("one")}, UpdateOptions{})
	s.Require().NoError(err)
	_, err = s.svc.UpdateUserAndProfile(s.ctx, acct.ID, models.AccountPatch{Bio: models.Ptr("two")}, UpdateOptions{})
	s.Require().NoError(err)

	s.Require().Len(s.observer.recs, 2)
	s.Equal("two", s.observer.recs[1].Bio)
}

func (s *AccountServiceSuite) TestEmailChangeToTakenAddressIsRejected() {
	victim := s.newAccount()
	attacker := models.NewAccount("attacker@example.com", "Attacker", "hash")
	s.Require().NoError(s.accounts.SaveAccount(s.ctx, attacker))

	_, err := s.svc.UpdateUserAndProfile(s.ctx, attacker.ID, models.AccountPatch{Email: models.Ptr("Ana@Example.com")}, UpdateOptions{})
	s.ErrorIs(err, storage.ErrEmailTaken)

	_, err = s.svc.CompleteOnboardingStep(s.ctx, attacker.ID, models.StepAccount, models.AccountPatch{
		Email: models.Ptr("ana@example.com"),
		Name:  models.Ptr("Attacker"),
	})
	s.ErrorIs(err, storage.ErrEmailTaken)

	owner, err := s.accounts.GetAccountByEmail(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.Equal(victim.ID, owner.ID)

	stored, err := s.accounts.GetAccount(s.ctx, attacker.ID)
	s.Require().NoError(err)
	s.Equal("attacker@example.com", stored.Email)
	s.False(stored.Onboarding.HasCompleted(models.StepAccount))

	s.closeService()
	s.backend.AssertNotCalled(s.T(), "Call", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AccountServiceSuite) TestEmailChangeIsNormalized() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()

	got, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, models.AccountPatch{Email: models.Ptr(" Ana.New@Example.COM ")}, UpdateOptions{})
	s.Require().NoError(err)
	s.Equal("ana.new@example.com", got.Email)

	byEmail, err := s.accounts.GetAccountByEmail(s.ctx, "ana.new@example.com")
	s.Require().NoError(err)
	s.Equal(acct.ID, byEmail.ID)

	_, err = s.accounts.GetAccountByEmail(s.ctx, "ana@example.com")
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *AccountServiceSuite) TestCloseWhileUpdating() {
	s.expectRemote(remote.OpUpdateProfile, remote.Response{Status: 200})
	acct := s.newAccount()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				// Calls that start after Close panic with a StateError.
				if r := recover(); r != nil {
					_, ok := r.(*StateError)
					s.True(ok, "unexpected panic: %v", r)
				}
			}()
			if _, err := s.svc.UpdateUserAndProfile(s.ctx, acct.ID, models.AccountPatch{Bio: models.Ptr("hi")}, UpdateOptions{}); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	s.closeService()
	wg.Wait()

	sent := len(s.backend.Calls)
	dropped := int(testutil.ToFloat64(s.metrics.RemoteErrors.WithLabelValues(string(remote.OpUpdateProfile))))
	// Every committed update was either sent or counted as dropped.
	s.Equal(int(succeeded.Load()), sent+dropped)
}

func (s *AccountServiceSuite) TestMissingAccount() {
	_, err := s.svc.UpdateUserAndProfile(s.ctx, "nobody", models.AccountPatch{Bio: models.Ptr("x")}, UpdateOptions{})
	s.ErrorIs(err, ErrAccountNotFound)

	_, err = s.svc.CompleteOnboardingStep(s.ctx, "nobody", models.StepAccount, models.AccountPatch{})
	s.ErrorIs(err, ErrAccountNotFound)
}

func (s *AccountServiceSuite) TestStateErrors() {
	s.PanicsWithError("invalid state in NewAccountService: account repository is required", func() {
		NewAccountService(AccountDeps{Discovery: s.discovery})
	})

	s.closeService()
	s.Panics(func() {
		_, _ = s.svc.GetAccount(s.ctx, "anyone")
	})
}
