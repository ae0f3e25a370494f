package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediPay/internal/queue"
	"MediPay/internal/repository"
	"MediPay/pkg/errors"
	"MediPay/pkg/identity"
)

type onboardingFixture struct {
	svc       *OnboardingService
	repo      *repository.OnboardingRepository
	provider  *identity.MockProvider
	publisher *recordingPublisher
}

func newOnboardingFixture(t *testing.T) *onboardingFixture {
	t.Helper()
	repo := repository.NewOnboardingRepository(openTestDB(t))
	provider := identity.NewMockProvider()
	publisher := &recordingPublisher{}
	return &onboardingFixture{
		svc:       NewOnboardingService(repo, provider, publisher),
		repo:      repo,
		provider:  provider,
		publisher: publisher,
	}
}

func step(n int) *int { return &n }

// failingStore 所有写入都失败
type failingStore struct {
	OnboardingStore
	err error
}

func (f failingStore) Upsert(ctx context.Context, userID string, data []byte, step int) error {
	return f.err
}

func TestSavePartial(t *testing.T) {
	ctx := context.Background()

	t.Run("requires session and touches nothing", func(t *testing.T) {
		f := newOnboardingFixture(t)

		_, err := f.svc.SavePartial(ctx, "", json.RawMessage(`{"a":1}`), step(1))
		assert.ErrorIs(t, err, errors.Unauthenticated)
		assert.Zero(t, f.provider.CallCount())

		_, err = f.repo.Get(ctx, "")
		assert.ErrorIs(t, err, errors.ErrRecordNotFound)
	})

	t.Run("rejects negative step and non-object data", func(t *testing.T) {
		f := newOnboardingFixture(t)

		_, err := f.svc.SavePartial(ctx, "user_1", json.RawMessage(`{}`), step(-1))
		assert.ErrorIs(t, err, errors.OnboardingStepInvalid)
		_, err = f.svc.SavePartial(ctx, "user_1", json.RawMessage(`{}`), nil)
		assert.ErrorIs(t, err, errors.OnboardingStepInvalid)
		_, err = f.svc.SavePartial(ctx, "user_1", json.RawMessage(`[1,2]`), step(0))
		assert.ErrorIs(t, err, errors.OnboardingStepInvalid)
		assert.Zero(t, f.provider.CallCount())
	})

	t.Run("saves then mirrors step preserving other metadata", func(t *testing.T) {
		f := newOnboardingFixture(t)
		f.provider.Seed("user_1", identity.Metadata{"role": "admin"})

		resp, err := f.svc.SavePartial(ctx, "user_1", json.RawMessage(`{"practiceName":"Acme"}`), step(2))
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.True(t, resp.MetadataSynced)

		record, err := f.repo.Get(ctx, "user_1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"practiceName":"Acme"}`, string(record.Data))
		assert.Equal(t, 2, record.LastCompletedStep)
		assert.True(t, record.InSync())

		md := f.provider.Metadata("user_1")
		assert.Equal(t, "admin", md["role"])
		got, ok := md.LastCompletedStep()
		require.True(t, ok)
		assert.Equal(t, 2, got)
		assert.Empty(t, f.publisher.messages)
	})

	t.Run("last write wins without merging", func(t *testing.T) {
		f := newOnboardingFixture(t)

		_, err := f.svc.SavePartial(ctx, "user_1", json.RawMessage(`{"practiceName":"Acme","npi":"1"}`), step(1))
		require.NoError(t, err)
		_, err = f.svc.SavePartial(ctx, "user_1", json.RawMessage(`{"billingEmail":"b@acme.io"}`), step(2))
		require.NoError(t, err)

		partial, err := f.svc.GetPartial(ctx, "user_1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"billingEmail":"b@acme.io"}`, string(partial.Data))
		assert.Equal(t, 2, partial.LastCompletedStep)
	})

	t.Run("store failure surfaces store message", func(t *testing.T) {
		provider := identity.NewMockProvider()
		svc := NewOnboardingService(failingStore{err: stderrors.New("connection refused")}, provider, nil)

		_, err := svc.SavePartial(ctx, "user_1", json.RawMessage(`{}`), step(1))
		assert.ErrorIs(t, err, errors.OnboardingStoreWriteFailed)
		assert.EqualError(t, err, "connection refused")
		assert.Zero(t, provider.CallCount())
	})

	t.Run("metadata failure keeps data and queues retry", func(t *testing.T) {
		f := newOnboardingFixture(t)
		f.provider.FailUpdates = true

		_, err := f.svc.SavePartial(ctx, "user_1", json.RawMessage(`{"x":1}`), step(3))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.OnboardingMetadataSyncFailed)

		var detail *errors.DetailError
		require.ErrorAs(t, err, &detail)
		assert.Equal(t, true, detail.Details["data_saved"])
		assert.Equal(t, true, detail.Details["retry_queued"])

		record, err := f.repo.Get(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, 3, record.LastCompletedStep)
		assert.False(t, record.InSync())

		require.Len(t, f.publisher.messages, 1)
		assert.Equal(t, publishedSync{UserID: "user_1", Step: 3, Source: queue.SourceSave}, f.publisher.messages[0])
	})

	t.Run("retry_queued false when publish fails", func(t *testing.T) {
		f := newOnboardingFixture(t)
		f.provider.FailNext = true
		f.publisher.err = stderrors.New("broker down")

		_, err := f.svc.SavePartial(ctx, "user_1", json.RawMessage(`{}`), step(0))
		var detail *errors.DetailError
		require.ErrorAs(t, err, &detail)
		assert.Equal(t, false, detail.Details["retry_queued"])
	})
}

func TestGetPartial(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture(t)

	empty, err := f.svc.GetPartial(ctx, "user_1")
	require.NoError(t, err)
	assert.False(t, empty.Exists)
	assert.Equal(t, 0, empty.ResumeStep)
	assert.JSONEq(t, `{}`, string(empty.Data))

	_, err = f.svc.SavePartial(ctx, "user_1", json.RawMessage(`{"a":true}`), step(1))
	require.NoError(t, err)

	partial, err := f.svc.GetPartial(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, partial.Exists)
	assert.Equal(t, 2, partial.ResumeStep)

	_, err = f.svc.GetPartial(ctx, "")
	assert.ErrorIs(t, err, errors.Unauthenticated)
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("false short-circuits without session", func(t *testing.T) {
		f := newOnboardingFixture(t)

		for _, uid := range []string{"", "user_1"} {
			resp, err := f.svc.Complete(ctx, uid, false)
			require.NoError(t, err)
			assert.False(t, resp.Completed)
			assert.Equal(t, "onboarding not completed", resp.Message)
		}
		assert.Zero(t, f.provider.CallCount())
	})

	t.Run("requires session", func(t *testing.T) {
		f := newOnboardingFixture(t)
		_, err := f.svc.Complete(ctx, "", true)
		assert.ErrorIs(t, err, errors.Unauthenticated)
	})

	t.Run("merges flag into existing metadata", func(t *testing.T) {
		f := newOnboardingFixture(t)
		f.provider.Seed("user_1", identity.Metadata{"role": "billing_manager", identity.KeyLastCompletedStep: 4})

		resp, err := f.svc.Complete(ctx, "user_1", true)
		require.NoError(t, err)
		assert.True(t, resp.Completed)
		assert.True(t, resp.SessionRefreshRequired)
		assert.Equal(t, true, resp.Metadata[identity.KeyOnboardingComplete])

		md := f.provider.Metadata("user_1")
		assert.True(t, md.OnboardingComplete())
		assert.Equal(t, "billing_manager", md["role"])
		got, _ := md.LastCompletedStep()
		assert.Equal(t, 4, got)
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newOnboardingFixture(t)
		f.provider.FailUpdates = true

		_, err := f.svc.Complete(ctx, "user_1", true)
		assert.ErrorIs(t, err, errors.OnboardingCompleteFailed)
	})
}

func TestSyncMetadataUsesStoredStep(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture(t)

	require.NoError(t, f.repo.Upsert(ctx, "user_1", []byte(`{}`), 5))

	// 消息中的步骤已过期，以本地记录为准
	require.NoError(t, f.svc.SyncMetadata(ctx, "user_1", 2))

	got, ok := f.provider.Metadata("user_1").LastCompletedStep()
	require.True(t, ok)
	assert.Equal(t, 5, got)

	record, err := f.repo.Get(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, record.InSync())

	f.provider.FailUpdates = true
	assert.ErrorIs(t, f.svc.SyncMetadata(ctx, "user_1", 5), identity.ErrMockFailure)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture(t)

	_, err := f.svc.SavePartial(ctx, "synced", json.RawMessage(`{}`), step(1))
	require.NoError(t, err)
	require.NoError(t, f.repo.Upsert(ctx, "lagging", []byte(`{}`), 2))

	n, err := f.svc.Reconcile(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, publishedSync{UserID: "lagging", Step: 2, Source: queue.SourceReconcile}, f.publisher.messages[0])

	_, err = NewOnboardingService(f.repo, f.provider, nil).Reconcile(ctx, 10)
	assert.Error(t, err)
}

// memoryPending 进程内的在途标记
type memoryPending struct {
	pending map[string]bool
	err     error
}

func (m *memoryPending) MarkPending(ctx context.Context, userID string) (bool, error) {
	if m.err != nil {
		return true, m.err
	}
	if m.pending[userID] {
		return false, nil
	}
	m.pending[userID] = true
	return true, nil
}

func (m *memoryPending) Clear(ctx context.Context, userID string) error {
	delete(m.pending, userID)
	return nil
}

func TestReconcileSkipsPendingSync(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture(t)
	pending := &memoryPending{pending: map[string]bool{}}
	f.svc.WithPendingMarker(pending)

	require.NoError(t, f.repo.Upsert(ctx, "lagging", []byte(`{}`), 2))

	n, err := f.svc.Reconcile(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 在途消息未处理完之前，后续对账不再重复投递
	n, err = f.svc.Reconcile(ctx, 500)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.publisher.messages, 1)

	require.NoError(t, f.svc.SyncMetadata(ctx, "lagging", 2))
	assert.False(t, pending.pending["lagging"])

	n, err = f.svc.Reconcile(ctx, 500)
	require.NoError(t, err)
	assert.Zero(t, n, "row is in sync after the worker applied it")
}

func TestEnqueueFailureClearsPendingMarker(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture(t)
	pending := &memoryPending{pending: map[string]bool{}}
	f.svc.WithPendingMarker(pending)
	require.NoError(t, f.repo.Upsert(ctx, "lagging", []byte(`{}`), 2))

	f.publisher.err = stderrors.New("broker down")
	n, err := f.svc.Reconcile(ctx, 500)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, pending.pending)

	f.publisher.err = nil
	n, err = f.svc.Reconcile(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStatusPrefersStoredStep(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture(t)
	f.provider.Seed("user_1", identity.Metadata{identity.KeyLastCompletedStep: 1, identity.KeyOnboardingComplete: true})
	require.NoError(t, f.repo.Upsert(ctx, "user_1", []byte(`{}`), 3))

	status, err := f.svc.Status(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, status.OnboardingComplete)
	assert.Equal(t, 3, status.LastCompletedStep)
	assert.Equal(t, 4, status.ResumeStep)

	f.provider.Seed("user_2", identity.Metadata{identity.KeyLastCompletedStep: 2})
	status, err = f.svc.Status(ctx, "user_2")
	require.NoError(t, err)
	assert.False(t, status.OnboardingComplete)
	assert.Equal(t, 3, status.ResumeStep)
}

