package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listforge/listforge-be/internal/domain"
	"github.com/listforge/listforge-be/internal/formcache"
	"github.com/listforge/listforge-be/internal/provider"
	"github.com/listforge/listforge-be/internal/provider/mock"
)

func newTestOrchestrator(store *fakeStore, p provider.FormAutomation, scheduler RetryScheduler, cfg Config) *Orchestrator {
	pipeline := NewPipeline(store, formcache.NewMemoryCache(), p, testLogger(), cfg)
	return NewOrchestrator(store, store, store, pipeline, scheduler, testLogger(), cfg)
}

func seedDirectories(store *fakeStore, n int) []int64 {
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		store.addDirectory(testDirectory(int64(i)))
		ids = append(ids, int64(i))
	}
	return ids
}

func TestOrchestrator_BulkSubmit_OrderPreserved(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	ids := seedDirectories(store, 5)

	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	results, err := o.BulkSubmit(context.Background(), 1, ids)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, sub := range results {
		assert.Equal(t, ids[i], sub.DirectoryID, "result %d out of order", i)
		assert.Equal(t, domain.StatusSubmitted, sub.Status)
	}
}

func TestOrchestrator_BulkSubmit_OneFailureDoesNotSinkTheBatch(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	ids := seedDirectories(store, 5)

	p := mock.NewProvider()
	p.SubmitFunc = func(_ context.Context, target provider.Target, _ map[string]string, _ *domain.FormStructure) (*provider.SubmitResult, error) {
		if target.DirectoryID == 3 {
			return nil, errors.New("connection reset")
		}
		return &provider.SubmitResult{Status: domain.StatusSubmitted, ListingURL: target.URL + "/listing"}, nil
	}

	o := newTestOrchestrator(store, p, nil, testConfig())

	results, err := o.BulkSubmit(context.Background(), 1, ids)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for _, sub := range results {
		if sub.DirectoryID == 3 {
			assert.Equal(t, domain.StatusFailed, sub.Status)
			assert.NotEmpty(t, sub.ErrorLog)
		} else {
			assert.Equal(t, domain.StatusSubmitted, sub.Status)
		}
	}
}

func TestOrchestrator_BulkSubmit_ConcurrencyBounded(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	ids := seedDirectories(store, 12)

	var g gauge
	p := mock.NewProvider()
	p.SubmitFunc = func(_ context.Context, target provider.Target, _ map[string]string, _ *domain.FormStructure) (*provider.SubmitResult, error) {
		g.enter()
		time.Sleep(10 * time.Millisecond)
		g.exit()
		return &provider.SubmitResult{Status: domain.StatusSubmitted}, nil
	}

	cfg := testConfig()
	cfg.ConcurrentSubmissions = 3

	o := newTestOrchestrator(store, p, nil, cfg)

	_, err := o.BulkSubmit(context.Background(), 1, ids)
	require.NoError(t, err)

	assert.LessOrEqual(t, g.max(), 3, "no more than 3 pipelines may run at once")
}

func TestOrchestrator_BulkSubmit_Validation(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	seedDirectories(store, 2)

	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	t.Run("empty directory list", func(t *testing.T) {
		_, err := o.BulkSubmit(context.Background(), 1, nil)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("duplicate directory ids", func(t *testing.T) {
		_, err := o.BulkSubmit(context.Background(), 1, []int64{1, 2, 1})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := o.BulkSubmit(context.Background(), 99, []int64{1})
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("unknown directory fails before any rows exist", func(t *testing.T) {
		before := len(store.submissions)
		_, err := o.BulkSubmit(context.Background(), 1, []int64{1, 99})
		assert.ErrorIs(t, err, domain.ErrDirectoryNotFound)
		assert.Len(t, store.submissions, before, "no submission rows for a rejected batch")
	})
}

func TestOrchestrator_BulkSubmit_CreatesRowsBeforeRunning(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	ids := seedDirectories(store, 3)

	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	results, err := o.BulkSubmit(context.Background(), 1, ids)
	require.NoError(t, err)

	for _, sub := range results {
		assert.NotZero(t, sub.ID)
		assert.Equal(t, 3, sub.MaxRetries)
	}
}

func TestOrchestrator_BulkSubmit_SchedulesAutoRetry(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	seedDirectories(store, 2)

	p := mock.NewProvider()
	p.SubmitFunc = func(_ context.Context, target provider.Target, _ map[string]string, _ *domain.FormStructure) (*provider.SubmitResult, error) {
		if target.DirectoryID == 1 {
			return nil, errors.New("boom")
		}
		return &provider.SubmitResult{Status: domain.StatusSubmitted}, nil
	}

	scheduler := &fakeScheduler{}
	o := newTestOrchestrator(store, p, scheduler, testConfig())

	results, err := o.BulkSubmit(context.Background(), 1, []int64{1, 2})
	require.NoError(t, err)

	// Only the failed submission gets queued.
	require.Len(t, scheduler.ids(), 1)
	assert.Equal(t, results[0].ID, scheduler.ids()[0])
}

func TestOrchestrator_BulkSubmit_StoreWriteFailureFailsRequest(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	ids := seedDirectories(store, 2)

	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	store.updateErr = errors.New("connection refused")

	_, err := o.BulkSubmit(context.Background(), 1, ids)
	require.Error(t, err, "an unusable store must fail the request, not hide in a unit")
	assert.Contains(t, err.Error(), "connection refused")

	// The rows keep their last persisted state rather than reporting
	// outcomes that never reached the store.
	for _, id := range ids {
		for _, sub := range store.submissions {
			if sub.DirectoryID == id {
				assert.Equal(t, domain.StatusPending, sub.Status)
			}
		}
	}
}

func TestOrchestrator_Submit_Single(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	seedDirectories(store, 1)

	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	sub, err := o.Submit(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, sub.Status)
	assert.Equal(t, int64(1), sub.DirectoryID)
}

func failedSubmission(store *fakeStore, retryCount int, lastRetry *time.Time) *domain.Submission {
	sub := &domain.Submission{
		SaasProductID: 1,
		DirectoryID:   1,
		Status:        domain.StatusFailed,
		RetryCount:    retryCount,
		MaxRetries:    3,
		LastRetryAt:   lastRetry,
		CreatedAt:     time.Now().Add(-time.Hour),
	}
	store.addSubmission(sub)
	return sub
}

func TestOrchestrator_Retry_Manual(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	seedDirectories(store, 1)
	sub := failedSubmission(store, 0, nil)

	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	got, err := o.Retry(context.Background(), sub.ID, true)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSubmitted, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.NotNil(t, got.LastRetryAt)
}

func TestOrchestrator_Retry_ManualSkipsDelay(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	seedDirectories(store, 1)

	recent := time.Now().Add(-time.Second)
	sub := failedSubmission(store, 1, &recent)

	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	got, err := o.Retry(context.Background(), sub.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, got.Status)
}

func TestOrchestrator_Retry_AutomaticHonorsDelay(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	seedDirectories(store, 1)

	recent := time.Now().Add(-time.Second)
	sub := failedSubmission(store, 1, &recent)

	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	_, err := o.Retry(context.Background(), sub.ID, false)
	require.ErrorIs(t, err, domain.ErrRetryNotDue)

	// The submission is untouched.
	assert.Equal(t, domain.StatusFailed, store.get(sub.ID).Status)
	assert.Equal(t, 1, store.get(sub.ID).RetryCount)
}

func TestOrchestrator_Retry_Exhausted(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	seedDirectories(store, 1)
	sub := failedSubmission(store, 3, nil)

	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	_, err := o.Retry(context.Background(), sub.ID, true)
	require.ErrorIs(t, err, domain.ErrExhaustedRetries)

	assert.Equal(t, 3, store.get(sub.ID).RetryCount, "exhausted retry must not consume budget")
}

func TestOrchestrator_Retry_WrongStatus(t *testing.T) {
	statuses := []domain.SubmissionStatus{
		domain.StatusPending,
		domain.StatusSubmitted,
		domain.StatusApproved,
		domain.StatusRejected,
	}

	for _, status := range statuses {
		t.Run(status.String(), func(t *testing.T) {
			store := newFakeStore()
			store.addProduct(testProduct(1))
			seedDirectories(store, 1)

			sub := &domain.Submission{
				SaasProductID: 1,
				DirectoryID:   1,
				Status:        status,
				MaxRetries:    3,
			}
			store.addSubmission(sub)

			o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

			_, err := o.Retry(context.Background(), sub.ID, true)
			assert.ErrorIs(t, err, domain.ErrIllegalTransition)
			assert.Equal(t, status, store.get(sub.ID).Status, "refused retry must not change state")
		})
	}
}

func TestOrchestrator_Retry_NotFound(t *testing.T) {
	store := newFakeStore()
	o := newTestOrchestrator(store, mock.NewProvider(), nil, testConfig())

	_, err := o.Retry(context.Background(), 42, true)
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
}

func TestOrchestrator_Retry_ErrorLogAccumulates(t *testing.T) {
	store := newFakeStore()
	store.addProduct(testProduct(1))
	seedDirectories(store, 1)

	sub := failedSubmission(store, 0, nil)
	sub.ErrorLog = domain.ErrorLog{{Timestamp: time.Now().Add(-time.Hour), Error: "first attempt failed"}}
	store.addSubmission(sub)

	p := mock.NewProvider()
	p.SubmitFunc = func(context.Context, provider.Target, map[string]string, *domain.FormStructure) (*provider.SubmitResult, error) {
		return nil, errors.New("still broken")
	}

	o := newTestOrchestrator(store, p, nil, testConfig())

	got, err := o.Retry(context.Background(), sub.ID, true)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, got.Status)
	require.Len(t, got.ErrorLog, 2)
	assert.Equal(t, "first attempt failed", got.ErrorLog[0].Error)
	assert.Contains(t, got.ErrorLog[1].Error, "still broken")
}
