package leads

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"taxsavings-backend/internal/cache"
	"taxsavings-backend/internal/estimate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type memRepo struct {
	mu        sync.Mutex
	items     map[string]Lead
	createErr error
	countBys  int
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[string]Lead)}
}

func (m *memRepo) Create(ctx context.Context, lead Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.items[lead.ID] = lead
	return nil
}

func (m *memRepo) matching(filter ListFilter) []Lead {
	out := make([]Lead, 0)
	for _, l := range m.items {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.Stage != "" && l.PipelineStage != filter.Stage {
			continue
		}
		if filter.Source != "" && l.LeadSource != filter.Source {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memRepo) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.matching(filter)
	if offset >= int64(len(all)) {
		return []Lead{}, nil
	}
	end := offset + limit
	if end > int64(len(all)) {
		end = int64(len(all))
	}
	return all[offset:end], nil
}

func (m *memRepo) Count(ctx context.Context, filter ListFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.matching(filter))), nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.items[id]
	if !ok {
		return Lead{}, errRecordNotFound
	}
	return l, nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, id, status string, now time.Time) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.items[id]
	if !ok {
		return Lead{}, errRecordNotFound
	}
	l.Status, l.UpdatedAt = status, now
	m.items[id] = l
	return l, nil
}

func (m *memRepo) UpdateStage(ctx context.Context, id, stage string, now time.Time) (Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.items[id]
	if !ok {
		return Lead{}, errRecordNotFound
	}
	l.PipelineStage, l.UpdatedAt = stage, now
	m.items[id] = l
	return l, nil
}

func (m *memRepo) CountBy(ctx context.Context, field string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countBys++
	out := make(map[string]int64)
	for _, l := range m.items {
		switch field {
		case fieldStatus:
			out[l.Status]++
		case fieldStage:
			out[l.PipelineStage]++
		}
	}
	return out, nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	notified   []string
	confirmed  []string
	notifyErr  error
	confirmErr error
}

func (f *fakeNotifier) SendLeadNotification(ctx context.Context, lead Lead) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return "", f.notifyErr
	}
	f.notified = append(f.notified, lead.ID)
	return "msg-1", nil
}

func (f *fakeNotifier) SendLeadConfirmation(ctx context.Context, lead Lead) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return "", f.confirmErr
	}
	f.confirmed = append(f.confirmed, lead.Email)
	return "msg-2", nil
}

var fixedNow = time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)

func newTestService(repo Repository, n Notifier) *Service {
	svc := NewService(repo, Options{Notifier: n, Cache: cache.NewMemory(), CacheTTL: time.Minute})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func sampleCapture(t *testing.T) CaptureRequest {
	t.Helper()
	in := estimate.CostSegInput{PropertyType: estimate.PropertyOffice, PropertyCost: 1_000_000, BonusDepreciationPercent: 100}
	est, err := estimate.EstimateCostSegregation(in)
	require.NoError(t, err)
	return CaptureRequest{
		Contact: Contact{
			Name:    "  Dana Reyes ",
			Email:   "Dana@Example.COM",
			Phone:   "(555) 010-2030",
			Company: "Reyes Holdings",
		},
		Estimate: CostSegSummary(in, est),
	}
}

func TestCaptureStoresNewLead(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)

	lead, err := svc.Capture(context.Background(), sampleCapture(t))
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, "Dana Reyes", lead.Name)
	assert.Equal(t, "dana@example.com", lead.Email)
	assert.Equal(t, "5550102030", lead.Phone)
	assert.Equal(t, StatusNew, lead.Status)
	assert.Equal(t, StageLead, lead.PipelineStage)
	assert.Equal(t, SourceCostSegCalculator, lead.LeadSource)
	assert.Equal(t, KindCostSegregation, lead.EstimateKind)
	assert.Equal(t, []string{"calculator", "cost-segregation", "office"}, lead.Tags)
	assert.InDelta(t, 92_500.0, lead.EstimatedSavings, 0.001)
	assert.Contains(t, lead.Notes, "Estimated first-year tax savings: $92,500")
	assert.Equal(t, fixedNow, lead.CreatedAt)

	stored, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, lead, stored)
}

func TestCaptureAlwaysInserts(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)

	first, err := svc.Capture(context.Background(), sampleCapture(t))
	require.NoError(t, err)
	second, err := svc.Capture(context.Background(), sampleCapture(t))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	n, err := repo.Count(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCaptureStoreFailureWrapsSubmissionError(t *testing.T) {
	repo := newMemRepo()
	repo.createErr = errors.New("connection refused")
	svc := newTestService(repo, nil)

	_, err := svc.Capture(context.Background(), sampleCapture(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubmission)
	assert.Contains(t, err.Error(), "connection refused")
}

// stalledRepo never finishes an insert before its context ends.
type stalledRepo struct {
	*memRepo
}

func (r stalledRepo) Create(ctx context.Context, lead Lead) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCaptureSubmitTimeout(t *testing.T) {
	svc := NewService(stalledRepo{newMemRepo()}, Options{SubmitTimeout: 30 * time.Millisecond})

	start := time.Now()
	_, err := svc.Capture(context.Background(), sampleCapture(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubmission)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

// deadlineCache records whether Delete was handed a bounded context.
type deadlineCache struct {
	*cache.MemoryCache
	mu        sync.Mutex
	deletes   int
	bounded   bool
	cancelled bool
}

func (c *deadlineCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, c.bounded = ctx.Deadline()
	c.cancelled = ctx.Err() != nil
	c.deletes++
	return c.MemoryCache.Delete(ctx, keys...)
}

func TestCaptureInvalidatesStatsWithBoundedContext(t *testing.T) {
	c := &deadlineCache{MemoryCache: cache.NewMemory()}
	svc := NewService(newMemRepo(), Options{Cache: c, CacheTTL: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.Capture(ctx, sampleCapture(t))
	require.NoError(t, err)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, 1, c.deletes)
	assert.True(t, c.bounded)
	assert.False(t, c.cancelled)
}

func TestCaptureRejectsUnknownSource(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	req := sampleCapture(t)
	req.Estimate.Source = "newsletter"

	_, err := svc.Capture(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestNotifyAsyncSendsBothEmails(t *testing.T) {
	defer goleak.VerifyNone(t)

	n := &fakeNotifier{}
	svc := newTestService(newMemRepo(), n)
	lead, err := svc.Capture(context.Background(), sampleCapture(t))
	require.NoError(t, err)

	svc.NotifyAsync(lead)
	require.NoError(t, svc.Wait(context.Background()))

	assert.Equal(t, []string{lead.ID}, n.notified)
	assert.Equal(t, []string{"dana@example.com"}, n.confirmed)
}

func TestNotifyAsyncFailureDoesNotAffectCapture(t *testing.T) {
	defer goleak.VerifyNone(t)

	n := &fakeNotifier{notifyErr: errors.New("brevo down"), confirmErr: errors.New("brevo down")}
	repo := newMemRepo()
	svc := newTestService(repo, n)

	lead, err := svc.Capture(context.Background(), sampleCapture(t))
	require.NoError(t, err)
	svc.NotifyAsync(lead)
	require.NoError(t, svc.Wait(context.Background()))

	_, err = repo.GetByID(context.Background(), lead.ID)
	assert.NoError(t, err)
}

func TestUpdateStatusAndStage(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)
	lead, err := svc.Capture(context.Background(), sampleCapture(t))
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), lead.ID, " Contacted ")
	require.NoError(t, err)
	assert.Equal(t, StatusContacted, updated.Status)

	updated, err = svc.UpdateStage(context.Background(), lead.ID, "proposal")
	require.NoError(t, err)
	assert.Equal(t, StageProposal, updated.PipelineStage)

	_, err = svc.UpdateStatus(context.Background(), lead.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.UpdateStage(context.Background(), lead.ID, "closed")
	assert.ErrorIs(t, err, ErrInvalidStage)
	_, err = svc.UpdateStatus(context.Background(), "missing", StatusWon)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetAdminByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAdminFilters(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.Capture(ctx, sampleCapture(t))
	require.NoError(t, err)
	est, err := estimate.EstimateRDCredit(estimate.RDCreditInput{AnnualPayroll: 500_000, Activities: []string{"software"}})
	require.NoError(t, err)
	_, err = svc.Capture(ctx, CaptureRequest{
		Contact:  Contact{Name: "Sam", Email: "sam@example.com", Phone: "5550109999"},
		Estimate: RDCreditSummary(est),
	})
	require.NoError(t, err)

	items, total, err := svc.ListAdmin(ctx, ListFilter{Source: SourceRDCreditCalculator}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Sam", items[0].Name)

	_, _, err = svc.ListAdmin(ctx, ListFilter{Status: "bogus"}, 20, 0)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, _, err = svc.ListAdmin(ctx, ListFilter{Source: "bogus"}, 20, 0)
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestStatsCachedAndInvalidated(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	lead, err := svc.Capture(ctx, sampleCapture(t))
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[StatusNew])
	assert.Equal(t, int64(0), stats.ByStatus[StatusWon])
	assert.Equal(t, int64(1), stats.ByStage[StageLead])
	calls := repo.countBys

	_, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, repo.countBys, "second read is served from cache")

	_, err = svc.UpdateStatus(ctx, lead.ID, StatusWon)
	require.NoError(t, err)
	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ByStatus[StatusWon])
	assert.Equal(t, int64(0), stats.ByStatus[StatusNew])
}

func TestWaitHonoursContext(t *testing.T) {
	svc := newTestService(newMemRepo(), nil)
	svc.inflight.Add(1)
	defer svc.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Wait(ctx), context.DeadlineExceeded)
}
