package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taxsavings-backend/internal/cache"
	"taxsavings-backend/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidSource = errors.New("invalid source")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidStage  = errors.New("invalid pipeline stage")
	ErrNotFound      = errors.New("lead not found")

	// ErrSubmission wraps every failure to persist a captured lead.
	ErrSubmission = errors.New("lead submission failed")
)

const (
	statsCacheKey       = "leads:stats"
	defaultSubmitWait   = 8 * time.Second
	defaultNotifyWait   = 10 * time.Second
	cacheInvalidateWait = 2 * time.Second
	MaxExportRows int64 = 5000
)

type Notifier interface {
	SendLeadNotification(ctx context.Context, lead Lead) (string, error)
	SendLeadConfirmation(ctx context.Context, lead Lead) (string, error)
}

type Options struct {
	Location      *time.Location
	Notifier      Notifier
	Cache         cache.Cache
	CacheTTL      time.Duration
	SubmitTimeout time.Duration
	NotifyTimeout time.Duration
	Logger        *slog.Logger
}

type Service struct {
	repo          Repository
	location      *time.Location
	notifier      Notifier
	cache         cache.Cache
	cacheTTL      time.Duration
	submitTimeout time.Duration
	notifyTimeout time.Duration
	log           *slog.Logger
	now           func() time.Time

	inflight sync.WaitGroup
}

func NewService(repo Repository, opts Options) *Service {
	s := &Service{
		repo:          repo,
		location:      opts.Location,
		notifier:      opts.Notifier,
		cache:         opts.Cache,
		cacheTTL:      opts.CacheTTL,
		submitTimeout: opts.SubmitTimeout,
		notifyTimeout: opts.NotifyTimeout,
		log:           opts.Logger,
		now:           time.Now,
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.cache == nil {
		s.cache = cache.NewNoop()
	}
	if s.submitTimeout <= 0 {
		s.submitTimeout = defaultSubmitWait
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = defaultNotifyWait
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Capture stores a new lead built from the contact and the estimate summary.
// It is always an insert; the store is given at most the submit timeout.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (Lead, error) {
	source := req.Estimate.Source
	if !IsValidSource(source) {
		return Lead{}, ErrInvalidSource
	}

	now := s.now().In(s.location)
	lead := Lead{
		ID:               primitive.NewObjectID().Hex(),
		Name:             strings.TrimSpace(req.Contact.Name),
		Email:            strings.ToLower(strings.TrimSpace(req.Contact.Email)),
		Phone:            validation.NormalizePhone(req.Contact.Phone),
		Company:          strings.TrimSpace(req.Contact.Company),
		PropertyType:     req.Estimate.PropertyType,
		PropertyCost:     req.Estimate.PropertyCost,
		AnnualPayroll:    req.Estimate.AnnualPayroll,
		LeadSource:       source,
		Status:           StatusNew,
		PipelineStage:    StageLead,
		Tags:             append([]string{}, req.Estimate.Tags...),
		Notes:            req.Estimate.Notes(),
		EstimateKind:     req.Estimate.Kind,
		EstimatedSavings: req.Estimate.Savings,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, lead); err != nil {
		return Lead{}, fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	s.invalidateStats(ctx)
	return lead, nil
}

// NotifyAsync emails staff and the submitter in the background. Failures are
// logged and never reach the caller. Wait blocks until all sends finish.
func (s *Service) NotifyAsync(lead Lead) {
	if s.notifier == nil {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		s.notify(ctx, lead)
	}()
}

func (s *Service) notify(ctx context.Context, lead Lead) {
	var g errgroup.Group
	g.Go(func() error {
		if _, err := s.notifier.SendLeadNotification(ctx, lead); err != nil {
			s.log.Warn("lead notify: staff notification failed",
				slog.String("lead_id", lead.ID),
				slog.String("error", err.Error()),
			)
			return err
		}
		return nil
	})
	if strings.TrimSpace(lead.Email) != "" {
		g.Go(func() error {
			if _, err := s.notifier.SendLeadConfirmation(ctx, lead); err != nil {
				s.log.Warn("lead notify: confirmation email failed",
					slog.String("lead_id", lead.ID),
					slog.String("email", lead.Email),
					slog.String("error", err.Error()),
				)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		s.log.Info("lead notify: ok", slog.String("lead_id", lead.ID))
	}
}

// Wait blocks until in-flight notifications complete or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) ListAdmin(ctx context.Context, filter ListFilter, limit, offset int64) ([]Lead, int64, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	items, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Export returns up to MaxExportRows leads matching filter, newest first.
func (s *Service) Export(ctx context.Context, filter ListFilter) ([]Lead, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter, MaxExportRows, 0)
}

func (s *Service) GetAdminByID(ctx context.Context, id string) (Lead, error) {
	lead, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (Lead, error) {
	id = strings.TrimSpace(id)
	status = strings.ToLower(strings.TrimSpace(status))
	if !IsValidStatus(status) {
		return Lead{}, ErrInvalidStatus
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, s.now().In(s.location))
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	s.invalidateStats(ctx)
	return updated, nil
}

func (s *Service) UpdateStage(ctx context.Context, id, stage string) (Lead, error) {
	id = strings.TrimSpace(id)
	stage = strings.ToLower(strings.TrimSpace(stage))
	if !IsValidStage(stage) {
		return Lead{}, ErrInvalidStage
	}

	updated, err := s.repo.UpdateStage(ctx, id, stage, s.now().In(s.location))
	if err != nil {
		if errors.Is(err, errRecordNotFound) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	s.invalidateStats(ctx)
	return updated, nil
}

// Stats returns the dashboard counts, served from cache when possible.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if ok, err := cache.GetJSON(ctx, s.cache, statsCacheKey, &stats); err == nil && ok {
		return stats, nil
	} else if err != nil {
		s.log.Warn("lead stats: cache read failed", slog.String("error", err.Error()))
	}

	byStatus, err := s.repo.CountBy(ctx, fieldStatus)
	if err != nil {
		return Stats{}, err
	}
	byStage, err := s.repo.CountBy(ctx, fieldStage)
	if err != nil {
		return Stats{}, err
	}

	stats = Stats{ByStatus: make(map[string]int64, len(Statuses)), ByStage: make(map[string]int64, len(Stages))}
	for _, st := range Statuses {
		stats.ByStatus[st] = byStatus[st]
	}
	for _, st := range Stages {
		stats.ByStage[st] = byStage[st]
	}
	for _, n := range byStatus {
		stats.Total += n
	}

	if err := cache.SetJSON(ctx, s.cache, statsCacheKey, stats, s.cacheTTL); err != nil {
		s.log.Warn("lead stats: cache write failed", slog.String("error", err.Error()))
	}
	return stats, nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheInvalidateWait)
	defer cancel()
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.log.Warn("lead stats: cache invalidation failed", slog.String("error", err.Error()))
	}
}

func normalizeFilter(filter ListFilter) (ListFilter, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.Stage = strings.ToLower(strings.TrimSpace(filter.Stage))
	filter.Source = strings.ToLower(strings.TrimSpace(filter.Source))
	filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))

	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return ListFilter{}, ErrInvalidStatus
	}
	if filter.Stage != "" && !IsValidStage(filter.Stage) {
		return ListFilter{}, ErrInvalidStage
	}
	if filter.Source != "" && !IsValidSource(filter.Source) {
		return ListFilter{}, ErrInvalidSource
	}
	return filter, nil
}
