package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	providerserrors "opatam/internal/providers/errors"
	"opatam/internal/providers/repository"
	"opatam/internal/providers/validator"
	"opatam/pkg/config"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/model"
	"opatam/pkg/sanitizer"
)

type ProviderService interface {
	Create(ctx context.Context, p *model.Provider) error
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, int64, error)
	// Update replaces the editable fields. NextAvailableDate is owned by the
	// recalculation job and is never taken from the request.
	Update(ctx context.Context, id string, p *model.Provider) (*model.Provider, error)
	Delete(ctx context.Context, id string) error

	ListPublished(ctx context.Context) ([]*model.Provider, error)
	SetNextAvailable(ctx context.Context, id string, date *string) error
}

type providerService struct {
	repo      repository.ProviderRepository
	validator *validator.ProviderValidator
	cfg       *config.Config
}

func NewProviderService(
	repo repository.ProviderRepository,
	validator *validator.ProviderValidator,
	cfg *config.Config,
) ProviderService {
	return &providerService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *providerService) Create(ctx context.Context, p *model.Provider) error {
	p.ID = ""
	p.NextAvailableDate = nil
	s.sanitize(p)

	if err := s.validator.Validate(p); err != nil {
		s.cfg.Log.Warn("Provider validation failed",
			"name", p.Name,
			"error", err,
		)
		return apperrors.Validation("Provider validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.cfg.Log.Error("Failed to create provider",
			"name", p.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create provider", err)
	}

	s.cfg.Log.Info("Provider created successfully",
		"id", p.ID,
		"name", p.Name,
		"members", len(p.Members),
		"services", len(p.Services),
	)
	return nil
}

func (s *providerService) GetByID(ctx context.Context, id string) (*model.Provider, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to retrieve provider")
	}
	return p, nil
}

func (s *providerService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var providers []*model.Provider
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count providers", "error", err)
			errCount = apperrors.Internal("Failed to count providers", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		providers, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all providers",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve providers", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return providers, count, nil
}

func (s *providerService) Update(ctx context.Context, id string, p *model.Provider) (*model.Provider, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}
	if p == nil {
		return nil, apperrors.InvalidInput("Provider body is required")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to check provider existence")
	}

	s.sanitize(p)
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.NextAvailableDate = existing.NextAvailableDate

	if err := s.validator.Validate(p); err != nil {
		s.cfg.Log.Warn("Provider validation failed",
			"id", id,
			"name", p.Name,
			"error", err,
		)
		return nil, apperrors.Validation("Provider validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, p); err != nil {
		return nil, s.translate(err, id, "Failed to update provider")
	}

	s.cfg.Log.Info("Provider updated successfully",
		"id", id,
		"name", p.Name,
		"published", p.Published,
	)
	return p, nil
}

func (s *providerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Provider ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, id, "Failed to delete provider")
	}

	s.cfg.Log.Info("Provider deleted successfully", "id", id)
	return nil
}

func (s *providerService) ListPublished(ctx context.Context) ([]*model.Provider, error) {
	providers, err := s.repo.FindPublished(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list published providers", "error", err)
		return nil, apperrors.StoreUnavailable("provider", err)
	}
	return providers, nil
}

func (s *providerService) SetNextAvailable(ctx context.Context, id string, date *string) error {
	if err := s.repo.UpdateNextAvailable(ctx, id, date); err != nil {
		return s.translate(err, id, "Failed to store next available date")
	}
	return nil
}

func (s *providerService) translate(err error, id, message string) error {
	if errors.Is(err, providerserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Provider", id)
	}
	if errors.Is(err, providerserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid provider ID format")
	}
	s.cfg.Log.Error(message,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(message, err)
}

// sanitize assigns ids to members and services that arrive without one so
// schedules and bookings can reference them.
func (s *providerService) sanitize(p *model.Provider) {
	p.Name = sanitizer.NormalizeName(p.Name)
	p.TimeZone = sanitizer.TrimAndNormalize(p.TimeZone)
	p.DefaultMemberID = sanitizer.TrimAndNormalize(p.DefaultMemberID)

	for i := range p.Members {
		m := &p.Members[i]
		m.ID = sanitizer.TrimAndNormalize(m.ID)
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.Name = sanitizer.NormalizeName(m.Name)
		m.LocationID = sanitizer.TrimAndNormalize(m.LocationID)
	}

	for i := range p.Services {
		svc := &p.Services[i]
		svc.ID = sanitizer.TrimAndNormalize(svc.ID)
		if svc.ID == "" {
			svc.ID = uuid.NewString()
		}
		svc.Name = sanitizer.NormalizeName(svc.Name)
		svc.MemberIDs = sanitizer.NormalizeIDs(svc.MemberIDs)
	}

	if p.Members == nil {
		p.Members = []model.Member{}
	}
	if p.Services == nil {
		p.Services = []model.Service{}
	}
}
