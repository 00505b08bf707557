package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"mesa/internal/availability"
	locationerrors "mesa/internal/locations/errors"
	"mesa/internal/locations/repository"
	"mesa/internal/locations/validator"
	"mesa/pkg/config"
	apperrors "mesa/pkg/errors"
	"mesa/pkg/model"
	"mesa/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type LocationService interface {
	Create(ctx context.Context, loc *model.Location) error
	GetByID(ctx context.Context, id string) (*model.Location, error)
	GetAll(ctx context.Context, limit int, offset int) ([]*model.Location, int64, error)
	Update(ctx context.Context, id string, updates *model.LocationUpdate) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, companyID string, city string) ([]*model.Location, error)
	StartHours(ctx context.Context, id string, date string) ([]availability.Slot, error)
	EndHours(ctx context.Context, id string, date string, startHour string) ([]availability.Slot, error)
}

type locationService struct {
	repo      repository.LocationRepository
	validator *validator.LocationValidator
	cfg       *config.Config
}

func NewLocationService(
	repo repository.LocationRepository,
	validator *validator.LocationValidator,
	cfg *config.Config,
) LocationService {
	return &locationService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *locationService) Create(ctx context.Context, loc *model.Location) error {
	s.sanitize(loc)
	s.applyDefaults(loc)

	if err := s.validator.Validate(loc); err != nil {
		s.cfg.Log.Warn("Location validation failed",
			"name", loc.Name,
			"company_id", loc.CompanyID,
			"error", err,
		)
		return apperrors.Validation("Location validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.Search(sessCtx, loc.CompanyID, loc.City)
		if err != nil {
			return apperrors.Internal("Failed to check for existing locations", err)
		}

		for _, e := range existing {
			if strings.EqualFold(e.Address, loc.Address) {
				return apperrors.Conflict("Location with the same address already exists for this company")
			}

			if strings.EqualFold(e.Name, loc.Name) {
				return apperrors.Conflict("Location with the same name and city already exists for this company")
			}
		}
		return s.repo.Create(sessCtx, loc)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create location",
			"name", loc.Name,
			"company_id", loc.CompanyID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Location created successfully",
		"id", loc.ID,
		"name", loc.Name,
		"company_id", loc.CompanyID,
		"city", loc.City,
	)
	return nil
}

func (s *locationService) GetByID(ctx context.Context, id string) (*model.Location, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Location ID cannot be empty")
	}

	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, locationerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Location", id)
		}
		if errors.Is(err, locationerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid location ID format")
		}
		s.cfg.Log.Error("Failed to get location by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve location", err)
	}

	return loc, nil
}

func (s *locationService) GetAll(ctx context.Context, limit int, offset int) ([]*model.Location, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var locations []*model.Location
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx)
		if err != nil {
			s.cfg.Log.Error("Failed to count locations", "error", err)
			errCount = apperrors.Internal("Failed to count locations", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		locations, err = s.repo.FindAll(sharedCtx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all locations",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve locations", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return locations, count, nil
}

func (s *locationService) Update(ctx context.Context, id string, updates *model.LocationUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Location ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, locationerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Location", id)
		}
		if errors.Is(err, locationerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid location ID format")
		}
		return apperrors.Internal("Failed to check location existence", err)
	}

	s.sanitizeUpdate(updates)
	merged := s.mergeLocationUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Location validation failed",
			"name", merged.Name,
			"company_id", merged.CompanyID,
			"id", id,
			"error", err,
		)
		return apperrors.Validation("Location validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existingLocations, err := s.repo.Search(sessCtx, merged.CompanyID, merged.City)
		if err != nil {
			return apperrors.Internal("Failed to check for duplicate locations", err)
		}
		for _, e := range existingLocations {
			if e.ID == merged.ID {
				continue
			}
			if strings.EqualFold(e.Address, merged.Address) {
				return apperrors.Conflict("Another location with the same address already exists for this company")
			}
			if strings.EqualFold(e.Name, merged.Name) && strings.EqualFold(e.City, merged.City) {
				return apperrors.Conflict("Another location with the same name and city already exists for this company")
			}
		}
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			s.cfg.Log.Error("Failed to update location",
				"id", id,
				"error", err,
			)
			return apperrors.Internal("Failed to update location", err)
		}
		return nil
	})

	if err != nil {
		return err
	}

	s.cfg.Log.Info("Location updated successfully", "id", id, "name", merged.Name)
	return nil
}

func (s *locationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Location ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, locationerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Location", id)
			}
			if errors.Is(err, locationerrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid location ID format")
			}
			s.cfg.Log.Error("Failed to delete location",
				"id", id,
				"error", err,
			)
			return apperrors.Internal("Failed to delete location", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cfg.Log.Info("Location deleted successfully", "id", id)
	return nil
}

func (s *locationService) Search(ctx context.Context, companyID string, city string) ([]*model.Location, error) {
	if companyID == "" {
		return nil, apperrors.InvalidInput("Company_id must be provided, city is optional")
	}

	city = sanitizer.NormalizeCity(city)
	companyID = sanitizer.TrimAndNormalize(companyID)

	locations, err := s.repo.Search(ctx, companyID, city)
	if err != nil {
		s.cfg.Log.Error("Failed to search locations",
			"company_id", companyID,
			"city", city,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to search locations", err)
	}

	s.cfg.Log.Debug("Locations search completed",
		"company_id", companyID,
		"city", city,
		"results_count", len(locations),
	)

	return locations, nil
}

// StartHours resolves the bookable start-hour sequence for one location and date.
// A date a guest cannot book on yields an empty sequence rather than an error.
func (s *locationService) StartHours(ctx context.Context, id string, date string) ([]availability.Slot, error) {
	loc, err := s.locationForDate(ctx, id, date)
	if err != nil {
		return nil, err
	}

	slots := availability.StartHours(loc, date)

	s.cfg.Log.Debug("Start hours resolved",
		"location_id", id,
		"date", date,
		"slot_count", len(slots),
	)
	return slots, nil
}

// EndHours resolves the selectable end hours for a chosen start hour. It is
// only meaningful when the location opted in to explicit end dates.
func (s *locationService) EndHours(ctx context.Context, id string, date string, startHour string) ([]availability.Slot, error) {
	if _, err := time.Parse("15:04", startHour); err != nil {
		return nil, apperrors.InvalidInput("Start hour must be an HH:mm label")
	}

	loc, err := s.locationForDate(ctx, id, date)
	if err != nil {
		return nil, err
	}

	if !loc.Schedule.Settings.IsEndDateEnable {
		return nil, apperrors.InvalidInput("Location does not accept explicit end hours")
	}

	slots := availability.EndHours(loc, date, startHour)

	s.cfg.Log.Debug("End hours resolved",
		"location_id", id,
		"date", date,
		"start_hour", startHour,
		"slot_count", len(slots),
	)
	return slots, nil
}

func (s *locationService) locationForDate(ctx context.Context, id string, date string) (*model.Location, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperrors.InvalidInput("Date must be in YYYY-MM-DD format")
	}
	return s.GetByID(ctx, id)
}

func (s *locationService) sanitize(loc *model.Location) {
	loc.Name = sanitizer.NormalizeName(loc.Name)
	loc.City = sanitizer.NormalizeCity(loc.City)
	loc.Address = sanitizer.TrimAndNormalize(loc.Address)
	loc.Phone = sanitizer.NormalizePhone(loc.Phone)
}

func (s *locationService) sanitizeUpdate(updates *model.LocationUpdate) {
	if updates.Name != nil {
		*updates.Name = sanitizer.NormalizeName(*updates.Name)
	}
	if updates.City != nil {
		*updates.City = sanitizer.NormalizeCity(*updates.City)
	}
	if updates.Address != nil {
		*updates.Address = sanitizer.TrimAndNormalize(*updates.Address)
	}
	if updates.Phone != nil {
		*updates.Phone = sanitizer.NormalizePhone(*updates.Phone)
	}
}

func (s *locationService) applyDefaults(loc *model.Location) {
	if loc.Schedule.Settings.NumberBookingsAllow == 0 {
		loc.Schedule.Settings.NumberBookingsAllow = s.cfg.DefaultNumberBookingsAllow
	}
	if loc.Schedule.Settings.MaximumCapacity == 0 {
		loc.Schedule.Settings.MaximumCapacity = s.cfg.DefaultMaximumCapacity
	}
	if loc.TimeZone == "" {
		loc.TimeZone = s.cfg.DefaultTimeZone
	}
	if loc.Reservations == nil {
		loc.Reservations = model.Ledger{}
	}
}

func (s *locationService) mergeLocationUpdates(existing *model.Location, updates *model.LocationUpdate) *model.Location {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.City != nil {
		merged.City = *updates.City
	}
	if updates.Address != nil {
		merged.Address = *updates.Address
	}
	if updates.Phone != nil {
		merged.Phone = *updates.Phone
	}
	if updates.TimeZone != nil {
		merged.TimeZone = *updates.TimeZone
	}
	if updates.WeeklyDates != nil {
		merged.Schedule.WeeklyDates = *updates.WeeklyDates
	}
	if updates.BlockDates != nil {
		merged.Schedule.BlockDates = *updates.BlockDates
	}
	if updates.SpecialDates != nil {
		merged.Schedule.SpecialDates = *updates.SpecialDates
	}
	if updates.Settings != nil {
		merged.Schedule.Settings = *updates.Settings
	}

	merged.ID = existing.ID
	merged.CompanyID = existing.CompanyID
	merged.Reservations = existing.Reservations
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
