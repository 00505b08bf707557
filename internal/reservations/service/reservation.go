package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mesa/internal/availability"
	locationsrepo "mesa/internal/locations/repository"
	reservationerrors "mesa/internal/reservations/errors"
	"mesa/internal/reservations/repository"
	"mesa/internal/reservations/validator"
	"mesa/pkg/config"
	apperrors "mesa/pkg/errors"
	"mesa/pkg/kafka"
	"mesa/pkg/model"
	"mesa/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type ReservationService interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int) ([]*model.Reservation, int64, error)
	Update(ctx context.Context, id string, updates *model.ReservationUpdate) error
	Cancel(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	SearchByLocation(ctx context.Context, locationID string, fromDate, toDate string, limit int, offset int) ([]*model.Reservation, int64, error)
}

type reservationService struct {
	repo       repository.ReservationRepository
	lockRepo   repository.ReservationLockRepository
	ledgerRepo repository.LedgerRepository
	locRepo    locationsrepo.LocationRepository
	validator  *validator.ReservationValidator
	publisher  EventPublisher
	cfg        *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.ReservationLockRepository,
	ledgerRepo repository.LedgerRepository,
	locRepo locationsrepo.LocationRepository,
	validator *validator.ReservationValidator,
	publisher EventPublisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:       repo,
		lockRepo:   lockRepo,
		ledgerRepo: ledgerRepo,
		locRepo:    locRepo,
		validator:  validator,
		publisher:  publisher,
		cfg:        cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, res *model.Reservation) error {
	s.applyDefaults(res)
	s.sanitize(res)
	if err := s.validate(res); err != nil {
		return err
	}

	// Acquire the advisory slot lock so concurrent submissions for the same
	// slot serialize before the transaction starts.
	lockID, err := s.acquireSlotLock(ctx, res.LocationID, res.Date, res.StartHour)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		loc, err := s.offerableLocation(sessCtx, res)
		if err != nil {
			return err
		}

		if err := s.repo.Create(sessCtx, res); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}

		hours := availability.ReservedHours(loc, res.Date, res.StartHour, res.EndHour)
		units := res.BookingUnits(loc.Schedule.Settings)
		if err := s.ledgerRepo.AddEntries(sessCtx, res.LocationID, res.Date, hours, res.ID, units); err != nil {
			return apperrors.Internal("Failed to record reservation occupancy", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation",
			"location_id", res.LocationID,
			"date", res.Date,
			"start_hour", res.StartHour,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Reservation created successfully",
		"id", res.ID,
		"location_id", res.LocationID,
		"date", res.Date,
		"start_hour", res.StartHour,
		"number_people", res.NumberPeople,
	)

	s.publishEvent(ctx, res, model.ActionReservationCreated, "")
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	res, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return res, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int) ([]*model.Reservation, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return reservations, count, nil
}

func (s *reservationService) Update(ctx context.Context, id string, updates *model.ReservationUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if model.IsTerminalStatus(existing.Status) {
		return apperrors.Conflict(fmt.Sprintf("Reservation in status %q can no longer be modified", existing.Status))
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Reservation update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	if updates.Status != nil && *updates.Status != existing.Status {
		if !model.CanTransition(existing.Status, *updates.Status) {
			return apperrors.Conflict(fmt.Sprintf(
				"Reservation cannot move from %q to %q", existing.Status, *updates.Status,
			))
		}
	}

	merged := s.mergeReservationUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	prevStatus := existing.Status
	slotChanged := merged.Date != existing.Date ||
		merged.StartHour != existing.StartHour ||
		merged.EndHour != existing.EndHour ||
		merged.NumberPeople != existing.NumberPeople
	cancelled := merged.Status == model.StatusCancelled && prevStatus != model.StatusCancelled

	lockID, err := s.acquireSlotLock(ctx, merged.LocationID, merged.Date, merged.StartHour)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		loc, err := s.location(sessCtx, merged.LocationID)
		if err != nil {
			return err
		}

		// Release the old occupancy first so the re-check below runs against
		// a snapshot that no longer counts this reservation.
		if slotChanged || cancelled {
			oldHours := availability.ReservedHours(loc, existing.Date, existing.StartHour, existing.EndHour)
			if err := s.ledgerRepo.RemoveEntries(sessCtx, existing.LocationID, existing.Date, oldHours, existing.ID); err != nil {
				return apperrors.Internal("Failed to release reservation occupancy", err)
			}
		}

		if !cancelled && slotChanged {
			loc, err = s.location(sessCtx, merged.LocationID)
			if err != nil {
				return err
			}
			if err := s.checkOfferable(loc, merged); err != nil {
				return err
			}
			hours := availability.ReservedHours(loc, merged.Date, merged.StartHour, merged.EndHour)
			units := merged.BookingUnits(loc.Schedule.Settings)
			if err := s.ledgerRepo.AddEntries(sessCtx, merged.LocationID, merged.Date, hours, merged.ID, units); err != nil {
				return apperrors.Internal("Failed to record reservation occupancy", err)
			}
		}

		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update reservation", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Reservation updated successfully", "id", id, "status", merged.Status)

	switch {
	case cancelled:
		s.publishEvent(ctx, merged, model.ActionReservationCancelled, prevStatus)
	case merged.Status != prevStatus:
		s.publishEvent(ctx, merged, model.ActionStatusChanged, prevStatus)
	default:
		s.publishEvent(ctx, merged, model.ActionReservationUpdated, "")
	}
	return nil
}

// Cancel moves a reservation to cancelled and frees its ledger entries.
func (s *reservationService) Cancel(ctx context.Context, id string) error {
	cancelled := model.StatusCancelled
	return s.Update(ctx, id, &model.ReservationUpdate{Status: &cancelled})
}

func (s *reservationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		loc, err := s.location(sessCtx, existing.LocationID)
		if err != nil {
			return err
		}

		hours := availability.ReservedHours(loc, existing.Date, existing.StartHour, existing.EndHour)
		if err := s.ledgerRepo.RemoveEntries(sessCtx, existing.LocationID, existing.Date, hours, existing.ID); err != nil {
			return apperrors.Internal("Failed to release reservation occupancy", err)
		}

		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, reservationerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.Internal("Failed to delete reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete reservation", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Reservation deleted successfully", "id", id)

	s.publishEvent(ctx, existing, model.ActionReservationCancelled, existing.Status)
	return nil
}

func (s *reservationService) SearchByLocation(ctx context.Context, locationID string, fromDate, toDate string, limit int, offset int) ([]*model.Reservation, int64, error) {
	if locationID == "" {
		return nil, 0, apperrors.InvalidInput("Location ID is required")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByLocationAndDate(ctx, locationID, fromDate, toDate)
		if err != nil {
			s.cfg.Log.Error("Failed to count reservations by search",
				"location_id", locationID,
				"error", err,
			)
			errCount = apperrors.Internal("Failed to count reservations", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		reservations, err = s.repo.FindByLocationAndDate(ctx, locationID, fromDate, toDate, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search reservations",
				"location_id", locationID,
				"from_date", fromDate,
				"to_date", toDate,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to search reservations", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Reservation search completed",
		"location_id", locationID,
		"count", len(reservations),
		"total_count", count,
	)
	return reservations, count, nil
}

// --- Helpers ---

func (s *reservationService) sanitize(res *model.Reservation) {
	res.CustomerName = sanitizer.NormalizeName(res.CustomerName)
	res.CustomerPhone = sanitizer.NormalizePhone(res.CustomerPhone)
	res.CustomerEmail = sanitizer.NormalizeEmail(res.CustomerEmail)
	res.Notes = sanitizer.TrimAndNormalize(res.Notes)
}

func (s *reservationService) applyDefaults(res *model.Reservation) {
	if res.Status == "" {
		res.Status = model.StatusPending
	}
	if res.NumberPeople <= 0 {
		res.NumberPeople = 1
	}
}

func (s *reservationService) validate(res *model.Reservation) error {
	if err := s.validator.Validate(res); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *reservationService) mergeReservationUpdates(existing *model.Reservation, updates *model.ReservationUpdate) *model.Reservation {
	merged := *existing

	if updates.CustomerName != nil {
		merged.CustomerName = *updates.CustomerName
	}
	if updates.CustomerPhone != nil {
		merged.CustomerPhone = *updates.CustomerPhone
	}
	if updates.CustomerEmail != nil {
		merged.CustomerEmail = *updates.CustomerEmail
	}
	if updates.Date != nil {
		merged.Date = *updates.Date
	}
	if updates.StartHour != nil {
		merged.StartHour = *updates.StartHour
	}
	if updates.EndHour != nil {
		merged.EndHour = *updates.EndHour
	}
	if updates.NumberPeople != nil {
		merged.NumberPeople = *updates.NumberPeople
	}
	if updates.Status != nil {
		merged.Status = *updates.Status
	}
	if updates.Notes != nil {
		merged.Notes = *updates.Notes
	}

	return &merged
}

func (s *reservationService) location(ctx context.Context, locationID string) (*model.Location, error) {
	loc, err := s.locRepo.FindByID(ctx, locationID)
	if err != nil {
		return nil, apperrors.NotFoundWithID("Location", locationID)
	}
	return loc, nil
}

// offerableLocation re-fetches the location inside the transaction and
// re-runs the availability check against the fresh ledger. The slot a guest
// saw rendered as free may have filled since; this is where that race
// surfaces as a conflict instead of an overbooked hour.
func (s *reservationService) offerableLocation(ctx context.Context, res *model.Reservation) (*model.Location, error) {
	loc, err := s.location(ctx, res.LocationID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOfferable(loc, res); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *reservationService) checkOfferable(loc *model.Location, res *model.Reservation) error {
	settings := loc.Schedule.Settings

	if res.NumberPeople > settings.MaximumCapacity {
		return apperrors.Validation("Party size exceeds the location's maximum capacity", map[string]any{
			"number_people":    res.NumberPeople,
			"maximum_capacity": settings.MaximumCapacity,
		})
	}
	if res.EndHour != "" && !settings.IsEndDateEnable {
		return apperrors.InvalidInput("Location does not accept explicit end hours")
	}

	if !availability.SlotOfferable(loc, res.Date, res.StartHour, res.EndHour) {
		return apperrors.Conflict("The requested slot is no longer available")
	}
	return nil
}

// acquireSlotLock creates an advisory lock for the slot coordinates.
// Returns the lock ID if successful, or conflict error if lock already exists.
func (s *reservationService) acquireSlotLock(ctx context.Context, locationID, date, hour string) (string, error) {
	lockID := fmt.Sprintf("reservation_lock_%s_%s_%s", sanitizer.SanitizeKey(locationID), date, hour)

	lock := &model.ReservationLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.ReservationLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire reservation lock", err)
	}

	return lockID, nil
}

func (s *reservationService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

// publishEvent emits a reservation event after the write committed. Delivery
// is best effort; a publish failure is logged, never surfaced to the guest.
func (s *reservationService) publishEvent(ctx context.Context, res *model.Reservation, action string, prevStatus string) {
	if s.publisher == nil {
		return
	}

	event := model.ReservationEvent{
		ReservationID: res.ID,
		LocationID:    res.LocationID,
		CompanyID:     res.CompanyID,
		Action:        action,
		Date:          res.Date,
		StartHour:     res.StartHour,
		EndHour:       res.EndHour,
		NumberPeople:  res.NumberPeople,
		Status:        res.Status,
		PrevStatus:    prevStatus,
		OccurredAt:    time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(res.LocationID).
		WithValue(event).
		WithEventType(action).
		WithSource("reservations").
		WithSchemaVersion("1").
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event",
			"reservation_id", res.ID,
			"action", action,
			"error", err,
		)
	}
}
