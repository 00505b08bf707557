package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	locationsrepo "mesa/internal/locations/repository"
	"mesa/internal/reservations/repository"
	"mesa/internal/reservations/validator"
	"mesa/pkg/config"
	apperrors "mesa/pkg/errors"
	"mesa/pkg/kafka"
	"mesa/pkg/logger"
	"mesa/pkg/model"
	mongotx "mesa/pkg/db/mongo"
)

const (
	testLocationID    = "665f1b2a9c3d4e5f6a7b8c9d"
	testReservationID = "665f1b2a9c3d4e5f6a7b8c9e"
	testDate          = "2030-05-11"
)

type mockReservationRepository struct {
	createFunc  func(ctx context.Context, res *model.Reservation) error
	findByIDFn  func(ctx context.Context, id string) (*model.Reservation, error)
	updateFunc  func(ctx context.Context, id string, res *model.Reservation) (*mongo.UpdateResult, error)
	deleteFunc  func(ctx context.Context, id string) error
}

func (m *mockReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, res)
	}
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockReservationRepository) FindAll(ctx context.Context, limit int, offset int) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) Update(ctx context.Context, id string, res *model.Reservation) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, res)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockReservationRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockReservationRepository) FindByLocationAndDate(ctx context.Context, locationID string, fromDate string, toDate string, limit int, offset int) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) CountByLocationAndDate(ctx context.Context, locationID string, fromDate string, toDate string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error)
	deleted    []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

type ledgerCall struct {
	date  string
	hours []string
	resID string
	units int
}

type mockLedgerRepository struct {
	added   []ledgerCall
	removed []ledgerCall
}

func (m *mockLedgerRepository) AddEntries(ctx context.Context, locationID string, date string, hours []string, reservationID string, units int) error {
	m.added = append(m.added, ledgerCall{date: date, hours: hours, resID: reservationID, units: units})
	return nil
}

func (m *mockLedgerRepository) RemoveEntries(ctx context.Context, locationID string, date string, hours []string, reservationID string) error {
	m.removed = append(m.removed, ledgerCall{date: date, hours: hours, resID: reservationID})
	return nil
}

type mockLocationRepository struct {
	findByIDFn func(ctx context.Context, id string) (*model.Location, error)
}

func (m *mockLocationRepository) Create(ctx context.Context, loc *model.Location) error { return nil }

func (m *mockLocationRepository) FindByID(ctx context.Context, id string) (*model.Location, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockLocationRepository) FindAll(ctx context.Context, limit int, offset int) ([]*model.Location, error) {
	return []*model.Location{}, nil
}

func (m *mockLocationRepository) Update(ctx context.Context, id string, loc *model.Location) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockLocationRepository) Delete(ctx context.Context, id string) error { return nil }

func (m *mockLocationRepository) Search(ctx context.Context, companyID string, city string) ([]*model.Location, error) {
	return []*model.Location{}, nil
}

func (m *mockLocationRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockLocationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockPublisher struct {
	published []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.published = append(m.published, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReservationLockTTL: 10 * time.Second,
		ReadTimeout:        5 * time.Second,
	}
}

func weeklyAllWeek(opening, closing string) map[string]model.DayHours {
	week := make(map[string]model.DayHours, 7)
	for _, day := range []string{"0", "1", "2", "3", "4", "5", "6"} {
		week[day] = model.DayHours{Opening: opening, Closing: closing}
	}
	return week
}

func testLocation(settings model.ScheduleSettings, ledger model.Ledger) *model.Location {
	return &model.Location{
		ID:        testLocationID,
		CompanyID: "acme",
		Name:      "Harbor Grill",
		City:      "San Diego",
		Address:   "12 Pier Ave",
		Schedule: model.Schedule{
			WeeklyDates: weeklyAllWeek("09:00", "21:00"),
			Settings:    settings,
		},
		Reservations: ledger,
	}
}

func testReservation(status string) *model.Reservation {
	return &model.Reservation{
		ID:            testReservationID,
		LocationID:    testLocationID,
		CompanyID:     "acme",
		CustomerName:  "Dana Smith",
		CustomerPhone: "+14155550123",
		Date:          testDate,
		StartHour:     "18:00",
		NumberPeople:  2,
		Status:        status,
	}
}

func newTestService(
	repo repository.ReservationRepository,
	lockRepo *mockLockRepository,
	ledgerRepo *mockLedgerRepository,
	locRepo locationsrepo.LocationRepository,
	publisher *mockPublisher,
) ReservationService {
	cfg := testConfig()
	return NewReservationService(
		repo,
		lockRepo,
		ledgerRepo,
		locRepo,
		validator.NewReservationValidator(cfg.Log),
		publisher,
		cfg,
	)
}

func TestCreate_SaturatedSlotRejected(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 2, MaximumCapacity: 50},
		model.Ledger{testDate: {"18:00": {"r1", "r2"}}},
	)

	createCalled := false
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, res *model.Reservation) error {
			createCalled = true
			return nil
		},
	}
	locRepo := &mockLocationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Location, error) {
			return loc, nil
		},
	}
	ledger := &mockLedgerRepository{}
	svc := newTestService(repo, &mockLockRepository{}, ledger, locRepo, &mockPublisher{})

	res := testReservation("")
	res.ID = ""
	err := svc.Create(context.Background(), res)
	if err == nil {
		t.Fatal("expected conflict for a saturated slot")
	}
	if appErr := apperrors.AsAppError(err); appErr.HTTPStatus != http.StatusConflict {
		t.Errorf("expected 409, got %d (%s)", appErr.HTTPStatus, appErr.Code)
	}
	if createCalled {
		t.Error("reservation must not be written when the slot is full")
	}
	if len(ledger.added) != 0 {
		t.Error("no ledger entries may be added for a rejected reservation")
	}
}

func TestCreate_LockHeldRejected(t *testing.T) {
	lockRepo := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
		},
	}
	locRepo := &mockLocationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Location, error) {
			t.Error("location must not be fetched while the slot lock is held elsewhere")
			return nil, nil
		},
	}
	svc := newTestService(&mockReservationRepository{}, lockRepo, &mockLedgerRepository{}, locRepo, &mockPublisher{})

	res := testReservation("")
	res.ID = ""
	err := svc.Create(context.Background(), res)
	if err == nil {
		t.Fatal("expected conflict while the advisory lock is held")
	}
	if appErr := apperrors.AsAppError(err); appErr.HTTPStatus != http.StatusConflict {
		t.Errorf("expected 409, got %d", appErr.HTTPStatus)
	}
}

func TestCreate_WritesLedgerEntryPerSeat(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 5, MaximumCapacity: 50, PersonHasSpecificPosition: true},
		model.Ledger{},
	)

	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, res *model.Reservation) error {
			res.ID = testReservationID
			return nil
		},
	}
	locRepo := &mockLocationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Location, error) {
			return loc, nil
		},
	}
	lockRepo := &mockLockRepository{}
	ledger := &mockLedgerRepository{}
	publisher := &mockPublisher{}
	svc := newTestService(repo, lockRepo, ledger, locRepo, publisher)

	res := testReservation("")
	res.ID = ""
	res.NumberPeople = 3
	if err := svc.Create(context.Background(), res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ledger.added) != 1 {
		t.Fatalf("expected one ledger write, got %d", len(ledger.added))
	}
	call := ledger.added[0]
	if call.units != 3 {
		t.Errorf("per-seat positions must occupy one unit per person, got %d", call.units)
	}
	if len(call.hours) != 1 || call.hours[0] != "18:00" {
		t.Errorf("a start-only reservation occupies its start hour, got %v", call.hours)
	}
	if call.resID != testReservationID {
		t.Errorf("ledger entries must carry the stored reservation ID, got %q", call.resID)
	}

	if len(lockRepo.deleted) != 1 {
		t.Error("the advisory lock must be released after commit")
	}
	if len(publisher.published) != 1 {
		t.Fatal("a created event must be published after commit")
	}
	if got := publisher.published[0].GetEventType(); got != model.ActionReservationCreated {
		t.Errorf("expected %q event, got %q", model.ActionReservationCreated, got)
	}
}

func TestCreate_PartyExceedsCapacityRejected(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 5, MaximumCapacity: 4},
		model.Ledger{},
	)
	locRepo := &mockLocationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Location, error) {
			return loc, nil
		},
	}
	svc := newTestService(&mockReservationRepository{}, &mockLockRepository{}, &mockLedgerRepository{}, locRepo, &mockPublisher{})

	res := testReservation("")
	res.ID = ""
	res.NumberPeople = 6
	err := svc.Create(context.Background(), res)
	if err == nil {
		t.Fatal("expected validation failure for an oversized party")
	}
	if appErr := apperrors.AsAppError(err); appErr.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", appErr.HTTPStatus)
	}
}

func TestCreate_EndHourRequiresOptIn(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 5, MaximumCapacity: 50},
		model.Ledger{},
	)
	locRepo := &mockLocationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Location, error) {
			return loc, nil
		},
	}
	svc := newTestService(&mockReservationRepository{}, &mockLockRepository{}, &mockLedgerRepository{}, locRepo, &mockPublisher{})

	res := testReservation("")
	res.ID = ""
	res.EndHour = "20:00"
	err := svc.Create(context.Background(), res)
	if err == nil {
		t.Fatal("expected rejection of an end hour the location did not opt into")
	}
	if appErr := apperrors.AsAppError(err); appErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", appErr.HTTPStatus)
	}
}

func TestUpdate_TerminalStatusImmutable(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Reservation, error) {
			return testReservation(model.StatusCheckout), nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockLedgerRepository{}, &mockLocationRepository{}, &mockPublisher{})

	notes := "window table please"
	err := svc.Update(context.Background(), testReservationID, &model.ReservationUpdate{Notes: &notes})
	if err == nil {
		t.Fatal("expected conflict when modifying a checked-out reservation")
	}
	if appErr := apperrors.AsAppError(err); appErr.HTTPStatus != http.StatusConflict {
		t.Errorf("expected 409, got %d", appErr.HTTPStatus)
	}
}

func TestUpdate_InvalidTransitionRejected(t *testing.T) {
	repo := &mockReservationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Reservation, error) {
			return testReservation(model.StatusPending), nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockLedgerRepository{}, &mockLocationRepository{}, &mockPublisher{})

	checkin := model.StatusCheckin
	err := svc.Update(context.Background(), testReservationID, &model.ReservationUpdate{Status: &checkin})
	if err == nil {
		t.Fatal("expected conflict for pending -> checkin")
	}
	if appErr := apperrors.AsAppError(err); appErr.HTTPStatus != http.StatusConflict {
		t.Errorf("expected 409, got %d", appErr.HTTPStatus)
	}
}

func TestCancel_ReleasesOccupancy(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 5, MaximumCapacity: 50},
		model.Ledger{testDate: {"18:00": {testReservationID}}},
	)

	var persisted *model.Reservation
	repo := &mockReservationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Reservation, error) {
			return testReservation(model.StatusConfirmed), nil
		},
		updateFunc: func(ctx context.Context, id string, res *model.Reservation) (*mongo.UpdateResult, error) {
			persisted = res
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}
	locRepo := &mockLocationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Location, error) {
			return loc, nil
		},
	}
	ledger := &mockLedgerRepository{}
	publisher := &mockPublisher{}
	svc := newTestService(repo, &mockLockRepository{}, ledger, locRepo, publisher)

	if err := svc.Cancel(context.Background(), testReservationID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ledger.removed) != 1 {
		t.Fatalf("cancellation must release the occupancy, got %d removals", len(ledger.removed))
	}
	if got := ledger.removed[0]; got.resID != testReservationID || got.date != testDate {
		t.Errorf("wrong ledger release: %+v", got)
	}
	if len(ledger.added) != 0 {
		t.Error("cancellation must not re-add occupancy")
	}
	if persisted == nil || persisted.Status != model.StatusCancelled {
		t.Errorf("expected persisted status %q, got %+v", model.StatusCancelled, persisted)
	}
	if len(publisher.published) != 1 || publisher.published[0].GetEventType() != model.ActionReservationCancelled {
		t.Error("a cancelled event must be published")
	}
}

func TestDelete_ReleasesOccupancy(t *testing.T) {
	loc := testLocation(
		model.ScheduleSettings{NumberBookingsAllow: 5, MaximumCapacity: 50},
		model.Ledger{testDate: {"18:00": {testReservationID}}},
	)

	deleted := false
	repo := &mockReservationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Reservation, error) {
			return testReservation(model.StatusConfirmed), nil
		},
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	locRepo := &mockLocationRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.Location, error) {
			return loc, nil
		},
	}
	ledger := &mockLedgerRepository{}
	svc := newTestService(repo, &mockLockRepository{}, ledger, locRepo, &mockPublisher{})

	if err := svc.Delete(context.Background(), testReservationID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("reservation document must be removed")
	}
	if len(ledger.removed) != 1 {
		t.Errorf("deletion must release the occupancy, got %d removals", len(ledger.removed))
	}
}
