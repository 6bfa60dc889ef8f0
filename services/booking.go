package services

import (
	"context"
	"errors"
	"time"

	"spots-clone-server/apperr"
	"spots-clone-server/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrTransient marks a store failure worth retrying, such as a lock or
// serialization error under write contention. The store wraps the driver
// error with it; the service never inspects driver errors itself.
var ErrTransient = errors.New("transient store contention")

// commitRetries bounds how often a transient store failure is retried
// before it surfaces as a Conflict.
const commitRetries = 3

// BookingStore is the durable collaborator behind the booking lifecycle.
// CreateExclusive and UpdateExclusive must perform the no-overlap check and
// the write atomically with respect to other writers of the same spot.
type BookingStore interface {
	ByID(ctx context.Context, id uint) (*models.Booking, error)
	ForSpot(ctx context.Context, spotID uint) ([]models.Booking, error)
	ForBooker(ctx context.Context, userID uint) ([]models.Booking, error)
	CreateExclusive(ctx context.Context, booking *models.Booking) error
	UpdateExclusive(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id uint) error
}

// SpotGateway resolves a spot to its owning user.
type SpotGateway interface {
	SpotOwner(ctx context.Context, spotID uint) (uint, error)
}

// BookingService is the single authority for booking create/update/cancel.
// All validation, ownership and temporal-state rules live here; handlers
// only translate its typed errors into status codes.
type BookingService struct {
	store  BookingStore
	spots  SpotGateway
	events *EventPublisher
	log    *logrus.Entry

	now func() time.Time
}

func NewBookingService(store BookingStore, spots SpotGateway, events *EventPublisher) *BookingService {
	return &BookingService{
		store:  store,
		spots:  spots,
		events: events,
		log:    logrus.WithField("component", "bookings"),
		now:    time.Now,
	}
}

// Create books [start,end] on a spot for bookerID. The spot owner cannot
// book their own spot, the range must start strictly after today, and the
// range must not overlap any existing booking of the spot.
func (s *BookingService) Create(ctx context.Context, spotID, bookerID uint, start, end time.Time) (*models.Booking, error) {
	start, end = models.DateOnly(start), models.DateOnly(end)
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}

	ownerID, err := s.spots.SpotOwner(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if ownerID == bookerID {
		return nil, apperr.Forbidden("You cannot book your own spot.")
	}

	booking := &models.Booking{
		SpotID:    spotID,
		UserID:    bookerID,
		StartDate: start,
		EndDate:   end,
		Reference: uuid.NewString(),
	}

	if err := s.commit(ctx, func() error { return s.store.CreateExclusive(ctx, booking) }); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking":   booking.ID,
		"spot":      spotID,
		"booker":    bookerID,
		"startDate": start.Format("2006-01-02"),
		"endDate":   end.Format("2006-01-02"),
	}).Info("booking created")
	s.publish(ctx, "booking.created", booking)

	return booking, nil
}

// Update moves an existing booking to [start,end]. Only the original booker
// may update, and only while the booking is still scheduled.
func (s *BookingService) Update(ctx context.Context, bookingID, actorID uint, start, end time.Time) (*models.Booking, error) {
	booking, err := s.store.ByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actorID {
		return nil, apperr.Forbidden("Forbidden")
	}
	if booking.StateAt(s.now()) != models.BookingScheduled {
		return nil, apperr.Forbidden("Booking has already started.")
	}

	start, end = models.DateOnly(start), models.DateOnly(end)
	if err := s.validateRange(start, end); err != nil {
		return nil, err
	}

	booking.StartDate = start
	booking.EndDate = end
	if err := s.commit(ctx, func() error { return s.store.UpdateExclusive(ctx, booking) }); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking":   booking.ID,
		"startDate": start.Format("2006-01-02"),
		"endDate":   end.Format("2006-01-02"),
	}).Info("booking updated")
	s.publish(ctx, "booking.updated", booking)

	return booking, nil
}

// Cancel deletes a scheduled booking. The booker and the spot owner may
// cancel; nobody else.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID uint) error {
	booking, err := s.store.ByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != actorID {
		ownerID, err := s.spots.SpotOwner(ctx, booking.SpotID)
		if err != nil || ownerID != actorID {
			return apperr.Forbidden("Forbidden")
		}
	}
	if booking.StateAt(s.now()) != models.BookingScheduled {
		return apperr.Forbidden("Booking has already started.")
	}

	if err := s.store.Delete(ctx, booking.ID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"booking": booking.ID, "actor": actorID}).Info("booking cancelled")
	s.publish(ctx, "booking.cancelled", booking)

	return nil
}

// ListForBooker returns all bookings made by the given user.
func (s *BookingService) ListForBooker(ctx context.Context, bookerID uint) ([]models.Booking, error) {
	return s.store.ForBooker(ctx, bookerID)
}

// ListForSpot returns the bookings of a spot. The second return value is
// true when the actor owns the spot and may see full records; otherwise the
// caller should reduce each record to its dates.
func (s *BookingService) ListForSpot(ctx context.Context, spotID, actorID uint) ([]models.Booking, bool, error) {
	ownerID, err := s.spots.SpotOwner(ctx, spotID)
	if err != nil {
		return nil, false, err
	}
	bookings, err := s.store.ForSpot(ctx, spotID)
	if err != nil {
		return nil, false, err
	}
	return bookings, ownerID == actorID, nil
}

func (s *BookingService) validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("Start date and end date are required.")
	}
	if !end.After(start) {
		return apperr.Validation("End date must be after the start date.")
	}
	if !start.After(models.DateOnly(s.now())) {
		return apperr.Validation("Start date cannot be in the past.")
	}
	return nil
}

// commit runs an atomic check-and-commit, retrying a bounded number of
// times when the store signals transient contention.
func (s *BookingService) commit(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < commitRetries; attempt++ {
		err = op()
		if err == nil || !errors.Is(err, ErrTransient) {
			return err
		}
		s.log.WithField("attempt", attempt+1).WithError(err).Warn("retrying booking commit")
	}
	return apperr.Conflict("Booking conflicts with an existing reservation.")
}

func (s *BookingService) publish(ctx context.Context, key string, booking *models.Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBooking(ctx, key, booking); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("failed to publish booking event")
	}
}
