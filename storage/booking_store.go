package storage

import (
	"context"
	"errors"
	"fmt"

	"spots-clone-server/apperr"
	"spots-clone-server/models"
	"spots-clone-server/services"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBookingStore implements services.BookingStore on postgres. The
// exclusive writes take a FOR UPDATE row lock on the spot, which serializes
// every check-and-commit for that spot: two concurrent overlapping creates
// cannot both pass the overlap check.
type GormBookingStore struct {
	db *gorm.DB
}

func NewBookingStore(db *gorm.DB) *GormBookingStore {
	return &GormBookingStore{db: db}
}

func (s *GormBookingStore) ByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).Preload("Spot").First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Booking couldn't be found.")
		}
		return nil, apperr.Internal("failed to load booking", err)
	}
	return &booking, nil
}

func (s *GormBookingStore) ForSpot(ctx context.Context, spotID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("spot_id = ?", spotID).
		Order("start_date ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, apperr.Internal("failed to load spot bookings", err)
	}
	return bookings, nil
}

func (s *GormBookingStore) ForBooker(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Spot").
		Preload("Spot.Images", "preview = ?", true).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, apperr.Internal("failed to load bookings", err)
	}
	return bookings, nil
}

func (s *GormBookingStore) CreateExclusive(ctx context.Context, booking *models.Booking) error {
	return s.exclusive(ctx, booking, 0, func(tx *gorm.DB) error {
		return tx.Create(booking).Error
	})
}

func (s *GormBookingStore) UpdateExclusive(ctx context.Context, booking *models.Booking) error {
	return s.exclusive(ctx, booking, booking.ID, func(tx *gorm.DB) error {
		return tx.Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Updates(map[string]interface{}{
				"start_date": booking.StartDate,
				"end_date":   booking.EndDate,
			}).Error
	})
}

func (s *GormBookingStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Unscoped().Delete(&models.Booking{}, id)
	if res.Error != nil {
		return apperr.Internal("failed to delete booking", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Booking couldn't be found.")
	}
	return nil
}

// exclusive runs the no-overlap check and the write in one transaction,
// holding a row lock on the spot for its duration. A cancelled context
// rolls the whole transaction back, leaving no partial state.
func (s *GormBookingStore) exclusive(ctx context.Context, booking *models.Booking, excludeID uint, write func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var spot models.Spot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id, owner_id").
			First(&spot, booking.SpotID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Spot couldn't be found.")
			}
			return err
		}

		var existing []models.Booking
		if err := tx.Where("spot_id = ?", booking.SpotID).Find(&existing).Error; err != nil {
			return err
		}
		if _, conflict := services.FindConflict(booking.StartDate, booking.EndDate, existing, excludeID); conflict {
			return apperr.Conflict("Booking conflicts with an existing reservation.")
		}

		return write(tx)
	})
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if isRetryable(err) {
		return fmt.Errorf("%w: %v", services.ErrTransient, err)
	}
	return apperr.Internal("failed to persist booking", err)
}

// isRetryable reports postgres serialization and deadlock failures
// (SQLSTATE 40001, 40P01).
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// GormSpotGateway implements services.SpotGateway.
type GormSpotGateway struct {
	db *gorm.DB
}

func NewSpotGateway(db *gorm.DB) *GormSpotGateway {
	return &GormSpotGateway{db: db}
}

func (g *GormSpotGateway) SpotOwner(ctx context.Context, spotID uint) (uint, error) {
	var spot models.Spot
	err := g.db.WithContext(ctx).Select("id, owner_id").First(&spot, spotID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("Spot couldn't be found.")
		}
		return 0, apperr.Internal("failed to load spot", err)
	}
	return spot.OwnerID, nil
}
