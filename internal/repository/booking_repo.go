package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtbook/internal/database"
	"courtbook/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingRepository is the authoritative SQL booking store.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                 string     `gorm:"column:id;primaryKey;size:36"`
	Date               string     `gorm:"column:date;size:10;not null;index:idx_bookings_date_start,priority:1"`
	StartTime          string     `gorm:"column:start_time;size:5;not null;index:idx_bookings_date_start,priority:2"`
	EndTime            string     `gorm:"column:end_time;size:5;not null"`
	OwnerID            int64      `gorm:"column:owner_id;not null;index"`
	OwnerName          string     `gorm:"column:owner_name"`
	NeedsLight         bool       `gorm:"column:needs_light;not null;default:false"`
	Price              float64    `gorm:"column:price;not null"`
	Status             string     `gorm:"column:status;size:16;not null;index"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason *string    `gorm:"column:cancellation_reason"`
}

func (bookingModel) TableName() string { return "bookings" }

// bookingDayModel is a per-date guard row. Writers lock it so that the
// overlap check and the insert for one date are serialized.
type bookingDayModel struct {
	Date      string    `gorm:"column:date;primaryKey;size:10"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (bookingDayModel) TableName() string { return "booking_days" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var reason string
	if m.CancellationReason != nil {
		reason = *m.CancellationReason
	}

	return &domain.Booking{
		ID:                 m.ID,
		Date:               domain.DateStamp(m.Date),
		StartTime:          domain.TimeOfDay(m.StartTime),
		EndTime:            domain.TimeOfDay(m.EndTime),
		OwnerID:            m.OwnerID,
		OwnerName:          m.OwnerName,
		NeedsLight:         m.NeedsLight,
		Price:              m.Price,
		Status:             domain.BookingStatus(m.Status),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		CancelledAt:        m.CancelledAt,
		CancellationReason: reason,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var reason *string
	if b.CancellationReason != "" {
		v := b.CancellationReason
		reason = &v
	}

	return bookingModel{
		ID:                 b.ID,
		Date:               string(b.Date),
		StartTime:          string(b.StartTime),
		EndTime:            string(b.EndTime),
		OwnerID:            b.OwnerID,
		OwnerName:          b.OwnerName,
		NeedsLight:         b.NeedsLight,
		Price:              b.Price,
		Status:             string(b.Status),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: reason,
	}
}

func toDomainBookings(ms []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out
}

// Create inserts b unless it overlaps an ACTIVE booking of the same date,
// in which case domain.ErrConflict is returned and nothing is written.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		day := bookingDayModel{Date: string(b.Date), CreatedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&day).Error; err != nil {
			return err
		}

		lock := tx
		if tx.Dialector.Name() == "postgres" {
			lock = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := lock.Where("date = ?", day.Date).First(&bookingDayModel{}).Error; err != nil {
			return err
		}

		var overlapping int64
		err := tx.Model(&bookingModel{}).
			Where("date = ? AND status = ? AND start_time < ? AND end_time > ?",
				string(b.Date), string(domain.BookingActive), string(b.EndTime), string(b.StartTime)).
			Count(&overlapping).Error
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return domain.ErrConflict
		}

		m := toBookingModel(b)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		*b = *toDomainBooking(m)
		return nil
	})

	if database.IsUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var m bookingModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) ListByDate(ctx context.Context, date domain.DateStamp) ([]domain.Booking, error) {
	var ms []bookingModel
	err := r.db.WithContext(ctx).
		Where("date = ?", string(date)).
		Order("start_time ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if f.Date != "" {
		q = q.Where("date = ?", string(f.Date))
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []bookingModel
	q = q.Order("date ASC").Order("start_time ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return toDomainBookings(ms), total, nil
}

func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&bookingModel{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Cancel moves an ACTIVE booking to CANCELLED.
func (r *BookingRepository) Cancel(ctx context.Context, id, reason string, at time.Time) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return notFound(err)
		}
		if m.Status != string(domain.BookingActive) {
			return domain.ErrNotActive
		}

		updates := map[string]any{
			"status":       string(domain.BookingCancelled),
			"cancelled_at": at,
			"updated_at":   at,
		}
		if reason != "" {
			updates["cancellation_reason"] = reason
		}
		res := tx.Model(&bookingModel{}).
			Where("id = ? AND status = ?", id, string(domain.BookingActive)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotActive
		}

		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		out = toDomainBooking(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompletePast marks ACTIVE bookings that ended at or before now as COMPLETED
// and returns them as updated.
func (r *BookingRepository) CompletePast(ctx context.Context, today domain.DateStamp, now domain.TimeOfDay, at time.Time) ([]domain.Booking, error) {
	var done []bookingModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("status = ?", string(domain.BookingActive)).
			Where("date < ? OR (date = ? AND end_time <= ?)", string(today), string(today), string(now)).
			Order("date ASC").Order("start_time ASC").
			Find(&done).Error
		if err != nil || len(done) == 0 {
			return err
		}

		ids := make([]string, 0, len(done))
		for i := range done {
			ids = append(ids, done[i].ID)
			done[i].Status = string(domain.BookingCompleted)
			done[i].UpdatedAt = at
		}
		return tx.Model(&bookingModel{}).
			Where("id IN ? AND status = ?", ids, string(domain.BookingActive)).
			Updates(map[string]any{
				"status":     string(domain.BookingCompleted),
				"updated_at": at,
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("complete past bookings: %w", err)
	}
	return toDomainBookings(done), nil
}

// DeleteUpcomingByOwner removes the owner's ACTIVE bookings that have not
// ended yet, including one under way, and returns what was removed.
func (r *BookingRepository) DeleteUpcomingByOwner(ctx context.Context, ownerID int64, today domain.DateStamp, now domain.TimeOfDay) ([]domain.Booking, error) {
	var removed []bookingModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("owner_id = ? AND status = ?", ownerID, string(domain.BookingActive)).
			Where("date > ? OR (date = ? AND end_time > ?)", string(today), string(today), string(now)).
			Order("date ASC").Order("start_time ASC").
			Find(&removed).Error
		if err != nil || len(removed) == 0 {
			return err
		}

		ids := make([]string, 0, len(removed))
		for _, m := range removed {
			ids = append(ids, m.ID)
		}
		return tx.Where("id IN ?", ids).Delete(&bookingModel{}).Error
	})
	if err != nil {
		return nil, err
	}
	return toDomainBookings(removed), nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
