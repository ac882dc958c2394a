package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates the tables and the partial unique index that keeps two
// ACTIVE bookings from sharing a start on the same date.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userModel{}, &bookingModel{}, &bookingDayModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stmt := `CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_start
ON bookings (date, start_time) WHERE status = 'ACTIVE'`
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create active booking index: %w", err)
	}
	return nil
}
