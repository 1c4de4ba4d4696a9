package migrations

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"user-management-app/internal/entity"
)

// AutoMigrateUsers creates or updates the users table.
func AutoMigrateUsers(retries int, db *gorm.DB) error {
	err := db.AutoMigrate(&entity.User{})
	for i := 0; err != nil && i < retries; i++ {
		time.Sleep(1 * time.Second)
		err = db.AutoMigrate(&entity.User{})
	}
	if err != nil {
		return fmt.Errorf("migrate users table: %w", err)
	}
	return nil
}
