package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Booking{},
		&models.UnbookedPayment{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Info("AutoMigrate completed.")
	return nil
}

// SeedAdmin makes sure an admin account exists for email. An existing user
// with that email is promoted and keeps its password.
func SeedAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if user.Role == models.RoleAdmin {
			return nil
		}
		user.Role = models.RoleAdmin
		if err := db.Save(&user).Error; err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		utils.InfoLogger.WithField("user_id", user.ID).Info("Existing user promoted to admin")
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if password == "" {
		return errors.New("ADMIN_PASSWORD is required to create the admin account")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user = models.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	utils.InfoLogger.WithField("user_id", user.ID).Info("Admin account created")
	return nil
}
