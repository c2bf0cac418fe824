package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"healthcare-messaging-server/internal/messaging"
	"healthcare-messaging-server/internal/models"
)

// UserDirectory resolves display details from the users table.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

// LookupUser returns messaging.ErrNotFound for unknown or removed users.
func (d *UserDirectory) LookupUser(ctx context.Context, id messaging.UserID) (messaging.DisplayInfo, error) {
	var user models.User
	err := d.db.WithContext(ctx).First(&user, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return messaging.DisplayInfo{}, messaging.ErrNotFound
	}
	if err != nil {
		return messaging.DisplayInfo{}, err
	}
	return messaging.DisplayInfo{
		ID:           messaging.UserID(user.ID),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Role:         string(user.Role),
		ProfileImage: user.ProfileImage,
	}, nil
}
