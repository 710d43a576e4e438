package repository

import (
	"errors"
	"fmt"

	"CutRoom/db"
	"CutRoom/model"

	"gorm.io/gorm"
)

// UserRepository defines user account operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByUsername(username string) (*model.User, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a repository over the shared GORM handle.
func NewUserRepository() UserRepository {
	return &gormUserRepository{db: db.DB}
}

func (r *gormUserRepository) CreateUser(user *model.User) (int64, error) {
	rec := UserRecord{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
	}
	if err := r.db.Create(&rec).Error; err != nil {
		return 0, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	user.ID = rec.ID
	return rec.ID, nil
}

func (r *gormUserRepository) GetUserByUsername(username string) (*model.User, error) {
	var rec UserRecord
	if err := r.db.Where("username = ?", username).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user %s: %w", username, err)
	}
	return &model.User{
		ID:           rec.ID,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}
