package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type AuthTokenPostgreSQL struct {
	base
}

func NewAuthTokenPostgreSQL(db *gorm.DB) repositories.AuthTokenRepository {
	return &AuthTokenPostgreSQL{base{db: db}}
}

func (a *AuthTokenPostgreSQL) Create(ctx context.Context, tx *gorm.DB, token *models.AuthToken) error {
	if err := a.getDB(ctx, tx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create auth token: %w", err)
	}
	return nil
}

func (a *AuthTokenPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AuthToken, error) {
	var token models.AuthToken
	if err := a.getDB(ctx, tx).Where("id = ?", id).First(&token).Error; err != nil {
		return nil, fmt.Errorf("failed to get auth token: %w", err)
	}
	return &token, nil
}

func (a *AuthTokenPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID uint) (*models.AuthToken, error) {
	var token models.AuthToken
	if err := a.getDB(ctx, tx).Where("user_id = ?", userID).First(&token).Error; err != nil {
		return nil, fmt.Errorf("failed to get auth token for user %d: %w", userID, err)
	}
	return &token, nil
}

func (a *AuthTokenPostgreSQL) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uint) error {
	if err := a.getDB(ctx, tx).Where("user_id = ?", userID).Delete(&models.AuthToken{}).Error; err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}
	return nil
}
