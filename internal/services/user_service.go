package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hunteros-backend/internal/database"
	"hunteros-backend/internal/models"
	"hunteros-backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

func userCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func FindUserByID(userID uint) (models.User, error) {
	var user models.User
	if database.CacheGet(database.Ctx, userCacheKey(userID), &user) {
		return user, nil
	}

	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}

	database.CacheSet(database.Ctx, userCacheKey(userID), user, time.Hour)
	return user, nil
}

var (
	ErrOptimisticLock = errors.New("data has been modified by another user, please refresh and try again")
	ErrOwnRole        = errors.New("administrators cannot change their own role")
	ErrInvalidRole    = errors.New("invalid role")
)

// FindUsers retrieves a paginated list of users, optionally filtered by a
// username substring.
func FindUsers(search string, page, limit int) ([]models.User, int64, error) {
	var (
		users []models.User
		total int64
	)

	db := database.DB.Model(&models.User{})
	if search = strings.TrimSpace(search); search != "" {
		db = db.Where("username LIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("id asc").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// UpdateUserRole changes a user's role with optimistic locking on Version.
func UpdateUserRole(id uint, role string, operator models.User) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, ErrInvalidRole
	}
	if id == operator.ID {
		return nil, ErrOwnRole
	}

	var user models.User
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		current := user.Version
		result := tx.Model(&user).Where("version = ?", current).Updates(map[string]interface{}{
			"role":    role,
			"version": current + 1,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOptimisticLock
		}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return nil, err
	}

	database.CacheDel(database.Ctx, userCacheKey(id))
	logger.Log.Info("user role changed",
		zap.Uint("user_id", id),
		zap.String("role", role),
		zap.String("operator", operator.Username),
	)
	return &user, nil
}
