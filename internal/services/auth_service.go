package services

import (
	"errors"
	"strings"

	"hunteros-backend/internal/database"
	"hunteros-backend/internal/models"
	"hunteros-backend/internal/utils"
	"hunteros-backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RegisterUser creates an account. The very first account becomes an admin.
func RegisterUser(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)

	var existingUser models.User
	result := database.DB.Where("username = ?", username).First(&existingUser)
	if result.Error == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var userCount int64
	if err := database.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return nil, err
	}

	role := models.RoleUser
	if userCount == 0 {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     role,
	}
	if err := database.DB.Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

func LoginUser(username, password string) (string, *models.User, error) {
	var user models.User
	if err := database.DB.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}

	return token, &user, nil
}

// EnsureAdminUser creates the configured admin account if it does not exist.
func EnsureAdminUser(username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	var admin models.User
	err := database.DB.Where("username = ?", username).First(&admin).Error
	if err == nil {
		logger.Log.Info("admin user already exists", zap.String("username", username))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin = models.User{Username: username, Password: string(hashedPassword), Role: models.RoleAdmin}
	if err := database.DB.Create(&admin).Error; err != nil {
		return err
	}

	logger.Log.Info("admin user created", zap.String("username", username))
	return nil
}
