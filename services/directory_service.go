package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/printworks-studio/printworks-api/config"
	"github.com/printworks-studio/printworks-api/models"
	"gorm.io/gorm"
)

// DirectoryInterface defines the interface for the identity directory used
// when linking an order's shipping info to a registered account
type DirectoryInterface interface {
	FindUserByEmail(email string) (*models.User, error)
	CreateUser(name, email string) (*models.User, error)
}

// DirectoryService looks users up in the application database
type DirectoryService struct{}

var directoryInstance DirectoryInterface = &DirectoryService{}

// GetDirectory returns the identity directory instance
func GetDirectory() DirectoryInterface {
	return directoryInstance
}

// SetDirectory sets the directory instance (primarily for testing)
func SetDirectory(d DirectoryInterface) {
	directoryInstance = d
}

// FindUserByEmail returns the user with the given email, or nil when no such
// user exists.
func (s *DirectoryService) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := config.GetDB().Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a customer account for a guest contact. The Auth0 link is
// filled in the first time the customer signs in with that email.
func (s *DirectoryService) CreateUser(name, email string) (*models.User, error) {
	user := models.User{
		Auth0ID: "pending|" + strings.ToLower(email),
		Name:    name,
		Email:   strings.ToLower(email),
		Role:    "customer",
	}
	if err := config.GetDB().Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}
