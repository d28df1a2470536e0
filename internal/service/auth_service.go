package service

import (
	"time"

	"github.com/google/uuid"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"
	"dealio-backend/pkg/jwt"
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ChangePassword(email, oldPassword, newPassword string) error
	Heartbeat(userID uuid.UUID) error
}

type LoginResponse struct {
	Token string             `json:"token"`
	User  model.UserResponse `json:"user"`
}

type authService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	if !user.IsActive {
		return nil, apperr.Forbidden("user account is inactive")
	}

	if !user.CheckPassword(password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	// Single session: rotating the token version invalidates older tokens.
	now := time.Now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, apperr.Internal("failed to update session", err)
	}

	token, err := jwt.GenerateToken(user.ID, user.OrganizationID, user.Email, user.FullName, user.Role, user.TokenVersion)
	if err != nil {
		return nil, apperr.Internal("failed to generate token", err)
	}

	return &LoginResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *authService) ChangePassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return apperr.NotFound("user not found")
	}

	if !user.CheckPassword(oldPassword) {
		return apperr.Unauthorized("current password is incorrect")
	}
	if len(newPassword) < 8 {
		return apperr.Validation("new password must be at least 8 characters")
	}

	if err := user.SetPassword(newPassword); err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	// force re-login everywhere
	user.TokenVersion = uuid.New().String()
	if err := s.userRepo.Update(user); err != nil {
		return apperr.Internal("failed to update password", err)
	}
	return nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return apperr.NotFound("user not found")
	}
	now := time.Now()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return apperr.Internal("failed to update presence", err)
	}
	return nil
}
