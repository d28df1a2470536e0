package service

import (
	"errors"

	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/pkg/apperr"
	"dealio-backend/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateMemberRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role" validate:"required,oneof=ADMIN CASHIER"`
}

type UpdateMemberRequest struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role" validate:"omitempty,oneof=ADMIN CASHIER"`
	IsActive    *bool  `json:"is_active"`
}

// TeamService manages an organization's staff accounts.
type TeamService interface {
	CreateMember(req *CreateMemberRequest, actor Actor) (*model.UserResponse, error)
	UpdateMember(id uuid.UUID, req *UpdateMemberRequest, actor Actor) (*model.UserResponse, error)
	RemoveMember(id uuid.UUID, actor Actor) error
	ListMembers(orgID uuid.UUID) ([]model.UserResponse, error)
}

type teamService struct {
	userRepo repository.UserRepository
}

func NewTeamService(userRepo repository.UserRepository) TeamService {
	return &teamService{userRepo: userRepo}
}

// canManage enforces the role ladder: owners manage everyone below them,
// admins manage cashiers only.
func canManage(actorRole, targetRole string) bool {
	switch actorRole {
	case model.RoleOwner:
		return targetRole != model.RoleOwner
	case model.RoleAdmin:
		return targetRole == model.RoleCashier
	default:
		return false
	}
}

func (s *teamService) CreateMember(req *CreateMemberRequest, actor Actor) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationFields("invalid member", validator.FieldErrors(errs))
	}
	if !canManage(actor.Role, req.Role) {
		return nil, apperr.Forbidden("cannot create a member with that role")
	}

	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, apperr.Conflict("email already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal("failed to check email", err)
	}

	user := &model.User{
		OrganizationID: actor.OrganizationID,
		Email:          req.Email,
		FullName:       req.FullName,
		PhoneNumber:    req.PhoneNumber,
		Role:           req.Role,
		IsActive:       true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}
	user.CreatedBy = actor.ID.String()
	user.UpdatedBy = actor.ID.String()

	if err := s.userRepo.Create(user); err != nil {
		return nil, apperr.Internal("failed to create member", err)
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *teamService) UpdateMember(id uuid.UUID, req *UpdateMemberRequest, actor Actor) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.ValidationFields("invalid member", validator.FieldErrors(errs))
	}

	user, err := s.loadMember(id, actor)
	if err != nil {
		return nil, err
	}
	if !canManage(actor.Role, user.Role) {
		return nil, apperr.Forbidden("cannot manage that member")
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Role != "" && req.Role != user.Role {
		if !canManage(actor.Role, req.Role) {
			return nil, apperr.Forbidden("cannot assign that role")
		}
		user.Role = req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor.ID.String()

	if err := s.userRepo.Update(user); err != nil {
		return nil, apperr.Internal("failed to update member", err)
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *teamService) RemoveMember(id uuid.UUID, actor Actor) error {
	if id == actor.ID {
		return apperr.Validation("cannot remove your own account")
	}

	user, err := s.loadMember(id, actor)
	if err != nil {
		return err
	}
	if !canManage(actor.Role, user.Role) {
		return apperr.Forbidden("cannot manage that member")
	}

	if err := s.userRepo.Delete(id, actor.ID.String()); err != nil {
		return apperr.Internal("failed to remove member", err)
	}
	return nil
}

func (s *teamService) ListMembers(orgID uuid.UUID) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(orgID)
	if err != nil {
		return nil, apperr.Internal("failed to list members", err)
	}
	responses := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, nil
}

func (s *teamService) loadMember(id uuid.UUID, actor Actor) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("member not found")
		}
		return nil, apperr.Internal("failed to load member", err)
	}
	if user.OrganizationID != actor.OrganizationID {
		return nil, apperr.NotFound("member not found")
	}
	return user, nil
}
