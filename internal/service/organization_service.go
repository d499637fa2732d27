package service

import (
	"context"
	"fmt"
	"strings"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"
)

type OrganizationService struct {
	orgRepo   OrganizationStore
	userRepo  UserStore
	auditRepo AuditStore
}

func NewOrganizationService(orgRepo OrganizationStore, userRepo UserStore, auditRepo AuditStore) *OrganizationService {
	return &OrganizationService{
		orgRepo:   orgRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
	}
}

type OrganizationInput struct {
	Name        string   `json:"name" binding:"required,max=255"`
	Email       string   `json:"email" binding:"omitempty,email"`
	Phone       string   `json:"phone" binding:"omitempty,max=20"`
	Address     string   `json:"address"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
}

func applyOrganizationInput(org *models.Organization, in OrganizationInput) {
	org.Name = strings.TrimSpace(in.Name)
	org.Email = in.Email
	org.Phone = in.Phone
	org.Address = in.Address
	org.Description = in.Description
	org.Latitude = in.Latitude
	org.Longitude = in.Longitude
}

func (s *OrganizationService) GetAllOrganizations(ctx context.Context) ([]models.Organization, error) {
	return s.orgRepo.GetAllOrganizations(ctx)
}

func (s *OrganizationService) GetOrganizationByID(ctx context.Context, id uint) (*models.Organization, error) {
	org, err := s.orgRepo.GetOrganizationByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "organization not found")
	}
	return org, nil
}

func (s *OrganizationService) CreateOrganization(ctx context.Context, actor Actor, in OrganizationInput) (*models.Organization, error) {
	org := &models.Organization{IsActive: true}
	applyOrganizationInput(org, in)
	if org.Name == "" {
		return nil, utils.BadRequest("name is required")
	}
	if err := s.orgRepo.CreateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "organization_create", fmt.Sprintf("Created organization: %s", org.Name))
	return org, nil
}

func (s *OrganizationService) UpdateOrganization(ctx context.Context, actor Actor, id uint, in OrganizationInput) (*models.Organization, error) {
	org, err := s.orgRepo.GetOrganizationByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "organization not found")
	}
	applyOrganizationInput(org, in)
	if err := s.orgRepo.UpdateOrganization(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "organization_update", fmt.Sprintf("Updated organization %d", org.ID))
	return org, nil
}

func (s *OrganizationService) DeleteOrganization(ctx context.Context, actor Actor, id uint) error {
	org, err := s.orgRepo.GetOrganizationByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "organization not found")
	}
	if err := s.orgRepo.SoftDeleteOrganization(ctx, id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "organization_delete", fmt.Sprintf("Deleted organization: %s (ID: %d)", org.Name, id))
	return nil
}

func (s *OrganizationService) myOrganizationID(ctx context.Context, actor Actor) (uint, error) {
	user, err := coordinator(ctx, s.userRepo, actor)
	if err != nil {
		return 0, err
	}
	if user.Role != models.RoleOrganization {
		return 0, utils.Forbidden("only organization accounts can do this")
	}
	return *user.OrganizationID, nil
}

// GetMyOrganization returns the organization the caller coordinates
func (s *OrganizationService) GetMyOrganization(ctx context.Context, actor Actor) (*models.Organization, error) {
	id, err := s.myOrganizationID(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.GetOrganizationByID(ctx, id)
}

// UpdateMyOrganization lets a coordinator edit its organization
func (s *OrganizationService) UpdateMyOrganization(ctx context.Context, actor Actor, in OrganizationInput) (*models.Organization, error) {
	id, err := s.myOrganizationID(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.UpdateOrganization(ctx, actor, id, in)
}
