package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

// Actor is the authenticated caller as read from the access token.
type Actor struct {
	UserID uint
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// coordinator loads the caller and checks it is attached to the entity its role needs.
func coordinator(ctx context.Context, users UserStore, actor Actor) (*models.User, error) {
	user, err := users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.Unauthorized("user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	switch user.Role {
	case models.RoleOrganization:
		if user.OrganizationID == nil {
			return nil, utils.Forbidden("account is not linked to an organization")
		}
	case models.RoleHospital:
		if user.HospitalID == nil {
			return nil, utils.Forbidden("account is not linked to a hospital")
		}
	}
	return user, nil
}

// notFoundAs maps repository.ErrNotFound to a 404 with the given message.
func notFoundAs(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NotFound(message)
	}
	return err
}

func sameID(p *uint, id uint) bool {
	return p != nil && *p == id
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, utils.BadRequest("dates must use the YYYY-MM-DD format")
	}
	return &t, nil
}
