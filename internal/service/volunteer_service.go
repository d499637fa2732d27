package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

type VolunteerService struct {
	groupRepo VolunteerStore
	userRepo  UserStore
	orgRepo   OrganizationStore
	notifier  NotificationSender
	auditRepo AuditStore
}

func NewVolunteerService(groupRepo VolunteerStore, userRepo UserStore, orgRepo OrganizationStore, notifier NotificationSender, auditRepo AuditStore) *VolunteerService {
	return &VolunteerService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		orgRepo:   orgRepo,
		notifier:  notifier,
		auditRepo: auditRepo,
	}
}

type VolunteerGroupInput struct {
	Name           string `json:"name" binding:"required,max=255"`
	Description    string `json:"description"`
	OrganizationID *uint  `json:"organization_id"`
	LeaderID       *uint  `json:"leader_id"`
}

func (s *VolunteerService) ListGroups(ctx context.Context, organizationID *uint, query string, page utils.PageParams) ([]models.VolunteerGroup, int64, error) {
	return s.groupRepo.ListGroups(ctx, organizationID, strings.TrimSpace(query), page)
}

func (s *VolunteerService) GetGroup(ctx context.Context, id uint) (*models.VolunteerGroup, error) {
	group, err := s.groupRepo.FindGroupByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "volunteer group not found")
	}
	return group, nil
}

func (s *VolunteerService) ListMembers(ctx context.Context, groupID uint, page utils.PageParams) ([]models.VolunteerGroupMember, int64, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, 0, err
	}
	return s.groupRepo.ListMembers(ctx, groupID, page)
}

func (s *VolunteerService) validateLeader(ctx context.Context, leaderID *uint) error {
	if leaderID == nil {
		return nil
	}
	leader, err := s.userRepo.FindByID(ctx, *leaderID)
	if err != nil {
		return notFoundAs(err, "leader not found")
	}
	if leader.Role != models.RoleVolunteer {
		return utils.BadRequest("leader must be a volunteer")
	}
	return nil
}

// CreateGroup creates a group owned by the caller's organization; admins may pick the owner
func (s *VolunteerService) CreateGroup(ctx context.Context, actor Actor, in VolunteerGroupInput) (*models.VolunteerGroup, error) {
	group := &models.VolunteerGroup{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		LeaderID:    in.LeaderID,
		IsActive:    true,
	}
	if group.Name == "" {
		return nil, utils.BadRequest("name is required")
	}

	if actor.IsAdmin() {
		if in.OrganizationID != nil {
			if _, err := s.orgRepo.GetOrganizationByID(ctx, *in.OrganizationID); err != nil {
				return nil, notFoundAs(err, "organization not found")
			}
		}
		group.OrganizationID = in.OrganizationID
	} else {
		user, err := coordinator(ctx, s.userRepo, actor)
		if err != nil {
			return nil, err
		}
		if user.Role != models.RoleOrganization {
			return nil, utils.Forbidden("only organizations can create volunteer groups")
		}
		group.OrganizationID = user.OrganizationID
	}
	if err := s.validateLeader(ctx, in.LeaderID); err != nil {
		return nil, err
	}

	if err := s.groupRepo.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create volunteer group: %w", err)
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "volunteer_group_create", fmt.Sprintf("Created volunteer group %d: %s", group.ID, group.Name))
	return group, nil
}

func (s *VolunteerService) manageableGroup(ctx context.Context, actor Actor, id uint) (*models.VolunteerGroup, error) {
	group, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return group, nil
	}
	user, err := coordinator(ctx, s.userRepo, actor)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleOrganization || group.OrganizationID == nil || !sameID(user.OrganizationID, *group.OrganizationID) {
		return nil, utils.Forbidden("you cannot manage this volunteer group")
	}
	return group, nil
}

func (s *VolunteerService) UpdateGroup(ctx context.Context, actor Actor, id uint, in VolunteerGroupInput) (*models.VolunteerGroup, error) {
	group, err := s.manageableGroup(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateLeader(ctx, in.LeaderID); err != nil {
		return nil, err
	}

	group.Name = strings.TrimSpace(in.Name)
	group.Description = in.Description
	group.LeaderID = in.LeaderID
	if err := s.groupRepo.UpdateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to update volunteer group: %w", err)
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "volunteer_group_update", fmt.Sprintf("Updated volunteer group %d", group.ID))
	return group, nil
}

func (s *VolunteerService) DeleteGroup(ctx context.Context, actor Actor, id uint) error {
	group, err := s.manageableGroup(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.groupRepo.DeactivateGroup(ctx, group.ID); err != nil {
		return notFoundAs(err, "volunteer group not found")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "volunteer_group_delete", fmt.Sprintf("Deleted volunteer group %d: %s", group.ID, group.Name))
	return nil
}

// Join adds the calling volunteer to a group and tells the leader
func (s *VolunteerService) Join(ctx context.Context, actor Actor, id uint) (*models.VolunteerGroupMember, error) {
	group, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	member, err := s.groupRepo.IsMember(ctx, group.ID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if member {
		return nil, utils.Conflict("you are already a member of this group")
	}

	row := &models.VolunteerGroupMember{GroupID: group.ID, UserID: actor.UserID}
	if err := s.groupRepo.AddMember(ctx, row); err != nil {
		if repository.IsDuplicate(err) {
			return nil, utils.Conflict("you are already a member of this group")
		}
		return nil, fmt.Errorf("failed to join volunteer group: %w", err)
	}

	if group.LeaderID != nil && *group.LeaderID != actor.UserID {
		name := "A volunteer"
		if user, err := s.userRepo.FindByID(ctx, actor.UserID); err == nil {
			name = user.FullName
		}
		_, _ = s.notifier.Notify(ctx, Message{
			UserID: *group.LeaderID,
			Type:   models.NotificationVolunteerGroupJoined,
			Title:  "New group member",
			Body:   fmt.Sprintf("%s joined %q.", name, group.Name),
			Data:   map[string]interface{}{"group_id": group.ID, "user_id": actor.UserID},
		})
	}
	return row, nil
}

func (s *VolunteerService) Leave(ctx context.Context, actor Actor, id uint) error {
	if err := s.groupRepo.RemoveMember(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NotFound("you are not a member of this group")
		}
		return fmt.Errorf("failed to leave volunteer group: %w", err)
	}
	return nil
}

func (s *VolunteerService) MyGroups(ctx context.Context, actor Actor) ([]models.VolunteerGroup, error) {
	return s.groupRepo.ListGroupsByMember(ctx, actor.UserID)
}
