package services

import (
	"errors"

	"github.com/google/uuid"

	"dblens/internal/models"
	"dblens/internal/repositories"
)

type OrganizationService struct {
	orgRepo  *repositories.OrganizationRepository
	userRepo *repositories.UserRepository
}

func NewOrganizationService(orgRepo *repositories.OrganizationRepository, userRepo *repositories.UserRepository) *OrganizationService {
	return &OrganizationService{orgRepo: orgRepo, userRepo: userRepo}
}

func (s *OrganizationService) ListForUser(userID uuid.UUID) ([]models.Organization, error) {
	return s.orgRepo.ListForUser(userID)
}

func (s *OrganizationService) Get(id uuid.UUID) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, errors.New("organization not found")
	}
	return org, nil
}

// Create makes an organization with the actor as its owner.
func (s *OrganizationService) Create(actor *models.User, name, description string) (*models.Organization, error) {
	org := &models.Organization{
		Name:        name,
		Description: description,
		CreatedBy:   actor.ID,
	}
	if err := s.orgRepo.Create(org); err != nil {
		return nil, err
	}
	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         actor.ID,
		Role:           "owner",
	}
	if err := s.orgRepo.AddMember(member); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) AddMember(actor *models.User, orgID, userID uuid.UUID, role string) error {
	isMember, err := s.orgRepo.IsMember(orgID, actor.ID)
	if err != nil {
		return err
	}
	if !isMember {
		return errors.New("only members can invite to an organization")
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}
	if role == "" {
		role = "member"
	}
	return s.orgRepo.AddMember(&models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
	})
}

func (s *OrganizationService) Members(orgID uuid.UUID) ([]models.OrganizationMember, error) {
	return s.orgRepo.Members(orgID)
}

// Authorize validates an X-Organization-ID header value for the user. An
// empty value is fine and means no org scoping.
func (s *OrganizationService) Authorize(user *models.User, orgHeader string) (*uuid.UUID, error) {
	if orgHeader == "" {
		return nil, nil
	}
	orgID, err := uuid.Parse(orgHeader)
	if err != nil {
		return nil, errors.New("invalid organization id")
	}
	isMember, err := s.orgRepo.IsMember(orgID, user.ID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, errors.New("not a member of this organization")
	}
	return &orgID, nil
}
