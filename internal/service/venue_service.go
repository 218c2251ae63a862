package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"offerhub/internal/model"
	"offerhub/internal/repository"
)

type VenueService struct {
	venueRepo repository.VenueRepository
}

func NewVenueService(venueRepo repository.VenueRepository) *VenueService {
	return &VenueService{venueRepo: venueRepo}
}

func (s *VenueService) Create(ctx context.Context, name string) (*model.Venue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	venue := &model.Venue{
		ID:   uuid.New(),
		Name: name,
	}
	if err := s.venueRepo.Create(ctx, venue); err != nil {
		return nil, err
	}
	return venue, nil
}

func (s *VenueService) Get(ctx context.Context, venueID string) (*model.Venue, error) {
	id, err := uuid.Parse(strings.TrimSpace(venueID))
	if err != nil {
		return nil, ErrInvalidInput
	}

	venue, err := s.venueRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	return venue, nil
}
