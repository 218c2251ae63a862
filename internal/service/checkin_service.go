package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"offerhub/internal/model"
	"offerhub/internal/repository"
)

// DefaultCheckInTTL is how long a check-in asserts presence before it
// lapses on its own.
const DefaultCheckInTTL = 4 * time.Hour

type CheckInService struct {
	checkInRepo repository.CheckInRepository
	venueRepo   repository.VenueRepository
	logger      *zap.Logger
	nowFn       func() time.Time
}

func NewCheckInService(
	checkInRepo repository.CheckInRepository,
	venueRepo repository.VenueRepository,
	logger *zap.Logger,
) *CheckInService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CheckInService{
		checkInRepo: checkInRepo,
		venueRepo:   venueRepo,
		logger:      logger,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *CheckInService) CheckIn(ctx context.Context, userID, venueID string) (*model.CheckIn, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrInvalidInput
	}
	vid, err := uuid.Parse(strings.TrimSpace(venueID))
	if err != nil {
		return nil, ErrInvalidInput
	}

	if _, err := s.venueRepo.FindByID(ctx, vid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}

	now := s.nowFn()
	checkIn := &model.CheckIn{
		ID:          uuid.New(),
		UserID:      uid,
		VenueID:     vid,
		CheckedInAt: now,
		ExpiresAt:   now.Add(DefaultCheckInTTL),
	}

	if err := s.checkInRepo.Create(ctx, checkIn); err != nil {
		return nil, err
	}
	return checkIn, nil
}

func (s *CheckInService) CheckOut(ctx context.Context, userID, venueID string) error {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return ErrInvalidInput
	}
	vid, err := uuid.Parse(strings.TrimSpace(venueID))
	if err != nil {
		return ErrInvalidInput
	}

	return s.checkInRepo.DeleteForUserVenue(ctx, uid, vid)
}

func (s *CheckInService) IsCheckedIn(ctx context.Context, userID, venueID string) (bool, error) {
	uid, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return false, ErrInvalidInput
	}
	vid, err := uuid.Parse(strings.TrimSpace(venueID))
	if err != nil {
		return false, ErrInvalidInput
	}

	return s.checkInRepo.IsCheckedIn(ctx, uid, vid, s.nowFn())
}
