package service

import (
	"context"

	apperrors "github.com/foyerhq/foyer-server/internal/errors"
	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/repository"
)

// Stats is the admin dashboard summary.
type Stats struct {
	Requests struct {
		Pending  int `json:"pending"`
		Approved int `json:"approved"`
		Rejected int `json:"rejected"`
	} `json:"requests"`
	Codes struct {
		Issued int `json:"issued"`
		Used   int `json:"used"`
	} `json:"codes"`
	Users int `json:"users"`
}

// AdminService aggregates counts for the dashboard.
type AdminService struct {
	requestRepo repository.AccessRequestRepository
	codeRepo    repository.AccessCodeRepository
	userRepo    repository.UserRepository
}

// NewAdminService creates a new admin service
func NewAdminService(
	requestRepo repository.AccessRequestRepository,
	codeRepo repository.AccessCodeRepository,
	userRepo repository.UserRepository,
) *AdminService {
	return &AdminService{
		requestRepo: requestRepo,
		codeRepo:    codeRepo,
		userRepo:    userRepo,
	}
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	pending, err := s.requestRepo.CountByStatus(ctx, model.RequestStatusPending)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Requests.Pending = pending

	approved, err := s.requestRepo.CountByStatus(ctx, model.RequestStatusApproved)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Requests.Approved = approved

	rejected, err := s.requestRepo.CountByStatus(ctx, model.RequestStatusRejected)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Requests.Rejected = rejected

	issued, err := s.codeRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Codes.Issued = issued

	used, err := s.codeRepo.CountUsed(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Codes.Used = used

	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	stats.Users = users

	return stats, nil
}
