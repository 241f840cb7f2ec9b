package service

import (
	"context"
	"errors"
	"strings"

	"people-search/internal/domain"
	"people-search/internal/repository"
)

// ErrSelfRelation is returned when a viewer targets their own account.
var ErrSelfRelation = errors.New("cannot target your own account")

// RelationService manages the viewer→target edges that gate search
// visibility and feed the popularity signal.
type RelationService interface {
	Set(ctx context.Context, viewerID, targetHandle string, kind domain.RelationKind) error
	Clear(ctx context.Context, viewerID, targetHandle string, kind domain.RelationKind) error
}

type relationService struct {
	users     repository.UserRepository
	relations repository.RelationRepository
}

func NewRelationService(users repository.UserRepository, relations repository.RelationRepository) RelationService {
	return &relationService{users: users, relations: relations}
}

func (s *relationService) Set(ctx context.Context, viewerID, targetHandle string, kind domain.RelationKind) error {
	target, err := s.resolveTarget(ctx, viewerID, targetHandle)
	if err != nil {
		return err
	}

	created, err := s.relations.Set(ctx, viewerID, target.ID, kind)
	if err != nil {
		return err
	}
	if created && kind == domain.RelationFollow {
		return s.users.AdjustFollowers(ctx, target.ID, 1)
	}
	return nil
}

func (s *relationService) Clear(ctx context.Context, viewerID, targetHandle string, kind domain.RelationKind) error {
	target, err := s.resolveTarget(ctx, viewerID, targetHandle)
	if err != nil {
		return err
	}

	removed, err := s.relations.Delete(ctx, viewerID, target.ID, kind)
	if err != nil {
		return err
	}
	if removed && kind == domain.RelationFollow {
		return s.users.AdjustFollowers(ctx, target.ID, -1)
	}
	return nil
}

func (s *relationService) resolveTarget(ctx context.Context, viewerID, targetHandle string) (*domain.User, error) {
	target, err := s.users.GetByHandle(ctx, strings.TrimPrefix(strings.TrimSpace(targetHandle), "@"))
	if err != nil {
		return nil, err
	}
	if target.ID == viewerID {
		return nil, ErrSelfRelation
	}
	return target, nil
}
