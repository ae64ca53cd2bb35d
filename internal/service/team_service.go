package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-service/internal/domain"
	"github.com/spec-kit/team-service/internal/events"
	"github.com/spec-kit/team-service/internal/repository"
	apperrors "github.com/spec-kit/team-service/pkg/util"
)

// TeamService coordinates team creation and browsing.
type TeamService struct {
	teams      repository.TeamRepository
	audit      *AuditService
	dispatcher events.Dispatcher
}

// NewTeamService constructs the service.
func NewTeamService(teams repository.TeamRepository, audit *AuditService, dispatcher events.Dispatcher) *TeamService {
	return &TeamService{teams: teams, audit: audit, dispatcher: dispatcher}
}

// CreateTeam creates an active team owned by createdBy.
func (s *TeamService) CreateTeam(ctx context.Context, name, description, createdBy string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("team name is required", nil)
	}

	team := &domain.Team{
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
		CreatedBy:   createdBy,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.LogTeamCreated(ctx, createdBy, team.ID, team.Name)
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTeamCreated,
			TeamID:    team.ID,
			ActorID:   createdBy,
			Timestamp: time.Now(),
			Payload:   events.TeamCreatedPayload{Name: team.Name, CreatedBy: createdBy},
		})
	}
	return team, nil
}

// ListTeams returns all active teams with creator and member count.
func (s *TeamService) ListTeams(ctx context.Context) ([]domain.TeamOverview, error) {
	teams, err := s.teams.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}

// GetTeam fetches a team by ID.
func (s *TeamService) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return team, nil
}
