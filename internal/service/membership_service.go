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

// MembershipService governs the TeamRequest/TeamInvite lifecycle. Requests
// and invites are created PENDING and transition exactly once to a terminal
// state. Resolving one in the user's favor assigns the team and terminates
// every other pending item for that user inside a single transaction.
type MembershipService struct {
	requests   repository.TeamRequestRepository
	invites    repository.TeamInviteRepository
	teams      repository.TeamRepository
	unitOfWork repository.MembershipUnitOfWork
	audit      *AuditService
	dispatcher events.Dispatcher
}

// MembershipDependencies bundles collaborators for the membership service.
type MembershipDependencies struct {
	RequestRepo repository.TeamRequestRepository
	InviteRepo  repository.TeamInviteRepository
	TeamRepo    repository.TeamRepository
	UnitOfWork  repository.MembershipUnitOfWork
	Audit       *AuditService
	Dispatcher  events.Dispatcher
}

// NewMembershipService constructs the service.
func NewMembershipService(deps MembershipDependencies) *MembershipService {
	return &MembershipService{
		requests:   deps.RequestRepo,
		invites:    deps.InviteRepo,
		teams:      deps.TeamRepo,
		unitOfWork: deps.UnitOfWork,
		audit:      deps.Audit,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTeamRequest records a user's ask to join a team. A second pending
// request for the same (team, user) pair fails; a pending invite for the
// same pair does not block it.
func (s *MembershipService) CreateTeamRequest(ctx context.Context, teamID, userID, message string) (*domain.TeamRequest, error) {
	if teamID == "" || userID == "" {
		return nil, apperrors.NewValidationError("team_id and user_id are required", nil)
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, apperrors.MapError(err)
	}

	pending, err := s.requests.HasPending(ctx, teamID, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if pending {
		return nil, apperrors.NewDuplicateRequest(teamID, userID)
	}

	request := &domain.TeamRequest{
		TeamID:  teamID,
		UserID:  userID,
		Message: strings.TrimSpace(message),
		Status:  domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		// the partial unique index closes the race between check and insert
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewDuplicateRequest(teamID, userID)
		}
		return nil, apperrors.MapError(err)
	}

	s.audit.LogRequestSent(ctx, userID, teamID)
	s.publish(ctx, events.Event{
		Type:    events.EventRequestSent,
		TeamID:  teamID,
		ActorID: userID,
		Payload: events.RequestPayload{RequestID: request.ID, UserID: userID},
	})
	return request, nil
}

// CreateTeamInvite records a team-side invitation for a user to join.
func (s *MembershipService) CreateTeamInvite(ctx context.Context, teamID, userID, invitedBy, message string) (*domain.TeamInvite, error) {
	if teamID == "" || userID == "" || invitedBy == "" {
		return nil, apperrors.NewValidationError("team_id, user_id and invited_by are required", nil)
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", map[string]any{"team_id": teamID})
		}
		return nil, apperrors.MapError(err)
	}

	pending, err := s.invites.HasPending(ctx, teamID, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if pending {
		return nil, apperrors.NewDuplicateInvite(teamID, userID)
	}

	invite := &domain.TeamInvite{
		TeamID:    teamID,
		UserID:    userID,
		InvitedBy: invitedBy,
		Message:   strings.TrimSpace(message),
		Status:    domain.InviteStatusPending,
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewDuplicateInvite(teamID, userID)
		}
		return nil, apperrors.MapError(err)
	}

	s.audit.LogInviteSent(ctx, invitedBy, teamID, userID)
	s.publish(ctx, events.Event{
		Type:    events.EventInviteSent,
		TeamID:  teamID,
		ActorID: invitedBy,
		Payload: events.InvitePayload{InviteID: invite.ID, UserID: userID, InvitedBy: invitedBy},
	})
	return invite, nil
}

// ApproveTeamRequest resolves a pending request in the user's favor. The
// status transition, the team assignment and the cascading rejections happen
// in one transaction; a concurrent second approval loses with an
// already-processed failure.
func (s *MembershipService) ApproveTeamRequest(ctx context.Context, actorID, requestID string) (*domain.TeamRequest, error) {
	var approved *domain.TeamRequest

	err := s.unitOfWork.Run(ctx, func(tx repository.MembershipTx) error {
		request, err := tx.RequestForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
			}
			return apperrors.MapError(err)
		}
		if !request.Pending() {
			return apperrors.NewAlreadyProcessed("request")
		}

		user, err := tx.UserForUpdate(ctx, request.UserID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if user.TeamID != nil {
			return apperrors.NewUserAlreadyInTeam(user.ID)
		}

		if err := tx.MarkRequest(ctx, request.ID, domain.RequestStatusApproved); err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.AssignUserTeam(ctx, request.UserID, request.TeamID); err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.RejectOtherPendingRequests(ctx, request.UserID, request.ID); err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.DeclineOtherPendingInvites(ctx, request.UserID, ""); err != nil {
			return apperrors.MapError(err)
		}

		request.Status = domain.RequestStatusApproved
		approved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogRequestApproved(ctx, actorID, approved.UserID, approved.TeamID)
	s.publish(ctx, events.Event{
		Type:    events.EventRequestApproved,
		TeamID:  approved.TeamID,
		ActorID: actorID,
		Payload: events.RequestPayload{RequestID: approved.ID, UserID: approved.UserID},
	})
	return approved, nil
}

// RejectTeamRequest resolves a pending request against the user.
func (s *MembershipService) RejectTeamRequest(ctx context.Context, actorID, requestID string) (*domain.TeamRequest, error) {
	return s.terminateRequest(ctx, actorID, requestID)
}

// CancelTeamRequest withdraws the requester's own pending request. It shares
// the REJECTED terminal state with admin rejection.
func (s *MembershipService) CancelTeamRequest(ctx context.Context, actorID, requestID string) (*domain.TeamRequest, error) {
	return s.terminateRequest(ctx, actorID, requestID)
}

func (s *MembershipService) terminateRequest(ctx context.Context, actorID, requestID string) (*domain.TeamRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	if !request.Pending() {
		return nil, apperrors.NewAlreadyProcessed("request")
	}

	updated, err := s.requests.ResolvePending(ctx, requestID, domain.RequestStatusRejected)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !updated {
		// lost a race with another resolution
		return nil, apperrors.NewAlreadyProcessed("request")
	}
	request.Status = domain.RequestStatusRejected

	s.audit.LogRequestRejected(ctx, actorID, request.UserID, request.TeamID)
	s.publish(ctx, events.Event{
		Type:    events.EventRequestRejected,
		TeamID:  request.TeamID,
		ActorID: actorID,
		Payload: events.RequestPayload{RequestID: request.ID, UserID: request.UserID},
	})
	return request, nil
}

// AcceptTeamInvite resolves a pending invite in the user's favor, with the
// same transactional cascade as request approval.
func (s *MembershipService) AcceptTeamInvite(ctx context.Context, inviteID string) (*domain.TeamInvite, error) {
	var accepted *domain.TeamInvite

	err := s.unitOfWork.Run(ctx, func(tx repository.MembershipTx) error {
		invite, err := tx.InviteForUpdate(ctx, inviteID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("invite", map[string]any{"invite_id": inviteID})
			}
			return apperrors.MapError(err)
		}
		if !invite.Pending() {
			return apperrors.NewAlreadyProcessed("invite")
		}

		user, err := tx.UserForUpdate(ctx, invite.UserID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if user.TeamID != nil {
			return apperrors.NewUserAlreadyInTeam(user.ID)
		}

		if err := tx.MarkInvite(ctx, invite.ID, domain.InviteStatusAccepted); err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.AssignUserTeam(ctx, invite.UserID, invite.TeamID); err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.RejectOtherPendingRequests(ctx, invite.UserID, ""); err != nil {
			return apperrors.MapError(err)
		}
		if err := tx.DeclineOtherPendingInvites(ctx, invite.UserID, invite.ID); err != nil {
			return apperrors.MapError(err)
		}

		invite.Status = domain.InviteStatusAccepted
		accepted = invite
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogInviteAccepted(ctx, accepted.UserID, accepted.TeamID)
	s.publish(ctx, events.Event{
		Type:    events.EventInviteAccepted,
		TeamID:  accepted.TeamID,
		ActorID: accepted.UserID,
		Payload: events.InvitePayload{InviteID: accepted.ID, UserID: accepted.UserID},
	})
	return accepted, nil
}

// DeclineTeamInvite resolves a pending invite against the team. No cascade.
func (s *MembershipService) DeclineTeamInvite(ctx context.Context, inviteID string) (*domain.TeamInvite, error) {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("invite", map[string]any{"invite_id": inviteID})
		}
		return nil, apperrors.MapError(err)
	}
	if !invite.Pending() {
		return nil, apperrors.NewAlreadyProcessed("invite")
	}

	updated, err := s.invites.ResolvePending(ctx, inviteID, domain.InviteStatusDeclined)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !updated {
		return nil, apperrors.NewAlreadyProcessed("invite")
	}
	invite.Status = domain.InviteStatusDeclined

	s.audit.LogInviteDeclined(ctx, invite.UserID, invite.TeamID)
	s.publish(ctx, events.Event{
		Type:    events.EventInviteDeclined,
		TeamID:  invite.TeamID,
		ActorID: invite.UserID,
		Payload: events.InvitePayload{InviteID: invite.ID, UserID: invite.UserID},
	})
	return invite, nil
}

// GetTeamRequest fetches a single request by ID.
func (s *MembershipService) GetTeamRequest(ctx context.Context, requestID string) (*domain.TeamRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

// GetTeamInvite fetches a single invite by ID.
func (s *MembershipService) GetTeamInvite(ctx context.Context, inviteID string) (*domain.TeamInvite, error) {
	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("invite", map[string]any{"invite_id": inviteID})
		}
		return nil, apperrors.MapError(err)
	}
	return invite, nil
}

// GetTeamRequests lists a team's pending requests, newest first.
func (s *MembershipService) GetTeamRequests(ctx context.Context, teamID string) ([]domain.TeamRequest, error) {
	requests, err := s.requests.ListPendingByTeam(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// GetTeamInvites lists a team's pending invites, newest first.
func (s *MembershipService) GetTeamInvites(ctx context.Context, teamID string) ([]domain.TeamInvite, error) {
	invites, err := s.invites.ListPendingByTeam(ctx, teamID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return invites, nil
}

// GetUserTeamRequests lists a user's pending requests, newest first.
func (s *MembershipService) GetUserTeamRequests(ctx context.Context, userID string) ([]domain.TeamRequest, error) {
	requests, err := s.requests.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// GetUserTeamInvites lists a user's pending invites, newest first.
func (s *MembershipService) GetUserTeamInvites(ctx context.Context, userID string) ([]domain.TeamInvite, error) {
	invites, err := s.invites.ListPendingByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return invites, nil
}

func (s *MembershipService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
