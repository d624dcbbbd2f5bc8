package services

import (
	"context"
	"errors"
	"strings"

	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/changefeed"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/db/repositories"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/models/dtos"
	gormModels "infinite-experiment/hangar/internal/models/gorm"
)

type PilotStore interface {
	List(ctx context.Context, includeHidden bool) ([]gormModels.Pilot, error)
	GetByID(ctx context.Context, id string) (*gormModels.Pilot, error)
	GetByAuthUserID(ctx context.Context, authUserID string) (*gormModels.Pilot, error)
	GetByEmail(ctx context.Context, email string) (*gormModels.Pilot, error)
	Create(ctx context.Context, pilot *gormModels.Pilot) error
	Update(ctx context.Context, id string, fields map[string]interface{}) (*gormModels.Pilot, error)
}

type PilotService struct {
	pilots    PilotStore
	admin     *AdminService
	publisher ChangePublisher
}

func NewPilotService(pilots PilotStore, admin *AdminService, publisher ChangePublisher) *PilotService {
	return &PilotService{
		pilots:    pilots,
		admin:     admin,
		publisher: publisher,
	}
}

// ResolveActor builds the Actor for a request. A caller with no pilot record
// is still authenticated; it just has no PilotID.
func (s *PilotService) ResolveActor(ctx context.Context, claims auth.UserClaims) (Actor, error) {
	if claims == nil {
		return Actor{}, Unauthenticated()
	}
	if claims.IsServiceRole() {
		return Actor{Service: true}, nil
	}

	actor := Actor{AuthUserID: claims.UserID()}

	pilot, err := s.pilots.GetByAuthUserID(ctx, claims.UserID())
	switch {
	case err == nil:
		actor.PilotID = pilot.ID
		actor.PilotName = pilot.Name
	case errors.Is(err, repositories.ErrNotFound):
	default:
		return Actor{}, storeError("pilot", err)
	}

	isAdmin, err := s.admin.IsAdmin(ctx, claims.UserID())
	if err != nil {
		return Actor{}, err
	}
	actor.IsAdmin = isAdmin
	return actor, nil
}

// ResolveViewer scopes a realtime connection to the actor's pilot record.
func (s *PilotService) ResolveViewer(ctx context.Context, claims auth.UserClaims) (changefeed.Viewer, error) {
	actor, err := s.ResolveActor(ctx, claims)
	if err != nil {
		return changefeed.Viewer{}, err
	}
	return changefeed.Viewer{PilotID: actor.PilotID, Privileged: actor.Privileged()}, nil
}

// WhoAmI describes the bearer of the request.
func (s *PilotService) WhoAmI(ctx context.Context, claims auth.UserClaims) (*dtos.Identity, error) {
	actor, err := s.ResolveActor(ctx, claims)
	if err != nil {
		return nil, err
	}
	return &dtos.Identity{
		UserID:  claims.UserID(),
		Email:   claims.Email(),
		Role:    claims.Role(),
		PilotID: actor.PilotID,
		Name:    actor.PilotName,
		IsAdmin: actor.Privileged(),
	}, nil
}

func (s *PilotService) List(ctx context.Context, actor Actor, req dtos.ListPilotsRequest) ([]dtos.Pilot, error) {
	includeHidden := req.IncludeHidden && actor.Privileged()

	pilots, err := s.pilots.List(ctx, includeHidden)
	if err != nil {
		return nil, storeError("pilots", err)
	}

	out := make([]dtos.Pilot, 0, len(pilots))
	for i := range pilots {
		out = append(out, toPilotDTO(&pilots[i]))
	}
	return out, nil
}

// Register creates the caller's pilot record. A record created earlier by an
// admin with the same email and no linked user is claimed instead.
func (s *PilotService) Register(ctx context.Context, claims auth.UserClaims, req dtos.RegisterPilotRequest) (*dtos.Pilot, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if claims == nil || claims.UserID() == "" {
		return nil, Unauthenticated()
	}
	userID := claims.UserID()

	if _, err := s.pilots.GetByAuthUserID(ctx, userID); err == nil {
		return nil, &ServiceError{Code: constants.ErrCodeConflict, Message: "pilot already registered"}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeError("pilot", err)
	}

	email := strings.TrimSpace(req.Email)
	existing, err := s.pilots.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.AuthUserID == nil:
		updated, err := s.pilots.Update(ctx, existing.ID, map[string]interface{}{
			"auth_user_id": userID,
			"name":         strings.TrimSpace(req.Name),
		})
		if err != nil {
			return nil, storeError("pilot", err)
		}
		publish(s.publisher, constants.TablePilots, constants.ChangeUpdate, toPilotDTO(updated), toPilotDTO(existing))
		logging.Info("Pilot claimed existing record", "pilot_id", updated.ID, "auth_user_id", userID)
		dto := toPilotDTO(updated)
		return &dto, nil
	case err == nil:
		return nil, &ServiceError{Code: constants.ErrCodeConflict, Message: "email already belongs to another pilot"}
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, storeError("pilot", err)
	}

	pilot := &gormModels.Pilot{
		AuthUserID: &userID,
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
	}
	if err := s.pilots.Create(ctx, pilot); err != nil {
		return nil, storeError("pilot", err)
	}

	publish(s.publisher, constants.TablePilots, constants.ChangeInsert, toPilotDTO(pilot), nil)
	logging.Info("Pilot registered", "pilot_id", pilot.ID, "auth_user_id", userID)

	dto := toPilotDTO(pilot)
	return &dto, nil
}

// UpdateProfile lets pilots edit their own name and email.
func (s *PilotService) UpdateProfile(ctx context.Context, actor Actor, req dtos.UpdateProfileRequest) (*dtos.Pilot, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	if actor.PilotID == "" {
		return nil, NotFound("pilot")
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		fields["email"] = strings.TrimSpace(*req.Email)
	}
	return s.update(ctx, actor.PilotID, fields)
}

// UpdatePilot is the admin edit, including the admin and hidden flags.
func (s *PilotService) UpdatePilot(ctx context.Context, req dtos.UpdatePilotRequest) (*dtos.Pilot, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		fields["email"] = strings.TrimSpace(*req.Email)
	}
	if req.IsAdmin != nil {
		fields["is_admin"] = *req.IsAdmin
	}
	if req.IsHidden != nil {
		fields["is_hidden"] = *req.IsHidden
	}
	return s.update(ctx, req.ID, fields)
}

// Hide removes a pilot from default listings. Pilots are never deleted.
func (s *PilotService) Hide(ctx context.Context, req dtos.IDRequest) (*dtos.Pilot, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}
	return s.update(ctx, req.ID, map[string]interface{}{"is_hidden": true})
}

// Link attaches an auth user to a pilot record created without one.
func (s *PilotService) Link(ctx context.Context, req dtos.LinkPilotRequest) (*dtos.Pilot, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	if other, err := s.pilots.GetByAuthUserID(ctx, req.AuthUserID); err == nil && other.ID != req.ID {
		return nil, &ServiceError{Code: constants.ErrCodeConflict, Message: "auth user is already linked to another pilot"}
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, storeError("pilot", err)
	}

	return s.update(ctx, req.ID, map[string]interface{}{"auth_user_id": req.AuthUserID})
}

func (s *PilotService) update(ctx context.Context, id string, fields map[string]interface{}) (*dtos.Pilot, error) {
	before, err := s.pilots.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("pilot", err)
	}

	after, err := s.pilots.Update(ctx, id, fields)
	if err != nil {
		return nil, storeError("pilot", err)
	}

	if before.AuthUserID != nil {
		s.admin.Invalidate(ctx, *before.AuthUserID)
	}
	if after.AuthUserID != nil {
		s.admin.Invalidate(ctx, *after.AuthUserID)
	}

	publish(s.publisher, constants.TablePilots, constants.ChangeUpdate, toPilotDTO(after), toPilotDTO(before))

	dto := toPilotDTO(after)
	return &dto, nil
}
