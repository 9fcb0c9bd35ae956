package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"orchestra/internal/adapters/storage"
	"orchestra/internal/domain/member"
)

// MemberStoreForOrchestrator defines the store interface needed by profile and
// member orchestrators.
type MemberStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	Save(ctx context.Context, m member.Member) error
}

// ProfileDeps holds dependencies for the profile orchestrators.
type ProfileDeps struct {
	MemberStore MemberStoreForOrchestrator
	Now         func() time.Time
}

// --- Ensure Profile ---

// EnsureProfileInput carries the identity of the signed-in principal.
type EnsureProfileInput struct {
	UID         string
	Email       string
	DisplayName string
}

// ExecuteEnsureProfile creates the member on first sign-in with role User.
// Later sign-ins refresh email and display name only.
// PRE: UID is non-empty
// POST: a member with ID == UID exists
func ExecuteEnsureProfile(ctx context.Context, input EnsureProfileInput, deps ProfileDeps) (member.Member, error) {
	if strings.TrimSpace(input.UID) == "" {
		return member.Member{}, member.ErrEmptyID
	}

	m, err := deps.MemberStore.GetByID(ctx, input.UID)
	if errors.Is(err, storage.ErrNotFound) {
		now := deps.Now()
		m = member.Member{
			ID:          input.UID,
			Email:       input.Email,
			DisplayName: input.DisplayName,
			Role:        member.RoleUser,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := deps.MemberStore.Save(ctx, m); err != nil {
			return member.Member{}, fmt.Errorf("create profile: %w", err)
		}
		zap.L().Info("profile_event", zap.String("event", "profile_created"), zap.String("member_id", m.ID))
		return m, nil
	}
	if err != nil {
		return member.Member{}, err
	}

	if m.Email == input.Email && m.DisplayName == input.DisplayName {
		return m, nil
	}
	m.Email = input.Email
	m.DisplayName = input.DisplayName
	m.UpdatedAt = deps.Now()
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, fmt.Errorf("refresh profile: %w", err)
	}
	return m, nil
}

// --- Setup Profile ---

// SetupProfileInput carries the fields chosen on first setup.
type SetupProfileInput struct {
	UID        string
	Name       string
	Instrument string
	Part       string
}

// ExecuteSetupProfile records the member's chosen name and, optionally,
// instrument and part.
// PRE: member exists; Name is non-blank
// POST: NeedsSetup() == false
func ExecuteSetupProfile(ctx context.Context, input SetupProfileInput, deps ProfileDeps) (member.Member, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return member.Member{}, member.ErrEmptyName
	}

	m, err := deps.MemberStore.GetByID(ctx, input.UID)
	if err != nil {
		return member.Member{}, err
	}
	m.Name = name
	if v := strings.TrimSpace(input.Instrument); v != "" {
		m.Instrument = v
	}
	if v := strings.TrimSpace(input.Part); v != "" {
		m.Part = v
	}
	m.UpdatedAt = deps.Now()

	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	zap.L().Info("profile_event", zap.String("event", "profile_setup"), zap.String("member_id", m.ID))
	return m, nil
}

// --- Update Profile ---

// UpdateProfileInput carries a partial profile update. Nil fields are left
// untouched; empty strings are stored.
type UpdateProfileInput struct {
	UID         string
	DisplayName *string
	Name        *string
	Instrument  *string
	Part        *string
	Remarks     *string
}

// ExecuteUpdateProfile applies a partial update.
// PRE: UID is non-empty
// POST: returned member has every non-nil field applied; error wraps storage.ErrNotFound for unknown UID
func ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput, deps ProfileDeps) (member.Member, error) {
	if strings.TrimSpace(input.UID) == "" {
		return member.Member{}, member.ErrEmptyID
	}

	m, err := deps.MemberStore.GetByID(ctx, input.UID)
	if err != nil {
		return member.Member{}, err
	}

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&m.DisplayName, input.DisplayName)
	apply(&m.Name, input.Name)
	apply(&m.Instrument, input.Instrument)
	apply(&m.Part, input.Part)
	apply(&m.Remarks, input.Remarks)
	m.UpdatedAt = deps.Now()

	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	zap.L().Info("profile_event", zap.String("event", "profile_updated"), zap.String("member_id", m.ID))
	return m, nil
}

// --- Change Role ---

// ChangeRoleInput carries input for the change role orchestrator.
type ChangeRoleInput struct {
	ActorID  string
	TargetID string
	Role     string
}

// ExecuteChangeRole sets another member's role.
// PRE: actor is a SuperAdmin; TargetID != ActorID; Role is valid
// POST: target.Role == Role
func ExecuteChangeRole(ctx context.Context, input ChangeRoleInput, deps ProfileDeps) (member.Member, error) {
	if strings.TrimSpace(input.TargetID) == "" {
		return member.Member{}, member.ErrEmptyID
	}

	actor, err := deps.MemberStore.GetByID(ctx, input.ActorID)
	if err != nil {
		return member.Member{}, fmt.Errorf("load actor: %w", err)
	}
	target, err := deps.MemberStore.GetByID(ctx, input.TargetID)
	if err != nil {
		return member.Member{}, err
	}

	previous := target.Role
	if err := target.ChangeRole(actor, input.Role); err != nil {
		return member.Member{}, err
	}
	target.UpdatedAt = deps.Now()
	if err := deps.MemberStore.Save(ctx, target); err != nil {
		return member.Member{}, err
	}

	zap.L().Info("profile_event",
		zap.String("event", "role_changed"),
		zap.String("member_id", target.ID),
		zap.String("actor_id", actor.ID),
		zap.String("from", previous),
		zap.String("to", target.Role),
	)
	return target, nil
}
