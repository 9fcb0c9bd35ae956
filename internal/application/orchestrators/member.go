package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"orchestra/internal/domain/member"
)

var validate = validator.New()

// ErrInvalidInput wraps field validation failures that have no domain error.
var ErrInvalidInput = errors.New("invalid input")

// validationError maps the first failed field onto the domain error callers
// already branch on.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch f := verrs[0]; f.Field() {
	case "ID":
		return member.ErrEmptyID
	case "Name":
		return member.ErrEmptyName
	case "Instrument":
		return member.ErrEmptyInstrument
	default:
		return fmt.Errorf("%w: %s failed %q validation", ErrInvalidInput, f.Field(), f.Tag())
	}
}

// MemberDeps holds dependencies for the roster orchestrators.
type MemberDeps struct {
	MemberStore MemberStoreForOrchestrator
	GenerateID  func() string
	Now         func() time.Time
}

// --- Create Member ---

// CreateMemberInput carries input for the create member orchestrator.
type CreateMemberInput struct {
	Name       string `validate:"required,max=100"`
	Instrument string `validate:"required"`
	Part       string
	Remarks    string `validate:"max=2000"`
	Email      string `validate:"omitempty,email"`
}

// ExecuteCreateMember adds a roster entry that is not (yet) tied to a sign-in.
// PRE: Name and Instrument are non-blank
// POST: member created with a generated ID and role User
func ExecuteCreateMember(ctx context.Context, input CreateMemberInput, deps MemberDeps) (member.Member, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Instrument = strings.TrimSpace(input.Instrument)
	input.Email = strings.TrimSpace(input.Email)
	if err := validate.Struct(input); err != nil {
		return member.Member{}, validationError(err)
	}

	now := deps.Now()
	m := member.Member{
		ID:         deps.GenerateID(),
		Email:      input.Email,
		Name:       input.Name,
		Role:       member.RoleUser,
		Instrument: input.Instrument,
		Part:       strings.TrimSpace(input.Part),
		Remarks:    strings.TrimSpace(input.Remarks),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	zap.L().Info("member_event", zap.String("event", "member_created"), zap.String("member_id", m.ID))
	return m, nil
}

// --- Update Member ---

// UpdateMemberInput carries input for the update member orchestrator.
type UpdateMemberInput struct {
	ID         string `validate:"required"`
	Name       string `validate:"required,max=100"`
	Instrument string `validate:"required"`
	Part       string
	Remarks    string `validate:"max=2000"`
}

// ExecuteUpdateMember edits a roster entry. Role, email and sign-in data are kept.
// PRE: ID refers to an existing member; Name and Instrument are non-blank
// POST: member fields replaced
func ExecuteUpdateMember(ctx context.Context, input UpdateMemberInput, deps MemberDeps) (member.Member, error) {
	input.ID = strings.TrimSpace(input.ID)
	input.Name = strings.TrimSpace(input.Name)
	input.Instrument = strings.TrimSpace(input.Instrument)
	if err := validate.Struct(input); err != nil {
		return member.Member{}, validationError(err)
	}

	m, err := deps.MemberStore.GetByID(ctx, input.ID)
	if err != nil {
		return member.Member{}, err
	}
	m.Name = input.Name
	m.Instrument = input.Instrument
	m.Part = strings.TrimSpace(input.Part)
	m.Remarks = strings.TrimSpace(input.Remarks)
	m.UpdatedAt = deps.Now()

	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	zap.L().Info("member_event", zap.String("event", "member_updated"), zap.String("member_id", m.ID))
	return m, nil
}

// --- Archive Member ---

// ArchiveMemberInput carries input for the archive member orchestrator.
type ArchiveMemberInput struct {
	ActorID string
	ID      string `validate:"required"`
}

// ExecuteArchiveMember takes a member off the active roster. The record and
// their schedule are kept; archiving an archived member is a no-op.
// PRE: ID refers to an existing member other than the actor
// POST: member.IsArchived()
func ExecuteArchiveMember(ctx context.Context, input ArchiveMemberInput, deps MemberDeps) (member.Member, error) {
	input.ID = strings.TrimSpace(input.ID)
	if err := validate.Struct(input); err != nil {
		return member.Member{}, validationError(err)
	}
	if input.ID == input.ActorID {
		return member.Member{}, member.ErrSelfArchive
	}

	m, err := deps.MemberStore.GetByID(ctx, input.ID)
	if err != nil {
		return member.Member{}, err
	}
	if m.IsArchived() {
		return m, nil
	}
	now := deps.Now()
	m.Archive(now)
	m.UpdatedAt = now
	if err := deps.MemberStore.Save(ctx, m); err != nil {
		return member.Member{}, err
	}

	zap.L().Info("member_event",
		zap.String("event", "member_archived"),
		zap.String("member_id", m.ID),
		zap.String("actor_id", input.ActorID),
	)
	return m, nil
}
