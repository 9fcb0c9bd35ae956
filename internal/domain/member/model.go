package member

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength    = 100
	MaxRemarksLength = 2000
)

// Role constants
const (
	RoleSuperAdmin = "SuperAdmin"
	RoleAdmin      = "Admin"
	RoleUser       = "User"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleSuperAdmin, RoleAdmin, RoleUser}

// Domain errors
var (
	ErrEmptyID         = errors.New("member ID cannot be empty")
	ErrEmptyName       = errors.New("member name cannot be empty")
	ErrNameTooLong     = errors.New("member name cannot exceed 100 characters")
	ErrRemarksTooLong  = errors.New("remarks cannot exceed 2000 characters")
	ErrInvalidRole     = errors.New("role must be one of: SuperAdmin, Admin, User")
	ErrSelfRoleChange  = errors.New("you cannot change your own role")
	ErrNotPermitted    = errors.New("only a SuperAdmin can change roles")
	ErrEmptyInstrument = errors.New("instrument is required")
	ErrSelfArchive     = errors.New("you cannot archive yourself")
)

// Member is an orchestra participant. Members created on first sign-in carry
// the identity provider's principal ID; roster entries added by an admin carry
// a generated ID and may have no email.
// INVARIANT: ID is unique and never changes after creation.
type Member struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Instrument  string     `json:"instrument"` // instrument abbreviation
	Part        string     `json:"part"`
	Remarks     string     `json:"remarks"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"` // set instead of deleting
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name is only required once the profile has been set up
func (m *Member) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrEmptyID
	}
	if len(m.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(m.Remarks) > MaxRemarksLength {
		return ErrRemarksTooLong
	}
	if !IsValidRole(m.Role) {
		return ErrInvalidRole
	}
	return nil
}

// NeedsSetup reports whether the member must still choose a name.
func (m *Member) NeedsSetup() bool {
	return strings.TrimSpace(m.Name) == ""
}

// DisplayLabel is the name shown in lists: chosen name, then provider
// display name, then the local part of the email.
func (m *Member) DisplayLabel() string {
	if n := strings.TrimSpace(m.Name); n != "" {
		return n
	}
	if n := strings.TrimSpace(m.DisplayName); n != "" {
		return n
	}
	if at := strings.Index(m.Email, "@"); at > 0 {
		return m.Email[:at]
	}
	return m.Email
}

// IsArchived reports whether the member has been removed from the active roster.
func (m *Member) IsArchived() bool {
	return m.ArchivedAt != nil
}

// Archive removes the member from the active roster. Archiving twice keeps
// the first timestamp.
func (m *Member) Archive(now time.Time) {
	if m.ArchivedAt == nil {
		m.ArchivedAt = &now
	}
}

// IsValidRole reports whether role is one of ValidRoles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// CanAccessMembers reports whether role may manage the member roster.
func CanAccessMembers(role string) bool {
	return role == RoleSuperAdmin || role == RoleAdmin
}

// CanManageRoles reports whether role may change other members' roles.
func CanManageRoles(role string) bool {
	return role == RoleSuperAdmin
}

// CanAccessSchedules is true for every signed-in role.
func CanAccessSchedules(role string) bool {
	return IsValidRole(role)
}

// CanAccessDashboard is true for every signed-in role.
func CanAccessDashboard(role string) bool {
	return IsValidRole(role)
}

// ChangeRole applies a role change requested by actor.
// PRE: actor and target are loaded members
// POST: target.Role == role on success; target unchanged on error
func (m *Member) ChangeRole(actor Member, role string) error {
	if !CanManageRoles(actor.Role) {
		return ErrNotPermitted
	}
	if actor.ID == m.ID {
		return ErrSelfRoleChange
	}
	if !IsValidRole(role) {
		return ErrInvalidRole
	}
	m.Role = role
	return nil
}
