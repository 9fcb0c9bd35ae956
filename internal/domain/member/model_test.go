package member_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"orchestra/internal/domain/member"
)

// TestMemberValidation tests validation of Member.
func TestMemberValidation(t *testing.T) {
	tests := []struct {
		name    string
		member  member.Member
		wantErr error
	}{
		{
			name:   "valid member",
			member: member.Member{ID: "uid-1", Name: "Kim", Role: member.RoleUser, Instrument: "Vn1"},
		},
		{
			name:   "valid member before setup",
			member: member.Member{ID: "uid-1", Email: "kim@example.com", Role: member.RoleUser},
		},
		{
			name:    "empty id",
			member:  member.Member{ID: "", Name: "Kim", Role: member.RoleUser},
			wantErr: member.ErrEmptyID,
		},
		{
			name:    "bad role",
			member:  member.Member{ID: "uid-1", Name: "Kim", Role: "admin"},
			wantErr: member.ErrInvalidRole,
		},
		{
			name:    "long name",
			member:  member.Member{ID: "uid-1", Name: strings.Repeat("a", 101), Role: member.RoleUser},
			wantErr: member.ErrNameTooLong,
		},
		{
			name:    "long remarks",
			member:  member.Member{ID: "uid-1", Remarks: strings.Repeat("a", 2001), Role: member.RoleUser},
			wantErr: member.ErrRemarksTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.member.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// TestDisplayLabel tests the name fallback chain.
func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "Kim", (&member.Member{Name: " Kim ", DisplayName: "K", Email: "k@x"}).DisplayLabel())
	assert.Equal(t, "Kim Minji", (&member.Member{DisplayName: "Kim Minji", Email: "k@x"}).DisplayLabel())
	assert.Equal(t, "minji", (&member.Member{Email: "minji@example.com"}).DisplayLabel())
	assert.Equal(t, "", (&member.Member{}).DisplayLabel())
}

// TestPermissions tests the role helpers.
func TestPermissions(t *testing.T) {
	assert.True(t, member.CanAccessMembers(member.RoleSuperAdmin))
	assert.True(t, member.CanAccessMembers(member.RoleAdmin))
	assert.False(t, member.CanAccessMembers(member.RoleUser))
	assert.True(t, member.CanManageRoles(member.RoleSuperAdmin))
	assert.False(t, member.CanManageRoles(member.RoleAdmin))
	assert.True(t, member.CanAccessSchedules(member.RoleUser))
	assert.True(t, member.CanAccessDashboard(member.RoleUser))
	assert.False(t, member.CanAccessDashboard(""))
}

// TestChangeRole tests role transitions.
func TestChangeRole(t *testing.T) {
	super := member.Member{ID: "root", Role: member.RoleSuperAdmin}
	admin := member.Member{ID: "adm", Role: member.RoleAdmin}

	target := member.Member{ID: "kim", Role: member.RoleUser}
	assert.NoError(t, target.ChangeRole(super, member.RoleAdmin))
	assert.Equal(t, member.RoleAdmin, target.Role)

	target = member.Member{ID: "kim", Role: member.RoleUser}
	assert.ErrorIs(t, target.ChangeRole(admin, member.RoleAdmin), member.ErrNotPermitted)
	assert.Equal(t, member.RoleUser, target.Role)

	self := super
	assert.ErrorIs(t, self.ChangeRole(super, member.RoleUser), member.ErrSelfRoleChange)
	assert.Equal(t, member.RoleSuperAdmin, self.Role)

	assert.ErrorIs(t, target.ChangeRole(super, "Owner"), member.ErrInvalidRole)
}

// TestNeedsSetup tests the setup-profile condition.
func TestNeedsSetup(t *testing.T) {
	assert.True(t, (&member.Member{DisplayName: "K"}).NeedsSetup())
	assert.False(t, (&member.Member{Name: "Kim"}).NeedsSetup())
}

func TestArchive(t *testing.T) {
	m := member.Member{ID: "m1"}
	assert.False(t, m.IsArchived())

	first := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	m.Archive(first)
	m.Archive(first.Add(time.Hour))
	assert.True(t, m.IsArchived())
	assert.Equal(t, first, *m.ArchivedAt)
}
