package orchestrators

import (
	"context"
	"errors"
	"testing"

	"orchestra/internal/adapters/storage"
	"orchestra/internal/domain/member"
)

func memberDeps(store *mockMemberStore) MemberDeps {
	return MemberDeps{MemberStore: store, GenerateID: fixedID, Now: fixedNow}
}

// TestExecuteCreateMember_Valid tests roster entry creation.
func TestExecuteCreateMember_Valid(t *testing.T) {
	store := newMockMemberStore()
	m, err := ExecuteCreateMember(context.Background(), CreateMemberInput{Name: " Park ", Instrument: "Fl"}, memberDeps(store))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != "test-id-001" || m.Name != "Park" || m.Role != member.RoleUser {
		t.Errorf("unexpected member: %+v", m)
	}
	if _, ok := store.members["test-id-001"]; !ok {
		t.Error("expected member to be persisted")
	}
}

// TestExecuteCreateMember_Required tests the required-field validation.
func TestExecuteCreateMember_Required(t *testing.T) {
	tests := []struct {
		name  string
		input CreateMemberInput
		want  error
	}{
		{"missing name", CreateMemberInput{Name: " ", Instrument: "Fl"}, member.ErrEmptyName},
		{"missing instrument", CreateMemberInput{Name: "Park"}, member.ErrEmptyInstrument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockMemberStore()
			if _, err := ExecuteCreateMember(context.Background(), tt.input, memberDeps(store)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if len(store.members) != 0 {
				t.Error("expected nothing persisted")
			}
		})
	}
}

// TestExecuteUpdateMember tests that role and email survive a roster edit.
func TestExecuteUpdateMember(t *testing.T) {
	store := newMockMemberStore(member.Member{ID: "m1", Email: "lee@example.com", Name: "Lee", Role: member.RoleAdmin, Instrument: "Va"})

	m, err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{ID: "m1", Name: "Lee Jiwoo", Instrument: "Vn2", Part: "2nd"}, memberDeps(store))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "Lee Jiwoo" || m.Instrument != "Vn2" || m.Part != "2nd" {
		t.Errorf("unexpected member: %+v", m)
	}
	if m.Role != member.RoleAdmin || m.Email != "lee@example.com" {
		t.Errorf("expected role and email kept, got %+v", m)
	}
}

// TestExecuteUpdateMember_Errors tests missing id and unknown id.
func TestExecuteUpdateMember_Errors(t *testing.T) {
	store := newMockMemberStore()
	if _, err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{Name: "x", Instrument: "Fl"}, memberDeps(store)); !errors.Is(err, member.ErrEmptyID) {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}
	if _, err := ExecuteUpdateMember(context.Background(), UpdateMemberInput{ID: "ghost", Name: "x", Instrument: "Fl"}, memberDeps(store)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestExecuteCreateMember_BadEmail tests that tag failures without a domain
// error still surface as ErrInvalidInput.
func TestExecuteCreateMember_BadEmail(t *testing.T) {
	store := newMockMemberStore()
	_, err := ExecuteCreateMember(context.Background(), CreateMemberInput{Name: "Park", Instrument: "Fl", Email: "not-an-email"}, memberDeps(store))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if len(store.members) != 0 {
		t.Error("expected nothing persisted")
	}
}

// TestExecuteArchiveMember tests archiving keeps the record and is repeatable.
func TestExecuteArchiveMember(t *testing.T) {
	store := newMockMemberStore(member.Member{ID: "m1", Name: "Lee", Role: member.RoleUser, Instrument: "Va"})

	m, err := ExecuteArchiveMember(context.Background(), ArchiveMemberInput{ActorID: "admin", ID: "m1"}, memberDeps(store))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := store.members["m1"]
	if !m.IsArchived() || !stored.IsArchived() {
		t.Errorf("expected member archived, got %+v", store.members["m1"])
	}
	first := *m.ArchivedAt

	again, err := ExecuteArchiveMember(context.Background(), ArchiveMemberInput{ActorID: "admin", ID: "m1"}, memberDeps(store))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.ArchivedAt.Equal(first) {
		t.Errorf("expected first archive time kept, got %v", again.ArchivedAt)
	}
}

// TestExecuteArchiveMember_Errors tests self-archive, missing id and unknown id.
func TestExecuteArchiveMember_Errors(t *testing.T) {
	store := newMockMemberStore(member.Member{ID: "admin", Name: "Admin", Role: member.RoleAdmin})
	deps := memberDeps(store)

	if _, err := ExecuteArchiveMember(context.Background(), ArchiveMemberInput{ActorID: "admin", ID: "admin"}, deps); !errors.Is(err, member.ErrSelfArchive) {
		t.Errorf("expected ErrSelfArchive, got %v", err)
	}
	if _, err := ExecuteArchiveMember(context.Background(), ArchiveMemberInput{ActorID: "admin", ID: " "}, deps); !errors.Is(err, member.ErrEmptyID) {
		t.Errorf("expected ErrEmptyID, got %v", err)
	}
	if _, err := ExecuteArchiveMember(context.Background(), ArchiveMemberInput{ActorID: "admin", ID: "ghost"}, deps); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	actor := store.members["admin"]
	if actor.IsArchived() {
		t.Error("expected actor untouched")
	}
}
