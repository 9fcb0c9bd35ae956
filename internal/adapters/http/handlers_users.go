package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"orchestra/internal/adapters/http/middleware"
	memberStore "orchestra/internal/adapters/storage/member"
	"orchestra/internal/application/orchestrators"
	memberDomain "orchestra/internal/domain/member"
)

// handleHealthz reports liveness and, when configured, database reachability.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if stores != nil && stores.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := stores.Ping(ctx); err != nil {
			internalError(w, r, err)
			return
		}
	}
	w.Write([]byte("ok"))
}

// permissions is what the client may show the signed-in member.
type permissions struct {
	Members   bool `json:"members"`
	Roles     bool `json:"roles"`
	Schedules bool `json:"schedules"`
	Dashboard bool `json:"dashboard"`
}

type meResponse struct {
	User        memberView  `json:"user"`
	Permissions permissions `json:"permissions"`
}

// handleMe returns the signed-in member and what they may access.
func handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	role := sess.Role()
	writeJSON(w, http.StatusOK, meResponse{
		User: viewOf(sess.Member),
		Permissions: permissions{
			Members:   memberDomain.CanAccessMembers(role),
			Roles:     memberDomain.CanManageRoles(role),
			Schedules: memberDomain.CanAccessSchedules(role),
			Dashboard: memberDomain.CanAccessDashboard(role),
		},
	})
}

type setupProfileRequest struct {
	Name       string `json:"name"`
	Instrument string `json:"instrument"`
	Part       string `json:"part"`
}

// handleSetupProfile records the signed-in member's chosen name.
func handleSetupProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req setupProfileRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	m, err := orchestrators.ExecuteSetupProfile(r.Context(), orchestrators.SetupProfileInput{
		UID:        sess.Member.ID,
		Name:       req.Name,
		Instrument: req.Instrument,
		Part:       req.Part,
	}, profileDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": viewOf(m)})
}

// handleListUsers lists every member with their profile data.
func handleListUsers(w http.ResponseWriter, r *http.Request) {
	members, err := stores.MemberStore.List(r.Context(), memberStore.ListFilter{})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": viewsOf(members)})
}

type updateUserRequest struct {
	UID         string  `json:"uid"`
	DisplayName *string `json:"displayName"`
	Name        *string `json:"name"`
	Instrument  *string `json:"instrument"`
	Part        *string `json:"part"`
	Remarks     *string `json:"remarks"`
}

// handleUpdateUser applies a partial profile update. Members may edit
// themselves; admins may edit anyone.
func handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.UID = strings.TrimSpace(req.UID)
	if req.UID == "" {
		http.Error(w, "uid is required", http.StatusBadRequest)
		return
	}
	if req.UID != sess.Member.ID && !middleware.IsAdmin(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	m, err := orchestrators.ExecuteUpdateProfile(r.Context(), orchestrators.UpdateProfileInput{
		UID:         req.UID,
		DisplayName: req.DisplayName,
		Name:        req.Name,
		Instrument:  req.Instrument,
		Part:        req.Part,
		Remarks:     req.Remarks,
	}, profileDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": viewOf(m)})
}

type changeRoleRequest struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
}

// handleChangeRole sets another member's role. SuperAdmin only.
func handleChangeRole(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req changeRoleRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UID == "" || req.Role == "" {
		http.Error(w, "uid and role are required", http.StatusBadRequest)
		return
	}

	m, err := orchestrators.ExecuteChangeRole(r.Context(), orchestrators.ChangeRoleInput{
		ActorID:  sess.Member.ID,
		TargetID: req.UID,
		Role:     req.Role,
	}, profileDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User role updated successfully", "user": viewOf(m)})
}
