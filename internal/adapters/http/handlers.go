package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"orchestra/internal/adapters/http/middleware"
	"orchestra/internal/adapters/storage"
	"orchestra/internal/application/orchestrators"
	"orchestra/internal/domain/calendar"
	memberDomain "orchestra/internal/domain/member"
	scheduleDomain "orchestra/internal/domain/schedule"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// renderRemarks converts member remarks from markdown to HTML.
func renderRemarks(md string) string {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return ""
	}
	return buf.String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("internal_error", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write_failed", zap.Error(err))
	}
}

var badRequestErrors = []error{
	orchestrators.ErrInvalidInput,
	orchestrators.ErrImportFormat,
	calendar.ErrInvalidDate,
	memberDomain.ErrEmptyID,
	memberDomain.ErrEmptyName,
	memberDomain.ErrNameTooLong,
	memberDomain.ErrRemarksTooLong,
	memberDomain.ErrInvalidRole,
	memberDomain.ErrEmptyInstrument,
	scheduleDomain.ErrEmptyMemberID,
	scheduleDomain.ErrInvalidDate,
	scheduleDomain.ErrInvalidDay,
	scheduleDomain.ErrOrphanedMemo,
}

// errorStatus maps an application error onto its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, memberDomain.ErrNotPermitted), errors.Is(err, memberDomain.ErrSelfRoleChange),
		errors.Is(err, memberDomain.ErrSelfArchive):
		return http.StatusForbidden
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the status errorStatus picks. Server errors are
// logged and hidden; client errors echo the message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		internalError(w, r, err)
		return
	}
	http.Error(w, err.Error(), status)
}

// currentSession returns the authenticated session. Routes under /api are
// behind RequireAuth, so a missing session is a server wiring error.
func currentSession(w http.ResponseWriter, r *http.Request) (middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return sess, ok
}

func profileDeps() orchestrators.ProfileDeps {
	return orchestrators.ProfileDeps{MemberStore: stores.MemberStore, Now: timeNow}
}

func memberDeps() orchestrators.MemberDeps {
	return orchestrators.MemberDeps{MemberStore: stores.MemberStore, GenerateID: generateID, Now: timeNow}
}

func saveScheduleDeps() orchestrators.SaveScheduleDeps {
	return orchestrators.SaveScheduleDeps{ScheduleStore: stores.ScheduleStore, GenerateID: generateID, Now: now}
}

// recordSave counts one schedule upsert outcome.
func recordSave(err error) {
	if err != nil {
		perfCollector.RecordSave("error")
		return
	}
	perfCollector.RecordSave("ok")
}

// memberView is a member as listed to clients, with rendered remarks.
type memberView struct {
	memberDomain.Member
	RemarksHTML string `json:"remarksHtml"`
	NeedsSetup  bool   `json:"needsSetup"`
}

func viewOf(m memberDomain.Member) memberView {
	return memberView{Member: m, RemarksHTML: renderRemarks(m.Remarks), NeedsSetup: m.NeedsSetup()}
}

func viewsOf(members []memberDomain.Member) []memberView {
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		out = append(out, viewOf(m))
	}
	return out
}
