package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"orchestra/internal/adapters/export"
	memberStore "orchestra/internal/adapters/storage/member"
	"orchestra/internal/application/listutil"
	"orchestra/internal/application/orchestrators"
	"orchestra/internal/application/projections"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxImportBytes bounds an uploaded roster CSV.
const maxImportBytes = 1 << 20

var memberFilterKeys = []string{"instrument", "role"}

// handleDashboard returns roster totals and the current week's availability.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{Now: now()}, projections.GetDashboardDeps{
		MemberStore:     stores.MemberStore,
		ScheduleStore:   stores.ScheduleStore,
		InstrumentStore: stores.InstrumentStore,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCalendar returns the month grid with attendance counts. The month
// path segment is 1-12.
func handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 || year > 9999 {
		http.Error(w, "year must be a number between 1 and 9999", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "month must be a number between 1 and 12", http.StatusBadRequest)
		return
	}

	result, err := projections.QueryGetMonthAttendance(r.Context(), projections.GetMonthAttendanceQuery{
		Year:   year,
		Month0: month - 1,
		Now:    now(),
	}, projections.GetMonthAttendanceDeps{
		MemberStore:   stores.MemberStore,
		ScheduleStore: stores.ScheduleStore,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleAttendance lists the members available on one date.
func handleAttendance(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetDateAttendance(r.Context(), projections.GetDateAttendanceQuery{
		Date: chi.URLParam(r, "date"),
	}, projections.GetDateAttendanceDeps{
		MemberStore:   stores.MemberStore,
		ScheduleStore: stores.ScheduleStore,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleInstruments lists the configured instruments.
func handleInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := stores.InstrumentStore.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instruments": instruments})
}

// handleListMembers lists the roster, optionally filtered by instrument, role
// or a q search. Passing page or perPage returns one page plus its metadata.
// archived=true also lists archived members.
func handleListMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fp := listutil.ParseFilterParams(q, memberFilterKeys)
	filter := memberStore.ListFilter{
		Instrument: fp.Filters["instrument"],
		Role:       fp.Filters["role"],
		Search:     strings.TrimSpace(fp.Search),
	}
	filter.IncludeArchived, _ = strconv.ParseBool(q.Get("archived"))
	resp := map[string]any{}

	if pp, paged := listutil.ParsePageParams(q); paged {
		total, err := stores.MemberStore.Count(r.Context(), filter)
		if err != nil {
			internalError(w, r, err)
			return
		}
		info := listutil.NewPageInfo(pp.Page, pp.PerPage, total)
		filter.Limit, filter.Offset = info.PerPage, info.Offset()
		resp["page"] = info
	}

	members, err := stores.MemberStore.List(r.Context(), filter)
	if err != nil {
		internalError(w, r, err)
		return
	}
	resp["members"] = viewsOf(members)
	writeJSON(w, http.StatusOK, resp)
}

type memberRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Instrument string `json:"instrument"`
	Part       string `json:"part"`
	Remarks    string `json:"remarks"`
	Email      string `json:"email"`
}

// handleCreateMember adds a roster entry.
func handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	m, err := orchestrators.ExecuteCreateMember(r.Context(), orchestrators.CreateMemberInput{
		Name:       req.Name,
		Instrument: req.Instrument,
		Part:       req.Part,
		Remarks:    req.Remarks,
		Email:      req.Email,
	}, memberDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": m.ID})
}

// handleUpdateMember edits a roster entry.
func handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "Member ID is required", http.StatusBadRequest)
		return
	}
	m, err := orchestrators.ExecuteUpdateMember(r.Context(), orchestrators.UpdateMemberInput{
		ID:         req.ID,
		Name:       req.Name,
		Instrument: req.Instrument,
		Part:       req.Part,
		Remarks:    req.Remarks,
	}, memberDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "member": viewOf(m)})
}

// handleArchiveMember takes a member off the roster. The record and schedule
// stay in storage with archivedAt set.
func handleArchiveMember(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "Member ID is required", http.StatusBadRequest)
		return
	}
	if _, err := orchestrators.ExecuteArchiveMember(r.Context(), orchestrators.ArchiveMemberInput{
		ActorID: sess.Member.ID,
		ID:      id,
	}, memberDeps()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleExportMembers downloads the roster as a spreadsheet.
func handleExportMembers(w http.ResponseWriter, r *http.Request) {
	members, err := stores.MemberStore.List(r.Context(), memberStore.ListFilter{})
	if err != nil {
		internalError(w, r, err)
		return
	}
	instruments, err := stores.InstrumentStore.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	data, err := export.Roster(members, instruments)
	if err != nil {
		internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="members.xlsx"`)
	w.Write(data)
}

func boolQuery(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// handleImportMembers bulk-loads roster entries from a CSV request body.
// ?dryRun=true reports what would change; ?update=true overwrites matches.
func handleImportMembers(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	dryRun, err := boolQuery(r, "dryRun")
	if err != nil {
		http.Error(w, "dryRun must be true or false", http.StatusBadRequest)
		return
	}
	update, err := boolQuery(r, "update")
	if err != nil {
		http.Error(w, "update must be true or false", http.StatusBadRequest)
		return
	}

	result, err := orchestrators.ExecuteImportMembers(r.Context(), orchestrators.ImportMembersInput{
		Reader:     http.MaxBytesReader(w, r.Body, maxImportBytes),
		ActorID:    sess.Member.ID,
		DryRun:     dryRun,
		UpdateMode: update,
	}, orchestrators.ImportMembersDeps{
		MemberStore: stores.MemberStore,
		GenerateID:  generateID,
		Now:         timeNow,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
