package web

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"orchestra/internal/adapters/export"
	"orchestra/internal/adapters/http/middleware"
	"orchestra/internal/application/orchestrators"
	"orchestra/internal/application/projections"
	"orchestra/internal/domain/availability"
	"orchestra/internal/domain/calendar"
	"orchestra/internal/domain/interaction"
	scheduleDomain "orchestra/internal/domain/schedule"
)

// icsDefaultSpan is the export window when the request names no end date.
const icsDefaultSpan = 90 * 24 * time.Hour

// handleListSchedules returns every stored schedule.
func handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := stores.ScheduleStore.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	if schedules == nil {
		schedules = []scheduleDomain.Schedule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"schedules":   schedules,
		"currentWeek": calendar.FormatISODate(now()),
	})
}

type saveSchedulesRequest struct {
	Schedules *[]scheduleDomain.Schedule `json:"schedules"`
}

type saveResult struct {
	MemberID string `json:"memberId"`
	Error    string `json:"error,omitempty"`
}

// handleSaveSchedules upserts a batch of schedules. Members may only save
// their own record; admins may save anyone's. Records are saved
// independently, so a failure leaves the others persisted.
func handleSaveSchedules(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req saveSchedulesRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Schedules == nil {
		http.Error(w, "Schedules array is required", http.StatusBadRequest)
		return
	}
	records := *req.Schedules
	if !middleware.IsAdmin(r.Context()) {
		for _, rec := range records {
			if rec.MemberID != sess.Member.ID {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
		}
	}

	outcomes, err := orchestrators.ExecuteSaveSchedules(r.Context(), orchestrators.SaveSchedulesInput{Records: records}, saveScheduleDeps())
	results := make([]saveResult, 0, len(outcomes))
	for _, o := range outcomes {
		recordSave(o.Err)
		res := saveResult{MemberID: o.MemberID}
		if o.Err != nil {
			res.Error = o.Err.Error()
		}
		results = append(results, res)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

// handleMySchedule returns the signed-in member's schedule, or an empty one.
func handleMySchedule(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	s, err := projections.QueryGetMySchedule(r.Context(), projections.GetMyScheduleQuery{
		MemberID:   sess.Member.ID,
		MemberName: sess.Member.DisplayLabel(),
		Now:        now(),
	}, projections.GetMyScheduleDeps{ScheduleStore: stores.ScheduleStore})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedule": s})
}

// openSession loads the signed-in member's working copy.
func openSession(r *http.Request, sess middleware.Session) (*orchestrators.SyncSession, error) {
	store := availability.New(sess.Member.ID, sess.Member.DisplayLabel())
	working := orchestrators.NewSyncSession(store, saveScheduleDeps())
	if err := working.Refresh(r.Context()); err != nil {
		return nil, err
	}
	return working, nil
}

// Edit operations accepted by /api/schedules/me/edits.
const (
	opToggle    = "toggle"
	opMarkRange = "markRange"
	opSetMemo   = "setMemo"
	opCancel    = "cancel"
)

// noticeGates holds one duplicate-notice gate per member so a toggle replayed
// by a quick second request stays silent.
var noticeGates = struct {
	sync.Mutex
	byMember map[string]*interaction.NotificationGate
}{byMember: make(map[string]*interaction.NotificationGate)}

func resetNoticeGates() {
	noticeGates.Lock()
	noticeGates.byMember = make(map[string]*interaction.NotificationGate)
	noticeGates.Unlock()
}

func noticeGate(memberID string) *interaction.NotificationGate {
	noticeGates.Lock()
	defer noticeGates.Unlock()
	g, ok := noticeGates.byMember[memberID]
	if !ok {
		g = interaction.NewNotificationGate(gestureConfig.DuplicateWindow)
		noticeGates.byMember[memberID] = g
	}
	return g
}

type editOp struct {
	Op   string `json:"op"`
	Date string `json:"date"`
	Text string `json:"text"`
}

type editsRequest struct {
	Ops []editOp `json:"ops"`
}

type parsedOp struct {
	op   string
	date time.Time
	text string
}

func parseOps(ops []editOp) ([]parsedOp, error) {
	out := make([]parsedOp, 0, len(ops))
	for i, o := range ops {
		switch o.Op {
		case opToggle, opMarkRange, opSetMemo, opCancel:
		default:
			return nil, fmt.Errorf("op %d: unknown operation %q", i, o.Op)
		}
		d, err := calendar.ParseISODate(o.Date)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		out = append(out, parsedOp{op: o.Op, date: d, text: o.Text})
	}
	return out, nil
}

// handleScheduleEdits applies selection edits to the signed-in member's
// schedule and saves the result. notices lists the toggled dates whose
// confirmation should be shown; a repeat toggle inside the duplicate window
// still applies but is left out.
func handleScheduleEdits(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req editsRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	ops, err := parseOps(req.Ops)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	working, err := openSession(r, sess)
	if err != nil {
		internalError(w, r, err)
		return
	}
	at := now()
	notices := []string{}
	working.Edit(func(s *availability.Store) {
		ctrl := interaction.NewController(s, calendar.GridFor(at), gestureConfig).UseGate(noticeGate(sess.Member.ID))
		for _, o := range ops {
			switch o.op {
			case opToggle:
				if _, notify := ctrl.Toggle(o.date, at); notify {
					notices = append(notices, calendar.FormatISODate(o.date))
				}
			case opMarkRange:
				s.MarkRange(o.date)
			case opSetMemo:
				ctrl.SaveMemo(o.date, o.text)
			case opCancel:
				ctrl.CancelDate(o.date)
			}
		}
	})

	result, err := working.Save(r.Context())
	recordSave(err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedule": result.Record, "notices": notices})
}

var eventKinds = map[string]interaction.EventKind{
	"down":  interaction.PointerDown,
	"move":  interaction.PointerMove,
	"enter": interaction.PointerEnter,
	"up":    interaction.PointerUp,
	"leave": interaction.PointerLeaveGrid,
}

type gestureEvent struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Date string  `json:"date"`
}

type gestureRequest struct {
	Year   int            `json:"year"`
	Month  int            `json:"month"` // 1-12, the month visible when the gesture began
	Events []gestureEvent `json:"events"`
}

type gestureResponse struct {
	Marked    []string                `json:"marked"`
	Opened    string                  `json:"opened,omitempty"`
	Navigated bool                    `json:"navigated"`
	Year      int                     `json:"year"`
	Month     int                     `json:"month"`
	Saved     bool                    `json:"saved"`
	Schedule  scheduleDomain.Schedule `json:"schedule"`
}

// handleScheduleGesture replays a pointer sequence over the month grid.
// Drags mark dates and are saved; a click opens the editor for its date and
// leaves the selection alone.
func handleScheduleGesture(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req gestureRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Month < 1 || req.Month > 12 {
		http.Error(w, "month must be a number between 1 and 12", http.StatusBadRequest)
		return
	}
	events := make([]interaction.Event, 0, len(req.Events))
	for i, e := range req.Events {
		kind, ok := eventKinds[strings.ToLower(e.Kind)]
		if !ok {
			http.Error(w, fmt.Sprintf("event %d: unknown kind %q", i, e.Kind), http.StatusBadRequest)
			return
		}
		events = append(events, interaction.Event{Kind: kind, Pos: interaction.Point{X: e.X, Y: e.Y}, Date: e.Date})
	}

	working, err := openSession(r, sess)
	if err != nil {
		internalError(w, r, err)
		return
	}

	resp := gestureResponse{Marked: []string{}}
	var handleErr error
	working.Edit(func(s *availability.Store) {
		ctrl := interaction.NewController(s, calendar.MonthGrid(req.Year, req.Month-1), gestureConfig)
		for _, ev := range events {
			out, err := ctrl.Handle(ev)
			if err != nil {
				handleErr = err
				return
			}
			resp.Marked = append(resp.Marked, out.Marked...)
			if out.Opened != "" {
				resp.Opened = out.Opened
			}
			resp.Navigated = resp.Navigated || out.Navigated
		}
		g := ctrl.Grid()
		resp.Year, resp.Month = g.Year, int(g.Month)
	})
	if handleErr != nil {
		http.Error(w, handleErr.Error(), http.StatusBadRequest)
		return
	}

	if working.Dirty() {
		result, err := working.Save(r.Context())
		recordSave(err)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.Saved = true
		resp.Schedule = result.Record
	} else {
		resp.Schedule = working.Record()
	}
	zap.L().Debug("schedule_event",
		zap.String("event", "gesture_applied"),
		zap.String("member_id", sess.Member.ID),
		zap.Int("marked", len(resp.Marked)),
		zap.String("opened", resp.Opened),
	)
	writeJSON(w, http.StatusOK, resp)
}

// handleScheduleICS exports a member's availability as an iCalendar feed.
// The window defaults to the current week's Monday plus 90 days and can be
// narrowed with from/to query parameters (YYYY-MM-DD).
func handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	s, err := stores.ScheduleStore.GetByMemberID(r.Context(), chi.URLParam(r, "memberId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	from := calendar.WeekStart(now())
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = calendar.ParseISODate(v); err != nil {
			writeError(w, r, err)
			return
		}
	}
	to := from.Add(icsDefaultSpan)
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = calendar.ParseISODate(v); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if to.Before(from) {
		http.Error(w, "to must not be before from", http.StatusBadRequest)
		return
	}

	body, err := export.ScheduleCalendar(s, from, to, timeNow())
	if err != nil {
		internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ics"`, s.MemberID))
	w.Write([]byte(body))
}
