package orchestrators

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"orchestra/internal/adapters/storage"
	domain "orchestra/internal/domain/member"
)

// MemberStoreForImport defines the store interface needed by the roster import.
type MemberStoreForImport interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	GetByEmail(ctx context.Context, email string) (domain.Member, error)
	Save(ctx context.Context, m domain.Member) error
}

// Roster CSV columns. Headers are matched case-insensitively.
const (
	colID         = "ID"
	colName       = "NAME"
	colEmail      = "EMAIL"
	colInstrument = "INSTRUMENT"
	colPart       = "PART"
	colRemarks    = "REMARKS"
)

var knownImportColumns = map[string]bool{
	colID: true, colName: true, colEmail: true, colInstrument: true, colPart: true, colRemarks: true,
}

// ImportMembersInput carries the CSV stream and import options.
// PRE: Reader yields a header row naming at least NAME and INSTRUMENT
// INVARIANT: Existing members are never deleted; IDs, roles and sign-in data are preserved on update.
type ImportMembersInput struct {
	Reader     io.Reader
	ActorID    string
	DryRun     bool
	UpdateMode bool
}

// ImportMembersResult holds aggregate counts and per-row errors from an import run.
type ImportMembersResult struct {
	Total   int                     `json:"total"`
	Created int                     `json:"created"`
	Updated int                     `json:"updated"`
	Skipped int                     `json:"skipped"`
	Errors  []ImportMembersRowError `json:"errors"`
	DryRun  bool                    `json:"dryRun"`
	Unknown []string                `json:"unknownColumns"`
}

// ImportMembersRowError describes a problem with one CSV row. Row counts the
// header as row 1.
type ImportMembersRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportMembersDeps holds external dependencies for the import orchestrator.
type ImportMembersDeps struct {
	MemberStore MemberStoreForImport
	GenerateID  func() string
	Now         func() time.Time
}

// ErrImportFormat is returned when the CSV structure itself is unusable.
var ErrImportFormat = errors.New("invalid roster csv")

// ExecuteImportMembers creates or updates roster entries from a CSV stream.
// A row matches an existing member by ID when the column is present, else by
// email. Matched rows are skipped unless UpdateMode is set.
// PRE: input.Reader is non-nil
// POST: nothing is written when DryRun is set; row failures never abort the run
func ExecuteImportMembers(ctx context.Context, input ImportMembersInput, deps ImportMembersDeps) (ImportMembersResult, error) {
	cr := csv.NewReader(input.Reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return ImportMembersResult{}, fmt.Errorf("%w: read header: %v", ErrImportFormat, err)
	}
	colIdx := make(map[string]int, len(header))
	var unknown []string
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		colIdx[key] = i
		if !knownImportColumns[key] {
			unknown = append(unknown, h)
		}
	}
	for _, required := range []string{colName, colInstrument} {
		if _, ok := colIdx[required]; !ok {
			return ImportMembersResult{}, fmt.Errorf("%w: missing required column %s", ErrImportFormat, required)
		}
	}

	getCol := func(row []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := ImportMembersResult{DryRun: input.DryRun, Unknown: unknown, Errors: []ImportMembersRowError{}}
	rowNum := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.Total++
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "malformed row"})
			continue
		}
		result.Total++

		name := getCol(row, colName)
		instrument := getCol(row, colInstrument)
		if name == "" {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "name is required"})
			continue
		}
		if instrument == "" {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "instrument is required"})
			continue
		}
		email := ""
		if raw := getCol(row, colEmail); raw != "" {
			addr, err := mail.ParseAddress(raw)
			if err != nil {
				result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "invalid email: " + raw})
				continue
			}
			email = strings.ToLower(addr.Address)
		}

		existing, exists, err := findImportMatch(ctx, deps.MemberStore, getCol(row, colID), email)
		if err != nil {
			zap.L().Error("member_event", zap.String("event", "import_lookup_failed"), zap.Int("row", rowNum), zap.Error(err))
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "lookup failed (see server log)"})
			continue
		}
		if exists && !input.UpdateMode {
			result.Skipped++
			continue
		}

		m := existing
		now := deps.Now()
		if !exists {
			m = domain.Member{ID: getCol(row, colID), Role: domain.RoleUser, CreatedAt: now}
			if m.ID == "" {
				m.ID = deps.GenerateID()
			}
		}
		m.Name = name
		m.Instrument = instrument
		if _, ok := colIdx[colPart]; ok || !exists {
			m.Part = getCol(row, colPart)
		}
		if _, ok := colIdx[colRemarks]; ok || !exists {
			m.Remarks = getCol(row, colRemarks)
		}
		if email != "" {
			m.Email = email
		}
		m.UpdatedAt = now
		if err := m.Validate(); err != nil {
			result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: err.Error()})
			continue
		}

		if !input.DryRun {
			if err := deps.MemberStore.Save(ctx, m); err != nil {
				zap.L().Error("member_event", zap.String("event", "import_save_failed"), zap.Int("row", rowNum), zap.Error(err))
				result.Errors = append(result.Errors, ImportMembersRowError{Row: rowNum, Message: "save failed (see server log)"})
				continue
			}
		}
		if exists {
			result.Updated++
		} else {
			result.Created++
		}
	}

	zap.L().Info("member_event",
		zap.String("event", "members_imported"),
		zap.String("actor_id", input.ActorID),
		zap.Bool("dry_run", input.DryRun),
		zap.Bool("update_mode", input.UpdateMode),
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func findImportMatch(ctx context.Context, store MemberStoreForImport, id, email string) (domain.Member, bool, error) {
	lookup := func(m domain.Member, err error) (domain.Member, bool, error) {
		switch {
		case err == nil:
			return m, true, nil
		case errors.Is(err, storage.ErrNotFound):
			return domain.Member{}, false, nil
		default:
			return domain.Member{}, false, err
		}
	}
	if id != "" {
		return lookup(store.GetByID(ctx, id))
	}
	if email != "" {
		return lookup(store.GetByEmail(ctx, email))
	}
	return domain.Member{}, false, nil
}
