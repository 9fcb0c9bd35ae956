package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"orchestra/internal/domain/instrument"
	"orchestra/internal/domain/member"
)

// RosterSheet is the worksheet name of the roster workbook.
const RosterSheet = "Members"

// RosterHeader is the first row of the roster sheet.
var RosterHeader = []string{"Name", "Display Name", "Email", "Role", "Instrument", "Part", "Remarks", "Joined"}

var rosterWidths = []float64{18, 18, 28, 12, 14, 10, 40, 12}

// Roster renders members as an XLSX workbook, one row per member in the given
// order. Instrument abbreviations are resolved to names.
func Roster(members []member.Member, instruments []instrument.Instrument) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(RosterSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range RosterHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(RosterSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(RosterSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(RosterSheet, name, name, rosterWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, m := range members {
		joined := ""
		if !m.CreatedAt.IsZero() {
			joined = m.CreatedAt.Format("2006-01-02")
		}
		values := []any{
			m.DisplayLabel(),
			m.DisplayName,
			m.Email,
			m.Role,
			instrument.NameFor(instruments, m.Instrument),
			m.Part,
			m.Remarks,
			joined,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(RosterSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(RosterSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
