package calendar

import "time"

// Day is a single cell of a month grid.
type Day struct {
	Date      time.Time
	ISO       string
	Weekday   time.Weekday
	InMonth   bool // false for the leading/trailing days of adjacent months
	IsToday   bool
	IsHoliday bool
	Holiday   string
}

// Grid is a Sunday-first 6x7 month view.
// INVARIANT: len(Days) == GridSize
type Grid struct {
	Year  int
	Month time.Month
	Days  []Day
}

// MonthGrid builds the 42-cell grid for a year and zero-based month index.
// Out-of-range months normalise the way time.Date does (month0 12 is January next year).
// PRE: none
// POST: exactly GridSize days, in-month days contiguous and numbered 1..daysInMonth
func MonthGrid(year, month0 int) Grid {
	return MonthGridAt(year, month0, time.Time{})
}

// MonthGridAt is MonthGrid with IsToday resolved against now. A zero now marks no cell.
func MonthGridAt(year, month0 int, now time.Time) Grid {
	first := time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	today := ""
	if !now.IsZero() {
		today = FormatISODate(Civil(now))
	}

	days := make([]Day, GridSize)
	for i := range days {
		d := start.AddDate(0, 0, i)
		iso := FormatISODate(d)
		name := HolidayName(d)
		days[i] = Day{
			Date:      d,
			ISO:       iso,
			Weekday:   d.Weekday(),
			InMonth:   d.Year() == first.Year() && d.Month() == first.Month(),
			IsToday:   iso == today,
			IsHoliday: name != "",
			Holiday:   name,
		}
	}
	return Grid{Year: first.Year(), Month: first.Month(), Days: days}
}

// Month0 returns the zero-based month index of the grid.
func (g Grid) Month0() int {
	return int(g.Month) - 1
}

// Weeks splits the grid into six rows of seven days.
func (g Grid) Weeks() [][]Day {
	weeks := make([][]Day, 0, GridSize/7)
	for i := 0; i+7 <= len(g.Days); i += 7 {
		weeks = append(weeks, g.Days[i:i+7])
	}
	return weeks
}

// InMonthDays returns only the cells belonging to the grid's month.
func (g Grid) InMonthDays() []Day {
	var out []Day
	for _, d := range g.Days {
		if d.InMonth {
			out = append(out, d)
		}
	}
	return out
}

// Contains reports whether the ISO date is in the grid's own month.
func (g Grid) Contains(iso string) bool {
	t, err := ParseISODate(iso)
	if err != nil {
		return false
	}
	return t.Year() == g.Year && t.Month() == g.Month
}

// Shift returns the grid delta months away from g.
func (g Grid) Shift(delta int) Grid {
	return MonthGrid(g.Year, g.Month0()+delta)
}

// GridFor returns the grid whose month contains the given date.
func GridFor(t time.Time) Grid {
	return MonthGrid(t.Year(), int(t.Month())-1)
}
