package instrument

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrEmptyName         = errors.New("instrument name cannot be empty")
	ErrEmptyAbbreviation = errors.New("instrument abbreviation cannot be empty")
)

// Instrument is a reference entry members pick from. Members store the
// abbreviation, so it is the natural key.
type Instrument struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	English      string `json:"english"`
	Abbreviation string `json:"abbreviation"`
}

// Validate checks if the Instrument has valid data.
// PRE: Instrument struct is populated
// POST: Returns nil if valid, error otherwise
func (i *Instrument) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(i.Abbreviation) == "" {
		return ErrEmptyAbbreviation
	}
	return nil
}

// Defaults is the seed list for a community orchestra.
var Defaults = []Instrument{
	{Name: "바이올린1", English: "Violin I", Abbreviation: "Vn1"},
	{Name: "바이올린2", English: "Violin II", Abbreviation: "Vn2"},
	{Name: "비올라", English: "Viola", Abbreviation: "Va"},
	{Name: "첼로", English: "Cello", Abbreviation: "Vc"},
	{Name: "콘트라베이스", English: "Contrabass", Abbreviation: "Cb"},
	{Name: "플루트", English: "Flute", Abbreviation: "Fl"},
	{Name: "오보에", English: "Oboe", Abbreviation: "Ob"},
	{Name: "클라리넷", English: "Clarinet", Abbreviation: "Cl"},
	{Name: "바순", English: "Bassoon", Abbreviation: "Fg"},
	{Name: "호른", English: "Horn", Abbreviation: "Hn"},
	{Name: "트럼펫", English: "Trumpet", Abbreviation: "Tp"},
	{Name: "트롬본", English: "Trombone", Abbreviation: "Tb"},
	{Name: "튜바", English: "Tuba", Abbreviation: "Tu"},
	{Name: "타악기", English: "Percussion", Abbreviation: "Perc"},
}

// NameFor resolves an abbreviation to its display name, falling back to the
// abbreviation itself when no instrument matches.
func NameFor(instruments []Instrument, abbreviation string) string {
	for _, i := range instruments {
		if i.Abbreviation == abbreviation {
			return i.Name
		}
	}
	return abbreviation
}
