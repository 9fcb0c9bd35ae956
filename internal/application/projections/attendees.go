package projections

import (
	"time"

	"orchestra/internal/domain/calendar"
	domainMember "orchestra/internal/domain/member"
	domainSchedule "orchestra/internal/domain/schedule"
)

// UnknownMemberName labels a schedule whose member record and stored name are both missing.
const UnknownMemberName = "알 수 없음"

// Attendee is a member available on a given date.
type Attendee struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
	Instrument string `json:"instrument"`
	Part       string `json:"part"`
	Memo       string `json:"memo"`
}

func indexMembers(members []domainMember.Member) map[string]domainMember.Member {
	byID := make(map[string]domainMember.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	return byID
}

// activeMembers drops archived members.
func activeMembers(members []domainMember.Member) []domainMember.Member {
	out := make([]domainMember.Member, 0, len(members))
	for _, m := range members {
		if !m.IsArchived() {
			out = append(out, m)
		}
	}
	return out
}

// attendeesOn lists, in schedule order, the members available on date.
// Schedules of archived members are skipped.
func attendeesOn(date time.Time, schedules []domainSchedule.Schedule, members map[string]domainMember.Member) []Attendee {
	iso := calendar.FormatISODate(date)
	var out []Attendee
	for _, s := range schedules {
		if !domainSchedule.IsAvailable(s, date) {
			continue
		}
		a := Attendee{MemberID: s.MemberID, Memo: s.Note(iso)}
		m, ok := members[s.MemberID]
		if ok && m.IsArchived() {
			continue
		}
		switch {
		case ok && m.DisplayLabel() != "":
			a.MemberName = m.DisplayLabel()
		case s.MemberName != "":
			a.MemberName = s.MemberName
		default:
			a.MemberName = UnknownMemberName
		}
		if ok {
			a.Instrument = m.Instrument
			a.Part = m.Part
		}
		out = append(out, a)
	}
	return out
}
