// Package calendar holds the date arithmetic shared by the week views:
// Monday anchoring, the 6-day production window, team work-weeks and labels.
package calendar

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"bal-board/internal/model"
)

// Layout is the persisted calendar-day format.
const Layout = "2006-01-02"

// WindowDays is the length of the production window (Monday to Saturday).
const WindowDays = 6

var teamOffsets = map[model.Team][]int{
	model.TeamMatin: {1, 2, 3, 4, 5}, // Tuesday..Saturday
	model.TeamSoir:  {0, 1, 2, 3, 4}, // Monday..Friday
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "calendar: parse date %q", s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(Layout)
}

// Day truncates t to its calendar day in UTC, keeping the local date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MondayOf returns the Monday of the week containing t. Sunday belongs to
// the week that started six days earlier.
func MondayOf(t time.Time) time.Time {
	t = Day(t)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return t.AddDate(0, 0, 1-wd)
}

// MondayOfDate is MondayOf on the string form. Unparseable input yields "".
func MondayOfDate(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return ""
	}
	return FormatDate(MondayOf(t))
}

func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// WindowDates returns Monday..Saturday for the week starting at monday.
func WindowDates(monday time.Time) []string {
	out := make([]string, WindowDays)
	for i := range out {
		out[i] = FormatDate(monday.AddDate(0, 0, i))
	}
	return out
}

// InWindow reports whether date lies in [monday, monday+6], Sunday included.
func InWindow(date string, monday time.Time) bool {
	start := FormatDate(monday)
	end := FormatDate(monday.AddDate(0, 0, 6))
	return date >= start && date <= end
}

// TeamWeekDates returns the five working dates of team in the week starting at monday.
func TeamWeekDates(monday time.Time, team model.Team) []string {
	offs := teamOffsets[team]
	out := make([]string, 0, len(offs))
	for _, off := range offs {
		out = append(out, FormatDate(monday.AddDate(0, 0, off)))
	}
	return out
}

// TeamStartDate is the first working day of team in the week starting at monday.
func TeamStartDate(monday time.Time, team model.Team) string {
	if offs := teamOffsets[team]; len(offs) > 0 {
		return FormatDate(monday.AddDate(0, 0, offs[0]))
	}
	return FormatDate(monday)
}

// IsStartOfShift reports whether date is the first working day of team's week.
func IsStartOfShift(date string, team model.Team) bool {
	t, err := ParseDate(date)
	if err != nil {
		return false
	}
	return TeamStartDate(MondayOf(t), team) == date
}

// PlanningStart returns the Monday offsetWeeks weeks after now.
func PlanningStart(now time.Time, offsetWeeks int) time.Time {
	return MondayOf(Day(now).AddDate(0, 0, 7*offsetWeeks))
}

// WeekLabel renders "S<iso week> DU dd/mm/yyyy AU dd/mm/yyyy" for the week
// starting at monday, Sunday included.
func WeekLabel(monday time.Time) string {
	_, wk := monday.ISOWeek()
	sunday := monday.AddDate(0, 0, 6)
	return fmt.Sprintf("S%d DU %s AU %s", wk, monday.Format("02/01/2006"), sunday.Format("02/01/2006"))
}
