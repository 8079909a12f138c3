// Package planning applies staffing edits to a team's week and spreads them
// across dates according to the selected propagation mode.
//
// The planner only computes the records to write; callers persist them and
// merge them back with Upsert.
package planning

import (
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"bal-board/internal/calendar"
	"bal-board/internal/model"
)

type Mode string

const (
	ModeWeek   Mode = "WEEK"   // every working date of the team's week
	ModeDay    Mode = "DAY"    // the selected date only
	ModeFuture Mode = "FUTURE" // the selected date and the ones after it
)

func (m Mode) Valid() bool {
	return m == ModeWeek || m == ModeDay || m == ModeFuture
}

var (
	ErrNoSourceData = eris.New("planning: no assignment in the previous week")
	ErrInvalidMode  = eris.New("planning: unknown propagation mode")
	ErrInvalidTeam  = eris.New("planning: unknown team")
)

type Selection struct {
	Team      model.Team `json:"team"`
	Date      string     `json:"date"`
	WeekStart string     `json:"weekStart"`
	Mode      Mode       `json:"mode"`
}

// Planner holds the operator's current selection.
type Planner struct {
	sel    Selection
	monday time.Time
}

// NewPlanner selects the MATIN team on initialDate in WEEK mode.
func NewPlanner(initialDate string) (*Planner, error) {
	d, err := calendar.ParseDate(initialDate)
	if err != nil {
		return nil, err
	}
	p := &Planner{monday: calendar.MondayOf(d)}
	p.sel = Selection{
		Team:      model.TeamMatin,
		Date:      initialDate,
		WeekStart: calendar.FormatDate(p.monday),
		Mode:      ModeWeek,
	}
	return p, nil
}

func (p *Planner) Selection() Selection {
	return p.sel
}

// SelectTeam jumps to the first working day of team's week and resets the
// mode to WEEK.
func (p *Planner) SelectTeam(team model.Team) error {
	if !team.Valid() {
		return eris.Wrapf(ErrInvalidTeam, "team %q", team)
	}
	p.sel.Team = team
	p.sel.Date = calendar.TeamStartDate(p.monday, team)
	p.sel.Mode = ModeWeek
	return nil
}

// SelectDate moves to date. The mode becomes WEEK on the team's first
// working day and FUTURE on any other day.
func (p *Planner) SelectDate(date string) error {
	d, err := calendar.ParseDate(date)
	if err != nil {
		return err
	}
	p.monday = calendar.MondayOf(d)
	p.sel.Date = date
	p.sel.WeekStart = calendar.FormatDate(p.monday)
	if calendar.IsStartOfShift(date, p.sel.Team) {
		p.sel.Mode = ModeWeek
	} else {
		p.sel.Mode = ModeFuture
	}
	return nil
}

// SelectWeek moves to the week containing date, on the team's first working day.
func (p *Planner) SelectWeek(date string) error {
	d, err := calendar.ParseDate(date)
	if err != nil {
		return err
	}
	p.monday = calendar.MondayOf(d)
	p.sel.WeekStart = calendar.FormatDate(p.monday)
	p.sel.Date = calendar.TeamStartDate(p.monday, p.sel.Team)
	return nil
}

func (p *Planner) SetMode(m Mode) error {
	if !m.Valid() {
		return eris.Wrapf(ErrInvalidMode, "mode %q", m)
	}
	p.sel.Mode = m
	return nil
}

// WeekDates returns the team's five working dates in the selected week.
func (p *Planner) WeekDates() []string {
	return calendar.TeamWeekDates(p.monday, p.sel.Team)
}

func (p *Planner) targets() []string {
	dates := p.WeekDates()
	switch p.sel.Mode {
	case ModeDay:
		return []string{p.sel.Date}
	case ModeFuture:
		return slices.DeleteFunc(dates, func(d string) bool { return d < p.sel.Date })
	}
	return dates
}

// Current returns the selected (date, team) record, or an empty one.
func (p *Planner) Current(planning []model.PlanningAssignment) model.PlanningAssignment {
	if rec, ok := Lookup(planning, p.sel.Date, p.sel.Team); ok {
		return rec
	}
	return model.PlanningAssignment{Date: p.sel.Date, Team: p.sel.Team, Assignments: model.Assignments{}}
}

// Propagate sets key to value on every target date of the current mode,
// keeping the other cells of each date.
func (p *Planner) Propagate(planning []model.PlanningAssignment, key model.AssignmentKey, value model.StaffAssignment) []model.PlanningAssignment {
	var updates []model.PlanningAssignment
	for _, date := range p.targets() {
		rec := model.PlanningAssignment{Date: date, Team: p.sel.Team, Assignments: model.Assignments{}}
		if existing, ok := Lookup(planning, date, p.sel.Team); ok {
			rec.Assignments = existing.Assignments.Clone()
		}
		rec.Assignments[key] = value.Clone()
		updates = append(updates, rec)
	}
	return updates
}

// CopyDay snapshots the selected day onto every other working date of the
// team's week. empty reports that the snapshot has no filled cell, in which
// case applying it wipes the week.
func (p *Planner) CopyDay(planning []model.PlanningAssignment) (updates []model.PlanningAssignment, empty bool) {
	src := p.Current(planning)
	for _, date := range p.WeekDates() {
		if date == p.sel.Date {
			continue
		}
		updates = append(updates, model.PlanningAssignment{
			Date:        date,
			Team:        p.sel.Team,
			Assignments: src.Assignments.Clone(),
		})
	}
	return updates, !src.Assignments.HasContent()
}

// CopyPreviousWeek shifts the team's records of the previous Monday to Sunday
// span forward by seven days.
func (p *Planner) CopyPreviousWeek(planning []model.PlanningAssignment) ([]model.PlanningAssignment, error) {
	prev := p.monday.AddDate(0, 0, -7)
	var updates []model.PlanningAssignment
	for _, rec := range planning {
		if rec.Team != p.sel.Team || !calendar.InWindow(rec.Date, prev) {
			continue
		}
		date, err := calendar.AddDays(rec.Date, 7)
		if err != nil {
			return nil, err
		}
		shifted := rec.Clone()
		shifted.Date = date
		updates = append(updates, shifted)
	}
	if len(updates) == 0 {
		return nil, eris.Wrapf(ErrNoSourceData, "team %s, week of %s", p.sel.Team, calendar.FormatDate(prev))
	}
	slices.SortFunc(updates, func(a, b model.PlanningAssignment) int {
		return strings.Compare(a.Date, b.Date)
	})
	return updates, nil
}

// EditName builds the new value of key after the operator typed name. The
// interim flag follows the roster when the name is known.
func (p *Planner) EditName(planning []model.PlanningAssignment, staff []model.StaffMember, key model.AssignmentKey, name string) model.StaffAssignment {
	prev := p.Current(planning).Assignments[key].Clone()
	prev.Name = name
	if s, ok := model.FindStaff(staff, name); ok {
		prev.IsInterim = s.IsInterim
	}
	return prev
}

// EditStatus builds the new value of key with its interim flag changed.
func (p *Planner) EditStatus(planning []model.PlanningAssignment, key model.AssignmentKey, interim bool) model.StaffAssignment {
	prev := p.Current(planning).Assignments[key].Clone()
	prev.IsInterim = interim
	return prev
}
