package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bal-board/internal/model"
)

var (
	keyPima = model.AssignmentKey{Machine: model.MachineM1, Role: model.RolePIMA}
	keyOp   = model.AssignmentKey{Machine: model.MachineM1, Role: model.RoleOperateur}
	keyPrep = model.AssignmentKey{Machine: model.MachineM3, Role: model.RolePreparateur, Slot: 1}
)

func newPlanner(t *testing.T, date string) *Planner {
	t.Helper()
	p, err := NewPlanner(date)
	require.NoError(t, err)
	return p
}

func record(date string, team model.Team, cells model.Assignments) model.PlanningAssignment {
	return model.PlanningAssignment{Date: date, Team: team, Assignments: cells}
}

func TestSelectionRules(t *testing.T) {
	p := newPlanner(t, "2025-03-12")
	assert.Equal(t, "2025-03-10", p.Selection().WeekStart)

	require.NoError(t, p.SelectTeam(model.TeamSoir))
	assert.Equal(t, Selection{Team: model.TeamSoir, Date: "2025-03-10", WeekStart: "2025-03-10", Mode: ModeWeek}, p.Selection())

	require.NoError(t, p.SelectDate("2025-03-12"))
	assert.Equal(t, ModeFuture, p.Selection().Mode)

	require.NoError(t, p.SelectDate("2025-03-17"))
	assert.Equal(t, ModeWeek, p.Selection().Mode)
	assert.Equal(t, "2025-03-17", p.Selection().WeekStart)

	require.NoError(t, p.SelectTeam(model.TeamMatin))
	assert.Equal(t, "2025-03-18", p.Selection().Date)

	require.NoError(t, p.SetMode(ModeDay))
	require.NoError(t, p.SelectWeek("2025-03-26"))
	assert.Equal(t, "2025-03-24", p.Selection().WeekStart)
	assert.Equal(t, "2025-03-25", p.Selection().Date)
	assert.Equal(t, ModeDay, p.Selection().Mode)

	assert.ErrorIs(t, p.SetMode("MONTH"), ErrInvalidMode)
	assert.ErrorIs(t, p.SelectTeam("NUIT"), ErrInvalidTeam)
	assert.Error(t, p.SelectDate("12/03/2025"))
}

func TestPropagateWeekMergesExistingCells(t *testing.T) {
	p := newPlanner(t, "2025-03-10")
	require.NoError(t, p.SelectTeam(model.TeamSoir))

	planning := []model.PlanningAssignment{
		record("2025-03-11", model.TeamSoir, model.Assignments{keyOp: {Name: "Bob"}}),
		record("2025-03-13", model.TeamSoir, model.Assignments{keyPrep: {Name: "Eve", IsInterim: true}}),
		record("2025-03-11", model.TeamMatin, model.Assignments{keyOp: {Name: "Other"}}),
	}

	updates := p.Propagate(planning, keyPima, model.StaffAssignment{Name: "Alice"})

	require.Len(t, updates, 5)
	dates := make([]string, 0, 5)
	for _, u := range updates {
		dates = append(dates, u.Date)
		assert.Equal(t, model.TeamSoir, u.Team)
		assert.Equal(t, "Alice", u.Assignments[keyPima].Name)
	}
	assert.Equal(t, []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14"}, dates)
	assert.Equal(t, "Bob", updates[1].Assignments[keyOp].Name)
	assert.Equal(t, "Eve", updates[3].Assignments[keyPrep].Name)
	assert.Len(t, updates[0].Assignments, 1)

	// The source collection is untouched.
	assert.NotContains(t, planning[0].Assignments, keyPima)
}

func TestPropagateFutureAndDay(t *testing.T) {
	p := newPlanner(t, "2025-03-10")
	require.NoError(t, p.SelectDate("2025-03-13")) // MATIN, Thursday

	assert.Equal(t, ModeFuture, p.Selection().Mode)
	updates := p.Propagate(nil, keyPima, model.StaffAssignment{Name: "Alice"})
	require.Len(t, updates, 3)
	assert.Equal(t, "2025-03-13", updates[0].Date)
	assert.Equal(t, "2025-03-15", updates[2].Date)

	require.NoError(t, p.SetMode(ModeDay))
	updates = p.Propagate(nil, keyPima, model.StaffAssignment{Name: "Alice"})
	require.Len(t, updates, 1)
	assert.Equal(t, "2025-03-13", updates[0].Date)
}

func TestPropagateDayTwiceKeepsOneRecord(t *testing.T) {
	p := newPlanner(t, "2025-03-11")
	require.NoError(t, p.SetMode(ModeDay))

	var planning []model.PlanningAssignment
	planning = Upsert(planning, p.Propagate(planning, keyPima, model.StaffAssignment{Name: "First"}))
	planning = Upsert(planning, p.Propagate(planning, keyPima, model.StaffAssignment{Name: "Second"}))

	require.Len(t, planning, 1)
	assert.Len(t, planning[0].Assignments, 1)
	assert.Equal(t, "Second", planning[0].Assignments[keyPima].Name)
}

func TestPropagateDeepCopiesValue(t *testing.T) {
	p := newPlanner(t, "2025-03-11")
	h := 4.0
	updates := p.Propagate(nil, keyPima, model.StaffAssignment{Name: "A", HoursOverride: &h})
	require.Len(t, updates, 5)

	*updates[0].Assignments[keyPima].HoursOverride = 9
	assert.InDelta(t, 4.0, *updates[1].Assignments[keyPima].HoursOverride, 1e-9)
	assert.InDelta(t, 4.0, h, 1e-9)
}

func TestCopyDay(t *testing.T) {
	p := newPlanner(t, "2025-03-11")
	planning := []model.PlanningAssignment{
		record("2025-03-11", model.TeamMatin, model.Assignments{keyPima: {Name: "Alice"}, keyOp: {Name: "Bob"}}),
		record("2025-03-12", model.TeamMatin, model.Assignments{keyPrep: {Name: "Gone"}}),
	}

	updates, empty := p.CopyDay(planning)

	assert.False(t, empty)
	require.Len(t, updates, 4)
	for _, u := range updates {
		assert.NotEqual(t, "2025-03-11", u.Date)
		assert.Equal(t, planning[0].Assignments, u.Assignments)
	}
	// Whole-day snapshot: cells absent from the source disappear.
	assert.NotContains(t, updates[0].Assignments, keyPrep)
}

func TestCopyDayEmptySource(t *testing.T) {
	p := newPlanner(t, "2025-03-11")
	planning := []model.PlanningAssignment{
		record("2025-03-11", model.TeamMatin, model.Assignments{keyPima: {Name: "  "}}),
	}

	updates, empty := p.CopyDay(planning)
	assert.True(t, empty)
	assert.Len(t, updates, 4)
}

func TestCopyPreviousWeek(t *testing.T) {
	p := newPlanner(t, "2025-03-18")
	planning := []model.PlanningAssignment{
		record("2025-03-11", model.TeamMatin, model.Assignments{keyPima: {Name: "Alice"}}),
		record("2025-03-16", model.TeamMatin, model.Assignments{keyPima: {Name: "Sunday"}}),
		record("2025-03-12", model.TeamSoir, model.Assignments{keyPima: {Name: "OtherTeam"}}),
		record("2025-03-09", model.TeamMatin, model.Assignments{keyPima: {Name: "TooOld"}}),
		record("2025-03-18", model.TeamMatin, model.Assignments{keyOp: {Name: "Overwritten"}}),
	}

	updates, err := p.CopyPreviousWeek(planning)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "2025-03-18", updates[0].Date)
	assert.Equal(t, "Alice", updates[0].Assignments[keyPima].Name)
	assert.NotContains(t, updates[0].Assignments, keyOp)
	assert.Equal(t, "2025-03-23", updates[1].Date)

	merged := Upsert(planning, updates)
	rec, ok := Lookup(merged, "2025-03-18", model.TeamMatin)
	require.True(t, ok)
	assert.Equal(t, "Alice", rec.Assignments[keyPima].Name)
}

func TestCopyPreviousWeekWithoutSource(t *testing.T) {
	p := newPlanner(t, "2025-03-18")
	planning := []model.PlanningAssignment{
		record("2025-03-12", model.TeamSoir, model.Assignments{keyPima: {Name: "OtherTeam"}}),
	}

	updates, err := p.CopyPreviousWeek(planning)
	assert.ErrorIs(t, err, ErrNoSourceData)
	assert.Empty(t, updates)
}

func TestEditName(t *testing.T) {
	p := newPlanner(t, "2025-03-11")
	h := 2.0
	planning := []model.PlanningAssignment{
		record("2025-03-11", model.TeamMatin, model.Assignments{keyPima: {Name: "Old", HoursOverride: &h}}),
	}
	staff := []model.StaffMember{{Name: "Temp Worker", IsInterim: true}}

	v := p.EditName(planning, staff, keyPima, "temp worker")
	assert.Equal(t, "temp worker", v.Name)
	assert.True(t, v.IsInterim)
	require.NotNil(t, v.HoursOverride)

	v = p.EditStatus(planning, keyOp, true)
	assert.Equal(t, model.StaffAssignment{IsInterim: true}, v)
}

func TestUpsertLastUpdateWins(t *testing.T) {
	base := []model.PlanningAssignment{record("2025-03-11", model.TeamMatin, model.Assignments{keyPima: {Name: "A"}})}
	out := Upsert(base, []model.PlanningAssignment{
		record("2025-03-11", model.TeamMatin, model.Assignments{keyPima: {Name: "B"}}),
		record("2025-03-11", model.TeamMatin, model.Assignments{keyPima: {Name: "C"}}),
		record("2025-03-11", model.TeamSoir, model.Assignments{keyPima: {Name: "D"}}),
	})

	require.Len(t, out, 2)
	rec, _ := Lookup(out, "2025-03-11", model.TeamMatin)
	assert.Equal(t, "C", rec.Assignments[keyPima].Name)
	assert.Equal(t, "A", base[0].Assignments[keyPima].Name)
}

func TestSuggestions(t *testing.T) {
	rec := record("2025-03-11", model.TeamMatin, model.Assignments{
		keyPima: {Name: "alice "},
		keyOp:   {Name: "Bob"},
	})
	staff := []model.StaffMember{
		{Name: "Alice", Active: true},
		{Name: "Bob", Active: true},
		{Name: "Carl", Active: true, IsSecouriste: true},
		{Name: "Dora", Active: true, IsAbsent: true},
	}

	names := func(s []Suggestion) []string {
		var out []string
		for _, x := range s {
			out = append(out, x.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Carl"}, names(Suggestions(staff, rec, nil)))
	// The cell being edited keeps its own name available.
	assert.Equal(t, []string{"Alice", "Carl"}, names(Suggestions(staff, rec, &keyPima)))
	assert.True(t, Suggestions(staff, rec, nil)[0].IsSecouriste)
}
