package model

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignmentKey(t *testing.T) {
	k, err := ParseAssignmentKey("M5_PREPARATEUR_1")
	require.NoError(t, err)
	assert.Equal(t, AssignmentKey{Machine: MachineM5, Role: RolePreparateur, Slot: 1}, k)
	assert.Equal(t, "M5_PREPARATEUR_1", k.String())

	for _, bad := range []string{"", "M1_PIMA", "M9_PIMA_0", "M1_CHEF_0", "M1_PIMA_x", "M1_PIMA_-1", "M1_PIMA_0_1"} {
		_, err := ParseAssignmentKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestAssignmentKeyOrder(t *testing.T) {
	a := Assignments{
		{Machine: MachinePAC, Role: RoleOperateur}:           {Name: "d"},
		{Machine: MachineM1, Role: RolePreparateur, Slot: 1}: {Name: "c"},
		{Machine: MachineM1, Role: RolePreparateur}:          {Name: "b"},
		{Machine: MachineM1, Role: RolePIMA}:                 {Name: "a"},
	}

	var names []string
	for _, k := range a.Keys() {
		names = append(names, a[k].Name)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
}

func TestAssignmentsJSONUsesStringKeys(t *testing.T) {
	a := Assignments{{Machine: MachineM1, Role: RolePIMA}: {Name: "Alice", IsInterim: true}}

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"M1_PIMA_0"`)

	var back Assignments
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, a, back)

	assert.Error(t, json.Unmarshal([]byte(`{"bogus":{"name":"x"}}`), &back))
}

func TestEffectiveCadence(t *testing.T) {
	assert.Equal(t, 1200.0, MachineConfig{ID: MachineM1, TargetCadence: 1200}.EffectiveCadence())
	assert.Equal(t, 0.0, MachineConfig{ID: MachineM1}.EffectiveCadence())
	assert.Equal(t, float64(DefaultPACCadence), MachineConfig{ID: MachinePAC}.EffectiveCadence())
}

func TestCloneIsDeep(t *testing.T) {
	orig := []PlanningAssignment{{Date: "2025-03-18", Team: TeamMatin, Assignments: Assignments{
		{Machine: MachineM1, Role: RolePIMA}: {Name: "Alice"},
	}}}
	cp := ClonePlanning(orig)
	cp[0].Assignments[AssignmentKey{Machine: MachineM1, Role: RolePIMA}] = StaffAssignment{Name: "Bob"}

	assert.Equal(t, "Alice", orig[0].Assignments[AssignmentKey{Machine: MachineM1, Role: RolePIMA}].Name)
}

func TestFindStaffIgnoresCase(t *testing.T) {
	staff := []StaffMember{{ID: "1", Name: "Alice"}}

	s, ok := FindStaff(staff, "  alice ")
	assert.True(t, ok)
	assert.Equal(t, "1", s.ID)

	_, ok = FindStaff(staff, "")
	assert.False(t, ok)
}

func TestSalaried(t *testing.T) {
	assert.True(t, StaffMember{Active: true}.Salaried())
	assert.False(t, StaffMember{Active: true, IsInterim: true}.Salaried())
	assert.False(t, StaffMember{Active: true, IsAbsent: true}.Salaried())
	assert.False(t, StaffMember{}.Salaried())
}
