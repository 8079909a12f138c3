package model

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// AssignmentKey identifies one staffing slot: a role on a machine, with a
// slot index for roles that can be filled twice (second preparer).
type AssignmentKey struct {
	Machine MachineID
	Role    Role
	Slot    int
}

// String renders the persisted form "M1_PIMA_0".
func (k AssignmentKey) String() string {
	return fmt.Sprintf("%s_%s_%d", k.Machine, k.Role, k.Slot)
}

func ParseAssignmentKey(s string) (AssignmentKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return AssignmentKey{}, fmt.Errorf("assignment key %q: want machine_role_slot", s)
	}
	slot, err := strconv.Atoi(parts[2])
	if err != nil || slot < 0 {
		return AssignmentKey{}, fmt.Errorf("assignment key %q: bad slot", s)
	}
	k := AssignmentKey{Machine: MachineID(parts[0]), Role: Role(parts[1]), Slot: slot}
	if !k.Machine.Valid() {
		return AssignmentKey{}, fmt.Errorf("assignment key %q: unknown machine", s)
	}
	if !k.Role.Valid() {
		return AssignmentKey{}, fmt.Errorf("assignment key %q: unknown role", s)
	}
	return k, nil
}

// Compare orders keys by machine, then role, then slot.
func (k AssignmentKey) Compare(o AssignmentKey) int {
	if c := cmp.Compare(k.Machine.Order(), o.Machine.Order()); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Role.Order(), o.Role.Order()); c != 0 {
		return c
	}
	return cmp.Compare(k.Slot, o.Slot)
}

func (k AssignmentKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *AssignmentKey) UnmarshalText(b []byte) error {
	parsed, err := ParseAssignmentKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

type StaffAssignment struct {
	Name          string   `bson:"name" json:"name"`
	IsInterim     bool     `bson:"isInterim" json:"isInterim"`
	HoursOverride *float64 `bson:"hoursOverride,omitempty" json:"hoursOverride,omitempty"`
}

// Filled reports whether the slot has a person in it. A blank name is an
// unfilled slot, not an absent record.
func (a StaffAssignment) Filled() bool {
	return strings.TrimSpace(a.Name) != ""
}

func (a StaffAssignment) Clone() StaffAssignment {
	if a.HoursOverride != nil {
		h := *a.HoursOverride
		a.HoursOverride = &h
	}
	return a
}

// Assignments maps staffing slots to the person filling them.
type Assignments map[AssignmentKey]StaffAssignment

func (a Assignments) Clone() Assignments {
	out := make(Assignments, len(a))
	for k, v := range a {
		out[k] = v.Clone()
	}
	return out
}

// Keys returns the slot keys in their total order.
func (a Assignments) Keys() []AssignmentKey {
	keys := make([]AssignmentKey, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, AssignmentKey.Compare)
	return keys
}

// HasContent reports whether at least one slot is filled.
func (a Assignments) HasContent() bool {
	for _, v := range a {
		if v.Filled() {
			return true
		}
	}
	return false
}

// ToStrings converts to the persisted string-keyed form.
func (a Assignments) ToStrings() map[string]StaffAssignment {
	out := make(map[string]StaffAssignment, len(a))
	for k, v := range a {
		out[k.String()] = v
	}
	return out
}

// AssignmentsFromStrings parses persisted keys. Malformed keys are returned
// separately so callers can report them instead of failing the whole record.
func AssignmentsFromStrings(m map[string]StaffAssignment) (Assignments, []string) {
	out := make(Assignments, len(m))
	var bad []string
	for s, v := range m {
		k, err := ParseAssignmentKey(s)
		if err != nil {
			bad = append(bad, s)
			continue
		}
		out[k] = v
	}
	return out, bad
}

func (a Assignments) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToStrings())
}

func (a *Assignments) UnmarshalJSON(b []byte) error {
	var m map[string]StaffAssignment
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	parsed, bad := AssignmentsFromStrings(m)
	if len(bad) > 0 {
		return fmt.Errorf("assignments: malformed keys %v", bad)
	}
	*a = parsed
	return nil
}

// PlanningAssignment is the staffing of one team on one date. (Date, Team)
// is unique across the planning collection.
type PlanningAssignment struct {
	Date        string      `json:"date"`
	Team        Team        `json:"team"`
	Assignments Assignments `json:"assignments"`
}

func (p PlanningAssignment) Clone() PlanningAssignment {
	p.Assignments = p.Assignments.Clone()
	return p
}

func (p PlanningAssignment) SameSlot(date string, team Team) bool {
	return p.Date == date && p.Team == team
}

func ClonePlanning(in []PlanningAssignment) []PlanningAssignment {
	if in == nil {
		return nil
	}
	out := make([]PlanningAssignment, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
