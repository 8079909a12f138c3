package planning

import (
	"slices"
	"strings"

	"bal-board/internal/model"
)

// Lookup finds the record of (date, team).
func Lookup(planning []model.PlanningAssignment, date string, team model.Team) (model.PlanningAssignment, bool) {
	for _, p := range planning {
		if p.SameSlot(date, team) {
			return p, true
		}
	}
	return model.PlanningAssignment{}, false
}

// Upsert returns a new collection where each update replaces the record with
// the same (date, team), or is appended. The input slice is not modified.
// When updates repeat a key the last one wins.
func Upsert(planning, updates []model.PlanningAssignment) []model.PlanningAssignment {
	out := make([]model.PlanningAssignment, 0, len(planning)+len(updates))
	for _, p := range planning {
		if !slices.ContainsFunc(updates, func(u model.PlanningAssignment) bool { return u.SameSlot(p.Date, p.Team) }) {
			out = append(out, p)
		}
	}
	for i, u := range updates {
		if slices.ContainsFunc(updates[i+1:], func(n model.PlanningAssignment) bool { return n.SameSlot(u.Date, u.Team) }) {
			continue
		}
		out = append(out, u.Clone())
	}
	return out
}

// UsedNames returns the normalized names filling any cell of rec other than except.
func UsedNames(rec model.PlanningAssignment, except *model.AssignmentKey) map[string]struct{} {
	used := make(map[string]struct{})
	for k, a := range rec.Assignments {
		if except != nil && k == *except {
			continue
		}
		if a.Filled() {
			used[model.NormalizeName(a.Name)] = struct{}{}
		}
	}
	return used
}

type Suggestion struct {
	Name         string          `json:"name"`
	DefaultRole  model.Role      `json:"defaultRole,omitempty"`
	AssignedTeam model.StaffTeam `json:"assignedTeam,omitempty"`
	IsInterim    bool            `json:"isInterim"`
	IsSecouriste bool            `json:"isSecouriste"`
	IsGuideFile  bool            `json:"isGuideFile"`
	IsSerreFile  bool            `json:"isSerreFile"`
}

// Suggestions lists the present roster members not already placed in another
// cell of rec. It only assists input; duplicates typed by hand are accepted.
func Suggestions(staff []model.StaffMember, rec model.PlanningAssignment, key *model.AssignmentKey) []Suggestion {
	used := UsedNames(rec, key)
	var out []Suggestion
	for _, s := range staff {
		if s.IsAbsent || !s.Active {
			continue
		}
		if _, taken := used[model.NormalizeName(s.Name)]; taken {
			continue
		}
		out = append(out, Suggestion{
			Name:         s.Name,
			DefaultRole:  s.DefaultRole,
			AssignedTeam: s.AssignedTeam,
			IsInterim:    s.IsInterim,
			IsSecouriste: s.IsSecouriste,
			IsGuideFile:  s.IsGuideFile,
			IsSerreFile:  s.IsSerreFile,
		})
	}
	slices.SortFunc(out, func(a, b Suggestion) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}
