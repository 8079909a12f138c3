package hr

import (
	"slices"
	"time"

	"bal-board/internal/calendar"
	"bal-board/internal/metrics"
	"bal-board/internal/model"
)

type RoleStats struct {
	Role          model.Role `json:"role"`
	SalariedNames []string   `json:"salariedNames"`
	InterimNames  []string   `json:"interimNames"`
	SalariedHours float64    `json:"salariedHours"`
	InterimHours  float64    `json:"interimHours"`
}

func (r RoleStats) TotalHours() float64 {
	return r.SalariedHours + r.InterimHours
}

// InterimShare is the fraction of the role's hours worked by interim staff.
func (r RoleStats) InterimShare() float64 {
	if t := r.TotalHours(); t > 0 {
		return r.InterimHours / t
	}
	return 0
}

type RoleBreakdown struct {
	Roles         []RoleStats `json:"roles"`
	SalariedHours float64     `json:"salariedHours"`
	InterimHours  float64     `json:"interimHours"`
}

// cellHours is the hours credited to whoever fills key on (date, team).
// Pooled roles keyed on the first machine of a pair run as long as either machine.
func cellHours(idx metrics.HoursIndex, date string, team model.Team, key model.AssignmentKey) float64 {
	if key.Role.Shared() && (key.Machine == model.MachineM3 || key.Machine == model.MachineM5) {
		return idx.Pooled(date, team, key.Machine)
	}
	return idx.Get(date, team, key.Machine)
}

// Roles splits the planned hours of the week window by role and status.
func Roles(planning []model.PlanningAssignment, logs []model.ProductionLog, monday time.Time) RoleBreakdown {
	idx := metrics.IndexHours(windowLogs(logs, monday))

	type acc struct {
		sal, intr   map[string]struct{}
		salH, intrH float64
	}
	stats := make(map[model.Role]*acc, len(model.Roles))
	for _, r := range model.Roles {
		stats[r] = &acc{sal: map[string]struct{}{}, intr: map[string]struct{}{}}
	}

	for _, p := range planning {
		if !calendar.InWindow(p.Date, monday) {
			continue
		}
		for _, key := range p.Assignments.Keys() {
			a := p.Assignments[key]
			if !a.Filled() {
				continue
			}
			s, ok := stats[key.Role]
			if !ok {
				continue
			}
			h := cellHours(idx, p.Date, p.Team, key)
			if a.IsInterim {
				s.intr[a.Name] = struct{}{}
				s.intrH += h
			} else {
				s.sal[a.Name] = struct{}{}
				s.salH += h
			}
		}
	}

	var out RoleBreakdown
	for _, r := range model.Roles {
		s := stats[r]
		out.Roles = append(out.Roles, RoleStats{
			Role:          r,
			SalariedNames: sortedNames(s.sal),
			InterimNames:  sortedNames(s.intr),
			SalariedHours: s.salH,
			InterimHours:  s.intrH,
		})
		out.SalariedHours += s.salH
		out.InterimHours += s.intrH
	}
	return out
}

type InterimDay struct {
	Date       string               `json:"date"`
	Hours      float64              `json:"hours"`
	Machine    model.MachineID      `json:"machine,omitempty"`
	Team       model.Team           `json:"team,omitempty"`
	Key        *model.AssignmentKey `json:"key,omitempty"`
	IsOverride bool                 `json:"isOverride"`
}

type InterimRow struct {
	StaffID string       `json:"staffId"`
	Name    string       `json:"name"`
	Role    model.Role   `json:"role,omitempty"`
	Days    []InterimDay `json:"days"`
	Total   float64      `json:"total"`
}

type InterimReport struct {
	Days              []string     `json:"days"`
	Rows              []InterimRow `json:"rows"`
	TotalInterimHours float64      `json:"totalInterimHours"`
}

// InterimHours tracks the hours worked by every interim member over the six
// days of the window. When a member fills several cells on one day the last
// one in (team, key) order wins.
func InterimHours(staff []model.StaffMember, planning []model.PlanningAssignment, logs []model.ProductionLog, monday time.Time) InterimReport {
	idx := metrics.IndexHours(logs)
	rep := InterimReport{Days: calendar.WindowDates(monday)}

	byDate := make(map[string][]model.PlanningAssignment)
	for _, p := range planning {
		byDate[p.Date] = append(byDate[p.Date], p)
	}
	for _, plans := range byDate {
		slices.SortFunc(plans, func(a, b model.PlanningAssignment) int {
			return slices.Index(model.Teams, a.Team) - slices.Index(model.Teams, b.Team)
		})
	}

	for _, s := range staff {
		if !s.IsInterim {
			continue
		}
		row := InterimRow{StaffID: s.ID, Name: s.Name, Role: s.DefaultRole}
		want := model.NormalizeName(s.Name)
		for _, date := range rep.Days {
			day := InterimDay{Date: date}
			for _, p := range byDate[date] {
				for _, key := range p.Assignments.Keys() {
					a := p.Assignments[key]
					if want == "" || model.NormalizeName(a.Name) != want {
						continue
					}
					k := key
					day = InterimDay{Date: date, Machine: key.Machine, Team: p.Team, Key: &k}
					switch {
					case a.HoursOverride != nil:
						day.Hours = *a.HoursOverride
						day.IsOverride = true
					default:
						if h, ok := idx.Lookup(date, p.Team, key.Machine); ok {
							day.Hours = h
						} else {
							day.Hours = cellHours(idx, date, p.Team, key)
						}
					}
				}
			}
			row.Days = append(row.Days, day)
			row.Total += day.Hours
		}
		rep.Rows = append(rep.Rows, row)
		rep.TotalInterimHours += row.Total
	}
	return rep
}

func windowLogs(logs []model.ProductionLog, monday time.Time) []model.ProductionLog {
	var out []model.ProductionLog
	for _, l := range logs {
		if calendar.InWindow(l.Date, monday) {
			out = append(out, l)
		}
	}
	return out
}

func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
