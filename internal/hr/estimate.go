// Package hr estimates staffing needs from the machine configuration and
// aggregates planned hours per role and per interim worker.
//
// The coarse and precise estimators answer different questions (heads per
// shift versus man-hours per week) and are expected to disagree.
package hr

import (
	"math"

	"bal-board/internal/model"
)

// LegalWeeklyHours is the capacity of one salaried worker.
const LegalWeeklyHours = 35

// ShiftTeams is the number of shift teams staffed in a week cycle.
const ShiftTeams = 2

type CoarseEstimate struct {
	PerShift  int `json:"perShift"`
	TotalNeed int `json:"totalNeed"`
	Available int `json:"available"`
	Interim   int `json:"interim"`
}

// Coarse counts required heads from the static staffing table.
func Coarse(cfgs model.Configs, staff []model.StaffMember) CoarseEstimate {
	active := func(id model.MachineID) bool { return cfgs[id].Active }

	per := 0
	for _, id := range []model.MachineID{model.MachineM1, model.MachineM2} {
		if active(id) {
			per += 4
		}
	}
	if active(model.MachinePAC) {
		per += 2
	}
	for _, pair := range pairs {
		a, b := active(pair[0]), active(pair[1])
		if a {
			per += 2
		}
		if b {
			per += 2
		}
		// Shift manager and preparer, once per pair.
		if a || b {
			per += 2
		}
	}

	est := CoarseEstimate{
		PerShift:  per,
		TotalNeed: per * ShiftTeams,
		Available: SalariedCount(staff),
	}
	est.Interim = max(0, est.TotalNeed-est.Available)
	return est
}

var pairs = [][2]model.MachineID{
	{model.MachineM3, model.MachineM4},
	{model.MachineM5, model.MachineM6},
}

func SalariedCount(staff []model.StaffMember) int {
	n := 0
	for _, s := range staff {
		if s.Salaried() {
			n++
		}
	}
	return n
}

type PreciseRow struct {
	ID       model.MachineID `json:"id"`
	Label    string          `json:"label"`
	Bal      float64         `json:"bal"`
	Cadence  float64         `json:"cadence"`
	Hours    float64         `json:"hours"`
	Staff    int             `json:"staff"`
	ManHours float64         `json:"manHours"`
}

type PreciseEstimate struct {
	Rows                 []PreciseRow `json:"rows"`
	MaxShiftDuration     float64      `json:"maxShiftDuration"`
	TotalManHours        float64      `json:"totalManHours"`
	SalariedCount        int          `json:"salariedCount"`
	SalaryCapacity       float64      `json:"salaryCapacity"`
	InterimHours         float64      `json:"interimHours"`
	InterimStaffEstimate int          `json:"interimStaffEstimate"`
}

// RunTime is how long a machine must run to reach its BAL target.
// Inactive machines and machines without an effective cadence run 0 hours.
func RunTime(cfg model.MachineConfig) float64 {
	if !cfg.Active {
		return 0
	}
	cad := cfg.EffectiveCadence()
	if cad <= 0 {
		return 0
	}
	return cfg.TargetBal / cad
}

// Precise derives man-hours from machine run times.
func Precise(cfgs model.Configs, staff []model.StaffMember) PreciseEstimate {
	var est PreciseEstimate
	h := make(map[model.MachineID]float64, len(model.MachineIDs))
	for _, id := range model.MachineIDs {
		h[id] = RunTime(cfgs[id])
		est.MaxShiftDuration = max(est.MaxShiftDuration, h[id])
	}

	add := func(id model.MachineID, heads int, manHours float64) {
		cfg := cfgs[id]
		est.Rows = append(est.Rows, PreciseRow{
			ID:       id,
			Label:    id.Label(),
			Bal:      cfg.TargetBal,
			Cadence:  cfg.EffectiveCadence(),
			Hours:    h[id],
			Staff:    heads,
			ManHours: manHours,
		})
		est.TotalManHours += manHours
	}

	for _, id := range []model.MachineID{model.MachineM1, model.MachineM2} {
		if cfgs[id].Active {
			add(id, 4, h[id]*4)
		}
	}
	if cfgs[model.MachinePAC].Active {
		add(model.MachinePAC, 2, h[model.MachinePAC]*2)
	}
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		shared := max(h[a], h[b])
		switch {
		case cfgs[a].Active && cfgs[b].Active:
			// Each side carries its two dedicated roles plus one pooled unit.
			add(a, 3, h[a]*2+shared)
			add(b, 3, h[b]*2+shared)
		case cfgs[a].Active:
			add(a, 4, h[a]*4)
		case cfgs[b].Active:
			add(b, 4, h[b]*4)
		}
	}

	est.SalariedCount = SalariedCount(staff)
	est.SalaryCapacity = float64(est.SalariedCount * LegalWeeklyHours)
	est.InterimHours = math.Max(0, est.TotalManHours-est.SalaryCapacity)
	est.InterimStaffEstimate = int(math.Ceil(est.InterimHours / LegalWeeklyHours))
	return est
}
