package metrics

import "bal-board/internal/model"

type hoursKey struct {
	date    string
	team    model.Team
	machine model.MachineID
}

// HoursIndex answers "how long did machine run for team on date" from the
// logs. Duplicate logs for the same slot are summed.
type HoursIndex map[hoursKey]float64

func IndexHours(logs []model.ProductionLog) HoursIndex {
	idx := make(HoursIndex, len(logs))
	for _, l := range logs {
		idx[hoursKey{l.Date, l.Team, l.MachineID}] += l.Hours
	}
	return idx
}

func (h HoursIndex) Lookup(date string, team model.Team, machine model.MachineID) (float64, bool) {
	v, ok := h[hoursKey{date, team, machine}]
	return v, ok
}

func (h HoursIndex) Get(date string, team model.Team, machine model.MachineID) float64 {
	return h[hoursKey{date, team, machine}]
}

// Pooled returns the hours of a pooled role: the longer run of the machine
// and its partner on that shift.
func (h HoursIndex) Pooled(date string, team model.Team, machine model.MachineID) float64 {
	v := h.Get(date, team, machine)
	if p, ok := machine.Partner(); ok {
		v = max(v, h.Get(date, team, p))
	}
	return v
}
