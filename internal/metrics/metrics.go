// Package metrics derives production figures for one week window from the
// raw production logs and the machine configuration of a week context.
package metrics

import (
	"math"
	"slices"
	"time"

	"bal-board/internal/calendar"
	"bal-board/internal/model"
)

type TeamMetrics struct {
	ProducedBal int     `json:"producedBal"`
	AvgCadence  int     `json:"avgCadence"`
	Hours       float64 `json:"hours"`
	GapHours    float64 `json:"gapHours"`
}

// Cell is one (day, team) or (day, all teams) figure of a machine.
type Cell struct {
	Date  string  `json:"date"`
	Bal   int     `json:"bal"`
	Hours float64 `json:"hours"`
	Gap   float64 `json:"gap"`
}

type Total struct {
	Bal   int     `json:"bal"`
	Hours float64 `json:"hours"`
	Gap   float64 `json:"gap"`
}

type MachineDetail struct {
	ID          model.MachineID `json:"id"`
	Label       string          `json:"label"`
	TargetBal   float64         `json:"targetBal"`
	MatinDays   []Cell          `json:"matinDays"`
	SoirDays    []Cell          `json:"soirDays"`
	TotalDays   []Cell          `json:"totalDays"`
	MatinTotal  Total           `json:"matinTotal"`
	SoirTotal   Total           `json:"soirTotal"`
	GrandTotal  Total           `json:"grandTotal"`
	ProgressBal float64         `json:"progressBal"`
}

type ChartRow struct {
	Machine  model.MachineID `json:"machine"`
	Produced int             `json:"produced"`
	Target   float64         `json:"target"`
}

type Summary struct {
	WeekStart        string      `json:"weekStart"`
	Days             []string    `json:"days"`
	TotalTargetBal   float64     `json:"totalTargetBal"`
	TotalProducedBal int         `json:"totalProducedBal"`
	ProgressPercent  float64     `json:"progressPercent"`
	Matin            TeamMetrics `json:"matin"`
	Soir             TeamMetrics `json:"soir"`
}

// Engine computes metrics over the logs falling in one week window.
// It never mutates its inputs.
type Engine struct {
	configs model.Configs
	monday  time.Time
	days    []string
	logs    []model.ProductionLog
}

// New keeps the logs dated within [monday, monday+6].
func New(configs model.Configs, logs []model.ProductionLog, monday time.Time) *Engine {
	monday = calendar.Day(monday)
	e := &Engine{
		configs: configs,
		monday:  monday,
		days:    calendar.WindowDates(monday),
	}
	for _, l := range logs {
		if calendar.InWindow(l.Date, monday) {
			e.logs = append(e.logs, l)
		}
	}
	return e
}

func (e *Engine) Days() []string {
	return slices.Clone(e.days)
}

// Orphans returns the window's logs whose machine has no configuration.
func (e *Engine) Orphans() []model.ProductionLog {
	var out []model.ProductionLog
	for _, l := range e.logs {
		if _, ok := e.configs[l.MachineID]; !ok {
			out = append(out, l)
		}
	}
	return out
}

// Team aggregates every log of team. The gap only covers logs whose machine
// has a positive effective cadence, on both its standard and actual side.
func (e *Engine) Team(team model.Team) TeamMetrics {
	var m TeamMetrics
	var standard, actual float64
	for _, l := range e.logs {
		if l.Team != team {
			continue
		}
		m.ProducedBal += l.BalProduced
		m.Hours += l.Hours

		cfg, ok := e.configs[l.MachineID]
		if !ok {
			continue
		}
		if cad := cfg.EffectiveCadence(); cad > 0 {
			standard += float64(l.BalProduced) / cad
			actual += l.Hours
		}
	}
	if m.Hours > 0 {
		m.AvgCadence = int(math.Round(float64(m.ProducedBal) / m.Hours))
	}
	m.GapHours = standard - actual
	return m
}

// Machine returns the day-by-day breakdown of one machine. The second result
// is false when the machine has no configuration.
func (e *Engine) Machine(id model.MachineID) (MachineDetail, bool) {
	cfg, ok := e.configs[id]
	if !ok {
		return MachineDetail{}, false
	}
	cad := cfg.EffectiveCadence()

	var mine []model.ProductionLog
	for _, l := range e.logs {
		if l.MachineID == id {
			mine = append(mine, l)
		}
	}

	d := MachineDetail{
		ID:        id,
		Label:     id.Label(),
		TargetBal: cfg.TargetBal,
	}
	for _, day := range e.days {
		d.MatinDays = append(d.MatinDays, cell(mine, day, model.TeamMatin, cad))
		d.SoirDays = append(d.SoirDays, cell(mine, day, model.TeamSoir, cad))
		d.TotalDays = append(d.TotalDays, cell(mine, day, "", cad))
	}
	d.MatinTotal = total(mine, model.TeamMatin, cad)
	d.SoirTotal = total(mine, model.TeamSoir, cad)
	d.GrandTotal = total(mine, "", cad)
	d.ProgressBal = ProgressPercent(float64(d.GrandTotal.Bal), cfg.TargetBal)
	return d, true
}

// MachineTable returns the details of every active machine in display order.
func (e *Engine) MachineTable() []MachineDetail {
	var out []MachineDetail
	for _, id := range e.configs.Active() {
		if d, ok := e.Machine(id); ok {
			out = append(out, d)
		}
	}
	return out
}

// Chart returns produced versus target BAL per active machine.
func (e *Engine) Chart() []ChartRow {
	var out []ChartRow
	for _, id := range e.configs.Active() {
		row := ChartRow{Machine: id, Target: e.configs[id].TargetBal}
		for _, l := range e.logs {
			if l.MachineID == id {
				row.Produced += l.BalProduced
			}
		}
		out = append(out, row)
	}
	return out
}

func (e *Engine) Summary() Summary {
	s := Summary{
		WeekStart: calendar.FormatDate(e.monday),
		Days:      e.Days(),
		Matin:     e.Team(model.TeamMatin),
		Soir:      e.Team(model.TeamSoir),
	}
	for _, id := range e.configs.Active() {
		s.TotalTargetBal += e.configs[id].TargetBal
	}
	for _, l := range e.logs {
		s.TotalProducedBal += l.BalProduced
	}
	s.ProgressPercent = ProgressPercent(float64(s.TotalProducedBal), s.TotalTargetBal)
	return s
}

func cell(logs []model.ProductionLog, date string, team model.Team, cad float64) Cell {
	c := Cell{Date: date}
	for _, l := range logs {
		if l.Date != date || (team != "" && l.Team != team) {
			continue
		}
		c.Bal += l.BalProduced
		c.Hours += l.Hours
	}
	// No hours with a cadence leaves the gap undetermined and reported as 0.
	if cad > 0 && c.Hours > 0 {
		c.Gap = float64(c.Bal)/cad - c.Hours
	}
	return c
}

func total(logs []model.ProductionLog, team model.Team, cad float64) Total {
	var t Total
	for _, l := range logs {
		if team != "" && l.Team != team {
			continue
		}
		t.Bal += l.BalProduced
		t.Hours += l.Hours
	}
	if cad > 0 && t.Hours > 0 {
		t.Gap = float64(t.Bal)/cad - t.Hours
	}
	return t
}

// ProgressPercent is the raw, unclamped completion percentage.
func ProgressPercent(produced, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return produced / target * 100
}

// ProgressBar clamps a percentage to [0, 100] for bar-style display.
func ProgressBar(percent float64) float64 {
	return math.Max(0, math.Min(100, percent))
}

// ReferenceMonday picks the week a dashboard shows: the week of the latest
// log, else of the latest planning record, else of now.
func ReferenceMonday(logs []model.ProductionLog, planning []model.PlanningAssignment, now time.Time) time.Time {
	latest := ""
	for _, l := range logs {
		latest = max(latest, l.Date)
	}
	if latest == "" {
		for _, p := range planning {
			latest = max(latest, p.Date)
		}
	}
	if latest != "" {
		if t, err := calendar.ParseDate(latest); err == nil {
			return calendar.MondayOf(t)
		}
	}
	return calendar.MondayOf(now)
}
