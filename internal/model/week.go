package model

import (
	"slices"
	"time"
)

type WeekKind string

const (
	WeekCurrent     WeekKind = "CURRENT"
	WeekPreparation WeekKind = "PREPARATION"
	WeekArchive     WeekKind = "ARCHIVE"
)

// Selection ids for the two live contexts; any other id names an archive.
const (
	SelectCurrent = "current"
	SelectNext    = "next"
)

// WeekContext is everything one week view is computed from.
type WeekContext struct {
	Kind      WeekKind             `json:"kind"`
	Label     string               `json:"label"`
	StartDate string               `json:"startDate"`
	Forecasts GlobalForecasts      `json:"globalForecasts"`
	Configs   Configs              `json:"machineConfigs"`
	Logs      []ProductionLog      `json:"logs"`
	Planning  []PlanningAssignment `json:"planning"`
}

func (w WeekContext) ReadOnly() bool {
	return w.Kind == WeekArchive
}

// ConfigSuffix is the persisted suffix of machine configs for this context.
func (w WeekContext) ConfigSuffix() string {
	if w.Kind == WeekPreparation {
		return NextSuffix
	}
	return ""
}

func (w WeekContext) ForecastID() int {
	if w.Kind == WeekPreparation {
		return ForecastIDPreparation
	}
	return ForecastIDCurrent
}

func (w WeekContext) Clone() WeekContext {
	w.Configs = w.Configs.Clone()
	w.Logs = slices.Clone(w.Logs)
	w.Planning = ClonePlanning(w.Planning)
	return w
}

type ArchiveData struct {
	Logs            []ProductionLog      `json:"logs"`
	Planning        []PlanningAssignment `json:"planning"`
	MachineConfigs  Configs              `json:"machineConfigs"`
	GlobalForecasts GlobalForecasts      `json:"globalForecasts"`
}

func (d ArchiveData) Clone() ArchiveData {
	d.Logs = slices.Clone(d.Logs)
	d.Planning = ClonePlanning(d.Planning)
	d.MachineConfigs = d.MachineConfigs.Clone()
	return d
}

// WeeklyArchive is an immutable snapshot of a finished production week.
type WeeklyArchive struct {
	ID        string      `json:"id"`
	WeekLabel string      `json:"weekLabel"`
	StartDate string      `json:"startDate"`
	CreatedAt time.Time   `json:"createdAt"`
	Data      ArchiveData `json:"data"`
}
