package store

import (
	"context"

	"github.com/rotisserie/eris"

	"bal-board/internal/model"
)

var ErrNotFound = eris.New("store: not found")

// Store is the persistence of the board. Machine configs are keyed by
// (machine, suffix), planning by (date, team), forecasts by context id.
type Store interface {
	// Forecasts; a missing record reads as zero values.
	GetForecasts(ctx context.Context, id int) (model.GlobalForecasts, error)
	SaveForecasts(ctx context.Context, id int, f model.GlobalForecasts) error

	// Machine configs
	ListConfigs(ctx context.Context, suffix string) (model.Configs, error)
	SaveConfigs(ctx context.Context, suffix string, cfgs model.Configs) error

	// Production logs
	ListLogs(ctx context.Context) ([]model.ProductionLog, error)
	SaveLog(ctx context.Context, log model.ProductionLog) error
	DeleteLog(ctx context.Context, id string) error
	DeleteAllLogs(ctx context.Context) error

	// Staff roster
	ListStaff(ctx context.Context) ([]model.StaffMember, error)
	SaveStaff(ctx context.Context, s model.StaffMember) error
	DeleteStaff(ctx context.Context, id string) error
	SetStaffInterim(ctx context.Context, id string, interim bool) error

	// Planning
	ListPlanning(ctx context.Context) ([]model.PlanningAssignment, error)
	UpsertPlanning(ctx context.Context, records []model.PlanningAssignment) error

	// Archives, newest first
	ListArchives(ctx context.Context) ([]model.WeeklyArchive, error)
	CreateArchive(ctx context.Context, a model.WeeklyArchive) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// planningID is the stored identity of a (date, team) record.
func planningID(date string, team model.Team) string {
	return date + "_" + string(team)
}
