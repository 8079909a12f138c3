package store

import (
	"time"

	"go.uber.org/zap"

	"bal-board/internal/model"
)

type configDoc struct {
	ID            string          `bson:"_id"`
	Machine       model.MachineID `bson:"machine_id"`
	Suffix        string          `bson:"suffix"`
	Active        bool            `bson:"active"`
	TargetBal     float64         `bson:"target_bal"`
	TargetVolume  float64         `bson:"target_volume"`
	TargetCadence float64         `bson:"target_cadence"`
}

func toConfigDoc(suffix string, c model.MachineConfig) configDoc {
	return configDoc{
		ID:            model.ConfigDocID(c.ID, suffix),
		Machine:       c.ID,
		Suffix:        suffix,
		Active:        c.Active,
		TargetBal:     c.TargetBal,
		TargetVolume:  c.TargetVolume,
		TargetCadence: c.TargetCadence,
	}
}

func (d configDoc) config() model.MachineConfig {
	return model.MachineConfig{
		ID:            d.Machine,
		Active:        d.Active,
		TargetBal:     d.TargetBal,
		TargetVolume:  d.TargetVolume,
		TargetCadence: d.TargetCadence,
	}
}

type forecastDoc struct {
	ID                    int `bson:"_id"`
	model.GlobalForecasts `bson:",inline"`
}

type planningDoc struct {
	ID          string                           `bson:"_id" json:"id"`
	Date        string                           `bson:"date" json:"date"`
	Team        model.Team                       `bson:"team" json:"team"`
	Assignments map[string]model.StaffAssignment `bson:"assignments" json:"assignments"`
}

func toPlanningDoc(p model.PlanningAssignment) planningDoc {
	return planningDoc{
		ID:          planningID(p.Date, p.Team),
		Date:        p.Date,
		Team:        p.Team,
		Assignments: p.Assignments.ToStrings(),
	}
}

// record converts back, dropping cells whose key cannot be parsed.
func (d planningDoc) record() model.PlanningAssignment {
	cells, bad := model.AssignmentsFromStrings(d.Assignments)
	if len(bad) > 0 {
		zap.L().Warn("skipping malformed assignment keys",
			zap.String("date", d.Date),
			zap.String("team", string(d.Team)),
			zap.Strings("keys", bad),
		)
	}
	return model.PlanningAssignment{Date: d.Date, Team: d.Team, Assignments: cells}
}

func planningDocs(in []model.PlanningAssignment) []planningDoc {
	out := make([]planningDoc, 0, len(in))
	for _, p := range in {
		out = append(out, toPlanningDoc(p))
	}
	return out
}

func planningRecords(in []planningDoc) []model.PlanningAssignment {
	out := make([]model.PlanningAssignment, 0, len(in))
	for _, d := range in {
		out = append(out, d.record())
	}
	return out
}

type archiveDataDoc struct {
	Logs            []model.ProductionLog          `bson:"logs" json:"logs"`
	Planning        []planningDoc                  `bson:"planning" json:"planning"`
	MachineConfigs  map[string]model.MachineConfig `bson:"machine_configs" json:"machineConfigs"`
	GlobalForecasts model.GlobalForecasts          `bson:"global_forecasts" json:"globalForecasts"`
}

type archiveDoc struct {
	ID        string         `bson:"_id"`
	WeekLabel string         `bson:"week_label"`
	StartDate string         `bson:"start_date"`
	CreatedAt time.Time      `bson:"created_at"`
	Data      archiveDataDoc `bson:"data"`
}

func toArchiveData(d model.ArchiveData) archiveDataDoc {
	cfgs := make(map[string]model.MachineConfig, len(d.MachineConfigs))
	for id, c := range d.MachineConfigs {
		cfgs[string(id)] = c
	}
	return archiveDataDoc{
		Logs:            d.Logs,
		Planning:        planningDocs(d.Planning),
		MachineConfigs:  cfgs,
		GlobalForecasts: d.GlobalForecasts,
	}
}

func (d archiveDataDoc) data() model.ArchiveData {
	cfgs := make(model.Configs, len(d.MachineConfigs))
	for id, c := range d.MachineConfigs {
		cfgs[model.MachineID(id)] = c
	}
	return model.ArchiveData{
		Logs:            d.Logs,
		Planning:        planningRecords(d.Planning),
		MachineConfigs:  cfgs,
		GlobalForecasts: d.GlobalForecasts,
	}
}

func toArchiveDoc(a model.WeeklyArchive) archiveDoc {
	return archiveDoc{
		ID:        a.ID,
		WeekLabel: a.WeekLabel,
		StartDate: a.StartDate,
		CreatedAt: a.CreatedAt.UTC(),
		Data:      toArchiveData(a.Data),
	}
}

func (d archiveDoc) archive() model.WeeklyArchive {
	return model.WeeklyArchive{
		ID:        d.ID,
		WeekLabel: d.WeekLabel,
		StartDate: d.StartDate,
		CreatedAt: d.CreatedAt,
		Data:      d.Data.data(),
	}
}
