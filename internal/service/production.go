package service

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bal-board/internal/calendar"
	"bal-board/internal/model"
	"bal-board/internal/week"
)

// ConfigPatch changes the fields that are set.
type ConfigPatch struct {
	Active        *bool    `json:"active,omitempty"`
	TargetBal     *float64 `json:"targetBal,omitempty"`
	TargetVolume  *float64 `json:"targetVolume,omitempty"`
	TargetCadence *float64 `json:"targetCadence,omitempty"`
}

func (p ConfigPatch) apply(c model.MachineConfig) (model.MachineConfig, error) {
	for _, v := range []*float64{p.TargetBal, p.TargetVolume, p.TargetCadence} {
		if v != nil && *v < 0 {
			return c, eris.Wrapf(ErrInvalidValue, "negative target %v", *v)
		}
	}
	if p.Active != nil {
		c.Active = *p.Active
	}
	if p.TargetBal != nil {
		c.TargetBal = *p.TargetBal
	}
	if p.TargetVolume != nil {
		c.TargetVolume = *p.TargetVolume
	}
	if p.TargetCadence != nil {
		c.TargetCadence = *p.TargetCadence
	}
	return c, nil
}

// UpdateMachineConfig edits one machine of the selected week and writes it to
// that week's records.
func (b *Board) UpdateMachineConfig(ctx context.Context, id model.MachineID, patch ConfigPatch) (model.MachineConfig, error) {
	if !id.Valid() {
		return model.MachineConfig{}, eris.Wrapf(ErrInvalidValue, "machine %q", id)
	}
	var updated model.MachineConfig
	err := b.weeks.Apply(ctx, "update machine config",
		func(w *model.WeekContext) error {
			c, err := patch.apply(w.Configs[id])
			if err != nil {
				return err
			}
			c.ID = id
			w.Configs[id] = c
			updated = c
			return nil
		},
		func(ctx context.Context, w model.WeekContext) error {
			return b.store.SaveConfigs(ctx, w.ConfigSuffix(), model.Configs{id: updated})
		},
	)
	return updated, err
}

func (b *Board) UpdateForecasts(ctx context.Context, f model.GlobalForecasts) error {
	for _, v := range []float64{f.TotalVolume, f.TotalWeight, f.PredictedBal, f.MaxDocsPerHandful, f.MaxWeightPerHandful} {
		if v < 0 {
			return eris.Wrapf(ErrInvalidValue, "negative forecast %v", v)
		}
	}
	return b.weeks.Apply(ctx, "update forecasts",
		func(w *model.WeekContext) error {
			w.Forecasts = f
			return nil
		},
		func(ctx context.Context, w model.WeekContext) error {
			return b.store.SaveForecasts(ctx, w.ForecastID(), w.Forecasts)
		},
	)
}

// LogEntry is one production line as typed by the operator.
type LogEntry struct {
	Date    string          `json:"date"`
	Team    model.Team      `json:"team"`
	Machine model.MachineID `json:"machineId"`
	Bal     string          `json:"bal"`
	Hours   string          `json:"hours"`
}

func (e LogEntry) validate() error {
	if _, err := calendar.ParseDate(e.Date); err != nil {
		return eris.Wrapf(ErrInvalidValue, "date %q", e.Date)
	}
	if !e.Team.Valid() {
		return eris.Wrapf(ErrInvalidValue, "team %q", e.Team)
	}
	if !e.Machine.Valid() {
		return eris.Wrapf(ErrInvalidValue, "machine %q", e.Machine)
	}
	return nil
}

// parse reads the BAL count and the hours. Hours accept a decimal comma.
func (e LogEntry) parse() (int, float64, error) {
	bal, err := strconv.Atoi(strings.TrimSpace(e.Bal))
	if err != nil || bal < 0 {
		return 0, 0, eris.Wrapf(ErrInvalidValue, "bal %q", e.Bal)
	}
	hours, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(e.Hours), ",", "."), 64)
	if err != nil || hours < 0 {
		return 0, 0, eris.Wrapf(ErrInvalidValue, "hours %q", e.Hours)
	}
	return bal, hours, nil
}

func (e LogEntry) blank() bool {
	return strings.TrimSpace(e.Bal) == "" && strings.TrimSpace(e.Hours) == ""
}

func findLog(logs []model.ProductionLog, date string, team model.Team, machine model.MachineID) int {
	return slices.IndexFunc(logs, func(l model.ProductionLog) bool {
		return l.Date == date && l.Team == team && l.MachineID == machine
	})
}

func productionWeek(w *model.WeekContext) error {
	if w.Kind != model.WeekCurrent {
		return eris.Wrapf(week.ErrProductionDisabled, "week %s", w.Kind)
	}
	return nil
}

// SaveLogEntry records a production line, updating the existing log of the
// same (date, team, machine) when there is one. A blank entry is a no-op and
// returns false. Values that do not parse are rejected before anything is
// written.
func (b *Board) SaveLogEntry(ctx context.Context, e LogEntry) (model.ProductionLog, bool, error) {
	if err := e.validate(); err != nil {
		return model.ProductionLog{}, false, err
	}
	if e.blank() {
		return model.ProductionLog{}, false, nil
	}
	bal, hours, err := e.parse()
	if err != nil {
		zap.L().Warn("production entry rejected",
			zap.String("date", e.Date),
			zap.String("team", string(e.Team)),
			zap.String("machine", string(e.Machine)),
			zap.Error(err),
		)
		return model.ProductionLog{}, false, err
	}

	var saved model.ProductionLog
	err = b.weeks.Apply(ctx, "save production log",
		func(w *model.WeekContext) error {
			if err := productionWeek(w); err != nil {
				return err
			}
			if i := findLog(w.Logs, e.Date, e.Team, e.Machine); i >= 0 {
				w.Logs[i].BalProduced = bal
				w.Logs[i].Hours = hours
				saved = w.Logs[i]
				return nil
			}
			saved = model.ProductionLog{
				ID:          b.newID(),
				Date:        e.Date,
				MachineID:   e.Machine,
				Team:        e.Team,
				BalProduced: bal,
				Hours:       hours,
			}
			w.Logs = append(w.Logs, saved)
			return nil
		},
		func(ctx context.Context, _ model.WeekContext) error {
			return b.store.SaveLog(ctx, saved)
		},
	)
	if err != nil {
		var perr *week.PersistError
		if !errors.As(err, &perr) {
			return model.ProductionLog{}, false, err
		}
		return saved, true, err
	}
	return saved, true, nil
}

// ClearLogEntry deletes the log of (date, team, machine) if there is one.
func (b *Board) ClearLogEntry(ctx context.Context, date string, team model.Team, machine model.MachineID) error {
	e := LogEntry{Date: date, Team: team, Machine: machine}
	if err := e.validate(); err != nil {
		return err
	}
	var id string
	return b.weeks.Apply(ctx, "clear production log",
		func(w *model.WeekContext) error {
			if err := productionWeek(w); err != nil {
				return err
			}
			i := findLog(w.Logs, date, team, machine)
			if i < 0 {
				return nil
			}
			id = w.Logs[i].ID
			w.Logs = slices.Delete(w.Logs, i, i+1)
			return nil
		},
		func(ctx context.Context, _ model.WeekContext) error {
			if id == "" {
				return nil
			}
			return b.store.DeleteLog(ctx, id)
		},
	)
}

// DeleteLog removes a log by id from the production week history.
func (b *Board) DeleteLog(ctx context.Context, id string) error {
	return b.weeks.Apply(ctx, "delete production log",
		func(w *model.WeekContext) error {
			if err := productionWeek(w); err != nil {
				return err
			}
			i := slices.IndexFunc(w.Logs, func(l model.ProductionLog) bool { return l.ID == id })
			if i < 0 {
				return eris.Wrapf(ErrNotFound, "production log %s", id)
			}
			w.Logs = slices.Delete(w.Logs, i, i+1)
			return nil
		},
		func(ctx context.Context, _ model.WeekContext) error {
			return b.store.DeleteLog(ctx, id)
		},
	)
}

// Logs returns the production logs of the selected week, newest first.
func (b *Board) Logs() []model.ProductionLog {
	logs := b.weeks.Context().Logs
	slices.SortStableFunc(logs, func(a, c model.ProductionLog) int {
		if a.Date != c.Date {
			return strings.Compare(c.Date, a.Date)
		}
		return strings.Compare(string(a.Team), string(c.Team))
	})
	return logs
}
