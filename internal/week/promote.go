package week

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"bal-board/internal/model"
)

// Promotion steps, in execution order.
const (
	StepArchive          = "archive-current"
	StepPromote          = "promote-preparation"
	StepClearLogs        = "clear-logs"
	StepResetPreparation = "reset-preparation"
	StepReload           = "reload"
)

// PromotionError reports the step at which a promotion stopped. Steps before
// it are committed and are not rolled back.
type PromotionError struct {
	Step string
	Err  error
}

func (e *PromotionError) Error() string {
	return fmt.Sprintf("promotion failed at %s: %v", e.Step, e.Err)
}

func (e *PromotionError) Unwrap() error { return e.Err }

// Promotion is the outcome of rolling the preparation week into production.
type Promotion struct {
	Archive     model.WeeklyArchive
	Current     model.WeekContext
	Preparation model.WeekContext
}

// Promote computes the week rollover without touching any store: the current
// week becomes an archive, the preparation values become current, and the
// preparation targets go back to zero. The inputs are not modified.
func Promote(current, prep model.WeekContext, archiveID string, now time.Time) (Promotion, error) {
	if current.Kind != model.WeekCurrent {
		return Promotion{}, eris.Wrapf(ErrNotCurrent, "got %s", current.Kind)
	}
	if prep.Kind != model.WeekPreparation {
		return Promotion{}, eris.Wrapf(ErrPreparationOnly, "got %s", prep.Kind)
	}

	snap := current.Clone()
	archive := model.WeeklyArchive{
		ID:        archiveID,
		WeekLabel: current.Label,
		StartDate: current.StartDate,
		CreatedAt: now,
		Data: model.ArchiveData{
			Logs:            snap.Logs,
			Planning:        snap.Planning,
			MachineConfigs:  snap.Configs,
			GlobalForecasts: snap.Forecasts,
		},
	}

	promoted := prep.Clone()
	next := model.WeekContext{
		Kind:      model.WeekCurrent,
		Label:     current.Label,
		StartDate: current.StartDate,
		Forecasts: promoted.Forecasts,
		Configs:   promoted.Configs,
		Planning:  model.ClonePlanning(current.Planning),
	}

	resetPrep := prep.Clone()
	resetPrep.Forecasts.TotalVolume = 0
	resetPrep.Forecasts.TotalWeight = 0
	resetPrep.Forecasts.PredictedBal = 0
	for id, c := range resetPrep.Configs {
		c.TargetBal = 0
		c.TargetVolume = 0
		resetPrep.Configs[id] = c
	}
	resetPrep.Logs = nil

	return Promotion{Archive: archive, Current: next, Preparation: resetPrep}, nil
}
