package service

import (
	"context"

	"github.com/rotisserie/eris"

	"bal-board/internal/model"
	"bal-board/internal/planning"
)

type PlanningView struct {
	Week      WeekInfo                 `json:"week"`
	Selection planning.Selection       `json:"selection"`
	WeekDates []string                 `json:"weekDates"`
	Record    model.PlanningAssignment `json:"record"`
}

func (b *Board) Planning() PlanningView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.planningView()
}

func (b *Board) planningView() PlanningView {
	w := b.weeks.Context()
	return PlanningView{
		Week:      b.weekInfo(w),
		Selection: b.planner.Selection(),
		WeekDates: b.planner.WeekDates(),
		Record:    b.planner.Current(w.Planning),
	}
}

// PlanningSelection changes the fields that are set, in the order team,
// week, date, mode.
type PlanningSelection struct {
	Team model.Team    `json:"team,omitempty"`
	Week string        `json:"week,omitempty"`
	Date string        `json:"date,omitempty"`
	Mode planning.Mode `json:"mode,omitempty"`
}

func (b *Board) SelectPlanning(sel PlanningSelection) (PlanningView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sel.Team != "" {
		if err := b.planner.SelectTeam(sel.Team); err != nil {
			return PlanningView{}, eris.Wrap(ErrInvalidValue, err.Error())
		}
	}
	if sel.Week != "" {
		if err := b.planner.SelectWeek(sel.Week); err != nil {
			return PlanningView{}, eris.Wrap(ErrInvalidValue, err.Error())
		}
	}
	if sel.Date != "" {
		if err := b.planner.SelectDate(sel.Date); err != nil {
			return PlanningView{}, eris.Wrap(ErrInvalidValue, err.Error())
		}
	}
	if sel.Mode != "" {
		if err := b.planner.SetMode(sel.Mode); err != nil {
			return PlanningView{}, eris.Wrap(ErrInvalidValue, err.Error())
		}
	}
	return b.planningView(), nil
}

// CellEdit is an operator edit of one planning cell. Name and status may be
// edited together; the status wins over the roster's interim flag.
type CellEdit struct {
	Key       model.AssignmentKey `json:"key"`
	Name      *string             `json:"name,omitempty"`
	IsInterim *bool               `json:"isInterim,omitempty"`
}

// editor is the planner selection and roster an edit is computed from. It is
// copied under b.mu so the store write can run without holding the lock.
type editor struct {
	planner planning.Planner
	staff   []model.StaffMember
}

func (b *Board) editorLocked() *editor {
	return &editor{planner: *b.planner, staff: b.staff}
}

// applyPlanning commits updates produced by build from the current planning
// and upserts them by (date, team). It must be called without b.mu held.
func (b *Board) applyPlanning(ctx context.Context, op string, build func(current []model.PlanningAssignment) ([]model.PlanningAssignment, error)) ([]model.PlanningAssignment, error) {
	var updates []model.PlanningAssignment
	err := b.weeks.Apply(ctx, op,
		func(w *model.WeekContext) error {
			u, err := build(w.Planning)
			if err != nil {
				return err
			}
			updates = u
			w.Planning = planning.Upsert(w.Planning, updates)
			return nil
		},
		func(ctx context.Context, _ model.WeekContext) error {
			return b.store.UpsertPlanning(ctx, updates)
		},
	)
	return updates, err
}

// SetCell edits one cell and spreads it over the dates of the current mode.
func (b *Board) SetCell(ctx context.Context, edit CellEdit) ([]model.PlanningAssignment, error) {
	if !edit.Key.Machine.Valid() || !edit.Key.Role.Valid() || edit.Key.Slot < 0 {
		return nil, eris.Wrapf(ErrInvalidValue, "cell %s", edit.Key)
	}
	if edit.Name == nil && edit.IsInterim == nil {
		return nil, nil
	}

	b.mu.Lock()
	e := b.editorLocked()
	b.mu.Unlock()

	return b.applyPlanning(ctx, "set planning cell", func(current []model.PlanningAssignment) ([]model.PlanningAssignment, error) {
		value := e.planner.Current(current).Assignments[edit.Key].Clone()
		if edit.Name != nil {
			value = e.planner.EditName(current, e.staff, edit.Key, *edit.Name)
		}
		if edit.IsInterim != nil {
			value.IsInterim = *edit.IsInterim
		}
		return e.planner.Propagate(current, edit.Key, value), nil
	})
}

// PropagateDay copies the selected day over the team's other working days.
func (b *Board) PropagateDay(ctx context.Context, confirm bool) ([]model.PlanningAssignment, error) {
	b.mu.Lock()
	if err := b.writable(); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	e := b.editorLocked()
	b.mu.Unlock()

	if !confirm {
		sel := e.planner.Selection()
		id := "confirm.copy_day"
		if _, empty := e.planner.CopyDay(b.weeks.Context().Planning); empty {
			id = "confirm.copy_day_empty"
		}
		return nil, confirmation(id, map[string]any{"Date": sel.Date, "Team": string(sel.Team)})
	}
	return b.applyPlanning(ctx, "copy day to week", func(current []model.PlanningAssignment) ([]model.PlanningAssignment, error) {
		updates, _ := e.planner.CopyDay(current)
		return updates, nil
	})
}

// CopyPreviousWeek copies the team's previous week onto the selected one.
// It fails with planning.ErrNoSourceData, writing nothing, when the previous
// week is empty.
func (b *Board) CopyPreviousWeek(ctx context.Context, confirm bool) ([]model.PlanningAssignment, error) {
	b.mu.Lock()
	if err := b.writable(); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	e := b.editorLocked()
	b.mu.Unlock()

	if _, err := e.planner.CopyPreviousWeek(b.weeks.Context().Planning); err != nil {
		return nil, err
	}
	if !confirm {
		sel := e.planner.Selection()
		return nil, confirmation("confirm.copy_previous_week", map[string]any{"Week": sel.WeekStart, "Team": string(sel.Team)})
	}
	return b.applyPlanning(ctx, "copy previous week", e.planner.CopyPreviousWeek)
}

// HoursOverride sets or clears (Hours nil) the hours credited to one filled cell.
type HoursOverride struct {
	Date  string              `json:"date"`
	Team  model.Team          `json:"team"`
	Key   model.AssignmentKey `json:"key"`
	Hours *float64            `json:"hours"`
}

func (b *Board) SetHoursOverride(ctx context.Context, o HoursOverride) error {
	if o.Hours != nil && *o.Hours < 0 {
		return eris.Wrapf(ErrInvalidValue, "hours %v", *o.Hours)
	}

	_, err := b.applyPlanning(ctx, "set hours override", func(current []model.PlanningAssignment) ([]model.PlanningAssignment, error) {
		rec, ok := planning.Lookup(current, o.Date, o.Team)
		if !ok {
			return nil, eris.Wrapf(ErrNotFound, "planning %s %s", o.Date, o.Team)
		}
		cell, ok := rec.Assignments[o.Key]
		if !ok || !cell.Filled() {
			return nil, eris.Wrapf(ErrNotFound, "cell %s on %s %s", o.Key, o.Date, o.Team)
		}
		rec = rec.Clone()
		cell = cell.Clone()
		cell.HoursOverride = nil
		if o.Hours != nil {
			h := *o.Hours
			cell.HoursOverride = &h
		}
		rec.Assignments[o.Key] = cell
		return []model.PlanningAssignment{rec}, nil
	})
	return err
}

// Suggestions lists roster names that can fill key on the selected day.
func (b *Board) Suggestions(key *model.AssignmentKey) []planning.Suggestion {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec := b.planner.Current(b.weeks.Context().Planning)
	return planning.Suggestions(b.staff, rec, key)
}
