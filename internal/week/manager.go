// Package week owns the week context being viewed (production, preparation or
// archive) and the procedures that reset and roll weeks over.
package week

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bal-board/internal/calendar"
	"bal-board/internal/model"
)

var (
	ErrReadOnly           = eris.New("week: archived weeks are read-only")
	ErrPreparationOnly    = eris.New("week: only the preparation week can be promoted")
	ErrNotCurrent         = eris.New("week: not the production week")
	ErrProductionDisabled = eris.New("week: production entry is disabled for this week")
	ErrUnknownWeek        = eris.New("week: unknown week")
)

// Store is the persistence the lifecycle needs.
type Store interface {
	GetForecasts(ctx context.Context, id int) (model.GlobalForecasts, error)
	SaveForecasts(ctx context.Context, id int, f model.GlobalForecasts) error
	ListConfigs(ctx context.Context, suffix string) (model.Configs, error)
	SaveConfigs(ctx context.Context, suffix string, cfgs model.Configs) error
	ListLogs(ctx context.Context) ([]model.ProductionLog, error)
	DeleteAllLogs(ctx context.Context) error
	ListPlanning(ctx context.Context) ([]model.PlanningAssignment, error)
	ListArchives(ctx context.Context) ([]model.WeeklyArchive, error)
	CreateArchive(ctx context.Context, a model.WeeklyArchive) error
}

// PersistError is a failed write whose local change has already been applied.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

type Option struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Kind      model.WeekKind `json:"kind"`
	StartDate string         `json:"startDate"`
}

type ManagerOption func(*Manager)

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithOffsetWeeks sets how many weeks ahead of today the production week lies.
func WithOffsetWeeks(n int) ManagerOption {
	return func(m *Manager) { m.offset = n }
}

func WithIDGenerator(gen func() string) ManagerOption {
	return func(m *Manager) { m.newID = gen }
}

// Manager holds the selected week context. Readers get copies; every change
// replaces the held context as a whole.
type Manager struct {
	store  Store
	now    func() time.Time
	offset int
	newID  func() string

	mu       sync.Mutex
	selected string
	week     model.WeekContext
	archives []model.WeeklyArchive
}

func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:  store,
		now:    time.Now,
		offset: 1,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Context returns a copy of the selected week.
func (m *Manager) Context() model.WeekContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.week.Clone()
}

func (m *Manager) SelectedID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

func (m *Manager) startOf(kind model.WeekKind) time.Time {
	off := m.offset
	if kind == model.WeekPreparation {
		off++
	}
	return calendar.PlanningStart(m.now(), off)
}

// Options lists the selectable weeks: production, preparation, then
// archives newest first.
func (m *Manager) Options() []Option {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, next := m.startOf(model.WeekCurrent), m.startOf(model.WeekPreparation)
	out := []Option{
		{ID: model.SelectCurrent, Label: calendar.WeekLabel(cur), Kind: model.WeekCurrent, StartDate: calendar.FormatDate(cur)},
		{ID: model.SelectNext, Label: calendar.WeekLabel(next), Kind: model.WeekPreparation, StartDate: calendar.FormatDate(next)},
	}
	for _, a := range m.archives {
		out = append(out, Option{ID: a.ID, Label: a.WeekLabel, Kind: model.WeekArchive, StartDate: a.StartDate})
	}
	return out
}

func (m *Manager) ReloadArchives(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reloadArchives(ctx)
}

func (m *Manager) reloadArchives(ctx context.Context) error {
	archives, err := m.store.ListArchives(ctx)
	if err != nil {
		return eris.Wrap(err, "week: list archives")
	}
	m.archives = archives
	return nil
}

// Select loads the week named id: "current", "next" or an archive id.
// Archives come from their stored snapshot and never read live records.
func (m *Manager) Select(ctx context.Context, id string) (model.WeekContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.selectLocked(ctx, id); err != nil {
		return model.WeekContext{}, err
	}
	return m.week.Clone(), nil
}

func (m *Manager) selectLocked(ctx context.Context, id string) error {
	var (
		w   model.WeekContext
		err error
	)
	switch id {
	case model.SelectCurrent:
		w, err = m.loadLive(ctx, model.WeekCurrent)
	case model.SelectNext:
		w, err = m.loadLive(ctx, model.WeekPreparation)
	default:
		w, err = m.loadArchive(id)
	}
	if err != nil {
		return err
	}
	m.selected = id
	m.week = w
	zap.L().Info("week selected",
		zap.String("id", id),
		zap.String("kind", string(w.Kind)),
		zap.String("label", w.Label),
		zap.Int("logs", len(w.Logs)),
		zap.Int("planning", len(w.Planning)),
	)
	return nil
}

func (m *Manager) loadLive(ctx context.Context, kind model.WeekKind) (model.WeekContext, error) {
	start := m.startOf(kind)
	w := model.WeekContext{
		Kind:      kind,
		Label:     calendar.WeekLabel(start),
		StartDate: calendar.FormatDate(start),
	}

	// Each loader fills its own variable; w is assembled after Wait.
	var (
		forecasts model.GlobalForecasts
		configs   model.Configs
		logs      []model.ProductionLog
		planning  []model.PlanningAssignment
	)
	forecastID, suffix := w.ForecastID(), w.ConfigSuffix()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := m.store.GetForecasts(gctx, forecastID)
		if err != nil {
			return eris.Wrap(err, "week: load forecasts")
		}
		forecasts = f
		return nil
	})
	g.Go(func() error {
		stored, err := m.store.ListConfigs(gctx, suffix)
		if err != nil {
			return eris.Wrap(err, "week: load machine configs")
		}
		configs = withDefaults(stored)
		return nil
	})
	if kind == model.WeekCurrent {
		g.Go(func() error {
			l, err := m.store.ListLogs(gctx)
			if err != nil {
				return eris.Wrap(err, "week: load logs")
			}
			logs = l
			return nil
		})
	}
	g.Go(func() error {
		p, err := m.store.ListPlanning(gctx)
		if err != nil {
			return eris.Wrap(err, "week: load planning")
		}
		planning = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.WeekContext{}, err
	}
	w.Forecasts = forecasts
	w.Configs = configs
	w.Logs = logs
	w.Planning = planning
	return w, nil
}

func (m *Manager) loadArchive(id string) (model.WeekContext, error) {
	for _, a := range m.archives {
		if a.ID != id {
			continue
		}
		data := a.Data.Clone()
		return model.WeekContext{
			Kind:      model.WeekArchive,
			Label:     a.WeekLabel,
			StartDate: a.StartDate,
			Forecasts: data.GlobalForecasts,
			Configs:   withDefaults(data.MachineConfigs),
			Logs:      data.Logs,
			Planning:  data.Planning,
		}, nil
	}
	return model.WeekContext{}, eris.Wrapf(ErrUnknownWeek, "week %q", id)
}

// withDefaults fills machines missing from stored with inactive zero configs.
func withDefaults(stored model.Configs) model.Configs {
	cfgs := model.DefaultConfigs()
	for id, c := range stored {
		if !id.Valid() {
			zap.L().Warn("ignoring config of unknown machine", zap.String("machine", string(id)))
			continue
		}
		c.ID = id
		cfgs[id] = c
	}
	return cfgs
}

// Apply runs a two-phase change on the selected week. local edits a copy of
// the context and may refuse the change by returning an error; the copy then
// replaces the held context, and persist runs after the lock is released so
// readers see the change without waiting for the store. A persist failure is
// returned as *PersistError and the local change is kept.
func (m *Manager) Apply(ctx context.Context, op string, local func(w *model.WeekContext) error, persist func(ctx context.Context, w model.WeekContext) error) error {
	next, err := m.commit(op, local)
	if err != nil || persist == nil {
		return err
	}
	if err := persist(ctx, next); err != nil {
		zap.L().Error("persist failed, local change kept", zap.String("op", op), zap.Error(err))
		return &PersistError{Op: op, Err: err}
	}
	return nil
}

// commit applies local to a copy of the selected week under the lock and
// returns a copy of the new context for persisting.
func (m *Manager) commit(op string, local func(w *model.WeekContext) error) (model.WeekContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.selected == "" {
		return model.WeekContext{}, eris.Wrap(ErrUnknownWeek, "no week selected")
	}
	if m.week.ReadOnly() {
		return model.WeekContext{}, eris.Wrap(ErrReadOnly, op)
	}
	next := m.week.Clone()
	if err := local(&next); err != nil {
		return model.WeekContext{}, err
	}
	m.week = next
	return next.Clone(), nil
}

// Reset clears the selected live week: logs (production week only),
// forecasts and machine configs go back to their zero defaults.
func (m *Manager) Reset(ctx context.Context) error {
	return m.Apply(ctx, "reset week",
		func(w *model.WeekContext) error {
			if w.Kind == model.WeekCurrent {
				w.Logs = nil
			}
			w.Forecasts = model.GlobalForecasts{}
			w.Configs = model.DefaultConfigs()
			return nil
		},
		func(ctx context.Context, w model.WeekContext) error {
			if w.Kind == model.WeekCurrent {
				if err := m.store.DeleteAllLogs(ctx); err != nil {
					return eris.Wrap(err, "delete logs")
				}
			}
			if err := m.store.SaveForecasts(ctx, w.ForecastID(), w.Forecasts); err != nil {
				return eris.Wrap(err, "save forecasts")
			}
			if err := m.store.SaveConfigs(ctx, w.ConfigSuffix(), w.Configs); err != nil {
				return eris.Wrap(err, "save machine configs")
			}
			return nil
		},
	)
}

// Promote rolls the preparation week into production. It must be called
// with the preparation week selected. Steps run in order and the first
// failure stops the procedure with a *PromotionError.
func (m *Manager) Promote(ctx context.Context) (model.WeeklyArchive, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.week.Kind != model.WeekPreparation {
		return model.WeeklyArchive{}, eris.Wrapf(ErrPreparationOnly, "selected %s", m.week.Kind)
	}

	fail := func(step string, err error) (model.WeeklyArchive, error) {
		zap.L().Error("week promotion failed", zap.String("step", step), zap.Error(err))
		return model.WeeklyArchive{}, &PromotionError{Step: step, Err: err}
	}

	current, err := m.loadLive(ctx, model.WeekCurrent)
	if err != nil {
		return fail(StepArchive, err)
	}
	prep, err := m.loadLive(ctx, model.WeekPreparation)
	if err != nil {
		return fail(StepArchive, err)
	}
	p, err := Promote(current, prep, m.newID(), m.now().UTC())
	if err != nil {
		return fail(StepArchive, err)
	}

	if err := m.store.CreateArchive(ctx, p.Archive); err != nil {
		return fail(StepArchive, err)
	}
	if err := m.store.SaveForecasts(ctx, model.ForecastIDCurrent, p.Current.Forecasts); err != nil {
		return fail(StepPromote, err)
	}
	if err := m.store.SaveConfigs(ctx, "", p.Current.Configs); err != nil {
		return fail(StepPromote, err)
	}
	if err := m.store.DeleteAllLogs(ctx); err != nil {
		return fail(StepClearLogs, err)
	}
	if err := m.store.SaveForecasts(ctx, model.ForecastIDPreparation, p.Preparation.Forecasts); err != nil {
		return fail(StepResetPreparation, err)
	}
	if err := m.store.SaveConfigs(ctx, model.NextSuffix, p.Preparation.Configs); err != nil {
		return fail(StepResetPreparation, err)
	}
	if err := m.reloadArchives(ctx); err != nil {
		return fail(StepReload, err)
	}
	if err := m.selectLocked(ctx, model.SelectCurrent); err != nil {
		return fail(StepReload, err)
	}

	zap.L().Info("week promoted",
		zap.String("archive_id", p.Archive.ID),
		zap.String("archived_week", p.Archive.WeekLabel),
		zap.Int("archived_logs", len(p.Archive.Data.Logs)),
	)
	return p.Archive, nil
}
