// Package service drives the board for one operator session: the selected
// week, the staff roster and the planning selection, with every mutation
// applied locally first and then persisted.
package service

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
	"bal-board/internal/hr"
	"bal-board/internal/metrics"
	"bal-board/internal/model"
	"bal-board/internal/planning"
	"bal-board/internal/report"
	"bal-board/internal/store"
	"bal-board/internal/week"
)

var (
	ErrConfirmationRequired = eris.New("service: confirmation required")
	ErrInvalidValue         = eris.New("service: invalid value")
	ErrNotFound             = store.ErrNotFound
)

// ConfirmationError asks the operator to confirm a destructive command.
// MessageID names the localized prompt.
type ConfirmationError struct {
	MessageID string
	Data      map[string]any
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("confirmation required: %s", e.MessageID)
}

func (e *ConfirmationError) Unwrap() error { return ErrConfirmationRequired }

func confirmation(id string, data map[string]any) error {
	return &ConfirmationError{MessageID: id, Data: data}
}

// Notifier receives operator-facing notices about week lifecycle events.
type Notifier interface {
	Notify(ctx context.Context, messageID string, data map[string]any) error
}

type Option func(*Board)

func WithNotifier(n Notifier) Option {
	return func(b *Board) { b.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(b *Board) { b.newID = gen }
}

type Board struct {
	store    store.Store
	weeks    *week.Manager
	notifier Notifier
	now      func() time.Time
	newID    func() string

	mu      sync.Mutex
	staff   []model.StaffMember
	planner *planning.Planner
}

func NewBoard(st store.Store, weeks *week.Manager, opts ...Option) (*Board, error) {
	b := &Board{
		store: st,
		weeks: weeks,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(b)
	}
	p, err := planning.NewPlanner(calendar.FormatDate(b.now()))
	if err != nil {
		return nil, err
	}
	b.planner = p
	return b, nil
}

// Load reads the roster and the archive list, then selects the production week.
func (b *Board) Load(ctx context.Context) error {
	var staff []model.StaffMember
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := b.store.ListStaff(gctx)
		if err != nil {
			return eris.Wrap(err, "service: load staff")
		}
		staff = s
		return nil
	})
	g.Go(func() error {
		return b.weeks.ReloadArchives(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	b.staff = staff
	b.mu.Unlock()

	_, err := b.SelectWeek(ctx, model.SelectCurrent)
	return err
}

type WeekInfo struct {
	ID        string         `json:"id"`
	Kind      model.WeekKind `json:"kind"`
	Label     string         `json:"label"`
	StartDate string         `json:"startDate"`
	ReadOnly  bool           `json:"readOnly"`
}

func (b *Board) weekInfo(w model.WeekContext) WeekInfo {
	return WeekInfo{
		ID:        b.weeks.SelectedID(),
		Kind:      w.Kind,
		Label:     w.Label,
		StartDate: w.StartDate,
		ReadOnly:  w.ReadOnly(),
	}
}

type WeekList struct {
	Selected string        `json:"selected"`
	Options  []week.Option `json:"options"`
}

func (b *Board) Weeks() WeekList {
	return WeekList{Selected: b.weeks.SelectedID(), Options: b.weeks.Options()}
}

// SelectWeek switches the board to id and moves the planning selection to
// the start of that week.
func (b *Board) SelectWeek(ctx context.Context, id string) (WeekInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, err := b.weeks.Select(ctx, id)
	if err != nil {
		return WeekInfo{}, err
	}
	if err := b.planner.SelectWeek(w.StartDate); err != nil {
		return WeekInfo{}, err
	}
	return b.weekInfo(w), nil
}

func (b *Board) Staff() []model.StaffMember {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.StaffMember, len(b.staff))
	copy(out, b.staff)
	return out
}

type Dashboard struct {
	Week            WeekInfo                           `json:"week"`
	ReferenceMonday string                             `json:"referenceMonday"`
	Summary         metrics.Summary                    `json:"summary"`
	Teams           map[model.Team]metrics.TeamMetrics `json:"teams"`
	Machines        []metrics.MachineDetail            `json:"machines"`
	Chart           []metrics.ChartRow                 `json:"chart"`
	Roles           hr.RoleBreakdown                   `json:"roles"`
	OrphanLogs      int                                `json:"orphanLogs"`
}

// Dashboard computes the production view of the selected week around its
// reference Monday: the latest log date, else the latest planning date, else today.
func (b *Board) Dashboard() Dashboard {
	w := b.weeks.Context()
	monday := metrics.ReferenceMonday(w.Logs, w.Planning, b.now())
	eng := metrics.New(w.Configs, w.Logs, monday)

	orphans := eng.Orphans()
	if len(orphans) > 0 {
		ids := make([]string, 0, len(orphans))
		for _, l := range orphans {
			ids = append(ids, l.ID)
		}
		zap.L().Warn("logs reference unconfigured machines", zap.Strings("log_ids", ids))
	}

	teams := make(map[model.Team]metrics.TeamMetrics, len(model.Teams))
	for _, t := range model.Teams {
		teams[t] = eng.Team(t)
	}
	return Dashboard{
		Week:            b.weekInfo(w),
		ReferenceMonday: calendar.FormatDate(monday),
		Summary:         eng.Summary(),
		Teams:           teams,
		Machines:        eng.MachineTable(),
		Chart:           eng.Chart(),
		Roles:           hr.Roles(w.Planning, w.Logs, monday),
		OrphanLogs:      len(orphans),
	}
}

type HRView struct {
	Week      WeekInfo              `json:"week"`
	Forecasts model.GlobalForecasts `json:"globalForecasts"`
	Configs   []model.MachineConfig `json:"machineConfigs"`
	Coarse    hr.CoarseEstimate     `json:"coarse"`
	Precise   hr.PreciseEstimate    `json:"precise"`
}

// HR computes both staffing estimators for the selected week's configuration.
func (b *Board) HR() HRView {
	w := b.weeks.Context()
	staff := b.Staff()

	cfgs := make([]model.MachineConfig, 0, len(model.MachineIDs))
	for _, id := range model.MachineIDs {
		cfgs = append(cfgs, w.Configs[id])
	}
	return HRView{
		Week:      b.weekInfo(w),
		Forecasts: w.Forecasts,
		Configs:   cfgs,
		Coarse:    hr.Coarse(w.Configs, staff),
		Precise:   hr.Precise(w.Configs, staff),
	}
}

// InterimHours tracks interim staff over the dashboard's reference week.
func (b *Board) InterimHours() hr.InterimReport {
	w := b.weeks.Context()
	monday := metrics.ReferenceMonday(w.Logs, w.Planning, b.now())
	return hr.InterimHours(b.Staff(), w.Planning, w.Logs, monday)
}

// WeeklyReport gathers the figures of the printable weekly report.
func (b *Board) WeeklyReport() report.Weekly {
	d := b.Dashboard()
	h := b.HR()
	return report.Weekly{
		Label:     d.Week.Label,
		Kind:      string(d.Week.Kind),
		Generated: b.now(),
		Summary:   d.Summary,
		Machines:  d.Machines,
		Roles:     d.Roles,
		Precise:   h.Precise,
		Interim:   b.InterimHours(),
	}
}
