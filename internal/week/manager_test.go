package week

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bal-board/internal/model"
)

// memStore is an in-memory Store that records the order of writes and can
// fail a named call.
type memStore struct {
	mu        sync.Mutex
	forecasts map[int]model.GlobalForecasts
	configs   map[string]model.Configs
	logs      []model.ProductionLog
	planning  []model.PlanningAssignment
	archives  []model.WeeklyArchive
	calls     []string
	failOn    map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		forecasts: map[int]model.GlobalForecasts{},
		configs:   map[string]model.Configs{},
		failOn:    map[string]error{},
	}
}

func (s *memStore) call(name string) error {
	s.calls = append(s.calls, name)
	return s.failOn[name]
}

func (s *memStore) GetForecasts(_ context.Context, id int) (model.GlobalForecasts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forecasts[id], nil
}

func (s *memStore) SaveForecasts(_ context.Context, id int, f model.GlobalForecasts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("SaveForecasts"); err != nil {
		return err
	}
	s.forecasts[id] = f
	return nil
}

func (s *memStore) ListConfigs(_ context.Context, suffix string) (model.Configs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configs[suffix].Clone(), nil
}

func (s *memStore) SaveConfigs(_ context.Context, suffix string, cfgs model.Configs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("SaveConfigs" + suffix); err != nil {
		return err
	}
	s.configs[suffix] = cfgs.Clone()
	return nil
}

func (s *memStore) ListLogs(context.Context) ([]model.ProductionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.logs), nil
}

func (s *memStore) DeleteAllLogs(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("DeleteAllLogs"); err != nil {
		return err
	}
	s.logs = nil
	return nil
}

func (s *memStore) ListPlanning(context.Context) ([]model.PlanningAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ClonePlanning(s.planning), nil
}

func (s *memStore) ListArchives(context.Context) ([]model.WeeklyArchive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.WeeklyArchive, 0, len(s.archives))
	for i := len(s.archives) - 1; i >= 0; i-- {
		a := s.archives[i]
		a.Data = a.Data.Clone()
		out = append(out, a)
	}
	return out, nil
}

func (s *memStore) CreateArchive(_ context.Context, a model.WeeklyArchive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call("CreateArchive"); err != nil {
		return err
	}
	a.Data = a.Data.Clone()
	s.archives = append(s.archives, a)
	return nil
}

var fixedNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func newManager(s *memStore) *Manager {
	n := 0
	return NewManager(s,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { n++; return "archive-" + string(rune('0'+n)) }),
	)
}

func seeded() *memStore {
	s := newMemStore()
	s.forecasts[model.ForecastIDCurrent] = model.GlobalForecasts{TotalVolume: 100, PredictedBal: 9000}
	s.forecasts[model.ForecastIDPreparation] = model.GlobalForecasts{TotalVolume: 200, PredictedBal: 3000, MaxDocsPerHandful: 40, MaxWeightPerHandful: 2.5}
	s.configs[""] = model.Configs{
		model.MachineM1: {ID: model.MachineM1, Active: true, TargetBal: 9000, TargetVolume: 50, TargetCadence: 1000},
	}
	s.configs[model.NextSuffix] = model.Configs{
		model.MachineM1: {ID: model.MachineM1, Active: true, TargetBal: 3000, TargetVolume: 20, TargetCadence: 1200},
	}
	s.logs = []model.ProductionLog{
		{ID: "l1", Date: "2025-03-18", MachineID: model.MachineM1, Team: model.TeamMatin, BalProduced: 4000, Hours: 4},
	}
	s.planning = []model.PlanningAssignment{
		{Date: "2025-03-18", Team: model.TeamMatin, Assignments: model.Assignments{
			{Machine: model.MachineM1, Role: model.RolePIMA}: {Name: "Alice"},
		}},
	}
	return s
}

func TestSelectLiveWeeks(t *testing.T) {
	ctx := context.Background()
	m := newManager(seeded())

	cur, err := m.Select(ctx, model.SelectCurrent)
	require.NoError(t, err)
	assert.Equal(t, model.WeekCurrent, cur.Kind)
	assert.Equal(t, "2025-03-17", cur.StartDate)
	assert.Equal(t, "S12 DU 17/03/2025 AU 23/03/2025", cur.Label)
	assert.Len(t, cur.Logs, 1)
	assert.Len(t, cur.Planning, 1)
	assert.InDelta(t, 9000.0, cur.Configs[model.MachineM1].TargetBal, 1e-9)
	assert.Len(t, cur.Configs, len(model.MachineIDs))
	assert.False(t, cur.Configs[model.MachineM2].Active)

	next, err := m.Select(ctx, model.SelectNext)
	require.NoError(t, err)
	assert.Equal(t, model.WeekPreparation, next.Kind)
	assert.Equal(t, "2025-03-24", next.StartDate)
	assert.Empty(t, next.Logs)
	assert.Len(t, next.Planning, 1)
	assert.InDelta(t, 3000.0, next.Configs[model.MachineM1].TargetBal, 1e-9)
	assert.InDelta(t, 200.0, next.Forecasts.TotalVolume, 1e-9)

	_, err = m.Select(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownWeek)
	assert.Equal(t, model.SelectNext, m.SelectedID())
}

func TestPromote(t *testing.T) {
	ctx := context.Background()
	s := seeded()
	m := newManager(s)
	_, err := m.Select(ctx, model.SelectNext)
	require.NoError(t, err)

	archive, err := m.Promote(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CreateArchive", "SaveForecasts", "SaveConfigs", "DeleteAllLogs", "SaveForecasts", "SaveConfigs_NEXT",
	}, s.calls)

	require.Len(t, s.archives, 1)
	assert.Equal(t, "archive-1", archive.ID)
	assert.Equal(t, "S12 DU 17/03/2025 AU 23/03/2025", archive.WeekLabel)
	assert.Equal(t, "2025-03-17", archive.StartDate)
	assert.Len(t, archive.Data.Logs, 1)
	assert.InDelta(t, 9000.0, archive.Data.MachineConfigs[model.MachineM1].TargetBal, 1e-9)
	assert.InDelta(t, 9000.0, archive.Data.GlobalForecasts.PredictedBal, 1e-9)

	assert.InDelta(t, 3000.0, s.configs[""][model.MachineM1].TargetBal, 1e-9)
	assert.InDelta(t, 1200.0, s.configs[""][model.MachineM1].TargetCadence, 1e-9)

	prep := s.configs[model.NextSuffix][model.MachineM1]
	assert.Zero(t, prep.TargetBal)
	assert.Zero(t, prep.TargetVolume)
	assert.True(t, prep.Active)
	assert.InDelta(t, 1200.0, prep.TargetCadence, 1e-9)

	pf := s.forecasts[model.ForecastIDPreparation]
	assert.Zero(t, pf.TotalVolume)
	assert.Zero(t, pf.PredictedBal)
	assert.InDelta(t, 40.0, pf.MaxDocsPerHandful, 1e-9)
	assert.InDelta(t, 200.0, s.forecasts[model.ForecastIDCurrent].TotalVolume, 1e-9)
	assert.Empty(t, s.logs)

	// The production week is selected again.
	assert.Equal(t, model.SelectCurrent, m.SelectedID())
	cur := m.Context()
	assert.Empty(t, cur.Logs)
	assert.InDelta(t, 3000.0, cur.Configs[model.MachineM1].TargetBal, 1e-9)

	opts := m.Options()
	require.Len(t, opts, 3)
	assert.Equal(t, "archive-1", opts[2].ID)
	assert.Equal(t, model.WeekArchive, opts[2].Kind)
}

func TestPromoteSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s := seeded()
	m := newManager(s)
	_, err := m.Select(ctx, model.SelectNext)
	require.NoError(t, err)
	_, err = m.Promote(ctx)
	require.NoError(t, err)

	key := model.AssignmentKey{Machine: model.MachineM1, Role: model.RolePIMA}
	require.NoError(t, m.Apply(ctx, "edit", func(w *model.WeekContext) error {
		w.Planning[0].Assignments[key] = model.StaffAssignment{Name: "Changed"}
		cfg := w.Configs[model.MachineM1]
		cfg.TargetBal = 1
		w.Configs[model.MachineM1] = cfg
		return nil
	}, nil))

	archived, err := m.Select(ctx, "archive-1")
	require.NoError(t, err)
	assert.True(t, archived.ReadOnly())
	assert.Equal(t, "Alice", archived.Planning[0].Assignments[key].Name)
	assert.InDelta(t, 9000.0, archived.Configs[model.MachineM1].TargetBal, 1e-9)
	assert.Equal(t, "Alice", s.archives[0].Data.Planning[0].Assignments[key].Name)
}

func TestPromoteRequiresPreparation(t *testing.T) {
	ctx := context.Background()
	s := seeded()
	m := newManager(s)
	_, err := m.Select(ctx, model.SelectCurrent)
	require.NoError(t, err)

	_, err = m.Promote(ctx)
	assert.ErrorIs(t, err, ErrPreparationOnly)
	assert.Empty(t, s.calls)
}

func TestPromoteStopsAtFailingStep(t *testing.T) {
	ctx := context.Background()
	s := seeded()
	boom := errors.New("connection reset")
	s.failOn["DeleteAllLogs"] = boom
	m := newManager(s)
	_, err := m.Select(ctx, model.SelectNext)
	require.NoError(t, err)

	_, err = m.Promote(ctx)

	var perr *PromotionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StepClearLogs, perr.Step)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"CreateArchive", "SaveForecasts", "SaveConfigs", "DeleteAllLogs"}, s.calls)

	// Committed steps stay committed.
	assert.Len(t, s.archives, 1)
	assert.InDelta(t, 3000.0, s.configs[model.NextSuffix][model.MachineM1].TargetBal, 1e-9)
	assert.Equal(t, model.SelectNext, m.SelectedID())
}

func TestResetCurrent(t *testing.T) {
	ctx := context.Background()
	s := seeded()
	m := newManager(s)
	_, err := m.Select(ctx, model.SelectCurrent)
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx))

	assert.Empty(t, s.logs)
	assert.Equal(t, model.GlobalForecasts{}, s.forecasts[model.ForecastIDCurrent])
	assert.Equal(t, model.DefaultConfigs(), s.configs[""])
	assert.InDelta(t, 3000.0, s.configs[model.NextSuffix][model.MachineM1].TargetBal, 1e-9)
	assert.Empty(t, m.Context().Logs)
}

func TestResetPreparationKeepsLogs(t *testing.T) {
	ctx := context.Background()
	s := seeded()
	m := newManager(s)
	_, err := m.Select(ctx, model.SelectNext)
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx))

	assert.Len(t, s.logs, 1)
	assert.NotContains(t, s.calls, "DeleteAllLogs")
	assert.Equal(t, model.DefaultConfigs(), s.configs[model.NextSuffix])
	assert.Zero(t, s.forecasts[model.ForecastIDPreparation].MaxDocsPerHandful)
	assert.InDelta(t, 9000.0, s.configs[""][model.MachineM1].TargetBal, 1e-9)
}

func TestArchiveIsReadOnly(t *testing.T) {
	ctx := context.Background()
	s := seeded()
	m := newManager(s)
	_, err := m.Select(ctx, model.SelectNext)
	require.NoError(t, err)
	_, err = m.Promote(ctx)
	require.NoError(t, err)
	_, err = m.Select(ctx, "archive-1")
	require.NoError(t, err)
	s.calls = nil

	assert.ErrorIs(t, m.Reset(ctx), ErrReadOnly)
	err = m.Apply(ctx, "edit", func(*model.WeekContext) error { return nil }, nil)
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Empty(t, s.calls)
}

func TestApplyKeepsLocalChangeOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	m := newManager(seeded())
	_, err := m.Select(ctx, model.SelectCurrent)
	require.NoError(t, err)
	boom := errors.New("timeout")

	err = m.Apply(ctx, "update forecasts",
		func(w *model.WeekContext) error { w.Forecasts.TotalVolume = 42; return nil },
		func(context.Context, model.WeekContext) error { return boom },
	)

	var perr *PersistError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "update forecasts", perr.Op)
	assert.InDelta(t, 42.0, m.Context().Forecasts.TotalVolume, 1e-9)
}

func TestApplyRefusedLeavesContextUntouched(t *testing.T) {
	ctx := context.Background()
	m := newManager(seeded())
	_, err := m.Select(ctx, model.SelectCurrent)
	require.NoError(t, err)
	refused := errors.New("no")

	err = m.Apply(ctx, "edit",
		func(w *model.WeekContext) error { w.Logs = nil; return refused },
		func(context.Context, model.WeekContext) error { t.Fatal("persist must not run"); return nil },
	)

	assert.ErrorIs(t, err, refused)
	assert.Len(t, m.Context().Logs, 1)
}

func TestPromotePure(t *testing.T) {
	current := model.WeekContext{
		Kind:      model.WeekCurrent,
		Label:     "S12",
		StartDate: "2025-03-17",
		Configs:   model.Configs{model.MachineM1: {ID: model.MachineM1, TargetBal: 100}},
		Logs:      []model.ProductionLog{{ID: "a"}},
	}
	prep := model.WeekContext{
		Kind:    model.WeekPreparation,
		Configs: model.Configs{model.MachineM1: {ID: model.MachineM1, Active: true, TargetBal: 3000, TargetVolume: 10}},
	}

	p, err := Promote(current, prep, "id", fixedNow)
	require.NoError(t, err)
	assert.InDelta(t, 3000.0, p.Current.Configs[model.MachineM1].TargetBal, 1e-9)
	assert.Empty(t, p.Current.Logs)
	assert.Zero(t, p.Preparation.Configs[model.MachineM1].TargetBal)
	assert.True(t, p.Preparation.Configs[model.MachineM1].Active)
	assert.Len(t, p.Archive.Data.Logs, 1)

	// Inputs are untouched.
	assert.InDelta(t, 3000.0, prep.Configs[model.MachineM1].TargetBal, 1e-9)
	p.Archive.Data.Logs[0].ID = "changed"
	assert.Equal(t, "a", current.Logs[0].ID)

	_, err = Promote(prep, prep, "id", fixedNow)
	assert.ErrorIs(t, err, ErrNotCurrent)
}

func TestSelectLoadsEveryLiveRecord(t *testing.T) {
	ctx := context.Background()
	m := newManager(seeded())

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				cur, err := m.Select(ctx, model.SelectCurrent)
				if !assert.NoError(t, err) {
					return
				}
				assert.InDelta(t, 100.0, cur.Forecasts.TotalVolume, 1e-9)
				assert.InDelta(t, 9000.0, cur.Configs[model.MachineM1].TargetBal, 1e-9)
				assert.Len(t, cur.Logs, 1)
				assert.Len(t, cur.Planning, 1)

				next, err := m.Select(ctx, model.SelectNext)
				if !assert.NoError(t, err) {
					return
				}
				assert.InDelta(t, 200.0, next.Forecasts.TotalVolume, 1e-9)
				assert.InDelta(t, 3000.0, next.Configs[model.MachineM1].TargetBal, 1e-9)
				assert.Empty(t, next.Logs)
			}
		}()
	}
	wg.Wait()
}

func TestApplyPersistDoesNotBlockReaders(t *testing.T) {
	ctx := context.Background()
	m := newManager(seeded())
	_, err := m.Select(ctx, model.SelectCurrent)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- m.Apply(ctx, "update forecasts",
			func(w *model.WeekContext) error { w.Forecasts.TotalVolume = 42; return nil },
			func(context.Context, model.WeekContext) error {
				close(started)
				<-release
				return nil
			},
		)
	}()
	<-started

	read := make(chan model.WeekContext, 1)
	go func() { read <- m.Context() }()
	select {
	case w := <-read:
		assert.InDelta(t, 42.0, w.Forecasts.TotalVolume, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("Context blocked while the store write was pending")
	}

	close(release)
	require.NoError(t, <-done)
}
