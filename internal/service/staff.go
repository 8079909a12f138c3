package service

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bal-board/internal/model"
	"bal-board/internal/week"
)

// The roster is shared by every week, archived ones included.

func (b *Board) staffIndex(id string) int {
	return slices.IndexFunc(b.staff, func(m model.StaffMember) bool { return m.ID == id })
}

func normalizeMember(m model.StaffMember) (model.StaffMember, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return m, eris.Wrap(ErrInvalidValue, "empty staff name")
	}
	if m.WeeklyHours < 0 {
		return m, eris.Wrapf(ErrInvalidValue, "weekly hours %v", m.WeeklyHours)
	}
	if m.DefaultRole != "" && !m.DefaultRole.Valid() {
		return m, eris.Wrapf(ErrInvalidValue, "role %q", m.DefaultRole)
	}
	if m.AssignedTeam < model.StaffTeamNone || m.AssignedTeam > model.StaffTeamTwo {
		return m, eris.Wrapf(ErrInvalidValue, "assigned team %d", m.AssignedTeam)
	}
	return m, nil
}

// persistStaff writes a roster change already applied in memory. It must be
// called without b.mu held.
func (b *Board) persistStaff(ctx context.Context, op string, write func(ctx context.Context) error) error {
	if err := write(ctx); err != nil {
		zap.L().Error("persist failed, local change kept", zap.String("op", op), zap.Error(err))
		return &week.PersistError{Op: op, Err: err}
	}
	return nil
}

// AddStaff creates a member. Weekly hours default to 35 and new members are active.
func (b *Board) AddStaff(ctx context.Context, m model.StaffMember) (model.StaffMember, error) {
	if m.WeeklyHours == 0 {
		m.WeeklyHours = model.DefaultWeeklyHours
	}
	m.Active = true
	m, err := normalizeMember(m)
	if err != nil {
		return model.StaffMember{}, err
	}
	m.ID = b.newID()

	b.mu.Lock()
	b.staff = append(slices.Clip(b.staff), m)
	b.mu.Unlock()

	return m, b.persistStaff(ctx, "add staff", func(ctx context.Context) error {
		return b.store.SaveStaff(ctx, m)
	})
}

func (b *Board) UpdateStaff(ctx context.Context, m model.StaffMember) (model.StaffMember, error) {
	m, err := normalizeMember(m)
	if err != nil {
		return model.StaffMember{}, err
	}

	b.mu.Lock()
	i := b.staffIndex(m.ID)
	if i < 0 {
		b.mu.Unlock()
		return model.StaffMember{}, eris.Wrapf(ErrNotFound, "staff %s", m.ID)
	}
	b.staff = slices.Clone(b.staff)
	b.staff[i] = m
	b.mu.Unlock()

	return m, b.persistStaff(ctx, "update staff", func(ctx context.Context) error {
		return b.store.SaveStaff(ctx, m)
	})
}

func (b *Board) DeleteStaff(ctx context.Context, id string) error {
	b.mu.Lock()
	i := b.staffIndex(id)
	if i < 0 {
		b.mu.Unlock()
		return eris.Wrapf(ErrNotFound, "staff %s", id)
	}
	b.staff = slices.Delete(slices.Clone(b.staff), i, i+1)
	b.mu.Unlock()

	return b.persistStaff(ctx, "delete staff", func(ctx context.Context) error {
		return b.store.DeleteStaff(ctx, id)
	})
}

// ToggleInterim flips the interim flag of a member and returns the new value.
func (b *Board) ToggleInterim(ctx context.Context, id string) (bool, error) {
	b.mu.Lock()
	i := b.staffIndex(id)
	if i < 0 {
		b.mu.Unlock()
		return false, eris.Wrapf(ErrNotFound, "staff %s", id)
	}
	b.staff = slices.Clone(b.staff)
	interim := !b.staff[i].IsInterim
	b.staff[i].IsInterim = interim
	b.mu.Unlock()

	return interim, b.persistStaff(ctx, "toggle interim", func(ctx context.Context) error {
		return b.store.SetStaffInterim(ctx, id, interim)
	})
}
