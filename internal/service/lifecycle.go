package service

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bal-board/internal/model"
	"bal-board/internal/week"
)

// writable refuses changes to an archived week before any prompt is shown.
func (b *Board) writable() error {
	w := b.weeks.Context()
	if b.weeks.SelectedID() == "" {
		return eris.Wrap(week.ErrUnknownWeek, "no week selected")
	}
	if w.ReadOnly() {
		return eris.Wrapf(week.ErrReadOnly, "week %s", w.Label)
	}
	return nil
}

func (b *Board) notify(ctx context.Context, messageID string, data map[string]any) {
	if b.notifier == nil {
		return
	}
	if err := b.notifier.Notify(ctx, messageID, data); err != nil {
		zap.L().Warn("notification failed", zap.String("message", messageID), zap.Error(err))
	}
}

// Reset wipes the selected live week after confirmation.
func (b *Board) Reset(ctx context.Context, confirm bool) error {
	if err := b.writable(); err != nil {
		return err
	}
	w := b.weeks.Context()
	data := map[string]any{"Week": w.Label}
	if !confirm {
		id := "confirm.reset_current"
		if w.Kind == model.WeekPreparation {
			id = "confirm.reset_preparation"
		}
		return confirmation(id, data)
	}
	if err := b.weeks.Reset(ctx); err != nil {
		return err
	}
	zap.L().Info("week reset", zap.String("kind", string(w.Kind)), zap.String("label", w.Label))
	b.notify(ctx, "notice.week_reset", data)
	return nil
}

// Promote rolls the preparation week into production after confirmation and
// moves the planning selection to the new production week.
func (b *Board) Promote(ctx context.Context, confirm bool) (model.WeeklyArchive, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w := b.weeks.Context()
	if w.Kind != model.WeekPreparation {
		return model.WeeklyArchive{}, eris.Wrapf(week.ErrPreparationOnly, "selected %s", w.Kind)
	}
	if !confirm {
		return model.WeeklyArchive{}, confirmation("confirm.promote", map[string]any{"Week": w.Label})
	}

	archive, err := b.weeks.Promote(ctx)
	if err != nil {
		return model.WeeklyArchive{}, err
	}
	if err := b.planner.SelectWeek(b.weeks.Context().StartDate); err != nil {
		return archive, err
	}
	b.notify(ctx, "notice.week_promoted", map[string]any{
		"Archived": archive.WeekLabel,
		"Current":  b.weeks.Context().Label,
	})
	return archive, nil
}
