package handler

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"bal-board/internal/i18n"
	"bal-board/internal/planning"
	"bal-board/internal/service"
	"bal-board/internal/week"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Step    string `json:"step,omitempty"`
	Confirm bool   `json:"confirm,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encoding response", zap.Error(err))
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func badRequest(ctx context.Context, w http.ResponseWriter) {
	writeJSONStatus(w, http.StatusBadRequest, errorResponse{
		Error:   "bad_request",
		Message: i18n.T(ctx, "err.bad_request"),
	})
}

var sentinels = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrInvalidValue, http.StatusBadRequest, "invalid_value"},
	{planning.ErrInvalidMode, http.StatusBadRequest, "invalid_value"},
	{planning.ErrInvalidTeam, http.StatusBadRequest, "invalid_value"},
	{week.ErrReadOnly, http.StatusForbidden, "read_only"},
	{week.ErrProductionDisabled, http.StatusForbidden, "production_disabled"},
	{week.ErrPreparationOnly, http.StatusConflict, "preparation_only"},
	{planning.ErrNoSourceData, http.StatusUnprocessableEntity, "no_source_data"},
	{week.ErrUnknownWeek, http.StatusNotFound, "unknown_week"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
}

// writeError maps a service error to a status and a localized message.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var confirm *service.ConfirmationError
	if errors.As(err, &confirm) {
		writeJSONStatus(w, http.StatusConflict, errorResponse{
			Error:   "confirmation_required",
			Message: i18n.T(ctx, confirm.MessageID, confirm.Data),
			Confirm: true,
		})
		return
	}

	var promo *week.PromotionError
	if errors.As(err, &promo) {
		writeJSONStatus(w, http.StatusInternalServerError, errorResponse{
			Error:   "promotion_failed",
			Message: i18n.T(ctx, "err.promotion_failed", map[string]any{"Step": promo.Step}),
			Step:    promo.Step,
		})
		return
	}

	var persist *week.PersistError
	if errors.As(err, &persist) {
		writeJSONStatus(w, http.StatusBadGateway, errorResponse{
			Error:   "persist_failed",
			Message: i18n.T(ctx, "err.persist"),
		})
		return
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			writeJSONStatus(w, s.status, errorResponse{
				Error:   s.code,
				Message: i18n.T(ctx, "err."+s.code),
			})
			return
		}
	}

	zap.L().Error("request failed", zap.Error(err))
	writeJSONStatus(w, http.StatusInternalServerError, errorResponse{
		Error:   "internal",
		Message: i18n.T(ctx, "err.internal"),
	})
}
