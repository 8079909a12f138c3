package handler

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"bal-board/internal/model"
	"bal-board/internal/report"
	"bal-board/internal/service"
)

type BoardHandler struct {
	svc *service.Board
}

func NewBoardHandler(svc *service.Board) *BoardHandler {
	return &BoardHandler{svc: svc}
}

// RegisterRoutes registers all board routes on the given mux.
func (h *BoardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/weeks", h.HandleWeeks)
	mux.HandleFunc("POST /api/weeks/select", h.HandleSelectWeek)
	mux.HandleFunc("GET /api/dashboard", h.HandleDashboard)
	mux.HandleFunc("GET /api/hr", h.HandleHR)
	mux.HandleFunc("GET /api/report.xlsx", h.HandleReport)

	mux.HandleFunc("PUT /api/configs/{id}", h.HandleUpdateConfig)
	mux.HandleFunc("PUT /api/forecasts", h.HandleUpdateForecasts)

	mux.HandleFunc("GET /api/logs", h.HandleListLogs)
	mux.HandleFunc("POST /api/logs", h.HandleSaveLog)
	mux.HandleFunc("DELETE /api/logs", h.HandleClearLog)
	mux.HandleFunc("DELETE /api/logs/{id}", h.HandleDeleteLog)

	mux.HandleFunc("GET /api/staff", h.HandleListStaff)
	mux.HandleFunc("POST /api/staff", h.HandleAddStaff)
	mux.HandleFunc("PUT /api/staff/{id}", h.HandleUpdateStaff)
	mux.HandleFunc("DELETE /api/staff/{id}", h.HandleDeleteStaff)
	mux.HandleFunc("POST /api/staff/{id}/toggle-interim", h.HandleToggleInterim)
	mux.HandleFunc("GET /api/staff/interim-hours", h.HandleInterimHours)

	mux.HandleFunc("GET /api/planning", h.HandlePlanning)
	mux.HandleFunc("POST /api/planning/select", h.HandleSelectPlanning)
	mux.HandleFunc("POST /api/planning/cell", h.HandleSetCell)
	mux.HandleFunc("POST /api/planning/propagate-day", h.HandlePropagateDay)
	mux.HandleFunc("POST /api/planning/copy-previous", h.HandleCopyPreviousWeek)
	mux.HandleFunc("PUT /api/planning/override", h.HandleHoursOverride)
	mux.HandleFunc("GET /api/planning/suggestions", h.HandleSuggestions)

	mux.HandleFunc("POST /api/week/reset", h.HandleReset)
	mux.HandleFunc("POST /api/week/promote", h.HandlePromote)
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

// decodeConfirm reads an optional {"confirm": bool} body.
func decodeConfirm(r *http.Request) (bool, error) {
	if r.ContentLength == 0 {
		return false, nil
	}
	var req confirmRequest
	if err := decode(r, &req); err != nil {
		return false, err
	}
	return req.Confirm, nil
}

func (h *BoardHandler) HandleWeeks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Weeks())
}

func (h *BoardHandler) HandleSelectWeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decode(r, &req); err != nil || req.ID == "" {
		badRequest(r.Context(), w)
		return
	}
	info, err := h.svc.SelectWeek(r.Context(), req.ID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, info)
}

func (h *BoardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Dashboard())
}

func (h *BoardHandler) HandleHR(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.HR())
}

func (h *BoardHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteWeekly(&buf, h.svc.WeeklyReport()); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="rapport-hebdo.xlsx"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zap.L().Warn("writing report", zap.Error(err))
	}
}

func (h *BoardHandler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch service.ConfigPatch
	if err := decode(r, &patch); err != nil {
		badRequest(r.Context(), w)
		return
	}
	cfg, err := h.svc.UpdateMachineConfig(r.Context(), model.MachineID(r.PathValue("id")), patch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, cfg)
}

func (h *BoardHandler) HandleUpdateForecasts(w http.ResponseWriter, r *http.Request) {
	var f model.GlobalForecasts
	if err := decode(r, &f); err != nil {
		badRequest(r.Context(), w)
		return
	}
	if err := h.svc.UpdateForecasts(r.Context(), f); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, f)
}

func (h *BoardHandler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Logs())
}

type saveLogResponse struct {
	Saved bool                `json:"saved"`
	Log   model.ProductionLog `json:"log"`
}

func (h *BoardHandler) HandleSaveLog(w http.ResponseWriter, r *http.Request) {
	var entry service.LogEntry
	if err := decode(r, &entry); err != nil {
		badRequest(r.Context(), w)
		return
	}
	log, saved, err := h.svc.SaveLogEntry(r.Context(), entry)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, saveLogResponse{Saved: saved, Log: log})
}

func (h *BoardHandler) HandleClearLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	err := h.svc.ClearLogEntry(r.Context(), q.Get("date"), model.Team(q.Get("team")), model.MachineID(q.Get("machine")))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) HandleDeleteLog(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteLog(r.Context(), r.PathValue("id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) HandleListStaff(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Staff())
}

func (h *BoardHandler) HandleAddStaff(w http.ResponseWriter, r *http.Request) {
	var m model.StaffMember
	if err := decode(r, &m); err != nil {
		badRequest(r.Context(), w)
		return
	}
	created, err := h.svc.AddStaff(r.Context(), m)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (h *BoardHandler) HandleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	var m model.StaffMember
	if err := decode(r, &m); err != nil {
		badRequest(r.Context(), w)
		return
	}
	m.ID = r.PathValue("id")
	updated, err := h.svc.UpdateStaff(r.Context(), m)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, updated)
}

func (h *BoardHandler) HandleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteStaff(r.Context(), r.PathValue("id")); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) HandleToggleInterim(w http.ResponseWriter, r *http.Request) {
	interim, err := h.svc.ToggleInterim(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, map[string]bool{"isInterim": interim})
}

func (h *BoardHandler) HandleInterimHours(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.InterimHours())
}

func (h *BoardHandler) HandlePlanning(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Planning())
}

func (h *BoardHandler) HandleSelectPlanning(w http.ResponseWriter, r *http.Request) {
	var sel service.PlanningSelection
	if err := decode(r, &sel); err != nil {
		badRequest(r.Context(), w)
		return
	}
	view, err := h.svc.SelectPlanning(sel)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, view)
}

type planningUpdates struct {
	Updated []model.PlanningAssignment `json:"updated"`
}

func (h *BoardHandler) HandleSetCell(w http.ResponseWriter, r *http.Request) {
	var edit service.CellEdit
	if err := decode(r, &edit); err != nil {
		badRequest(r.Context(), w)
		return
	}
	updated, err := h.svc.SetCell(r.Context(), edit)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, planningUpdates{Updated: updated})
}

func (h *BoardHandler) HandlePropagateDay(w http.ResponseWriter, r *http.Request) {
	confirm, err := decodeConfirm(r)
	if err != nil {
		badRequest(r.Context(), w)
		return
	}
	updated, err := h.svc.PropagateDay(r.Context(), confirm)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, planningUpdates{Updated: updated})
}

func (h *BoardHandler) HandleCopyPreviousWeek(w http.ResponseWriter, r *http.Request) {
	confirm, err := decodeConfirm(r)
	if err != nil {
		badRequest(r.Context(), w)
		return
	}
	updated, err := h.svc.CopyPreviousWeek(r.Context(), confirm)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, planningUpdates{Updated: updated})
}

func (h *BoardHandler) HandleHoursOverride(w http.ResponseWriter, r *http.Request) {
	var o service.HoursOverride
	if err := decode(r, &o); err != nil {
		badRequest(r.Context(), w)
		return
	}
	if err := h.svc.SetHoursOverride(r.Context(), o); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	var key *model.AssignmentKey
	if raw := r.URL.Query().Get("key"); raw != "" {
		k, err := model.ParseAssignmentKey(raw)
		if err != nil {
			badRequest(r.Context(), w)
			return
		}
		key = &k
	}
	writeJSON(w, h.svc.Suggestions(key))
}

func (h *BoardHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	confirm, err := decodeConfirm(r)
	if err != nil {
		badRequest(r.Context(), w)
		return
	}
	if err := h.svc.Reset(r.Context(), confirm); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type promoteResponse struct {
	ArchiveID    string `json:"archiveId"`
	ArchivedWeek string `json:"archivedWeek"`
	ArchivedLogs int    `json:"archivedLogs"`
}

func (h *BoardHandler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	confirm, err := decodeConfirm(r)
	if err != nil {
		badRequest(r.Context(), w)
		return
	}
	archive, err := h.svc.Promote(r.Context(), confirm)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, promoteResponse{
		ArchiveID:    archive.ID,
		ArchivedWeek: archive.WeekLabel,
		ArchivedLogs: len(archive.Data.Logs),
	})
}
