// src/handlers/rates_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/dolarhistorico/src/actions"
	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/dates"
	"github.com/username/dolarhistorico/src/logger"
	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/security/validation"
	"github.com/username/dolarhistorico/src/services"
	"github.com/username/dolarhistorico/src/ui"
	"github.com/username/dolarhistorico/src/utils"
)

const maxJSONBodyBytes = 4 << 10

// ActionResponse is the body of every action endpoint. Alerts lists what the console
// would have shown, in order.
type ActionResponse struct {
	Report *services.Report       `json:"report,omitempty"`
	Import *services.ImportReport `json:"import,omitempty"`
	Row    models.Row             `json:"row,omitempty"`
	Panel  *ui.PanelRecord        `json:"panel,omitempty"`
	Alerts []ui.AlertRecord       `json:"alerts"`
	Error  string                 `json:"error,omitempty"`
}

type RatesHandler struct {
	deps actions.Deps
}

func NewRatesHandler(deps actions.Deps) *RatesHandler {
	return &RatesHandler{deps: deps}
}

type updateRequest struct {
	Confirm bool `json:"confirm"`
}

type rangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type dateRequest struct {
	Date string `json:"date"`
}

type statusResponse struct {
	State    string `json:"state"`
	LastDate string `json:"last_date,omitempty"`
	Today    string `json:"today"`
}

// HandleUpdateToToday runs the update-to-today action. The body's confirm flag answers
// the confirmation the console would ask for.
func (h *RatesHandler) HandleUpdateToToday(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	answer := ui.ButtonNo
	if req.Confirm {
		answer = ui.ButtonYes
	}
	in := ui.NewScripted().Answer(answer)
	report, err := newMenu(r.Context(), h.deps, in).UpdateToToday(r.Context())
	writeActionResult(w, ActionResponse{Report: &report}, in, err)
}

// HandleUpdateRange reconciles every day between start and end.
func (h *RatesHandler) HandleUpdateRange(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := decodeJSONBody(r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in := ui.NewScripted().Type(req.Start, req.End)
	report, err := newMenu(r.Context(), h.deps, in).UpdateRange(r.Context())
	writeActionResult(w, ActionResponse{Report: &report}, in, err)
}

// HandleUpdateDate reconciles a single day.
func (h *RatesHandler) HandleUpdateDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in := ui.NewScripted().Type(req.Date)
	report, err := newMenu(r.Context(), h.deps, in).UpdateDate(r.Context())
	writeActionResult(w, ActionResponse{Report: &report}, in, err)
}

// HandleGetDate shows the quotes of the day in the path. Both yyyy-mm-dd and the
// dd-mm-yyyy forms accepted by the console are understood.
func (h *RatesHandler) HandleGetDate(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "date")
	in := ui.NewScripted()
	menu := newMenu(r.Context(), h.deps, in)

	var (
		row models.Row
		err error
	)
	if day, keyErr := dates.ParseKey(param); keyErr == nil {
		row, err = menu.ShowDay(r.Context(), day)
	} else {
		in.Type(param)
		row, err = menu.QueryDate(r.Context())
	}
	if err != nil {
		writeActionResult(w, ActionResponse{}, in, err)
		return
	}

	resp := ActionResponse{Row: row, Alerts: nonNilAlerts(in.Alerts())}
	if panels := in.Panels(); len(panels) > 0 {
		resp.Panel = &panels[len(panels)-1]
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	etag, etagErr := utils.GenerateETag(resp)
	if etagErr != nil {
		logger.FromContext(r.Context()).Warn("Proceeding without ETag", "error", etagErr)
	} else {
		quoted := fmt.Sprintf("\"%s\"", etag)
		w.Header().Set("ETag", quoted)
		if utils.ETagMatches(r, quoted) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	utils.SendJSON(w, resp, http.StatusOK)
}

// HandleStatus reports how the newest stored row relates to today.
func (h *RatesHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	state, last, err := h.deps.Reconcile.Status(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Warn("Status check failed", "error", err)
		utils.SendJSONError(w, actions.UserMessage(err), statusForError(err))
		return
	}
	resp := statusResponse{State: state.String(), Today: h.deps.Reconcile.Today().String()}
	if state != services.NoExistingData {
		resp.LastDate = last.String()
	}
	utils.SendJSON(w, resp, http.StatusOK)
}

func newMenu(ctx context.Context, deps actions.Deps, in ui.Interactor) *actions.Menu {
	deps.Log = logger.FromContext(ctx)
	return actions.NewMenu(deps, in)
}

func decodeJSONBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %v", validation.ErrValidationFailed, err)
	}
	return nil
}

func writeActionResult(w http.ResponseWriter, resp ActionResponse, in *ui.Scripted, err error) {
	resp.Alerts = nonNilAlerts(in.Alerts())
	if err != nil {
		resp.Report, resp.Import = nil, nil
		resp.Error = actions.UserMessage(err)
		utils.SendJSON(w, resp, statusForError(err))
		return
	}
	utils.SendJSON(w, resp, http.StatusOK)
}

func nonNilAlerts(alerts []ui.AlertRecord) []ui.AlertRecord {
	if alerts == nil {
		return []ui.AlertRecord{}
	}
	return alerts
}

// statusForError maps the error kinds of the actions onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrFormat),
		errors.Is(err, apperrors.ErrRange),
		errors.Is(err, validation.ErrValidationFailed),
		errors.Is(err, ui.ErrNoScriptedAnswer):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrSheetMissing):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, apperrors.ErrCancelled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
