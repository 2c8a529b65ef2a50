// Package actions holds the user-facing operations. Every action reports failures with an
// alert, a log sink entry and a log line, then hands the error back to its caller.
package actions

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/username/dolarhistorico/src/apperrors"
	"github.com/username/dolarhistorico/src/dates"
	"github.com/username/dolarhistorico/src/logger"
	"github.com/username/dolarhistorico/src/models"
	"github.com/username/dolarhistorico/src/processors"
	"github.com/username/dolarhistorico/src/security/validation"
	"github.com/username/dolarhistorico/src/services"
	"github.com/username/dolarhistorico/src/ui"
)

const appTitle = "Dólar Histórico"

// Deps are the collaborators shared by every Menu.
type Deps struct {
	Reconcile *services.ReconcileService
	Rates     services.RateSource
	Customers *services.CustomerService
	Sink      logger.Sink
	Log       *slog.Logger
	Now       func() time.Time
}

// Menu binds the actions to one Interactor.
type Menu struct {
	Deps
	ui ui.Interactor
}

func NewMenu(deps Deps, in ui.Interactor) *Menu {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Sink == nil {
		deps.Sink = logger.NopSink{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Menu{Deps: deps, ui: in}
}

// UpdateToToday asks for confirmation according to the state of the sheet and brings it up to today.
func (m *Menu) UpdateToToday(ctx context.Context) (services.Report, error) {
	report, err := m.Reconcile.UpdateToToday(ctx, m.confirmUpdate)
	if err != nil {
		return report, m.fail(ctx, "Actualizar a hoy", err)
	}
	m.showReport(ctx, "Actualizar a hoy", report)
	return report, nil
}

// UpdateRange prompts for a start and an end date and reconciles every day between them.
func (m *Menu) UpdateRange(ctx context.Context) (services.Report, error) {
	const action = "Actualizar rango"
	start, ok, err := m.promptDate(ctx, action, "Fecha inicial (dd/mm/aa)")
	if err != nil || !ok {
		return m.cancelled(ctx, action, err)
	}
	end, ok, err := m.promptDate(ctx, action, "Fecha final (dd/mm/aa)")
	if err != nil || !ok {
		return m.cancelled(ctx, action, err)
	}

	report, err := m.Reconcile.ReconcileRange(ctx, start, end)
	if err != nil {
		return report, m.fail(ctx, action, err)
	}
	m.showReport(ctx, action, report)
	return report, nil
}

// UpdateDate prompts for one date and reconciles it. Missing data fails the action.
func (m *Menu) UpdateDate(ctx context.Context) (services.Report, error) {
	const action = "Actualizar fecha"
	day, ok, err := m.promptDate(ctx, action, "Fecha a actualizar (dd/mm/aa)")
	if err != nil || !ok {
		return m.cancelled(ctx, action, err)
	}
	return m.updateDay(ctx, action, day)
}

// UpdateDay reconciles one known date without prompting.
func (m *Menu) UpdateDay(ctx context.Context, day civil.Date) (services.Report, error) {
	return m.updateDay(ctx, "Actualizar fecha", day)
}

func (m *Menu) updateDay(ctx context.Context, action string, day civil.Date) (services.Report, error) {
	report, err := m.Reconcile.ReconcileRange(ctx, day, day)
	if err == nil && report.Skipped > 0 {
		err = fmt.Errorf("%w: no se pudo actualizar %s", apperrors.ErrDataUnavailable, dates.FormatDate(day, dates.ModeShort))
	}
	if err != nil {
		return report, m.fail(ctx, action, err)
	}
	m.showReport(ctx, action, report)
	return report, nil
}

// QueryDate prompts for a date and shows its quotes, from the sheet when stored, otherwise from the historical source.
func (m *Menu) QueryDate(ctx context.Context) (models.Row, error) {
	const action = "Consultar fecha"
	day, ok, err := m.promptDate(ctx, action, "Fecha a consultar (dd/mm/aa)")
	if err != nil || !ok {
		_, err = m.cancelled(ctx, action, err)
		return nil, err
	}
	return m.ShowDay(ctx, day)
}

// ShowDay renders the quotes of day in a panel.
func (m *Menu) ShowDay(ctx context.Context, day civil.Date) (models.Row, error) {
	const action = "Consultar fecha"
	row, found, err := m.Reconcile.Lookup(ctx, day)
	if err != nil {
		return nil, m.fail(ctx, action, err)
	}
	source := "hoja"
	if !found {
		rec, err := m.Rates.Historical(ctx, day)
		if err != nil {
			return nil, m.fail(ctx, action, err)
		}
		row = processors.EncodeRow(day, rec, m.Now(), processors.PercentTwoDecimals)
		source = "api"
	}
	m.Log.Info("Showing quotes", "day", day.String(), "source", source)

	if err := m.ui.ShowPanel(ctx, dates.FormatDate(day, dates.ModeVerbose), RenderPanel(row)); err != nil {
		return row, m.fail(ctx, action, err)
	}
	return row, nil
}

// ImportCustomers replaces the customers sheet with the export read from r.
func (m *Menu) ImportCustomers(ctx context.Context, r io.Reader) (services.ImportReport, error) {
	const action = "Importar clientes"
	report, err := m.Customers.Import(ctx, r)
	if err != nil {
		return report, m.fail(ctx, action, err)
	}

	msg := fmt.Sprintf("Clientes importados: %d", report.Imported)
	if len(report.Duplicates) > 0 {
		codes := make([]string, len(report.Duplicates))
		for i, c := range report.Duplicates {
			codes[i] = fmt.Sprint(c)
		}
		rows := make([]string, len(report.DuplicateRows))
		for i, r := range report.DuplicateRows {
			rows[i] = fmt.Sprint(r)
		}
		msg += fmt.Sprintf("\nCódigos duplicados (%d): %s\nFilas marcadas: %s",
			len(report.Duplicates), strings.Join(codes, ", "), strings.Join(rows, ", "))
	}
	m.inform(ctx, action, msg)
	return report, nil
}

func (m *Menu) confirmUpdate(ctx context.Context, state services.State, last civil.Date) (bool, error) {
	var msg string
	switch state {
	case services.NoExistingData:
		msg = "La hoja no tiene datos. ¿Agregar la cotización de hoy?"
	case services.LastRowIsToday:
		msg = "Ya existe la fila de hoy. ¿Actualizarla con los valores actuales?"
	case services.LastRowIsYesterday:
		msg = fmt.Sprintf("La última fila es de ayer (%s). ¿Agregar la fila de hoy con el cierre de ayer?",
			dates.FormatDate(last, dates.ModeShort))
	default:
		msg = fmt.Sprintf("La última fila es del %s. ¿Completar los días faltantes y agregar hoy?",
			dates.FormatDate(last, dates.ModeVerbose))
	}
	return ui.Confirm(ctx, m.ui, appTitle, msg)
}

func (m *Menu) promptDate(ctx context.Context, action, message string) (civil.Date, bool, error) {
	text, ok, err := m.ui.Prompt(ctx, action, message)
	if err != nil || !ok {
		return civil.Date{}, false, err
	}
	if err := validation.ValidateDateInput(text, "fecha"); err != nil {
		return civil.Date{}, false, fmt.Errorf("%w: %v", apperrors.ErrFormat, err)
	}
	day, err := dates.ParseUserDate(text, m.Now())
	if err != nil {
		return civil.Date{}, false, err
	}
	return day, true, nil
}

func (m *Menu) cancelled(ctx context.Context, action string, err error) (services.Report, error) {
	if err != nil {
		return services.Report{}, m.fail(ctx, action, err)
	}
	m.Log.Info("Action cancelled by user", "action", action)
	return services.Report{Cancelled: true}, nil
}

func (m *Menu) showReport(ctx context.Context, action string, report services.Report) {
	if report.Cancelled {
		m.inform(ctx, action, "Operación cancelada.")
		return
	}
	m.inform(ctx, action, fmt.Sprintf("Filas actualizadas: %d\nFilas agregadas: %d\nDías sin datos: %d\nTiempo: %s",
		report.Updated, report.Added, report.Skipped, report.Elapsed.Round(time.Millisecond)))
}

func (m *Menu) inform(ctx context.Context, title, message string) {
	if _, err := m.ui.Alert(ctx, title, message, ui.OK); err != nil {
		m.Log.Warn("Failed to show alert", "title", title, "error", err)
	}
}

// fail reports err to the user, the log sink and the log, and returns it unchanged.
func (m *Menu) fail(ctx context.Context, action string, err error) error {
	msg := UserMessage(err)
	m.Log.Error("Action failed", "action", action, "error", err)
	if sinkErr := m.Sink.Record(ctx, fmt.Sprintf("%s: %v", action, err)); sinkErr != nil {
		m.Log.Error("Failed to write log sink entry", "error", sinkErr)
	}
	if _, alertErr := m.ui.Alert(ctx, action, msg, ui.OK); alertErr != nil {
		m.Log.Warn("Failed to show alert", "action", action, "error", alertErr)
	}
	return err
}

// UserMessage turns an error into the text shown in the failure alert.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrFormat):
		return "Formato inválido: " + err.Error()
	case errors.Is(err, apperrors.ErrRange):
		return "Rango de fechas inválido: " + err.Error()
	case errors.Is(err, apperrors.ErrDataUnavailable):
		return "No se pudo actualizar, no hay datos disponibles: " + err.Error()
	case errors.Is(err, apperrors.ErrSheetMissing):
		return "No se encontró la hoja: " + err.Error()
	default:
		return "Error inesperado: " + err.Error()
	}
}

// RenderPanel lays out a stored rates row as a two-column HTML table.
func RenderPanel(row models.Row) string {
	var b strings.Builder
	b.WriteString("<table>")
	for i, caption := range processors.RatesHeader {
		fmt.Fprintf(&b, "<tr><th>%s</th><td>%s</td></tr>",
			html.EscapeString(fmt.Sprint(caption)), html.EscapeString(cellText(row.Cell(i))))
	}
	b.WriteString("</table>")
	return b.String()
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return dates.Format(x, dates.ModeDateTime)
	default:
		return fmt.Sprint(x)
	}
}
