package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"moneybook/internal/core"
	"moneybook/internal/services"
	"moneybook/internal/submit"
)

type rowView struct {
	ID         int
	Date       string
	Amount     string
	RetailerID string
	Note       string
	IsInternal bool
}

type editorData struct {
	AccountID  string
	Rows       []rowView
	Retailers  []core.Retailer
	Categories []core.Category
	Submitting bool
	Banner     string
	BannerErr  bool
}

func (s *Server) buildEditorData(r *http.Request, svc *services.EditorService) editorData {
	data := editorData{
		AccountID:  svc.Store().AccountID(),
		Categories: s.getCategories(r.Context()),
		Submitting: svc.Submitting(),
	}

	retailers, err := svc.Directory().List(r.Context())
	if err != nil {
		slog.WarnContext(r.Context(), "Retailer list error", "error", err)
	}
	data.Retailers = retailers

	for _, row := range svc.Store().Rows() {
		amount := ""
		if row.Amount != nil {
			amount = core.FormatCents(*row.Amount)
		}
		data.Rows = append(data.Rows, rowView{
			ID:         row.ID,
			Date:       row.Date,
			Amount:     amount,
			RetailerID: row.RetailerID,
			Note:       row.Note,
			IsInternal: row.IsInternal,
		})
	}
	return data
}

// editorFor resolves the session's editor from the account_id form field.
func (s *Server) editorFor(w http.ResponseWriter, r *http.Request) (*services.EditorService, *HTMXResponseBuilder) {
	accountID := strings.TrimSpace(r.Form.Get("account_id"))
	if accountID == "" {
		return nil, BadRequestError("Missing account")
	}
	return s.manager.Get(sessionID(w, r), accountID), nil
}

func (s *Server) renderRows(w http.ResponseWriter, r *http.Request, data editorData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "editor_rows.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Rows template execution failed", "error", err, "template", "editor_rows.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleEditor renders the batch editor page for the chosen account.
func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	accountID := strings.TrimSpace(r.URL.Query().Get("account"))
	if accountID == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	svc := s.manager.Get(sessionID(w, r), accountID)
	data := s.buildEditorData(r, svc)

	if err := s.templates.ExecuteTemplate(w, "editor.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Editor template execution failed", "error", err, "template", "editor.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleAddRow appends a blank row to the session's draft list.
func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	svc, resp := s.editorFor(w, r)
	if resp != nil {
		resp.Write(w)
		return
	}

	row := svc.Store().AddRow()
	slog.DebugContext(r.Context(), "Draft row added",
		"account_id", svc.Store().AccountID(), "row_id", row.ID)

	NewHTMXResponse().TriggerRowsChanged(svc.Store().Len()).Write(w)
	s.renderRowsBody(w, r, svc)
}

// handleUpdateRow merges submitted fields into one draft row.
func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	svc, resp := s.editorFor(w, r)
	if resp != nil {
		resp.Write(w)
		return
	}

	patch, err := ParseRowPatch(r.Form)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAmount):
			UnprocessableEntityError("Invalid amount").Write(w)
		case errors.Is(err, core.ErrInvalidDate):
			UnprocessableEntityError("Invalid date").Write(w)
		default:
			UnprocessableEntityError("Invalid row data").Write(w)
		}
		return
	}

	rowID := ParseRowID(r.Form)
	if !svc.Store().UpdateRow(rowID, patch) {
		slog.WarnContext(r.Context(), "Update for unknown row ignored",
			"account_id", svc.Store().AccountID(), "row_id", rowID)
	}

	s.renderRows(w, r, s.buildEditorData(r, svc))
}

// handleDeleteRow removes one draft row; the last remaining row stays.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost, http.MethodDelete); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	svc, resp := s.editorFor(w, r)
	if resp != nil {
		resp.Write(w)
		return
	}

	rowID := ParseRowID(r.Form)
	if !svc.Store().RemoveRow(rowID) {
		slog.DebugContext(r.Context(), "Row removal ignored",
			"account_id", svc.Store().AccountID(), "row_id", rowID)
	}

	NewHTMXResponse().TriggerRowsChanged(svc.Store().Len()).Write(w)
	s.renderRowsBody(w, r, svc)
}

// renderRowsBody renders the rows partial after the status line was already
// written by a builder.
func (s *Server) renderRowsBody(w http.ResponseWriter, r *http.Request, svc *services.EditorService) {
	data := s.buildEditorData(r, svc)
	if err := s.templates.ExecuteTemplate(w, "editor_rows.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Rows template execution failed", "error", err, "template", "editor_rows.html")
	}
}

// handleSubmit submits the whole draft list as one batch.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	svc, resp := s.editorFor(w, r)
	if resp != nil {
		resp.Write(w)
		return
	}

	report, err := svc.SubmitAll(r.Context())
	if err != nil {
		if errors.Is(err, submit.ErrSubmitInFlight) {
			ConflictError("A submission is already in progress").
				TriggerErrorNotification("Submission already in progress").
				Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Batch submission error",
			"account_id", svc.Store().AccountID(), "error", err)
		InternalServerError("Submission failed").Write(w)
		return
	}

	data := s.buildEditorData(r, svc)
	builder := NewHTMXResponse().TriggerBatchSubmitted(report.Created, report.Failed)

	if report.Reset {
		data.Banner = fmt.Sprintf("%d transaction(s) created", report.Created)
		if report.Failed > 0 {
			data.Banner += fmt.Sprintf(", %d failed", report.Failed)
		}
		builder.TriggerFormReset().TriggerSuccessNotification(data.Banner)
	} else {
		data.Banner = "No transactions were created. Fix the rows and try again."
		data.BannerErr = true
		builder.TriggerErrorNotification(data.Banner)
	}
	builder.Write(w)

	if err := s.templates.ExecuteTemplate(w, "submit_result.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Submit result template execution failed", "error", err, "template", "submit_result.html")
	}
}
