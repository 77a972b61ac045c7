package http

import (
	"errors"
	"log/slog"
	"net/http"

	"moneybook/internal/core"
)

// handleCreateRetailer creates a retailer from the inline dialog and binds it
// to the invoking row.
func (s *Server) handleCreateRetailer(w http.ResponseWriter, r *http.Request) {
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

	name := sanitizeInput(r.Form.Get("name"))
	category, err := core.ParseCategory(r.Form.Get("category"))
	if err != nil {
		UnprocessableEntityError("Invalid category").Write(w)
		return
	}

	rowID := ParseRowID(r.Form)
	created, err := svc.CreateRetailerFor(r.Context(), rowID, name, category)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyName):
			UnprocessableEntityError("Retailer name cannot be empty").Write(w)
		case errors.Is(err, core.ErrInvalidCategory):
			UnprocessableEntityError("Invalid category").Write(w)
		default:
			slog.ErrorContext(r.Context(), "Retailer creation error",
				"account_id", svc.Store().AccountID(), "error", err)
			InternalServerError("Could not create retailer").Write(w)
		}
		return
	}

	slog.InfoContext(r.Context(), "Retailer created",
		"retailer_id", created.ID, "name", created.Name,
		"category", string(created.Category), "row_id", rowID)

	NewHTMXResponse().
		TriggerRetailerCreated(created.ID).
		TriggerSuccessNotification("Retailer " + created.Name + " created").
		Write(w)
	s.renderRowsBody(w, r, svc)
}
