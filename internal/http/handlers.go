package http

import (
	"log/slog"
	"net/http"

	"moneybook/internal/core"
	"moneybook/internal/history"
)

// handleIndex renders the bank and account picker.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "path", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	banks, err := s.getBanks(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Bank list error", "error", err)
	}

	data := struct {
		Banks []bankView
	}{}
	for _, b := range banks {
		bv := bankView{Name: b.Name, Balance: core.FormatCents(b.Balance)}
		for _, a := range b.Accounts {
			bv.Accounts = append(bv.Accounts, accountView{
				ID:      a.ID,
				Name:    a.Name,
				Balance: core.FormatCents(a.Balance),
			})
		}
		data.Banks = append(data.Banks, bv)
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type bankView struct {
	Name     string
	Balance  string
	Accounts []accountView
}

type accountView struct {
	ID      string
	Name    string
	Balance string
}

// handleHistory renders recent journaled submissions.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Enabled     bool
		Submissions []submissionView
	}{Enabled: s.journal != nil}

	if s.journal != nil {
		subs, err := s.journal.ListRecent(r.Context(), 20)
		if err != nil {
			slog.ErrorContext(r.Context(), "History list error", "error", err)
		}
		for _, sub := range subs {
			data.Submissions = append(data.Submissions, newSubmissionView(sub))
		}
	}

	if err := s.templates.ExecuteTemplate(w, "history.html", data); err != nil {
		slog.ErrorContext(r.Context(), "History template execution failed", "error", err, "template", "history.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type submissionView struct {
	ID          int64
	AccountID   string
	SubmittedAt string
	Created     int
	Failed      int
	Exported    bool
	Rows        []submissionRowView
}

type submissionRowView struct {
	Index    int
	Date     string
	Amount   string
	Retailer string
	Note     string
	Internal bool
	Failed   bool
}

func newSubmissionView(sub history.Submission) submissionView {
	v := submissionView{
		ID:          sub.ID,
		AccountID:   sub.AccountID,
		SubmittedAt: sub.SubmittedAt.Format("2006-01-02 15:04"),
		Created:     sub.Created,
		Failed:      sub.Failed,
		Exported:    sub.Exported,
	}
	for _, row := range sub.Rows {
		amount := ""
		if row.AmountCents != nil {
			amount = core.FormatCents(*row.AmountCents)
		}
		v.Rows = append(v.Rows, submissionRowView{
			Index:    row.RowIndex,
			Date:     row.Date,
			Amount:   amount,
			Retailer: row.RetailerName,
			Note:     row.Note,
			Internal: row.IsInternal,
			Failed:   row.Status == history.RowStatusFailed,
		})
	}
	return v
}
