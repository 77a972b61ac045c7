package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"moneybook/internal/backend/memory"
	"moneybook/internal/retailers"
	"moneybook/internal/services"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	store := memory.NewWithDefaults()
	manager := services.NewManager(services.ManagerConfig{
		Creator:    store,
		Directory:  retailers.NewDirectory(store, store),
		SessionTTL: time.Hour,
	})
	t.Cleanup(manager.Stop)

	srv := NewServer(":0", Deps{
		Manager:    manager,
		Banks:      store,
		Categories: store,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, store
}

// client keeps the session cookie across requests, like a browser would.
type client struct {
	srv     *Server
	cookies []*http.Cookie
}

func (c *client) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.srv.Handler.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := c.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestIndexListsBanksAndAccounts(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}

	rec := c.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Demo Bank", "Checking", "Savings", "/editor?account=acct-1"} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
}

func TestIndexUnknownPathIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}

	rec := c.do(t, http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestEditorRedirectsWithoutAccount(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}

	rec := c.do(t, http.MethodGet, "/editor", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestEditorRendersInitialRow(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}

	rec := c.do(t, http.MethodGet, "/editor?account=acct-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "rows-table") {
		t.Error("editor body missing rows table")
	}
	if !strings.Contains(body, `name="row_id" value="1"`) {
		t.Error("editor body missing initial row")
	}
	if !strings.Contains(body, "Corner Mart") {
		t.Error("editor body missing seeded retailer option")
	}
}

func TestAddAndDeleteRow(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}
	c.do(t, http.MethodGet, "/editor?account=acct-1", nil)

	rec := c.do(t, http.MethodPost, "/editor/rows", url.Values{"account_id": {"acct-1"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("add row status = %d, want 200", rec.Code)
	}
	trigger := rec.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"rows:changed"`) || !strings.Contains(trigger, `"count":2`) {
		t.Errorf("HX-Trigger = %q, want rows:changed with count 2", trigger)
	}
	if !strings.Contains(rec.Body.String(), `name="row_id" value="2"`) {
		t.Error("add row response missing second row")
	}

	rec = c.do(t, http.MethodPost, "/editor/rows/delete", url.Values{
		"account_id": {"acct-1"},
		"row_id":     {"2"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete row status = %d, want 200", rec.Code)
	}
	trigger = rec.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"count":1`) {
		t.Errorf("HX-Trigger = %q, want rows:changed with count 1", trigger)
	}
}

func TestDeleteLastRemainingRowKeepsOne(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}
	c.do(t, http.MethodGet, "/editor?account=acct-1", nil)

	rec := c.do(t, http.MethodPost, "/editor/rows/delete", url.Values{
		"account_id": {"acct-1"},
		"row_id":     {"1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), `"count":1`) {
		t.Error("list should never become empty")
	}
	if !strings.Contains(rec.Body.String(), `name="row_id" value="1"`) {
		t.Error("remaining row should be reindexed to 1")
	}
}

func TestUpdateRowRejectsInvalidInput(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"bad amount", url.Values{"account_id": {"acct-1"}, "row_id": {"1"}, "amount": {"abc"}}},
		{"bad date", url.Values{"account_id": {"acct-1"}, "row_id": {"1"}, "date": {"31-12-2026"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &client{srv: srv}
			rec := c.do(t, http.MethodPost, "/editor/rows/update", tt.form)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestUpdateRowPersistsFields(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}
	c.do(t, http.MethodGet, "/editor?account=acct-1", nil)

	rec := c.do(t, http.MethodPost, "/editor/rows/update", url.Values{
		"account_id": {"acct-1"},
		"row_id":     {"1"},
		"amount":     {"-12.34"},
		"note":       {"coffee"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `value="-12.34"`) {
		t.Error("updated amount not rendered")
	}
	if !strings.Contains(body, `value="coffee"`) {
		t.Error("updated note not rendered")
	}
}

func TestSubmitCreatesAndResets(t *testing.T) {
	srv, store := newTestServer(t)
	c := &client{srv: srv}
	c.do(t, http.MethodGet, "/editor?account=acct-1", nil)
	c.do(t, http.MethodPost, "/editor/rows/update", url.Values{
		"account_id": {"acct-1"},
		"row_id":     {"1"},
		"amount":     {"-45.00"},
	})

	rec := c.do(t, http.MethodPost, "/editor/submit", url.Values{"account_id": {"acct-1"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "1 transaction(s) created") {
		t.Errorf("banner missing from body: %q", body)
	}
	trigger := rec.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"batch:submitted"`) || !strings.Contains(trigger, `"form:reset"`) {
		t.Errorf("HX-Trigger = %q, want batch:submitted and form:reset", trigger)
	}
	if got := len(store.CreatedTransactions()); got != 1 {
		t.Errorf("created transactions = %d, want 1", got)
	}
	// The list resets to a single blank row.
	if !strings.Contains(body, `name="amount" value=""`) {
		t.Error("rows were not reset after successful submit")
	}
}

func TestSubmitTotalFailurePreservesRows(t *testing.T) {
	srv, store := newTestServer(t)
	store.SetCreateTransactionError(errors.New("backend down"))

	c := &client{srv: srv}
	c.do(t, http.MethodGet, "/editor?account=acct-1", nil)
	c.do(t, http.MethodPost, "/editor/rows/update", url.Values{
		"account_id": {"acct-1"},
		"row_id":     {"1"},
		"amount":     {"-45.00"},
	})

	rec := c.do(t, http.MethodPost, "/editor/submit", url.Values{"account_id": {"acct-1"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "No transactions were created") {
		t.Error("expected failure banner")
	}
	if !strings.Contains(body, `value="-45.00"`) {
		t.Error("row values should be preserved after total failure")
	}
	if strings.Contains(rec.Header().Get("HX-Trigger"), `"form:reset"`) {
		t.Error("form:reset must not fire on total failure")
	}
}

func TestCreateRetailerBindsRow(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}
	c.do(t, http.MethodGet, "/editor?account=acct-1", nil)

	rec := c.do(t, http.MethodPost, "/retailers", url.Values{
		"account_id": {"acct-1"},
		"row_id":     {"1"},
		"name":       {"Bakery"},
		"category":   {"GROCERY"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("HX-Trigger"), `"retailer:created"`) {
		t.Error("missing retailer:created trigger")
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Bakery") {
		t.Error("new retailer missing from rendered options")
	}
	if !strings.Contains(body, "selected>Bakery") {
		t.Error("new retailer should be selected on the invoking row")
	}
}

func TestCreateRetailerValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"empty name", url.Values{"account_id": {"acct-1"}, "name": {""}, "category": {"GROCERY"}}},
		{"bad category", url.Values{"account_id": {"acct-1"}, "name": {"Bakery"}, "category": {"SNACKS"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &client{srv: srv}
			rec := c.do(t, http.MethodPost, "/retailers", tt.form)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestMutatingRoutesRequirePOST(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}

	for _, path := range []string{"/editor/rows", "/editor/rows/update", "/editor/submit", "/retailers"} {
		rec := c.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("GET %s status = %d, want 405", path, rec.Code)
		}
	}
}

func TestMissingAccountIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{srv: srv}

	rec := c.do(t, http.MethodPost, "/editor/rows", url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
