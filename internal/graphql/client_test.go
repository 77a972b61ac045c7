package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDoDecodesData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !strings.Contains(req.Query, "retailerList") {
			t.Errorf("unexpected query: %q", req.Query)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"retailerList":[{"id":"1","name":"Mart"}]}}`))
	}))
	defer srv.Close()

	var out struct {
		RetailerList []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"retailerList"`
	}
	c := New(srv.URL)
	if err := c.Do(context.Background(), "query { retailerList { id name } }", nil, &out); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if len(out.RetailerList) != 1 || out.RetailerList[0].Name != "Mart" {
		t.Errorf("unexpected data: %+v", out)
	}
}

func TestDoSurfacesGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors":[{"message":"retailer name taken"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Do(context.Background(), "mutation { x }", nil, nil)
	if err == nil {
		t.Fatal("expected error from errors array")
	}
	var es Errors
	if !errors.As(err, &es) {
		t.Fatalf("expected Errors type, got %T", err)
	}
	if !strings.Contains(err.Error(), "retailer name taken") {
		t.Errorf("error message should carry the server message, got %q", err.Error())
	}
}

func TestDoNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Do(context.Background(), "query { x }", nil, nil); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestDoVariablesPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Variables["name"] != "Mart" {
			t.Errorf("variables not passed through: %+v", req.Variables)
		}
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	vars := map[string]any{"name": "Mart"}
	if err := c.Do(context.Background(), "mutation ($name: String!) { x }", vars, nil); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
}

func TestDoContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL)
	if err := c.Do(ctx, "query { x }", nil, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
