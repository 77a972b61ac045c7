// This file implements utilities for parsing and validating HTTP request
// data: method guards, form parsing, and typed field extraction for the
// editor's row operations.
package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"moneybook/internal/core"
	"moneybook/internal/drafts"
)

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on
// failure. Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}

// ParseRowID extracts a positive row id from the form. Returns 0 when the
// field is missing or malformed.
func ParseRowID(form url.Values) int {
	v := strings.TrimSpace(form.Get("row_id"))
	if v == "" {
		return 0
	}
	id, err := strconv.Atoi(v)
	if err != nil || id < 1 {
		return 0
	}
	return id
}

// ParseRowPatch builds a draft patch from submitted form fields. Only fields
// present in the form become part of the patch; an empty amount clears it.
func ParseRowPatch(form url.Values) (drafts.Patch, error) {
	var patch drafts.Patch

	if _, ok := form["date"]; ok {
		date := strings.TrimSpace(form.Get("date"))
		if date != "" && !core.ValidISODate(date) {
			return drafts.Patch{}, core.ErrInvalidDate
		}
		patch.Date = &date
	}
	if _, ok := form["amount"]; ok {
		raw := strings.TrimSpace(form.Get("amount"))
		if raw == "" {
			patch.ClearAmount = true
		} else {
			cents, err := core.ParseSignedCents(raw)
			if err != nil {
				return drafts.Patch{}, err
			}
			patch.Amount = &cents
		}
	}
	if _, ok := form["retailer_id"]; ok {
		retailerID := strings.TrimSpace(form.Get("retailer_id"))
		patch.RetailerID = &retailerID
	}
	if _, ok := form["note"]; ok {
		note := sanitizeInput(form.Get("note"))
		patch.Note = &note
	}
	if _, ok := form["is_internal"]; ok {
		internal := form.Get("is_internal") == "on" || form.Get("is_internal") == "true"
		patch.IsInternal = &internal
	}

	return patch, nil
}
