// Package http serves the lunch order reports and the order form.
//
// This file parses report query strings and order request bodies.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lunchreports/internal/core"
	"lunchreports/internal/services"
)

// Report output formats.
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
	FormatJSON = "json"
)

// maxBodyBytes bounds order and export request bodies.
const maxBodyBytes = 64 << 10

// ReportParams are the query parameters of the report endpoints.
type ReportParams struct {
	// Items may be empty, meaning every item.
	Items  []string
	Format string
}

// ParseReportParams reads lunch_items, which may repeat and may hold
// comma-separated lists, and format, which defaults to pdf.
func ParseReportParams(query url.Values) (ReportParams, error) {
	params := ReportParams{
		Items:  core.ParseItemNames(query["lunch_items"]),
		Format: strings.ToLower(strings.TrimSpace(query.Get("format"))),
	}
	switch params.Format {
	case "":
		params.Format = FormatPDF
	case FormatPDF, FormatHTML, FormatJSON:
	default:
		return params, fmt.Errorf("unknown format %q: must be pdf, html or json", params.Format)
	}
	return params, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body once
// and keeps it for later parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if p.err == nil && len(p.body) > maxBodyBytes {
			p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
		}
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetAll returns every value for key. JSON arrays and comma-separated
// values are both accepted by callers through core.ParseItemNames.
func (p *RequestBodyParser) GetAll(key string) []string {
	if p.jsonData != nil {
		switch val := p.jsonData[key].(type) {
		case []interface{}:
			out := make([]string, 0, len(val))
			for _, v := range val {
				out = append(out, sanitizeInput(stringValue(v)))
			}
			return out
		case nil:
			return nil
		default:
			return []string{sanitizeInput(stringValue(val))}
		}
	}
	if p.formData != nil {
		out := make([]string, 0, len(p.formData[key]))
		for _, v := range p.formData[key] {
			out = append(out, sanitizeInput(v))
		}
		return out
	}
	return nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseOrderRequest reads item, student or teacher, and quantity from a
// parsed body. An absent quantity is left zero for the default to apply.
func ParseOrderRequest(p *RequestBodyParser) (services.OrderRequest, error) {
	req := services.OrderRequest{
		Item:    p.Get("item"),
		Student: p.Get("student"),
		Teacher: p.Get("teacher"),
	}
	// The order form sends one name field plus an orderer selector.
	if name := p.Get("name"); name != "" {
		switch p.Get("orderer") {
		case "teacher":
			req.Teacher = name
		default:
			req.Student = name
		}
	}
	if q := p.Get("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return req, fmt.Errorf("quantity %q: %w", q, core.ErrInvalidQuantity)
		}
		if n < 1 {
			return req, core.ErrInvalidQuantity
		}
		req.Quantity = n
	}
	return req, nil
}

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
