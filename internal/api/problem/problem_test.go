package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, res *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var body ProblemDetails
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestWrite_DevIncludesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/auth/login", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusBadRequest, TypeValidation, "Invalid request", errors.New("username is required"), "development")

	if got := res.Result().Header.Get("Content-Type"); got != "application/problem+json" {
		t.Fatalf("expected content type problem+json, got %s", got)
	}
	body := decode(t, res)
	if body.Detail != "username is required" {
		t.Fatalf("expected detail from error, got %s", body.Detail)
	}
	if body.Instance != "/api/auth/login" {
		t.Fatalf("expected instance /api/auth/login, got %s", body.Instance)
	}
	if body.Status != http.StatusBadRequest || body.Type != TypeValidation {
		t.Fatalf("unexpected problem %+v", body)
	}
}

func TestWrite_ProdSanitizesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/broadcast", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusInternalServerError, TypeServerError, "Broadcast failed", errors.New("connection refused"), "production")

	body := decode(t, res)
	if body.Detail != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("expected sanitized detail, got %s", body.Detail)
	}
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestWrite_ExplicitDetailAndErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/auth/token", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusBadRequest, TypeValidation, "Invalid request", nil, "production",
		WithDetail("role must be Admin or User"),
		WithErrors(map[string]any{"role": "unsupported"}))

	body := decode(t, res)
	if body.Detail != "role must be Admin or User" {
		t.Fatalf("expected explicit detail, got %s", body.Detail)
	}
	if body.Errors["role"] != "unsupported" {
		t.Fatalf("expected field error, got %v", body.Errors)
	}
}
