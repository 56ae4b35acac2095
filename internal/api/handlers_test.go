package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finflow/muleguard/internal/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func multipartCSVRequest(t *testing.T, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandler_AnalyzeReturnsResultAndGraph(t *testing.T) {
	h := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, nil)

	csv := "transaction_id,sender_id,receiver_id,amount,timestamp\n" +
		"T1,A,B,1000,2024-01-15 00:00:00\n" +
		"T2,B,C,1000,2024-01-15 01:00:00\n" +
		"T3,C,A,1000,2024-01-15 02:00:00\n"

	req := multipartCSVRequest(t, "transactions.csv", csv)
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Result.FraudRings) != 1 || resp.Result.FraudRings[0].PatternType != engine.PatternCycle {
		t.Fatalf("expected one cycle ring, got %+v", resp.Result.FraudRings)
	}
	if len(resp.Graph.Nodes) != 3 {
		t.Fatalf("expected 3 graph nodes, got %d", len(resp.Graph.Nodes))
	}
}

func TestHandler_AnalyzeRejectsNonCSVExtension(t *testing.T) {
	h := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, nil)

	req := multipartCSVRequest(t, "transactions.txt", "transaction_id,sender_id,receiver_id,amount,timestamp\n")
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_AnalyzeRejectsMissingFileField(t *testing.T) {
	h := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_AnalyzeRejectsMalformedCSVRow(t *testing.T) {
	h := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, nil)

	csv := "transaction_id,sender_id,receiver_id,amount,timestamp\n" +
		"T1,A,B,not-a-number,2024-01-15 00:00:00\n"

	req := multipartCSVRequest(t, "transactions.csv", csv)
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_AnalyzeEmptyFileReturnsZeroValueResult(t *testing.T) {
	h := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, nil)

	csv := "transaction_id,sender_id,receiver_id,amount,timestamp\n"
	req := multipartCSVRequest(t, "transactions.csv", csv)
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp analyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Result.Summary.TotalAccountsAnalyzed != 0 {
		t.Errorf("expected zero accounts analyzed, got %d", resp.Result.Summary.TotalAccountsAnalyzed)
	}
}

type stubProber struct {
	err error
}

func (s stubProber) VerifyConnectivity(_ context.Context) error {
	return s.err
}

func TestHandler_HealthReportsOKWithNoProber(t *testing.T) {
	h := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_HealthReportsDegradedOnProberError(t *testing.T) {
	h := NewHandler(discardLogger(), engine.DefaultDetectorConfig(), nil, stubProber{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
