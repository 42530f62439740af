package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeScheduler struct {
	running bool
	err     error
}

func (f fakeScheduler) IsRunning() bool  { return f.running }
func (f fakeScheduler) LastError() error { return f.err }

func TestNew(t *testing.T) {
	if got := New(0).checkTimeout; got != 5*time.Second {
		t.Errorf("default timeout = %v, want 5s", got)
	}
	if got := New(time.Second).checkTimeout; got != time.Second {
		t.Errorf("custom timeout = %v, want 1s", got)
	}
}

func TestChecker_CheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: "ready",
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"scheduler": SchedulerCheck(fakeScheduler{running: true}),
			},
			wantStatus: "ready",
		},
		{
			name: "failed last run",
			checks: map[string]CheckFunc{
				"scheduler": SchedulerCheck(fakeScheduler{running: true, err: errors.New("boom")}),
			},
			wantStatus: "degraded",
		},
		{
			name: "scheduler stopped",
			checks: map[string]CheckFunc{
				"scheduler": SchedulerCheck(fakeScheduler{}),
			},
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q (%v)", status.Status, tt.wantStatus, status.Checks)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("got %d check results, want %d", len(status.Checks), len(tt.checks))
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	status := checker.CheckReadiness(context.Background())
	result := status.Checks["slow"]
	if result.Status != "unhealthy" || result.Message != "health check timeout" {
		t.Errorf("slow check result = %+v, want timeout", result)
	}
}

func TestFileCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	check := FileCheck(path)

	if err := check(context.Background()); err == nil {
		t.Error("FileCheck() on missing file = nil, want error")
	}
	if err := os.WriteFile(path, []byte("ID\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := check(context.Background()); err != nil {
		t.Errorf("FileCheck() = %v, want nil", err)
	}
}

func TestChecker_ListChecks(t *testing.T) {
	checker := New(0)
	checker.RegisterCheck("input", FileCheck("x"))
	checker.RegisterCheck("scheduler", SchedulerCheck(fakeScheduler{}))
	checker.RegisterCheck("input", FileCheck("y"))

	got := checker.ListChecks()
	if strings.Join(got, ",") != "input,scheduler" {
		t.Errorf("ListChecks() = %v", got)
	}
}

func TestHandlers(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("scheduler", SchedulerCheck(fakeScheduler{running: true, err: errors.New("boom")}))

	mux := http.NewServeMux()
	Register(mux, checker, "1.2.3", "abc", "2026-01-01")

	tests := []struct {
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{http.MethodGet, "/health", http.StatusOK, `"status":"ok"`},
		{http.MethodGet, "/ready", http.StatusServiceUnavailable, `"status":"degraded"`},
		{http.MethodGet, "/version", http.StatusOK, `"version":"1.2.3"`},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed, ""},
		{http.MethodHead, "/health", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if tt.method == http.MethodHead && rec.Body.Len() != 0 {
				t.Errorf("HEAD body = %q, want empty", rec.Body.String())
			}
		})
	}
}

func TestReadinessHandler_Body(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("scheduler", SchedulerCheck(fakeScheduler{running: true}))

	rec := httptest.NewRecorder()
	checker.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ready" || status.Checks["scheduler"].Status != "ok" {
		t.Errorf("status = %+v", status)
	}
}
