package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	if err := printJSON(&out, struct {
		A int `json:"a"`
	}{A: 1}); err != nil {
		t.Fatalf("printJSON: %v", err)
	}

	expected := "{\n  \"a\": 1\n}\n"
	if out.String() != expected {
		t.Fatalf("unexpected json output:\n%s", out.String())
	}
}

func TestHashPasswordCmd(t *testing.T) {
	orig := bcryptGenerate
	bcryptGenerate = func(p []byte, cost int) ([]byte, error) {
		return []byte("hashed-value"), nil
	}
	defer func() { bcryptGenerate = orig }()

	out, err := execute(t, "hash-password", "secret")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if strings.TrimSpace(out) != "hashed-value" {
		t.Fatalf("expected hashed-value, got %q", out)
	}
}

func TestLedgerConsistencyCmd(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		report    dto.ConsistencyResponse
		wantErr   bool
		wantInOut string
	}{
		{
			name:      "consistent",
			status:    http.StatusOK,
			report:    dto.ConsistencyResponse{Consistent: true, TotalAccounts: 3, ReconciledAccounts: 3},
			wantInOut: "PASSED",
		},
		{
			name:   "drift",
			status: http.StatusConflict,
			report: dto.ConsistencyResponse{
				TotalAccounts:      2,
				ReconciledAccounts: 1,
				Discrepancies: []*dto.DiscrepancyResponse{{
					AccountID:         "acc-1",
					RecordedBalance:   decimal.RequireFromString("100"),
					CalculatedBalance: decimal.RequireFromString("90"),
					Difference:        decimal.RequireFromString("10"),
				}},
			},
			wantErr:   true,
			wantInOut: "acc-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/admin/ledger/consistency" {
					http.NotFound(w, r)
					return
				}
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.report)
			}))
			defer srv.Close()

			out, err := execute(t, "--url", srv.URL, "--token", "tkn", "ledger", "consistency")
			if tt.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if !strings.Contains(out, tt.wantInOut) {
				t.Fatalf("expected %q in output, got:\n%s", tt.wantInOut, out)
			}
			if gotAuth != "Bearer tkn" {
				t.Fatalf("expected bearer token to be sent, got %q", gotAuth)
			}
		})
	}
}

func TestSettleCmd(t *testing.T) {
	var got dto.SettleRequest
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/admin/transactions/txn-1/settle" {
			http.NotFound(w, r)
			return
		}
		gotUser = r.Header.Get("X-User-ID")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"txn-1","status":"failed"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--url", srv.URL, "--as", "ops-1", "settle", "txn-1", "--status", "failed", "--reason", "beneficiary bank rejected")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if got.Status != "failed" || got.Reason != "beneficiary bank rejected" {
		t.Fatalf("unexpected request %+v", got)
	}
	if gotUser != "ops-1" {
		t.Fatalf("expected dev identity header, got %q", gotUser)
	}
	if !strings.Contains(out, `"status": "failed"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSettleCmd_RejectsUnknownStatus(t *testing.T) {
	_, err := execute(t, "settle", "txn-1", "--status", "cancelled")
	if err == nil {
		t.Fatal("expected error for cancelled status")
	}
}

func TestAPIClient_ErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden","message":"insufficient role"}`))
	}))
	defer srv.Close()

	_, err := execute(t, "--url", srv.URL, "ledger", "consistency")
	if err == nil || !strings.Contains(err.Error(), "insufficient role") {
		t.Fatalf("expected server message in error, got %v", err)
	}
}
