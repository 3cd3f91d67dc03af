package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/neomorfeo/dancepair/internal/adapter/cache"
	"github.com/neomorfeo/dancepair/internal/adapter/fsm"
	handler "github.com/neomorfeo/dancepair/internal/adapter/http"
	"github.com/neomorfeo/dancepair/internal/adapter/mail"
	"github.com/neomorfeo/dancepair/internal/adapter/sqlite"
	"github.com/neomorfeo/dancepair/internal/app"
	"github.com/neomorfeo/dancepair/internal/config"
	"github.com/neomorfeo/dancepair/internal/domain"
)

// testEmitter is a local NotificationEmitter for the smoke test.
// The smoke test verifies HTTP wiring, not River.
type testEmitter struct{}

func (testEmitter) Publish(_ context.Context, _ domain.Notification) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSmoke wires the service stack like run() and verifies it responds.
func TestSmoke(t *testing.T) {
	store, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	users := cache.NewDirectory(store.Users(), time.Minute)
	pairing := app.NewPairingService(users, store.Workshops(), store.Enrollments(), testEmitter{}, fsm.New(), discardLogger())
	workshops := app.NewWorkshopService(store.Workshops(), store.Enrollments(), users, testEmitter{}, discardLogger())

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("dancepair", "0.1.0"))
	handler.Register(api, handler.Services{Pairing: pairing, Workshops: workshops, Users: users})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/api/v1/workshops", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/workshops failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var workshopsResp []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&workshopsResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(workshopsResp) != 0 {
		t.Errorf("got %d workshops, want 0 (empty database)", len(workshopsResp))
	}
}

func TestNewSender(t *testing.T) {
	ctx := context.Background()

	s, err := newSender(ctx, config.MailConfig{Sender: "log"}, discardLogger())
	if err != nil {
		t.Fatalf("log sender: %v", err)
	}
	if _, ok := s.(*mail.LogSender); !ok {
		t.Errorf("sender = %T, want *mail.LogSender", s)
	}

	s, err = newSender(ctx, config.MailConfig{
		Sender:    "ses",
		From:      "workshops@example.com",
		Region:    "eu-west-1",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	}, discardLogger())
	if err != nil {
		t.Fatalf("ses sender: %v", err)
	}
	if _, ok := s.(*mail.SESSender); !ok {
		t.Errorf("sender = %T, want *mail.SESSender", s)
	}

	if _, err := newSender(ctx, config.MailConfig{Sender: "pigeon"}, discardLogger()); err == nil {
		t.Error("expected error for unknown sender")
	}
}

// discardStdout silences the stdout OTel exporter for the rest of the test.
func discardStdout(t *testing.T) {
	t.Helper()
	origStdout := os.Stdout
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})
}

// TestRun exercises the real run() function end-to-end: config, OTel,
// River, HTTP server, and graceful shutdown.
func TestRun(t *testing.T) {
	t.Setenv("DANCEPAIR_CONFIG", "")
	t.Setenv("DATABASE_PATH", t.TempDir()+"/test-run.db")
	t.Setenv("PORT", "19876")
	t.Setenv("OTEL_EXPORTER", "stdout")
	t.Setenv("OTEL_ENVIRONMENT", "test")
	t.Setenv("DANCEPAIR_LOG_LEVEL", "error")
	discardStdout(t)

	errCh := make(chan error, 1)
	go func() { errCh <- run() }()

	serverURL := "http://localhost:19876"
	ready := false
	for i := 0; i < 50; i++ {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/api/v1/workshops", nil)
		resp, reqErr := http.DefaultClient.Do(req)
		if reqErr == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		t.Fatal("server did not start within 5 seconds")
	}

	// A profile written through the API is readable back through the cache.
	body := `{"name":"Ana","email":"ana@example.com","role":"leader"}`
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPut, serverURL+"/api/v1/users/ana", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/v1/users/ana failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("finding process: %v", err)
	}
	if err := proc.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("sending SIGINT: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not exit within 15 seconds")
	}
}

// TestRun_InvalidDB verifies run() returns an error for an invalid database path.
func TestRun_InvalidDB(t *testing.T) {
	t.Setenv("DANCEPAIR_CONFIG", "")
	t.Setenv("DATABASE_PATH", "/nonexistent/path/db.sqlite")
	t.Setenv("PORT", "19877")
	t.Setenv("OTEL_EXPORTER", "none")

	if err := run(); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}

// TestRun_InvalidConfig verifies run() refuses to start on bad settings.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("DANCEPAIR_CONFIG", "")
	t.Setenv("OTEL_EXPORTER", "carrier-pigeon")

	if err := run(); err == nil {
		t.Fatal("expected error for invalid config, got nil")
	}
}
