package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luisovando/payout-orchestrator/internal/data/db"
	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

func testConfig(driver string) Config {
	return Config{
		Addr:            ":0",
		ShutdownTimeout: time.Second,
		MetricsEnabled:  true,
		DB: db.Config{
			Driver:      driver,
			SQLitePath:  "file:" + uuid.NewString() + "?mode=memory&cache=shared",
			AutoMigrate: true,
		},
		Policy: payout.DefaultPolicy(),
		Outbox: OutboxConfig{Sink: SinkLog, Interval: 10 * time.Millisecond, BatchSize: 10},
	}
}

func postPayout(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/payouts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewMemoryAppServesPayouts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), logger.Nop(), testConfig(DriverMemory))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.DB != nil || a.Bus != nil || a.Services.Relay != nil {
		t.Fatal("memory driver should not open a database, bus or relay")
	}

	body := `{"companyId":"` + uuid.NewString() + `","amount":"10.00","currency":"USD","idempotencyKey":"k-1"}`
	if w := postPayout(t, a.Server.Engine, body); w.Code != http.StatusCreated {
		t.Fatalf("first post = %d: %s", w.Code, w.Body.String())
	}
	if w := postPayout(t, a.Server.Engine, body); w.Code != http.StatusOK {
		t.Fatalf("replay = %d: %s", w.Code, w.Body.String())
	}

	w := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz = %d", w.Code)
	}
}

func TestNewSQLiteAppRelaysOutbox(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), logger.Nop(), testConfig(db.DriverSQLite))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Services.Relay == nil {
		t.Fatal("sqlite driver should wire the outbox relay")
	}

	body := `{"companyId":"` + uuid.NewString() + `","amount":"99.50","currency":"MXN","idempotencyKey":"k-2"}`
	if w := postPayout(t, a.Server.Engine, body); w.Code != http.StatusCreated {
		t.Fatalf("post = %d: %s", w.Code, w.Body.String())
	}

	n, err := a.Services.Relay.RelayOnce(context.Background())
	if err != nil {
		t.Fatalf("RelayOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("relayed %d messages, want 1", n)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), logger.Nop(), testConfig(DriverMemory))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
