package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/luisovando/payout-orchestrator/internal/data/aggregates"
	"github.com/luisovando/payout-orchestrator/internal/data/repos"
	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	httpMW "github.com/luisovando/payout-orchestrator/internal/http/middleware"
	"github.com/luisovando/payout-orchestrator/internal/http/response"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
	"github.com/luisovando/payout-orchestrator/internal/services"
)

type fakePayoutService struct {
	createCalls int
	lastCmd     payout.CreatePayoutCommand
	result      payout.CreatePayoutResult
	err         error
	got         *payout.Payout
}

func (f *fakePayoutService) Create(_ context.Context, cmd payout.CreatePayoutCommand) (payout.CreatePayoutResult, error) {
	f.createCalls++
	f.lastCmd = cmd
	return f.result, f.err
}

func (f *fakePayoutService) Get(_ context.Context, _ uuid.UUID) (*payout.Payout, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.got, nil
}

func newTestRouter(t *testing.T, svc services.PayoutService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewPayoutHandler(logger.Nop(), svc)
	r := gin.New()
	r.POST("/payouts", h.CreatePayout)
	r.GET("/payouts/:id", h.GetPayout)
	return r
}

func postJSON(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payouts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body=%s)", err, rec.Body.String())
	}
	return env.Error
}

const validBody = `{"companyId":"11111111-1111-1111-1111-111111111111","amount":"1000.50","currency":"usd","idempotencyKey":"test-key-1"}`

func TestCreatePayoutCreated(t *testing.T) {
	id := uuid.New()
	svc := &fakePayoutService{result: payout.CreatePayoutResult{PayoutID: id, Status: payout.StatusCreated, Created: true}}
	rec := postJSON(newTestRouter(t, svc), validBody)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != "/payouts/"+id.String() {
		t.Fatalf("Location: %q", got)
	}
	var body CreatePayoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.PayoutID != id || body.Status != payout.StatusCreated {
		t.Fatalf("body: %+v err=%v", body, err)
	}
	if svc.lastCmd.Money.Currency() != "USD" || svc.lastCmd.Money.Amount().String() != "1000.5" {
		t.Fatalf("command money: %s", svc.lastCmd.Money)
	}
}

func TestCreatePayoutAcceptsUppercaseCompanyID(t *testing.T) {
	svc := &fakePayoutService{result: payout.CreatePayoutResult{PayoutID: uuid.New(), Status: payout.StatusCreated, Created: true}}
	body := `{"companyId":"ABCDEF12-1111-1111-1111-111111111111","amount":"10","currency":"USD","idempotencyKey":"k-upper"}`
	rec := postJSON(newTestRouter(t, svc), body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	want := uuid.MustParse("abcdef12-1111-1111-1111-111111111111")
	if svc.lastCmd.CompanyID != want {
		t.Fatalf("company id: want=%s got=%s", want, svc.lastCmd.CompanyID)
	}
}

func TestCreatePayoutReplayReturnsOK(t *testing.T) {
	id := uuid.New()
	svc := &fakePayoutService{result: payout.CreatePayoutResult{PayoutID: id, Status: "PROCESSING", Created: false}}
	rec := postJSON(newTestRouter(t, svc), validBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	if rec.Header().Get("Location") != "" {
		t.Fatalf("replay should not set Location")
	}
	if !strings.Contains(rec.Body.String(), `"status":"PROCESSING"`) {
		t.Fatalf("body: %s", rec.Body.String())
	}
}

func TestCreatePayoutAcceptsNumericAmount(t *testing.T) {
	svc := &fakePayoutService{result: payout.CreatePayoutResult{PayoutID: uuid.New(), Created: true}}
	body := `{"companyId":"11111111-1111-1111-1111-111111111111","amount":1000.50,"currency":"USD","idempotencyKey":"k"}`
	if rec := postJSON(newTestRouter(t, svc), body); rec.Code != http.StatusCreated {
		t.Fatalf("status: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreatePayoutRejectsMalformedRequests(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"missing company": `{"amount":"1","currency":"USD","idempotencyKey":"k"}`,
		"missing amount":  `{"companyId":"11111111-1111-1111-1111-111111111111","currency":"USD","idempotencyKey":"k"}`,
		"bad amount":      `{"companyId":"11111111-1111-1111-1111-111111111111","amount":"abc","currency":"USD","idempotencyKey":"k"}`,
		"missing key":     `{"companyId":"11111111-1111-1111-1111-111111111111","amount":"1","currency":"USD"}`,
	}
	for name, body := range cases {
		svc := &fakePayoutService{}
		rec := postJSON(newTestRouter(t, svc), body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status want=400 got=%d", name, rec.Code)
		}
		if e := decodeError(t, rec); e.Code != CodeRequestInvalid {
			t.Fatalf("%s: code %q", name, e.Code)
		}
		if svc.createCalls != 0 {
			t.Fatalf("%s: service should not be called", name)
		}
	}
}

func TestCreatePayoutDomainValidationBeforeService(t *testing.T) {
	cases := map[string]struct{ body, msg string }{
		"zero amount":  {`{"companyId":"11111111-1111-1111-1111-111111111111","amount":"0","currency":"USD","idempotencyKey":"k"}`, "amount must be greater than 0"},
		"bad currency": {`{"companyId":"11111111-1111-1111-1111-111111111111","amount":"1","currency":"US","idempotencyKey":"k"}`, "currency must be ISO-4217 (3 letters)"},
		"bad company":  {`{"companyId":"nope","amount":"1","currency":"USD","idempotencyKey":"k"}`, "companyId must be a UUID"},
	}
	for name, tc := range cases {
		svc := &fakePayoutService{}
		rec := postJSON(newTestRouter(t, svc), tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status want=400 got=%d", name, rec.Code)
		}
		e := decodeError(t, rec)
		if e.Code != CodeValidation || e.Message != tc.msg {
			t.Fatalf("%s: unexpected error %+v", name, e)
		}
		if svc.createCalls != 0 {
			t.Fatalf("%s: service should not be called", name)
		}
	}
}

func TestCreatePayoutMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"validation", payout.ValidationError("currency not supported"), http.StatusBadRequest, CodeValidation, "currency not supported"},
		{"conflict", payout.ConflictError("Money amount differs from existing payout"), http.StatusConflict, CodeIdempotencyConflict, "Money amount differs from existing payout"},
		{"infra", payout.InfrastructureError("payout.insert", errors.New("dial tcp: refused")), http.StatusInternalServerError, "internal_error", "something went wrong"},
		{"invariant", payout.InvariantError("payout.create", "missing winner"), http.StatusInternalServerError, "internal_error", "something went wrong"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "internal_error", "something went wrong"},
	}
	for _, tc := range cases {
		rec := postJSON(newTestRouter(t, &fakePayoutService{err: tc.err}), validBody)
		if rec.Code != tc.status {
			t.Fatalf("%s: status want=%d got=%d", tc.name, tc.status, rec.Code)
		}
		e := decodeError(t, rec)
		if e.Code != tc.code || e.Message != tc.msg {
			t.Fatalf("%s: unexpected error %+v", tc.name, e)
		}
	}
}

func TestGetPayout(t *testing.T) {
	m, _ := payout.ParseMoney("1000.5", "USD")
	p := payout.NewPayout(payout.CreatePayoutCommand{CompanyID: uuid.New(), Money: m, IdempotencyKey: "k"})
	r := newTestRouter(t, &fakePayoutService{got: p})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payouts/"+p.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	var view PayoutView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.PayoutID != p.ID || view.Amount != "1000.50" || view.Currency != "USD" {
		t.Fatalf("view: %+v", view)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payouts/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != CodeInvalidPayoutID {
		t.Fatalf("bad id: status=%d body=%s", rec.Code, rec.Body.String())
	}

	missing := newTestRouter(t, &fakePayoutService{err: payout.NotFoundError("payout.get", "payout not found")})
	rec = httptest.NewRecorder()
	missing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payouts/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != CodePayoutNotFound {
		t.Fatalf("missing: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

// End to end through the real protocol and in-memory store.
func TestPayoutLifecycle(t *testing.T) {
	store := repos.NewMemoryStore()
	svc := services.NewPayoutService(logger.Nop(), store, nil, aggregates.NewDirectRunner(), payout.DefaultPolicy(), nil)
	r := newTestRouter(t, svc)

	body := `{"companyId":"11111111-1111-1111-1111-111111111111","amount":"1000.50","currency":"USD","idempotencyKey":"test-key-1"}`

	first := postJSON(r, body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first: want=201 got=%d body=%s", first.Code, first.Body.String())
	}
	var created CreatePayoutResponse
	_ = json.Unmarshal(first.Body.Bytes(), &created)
	if created.Status != payout.StatusCreated || first.Header().Get("Location") != "/payouts/"+created.PayoutID.String() {
		t.Fatalf("first: body=%+v location=%q", created, first.Header().Get("Location"))
	}

	second := postJSON(r, body)
	if second.Code != http.StatusOK {
		t.Fatalf("replay: want=200 got=%d", second.Code)
	}
	var replayed CreatePayoutResponse
	_ = json.Unmarshal(second.Body.Bytes(), &replayed)
	if replayed.PayoutID != created.PayoutID {
		t.Fatalf("replay returned a different id: %s vs %s", replayed.PayoutID, created.PayoutID)
	}

	conflict := postJSON(r, strings.Replace(body, `"1000.50"`, `"2000.00"`, 1))
	if conflict.Code != http.StatusConflict || decodeError(t, conflict).Code != CodeIdempotencyConflict {
		t.Fatalf("conflict: status=%d body=%s", conflict.Code, conflict.Body.String())
	}

	// UUID casing does not change the deduplication key.
	mixed := postJSON(r, `{"companyId":"ABCDEF12-aaaa-BBBB-1111-111111111111","amount":"5","currency":"EUR","idempotencyKey":"mixed"}`)
	if mixed.Code != http.StatusCreated {
		t.Fatalf("mixed-case company: want=201 got=%d body=%s", mixed.Code, mixed.Body.String())
	}
	mixedReplay := postJSON(r, `{"companyId":"abcdef12-AAAA-bbbb-1111-111111111111","amount":"5.00","currency":"eur","idempotencyKey":"mixed"}`)
	if mixedReplay.Code != http.StatusOK {
		t.Fatalf("mixed-case replay: want=200 got=%d body=%s", mixedReplay.Code, mixedReplay.Body.String())
	}
	var m1, m2 CreatePayoutResponse
	_ = json.Unmarshal(mixed.Body.Bytes(), &m1)
	_ = json.Unmarshal(mixedReplay.Body.Bytes(), &m2)
	if m1.PayoutID != m2.PayoutID {
		t.Fatalf("mixed-case replay returned a different id: %s vs %s", m2.PayoutID, m1.PayoutID)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, first.Header().Get("Location"), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("follow Location: status=%d", rec.Code)
	}
	if store.Len() != 2 {
		t.Fatalf("expected two stored payouts, got %d", store.Len())
	}
}

func TestCreatePayoutAnnotatesAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	accessLog := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	id := uuid.New()
	svc := &fakePayoutService{result: payout.CreatePayoutResult{PayoutID: id, Status: payout.StatusCreated, Created: true}}
	h := NewPayoutHandler(logger.Nop(), svc)
	r := gin.New()
	r.Use(httpMW.RequestLogger(accessLog))
	r.POST("/payouts", h.CreatePayout)

	if rec := postJSON(r, validBody); rec.Code != http.StatusCreated {
		t.Fatalf("status: want=201 got=%d", rec.Code)
	}
	entries := logs.FilterMessage("HTTP request").All()
	if len(entries) != 1 {
		t.Fatalf("want one access log line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	for _, key := range []string{"company_id", "idempotency_key", "payout_id"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("access log missing %s: %v", key, fields)
		}
	}
	if fields["created"] != true {
		t.Fatalf("created flag: %v", fields["created"])
	}
}
