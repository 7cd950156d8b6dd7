package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/solardome/strategy-cockpit/internal/cockpit"
	"github.com/solardome/strategy-cockpit/internal/share"
	"github.com/solardome/strategy-cockpit/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const strategyDoc = `schema_version: "1.0"
strategy_id: acme
brand: Acme
pillars:
  A: { score: 82, summary: Clear positioning }
  R: { score: 70 }
competitors:
  - { name: Beanery, threat: 60, share: 30 }
  - { name: Hidden Rival, threat: 80, share: 10, internal: true }
budget_tiers:
  - { label: Media, amount: 1000 }
`

type fixture struct {
	srv    *Server
	h      http.Handler
	shares *share.Registry
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(strategyDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("schema_version: \"1.0\"\nnope: 1\n"), 0o644))

	core, logs := observer.New(zap.InfoLevel)
	shares := share.NewRegistry(time.Hour, share.WithCost(bcrypt.MinCost))
	srv := New(Options{
		Store:       store.New(dir),
		Shares:      shares,
		Policy:      cockpit.DefaultPolicy(),
		DefaultView: "internal",
		Logger:      zap.New(core),
	})
	return fixture{srv: srv, h: srv.Routes(), shares: shares, logs: logs}
}

func (f fixture) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func TestHealthzAndCorrelationID(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/healthz", "", map[string]string{CorrelationIDHeader: "abc-123"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))

	entries := f.logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc-123", fields["correlation_id"])
	assert.Equal(t, "/healthz", fields["route"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestClassify(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/classify?score=72.4", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]interface{}
	decode(t, rec, &got)
	assert.Equal(t, "good", got["band"])
	assert.Equal(t, "72", got["display"])

	rec = f.do(t, http.MethodGet, "/api/classify?score=90&risk=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &got)
	assert.Equal(t, "critical", got["band"])
	assert.Equal(t, true, got["inverted"])
	assert.EqualValues(t, 90, got["score"])

	for _, q := range []string{"", "score=abc", "score=NaN", "score=10&risk=maybe"} {
		rec = f.do(t, http.MethodGet, "/api/classify?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestDonutEndpoint(t *testing.T) {
	f := newFixture(t)
	body := `{"segments":[{"label":"A","weight":30},{"label":"B","weight":70}],"options":{"gap":0}}`

	rec := f.do(t, http.MethodPost, "/api/charts/donut", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var d struct {
		Total float64 `json:"total"`
		Arcs  []struct {
			Share float64 `json:"share"`
		} `json:"arcs"`
	}
	decode(t, rec, &d)
	assert.Equal(t, 100.0, d.Total)
	require.Len(t, d.Arcs, 2)
	assert.InDelta(t, 0.3, d.Arcs[0].Share, 1e-9)

	rec = f.do(t, http.MethodPost, "/api/charts/donut", body, map[string]string{"Accept": "image/svg+xml"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(rec.Body.String(), `class="donut-arc"`))

	rec = f.do(t, http.MethodPost, "/api/charts/donut", `{"segments":[],"bogus":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRadarEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/charts/radar", `{"points":[{"label":"a","magnitude":1},{"label":"b","magnitude":2},{"label":"c","magnitude":3}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got map[string]interface{}
	decode(t, rec, &got)
	assert.Equal(t, "polygon", got["kind"])

	rec = f.do(t, http.MethodPost, "/api/charts/radar", `{"points":[{"label":"a","magnitude":1}]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &got)
	assert.Equal(t, "bars", got["kind"])
}

func TestCockpitEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/strategies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"strategies":["acme","broken"]}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/strategies/acme/cockpit", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report struct {
		View        string            `json:"view"`
		BudgetTiers []json.RawMessage `json:"budget_tiers"`
		Inputs      []json.RawMessage `json:"inputs"`
	}
	decode(t, rec, &report)
	assert.Equal(t, cockpit.ViewInternal, report.View, "server default view applies")
	assert.Len(t, report.BudgetTiers, 1)
	assert.Len(t, report.Inputs, 1)

	rec = f.do(t, http.MethodGet, "/api/strategies/acme/cockpit?view=client", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Hidden Rival")

	rec = f.do(t, http.MethodGet, "/api/strategies/acme/cockpit.html?view=client", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<svg ")
	assert.NotContains(t, rec.Body.String(), "Hidden Rival")

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/strategies/missing/cockpit", "", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodGet, "/api/strategies/broken/cockpit", "", nil).Code)
}

func TestShareLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/strategies/acme/shares", `{"password":"correct horse","ttl_hours":2}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Token     string    `json:"token"`
		URL       string    `json:"url"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "/s/"+created.Token, created.URL)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), created.ExpiresAt, time.Minute)

	rec = f.do(t, http.MethodGet, created.URL, "", map[string]string{SharePasswordHeader: "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	body := rec.Body.String()
	assert.NotContains(t, body, "Hidden Rival", "shared links always render the client view")
	assert.NotContains(t, body, "Media")

	rec = f.do(t, http.MethodGet, created.URL+"?password=correct%20horse", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, created.URL, "", map[string]string{SharePasswordHeader: "nope nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, e := range f.logs.FilterMessage("request").All() {
		assert.NotContains(t, e.ContextMap()["route"], created.Token, "share tokens must not be logged")
	}

	rec = f.do(t, http.MethodDelete, "/api/shares/"+created.Token, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, created.URL, "", map[string]string{SharePasswordHeader: "correct horse"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShareCreateErrors(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/strategies/acme/shares", `{"password":"short"}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/strategies/acme/shares", `{"password":"long enough","ttl_hours":-1}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/strategies/acme/shares", `{"password":"long enough","ttl_hours":1e12}`, nil).Code)
	assert.Empty(t, f.shares.List("acme"), "rejected requests create no links")

	rec := f.do(t, http.MethodPost, "/api/strategies/acme/shares", `{"password":"long enough","ttl_hours":8760}`, nil)
	assert.Equal(t, http.StatusCreated, rec.Code, "the maximum itself is allowed")
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/strategies/ghost/shares", `{"password":"long enough"}`, nil).Code)
}

func TestExpiredShareIsGone(t *testing.T) {
	f := newFixture(t)
	link, err := f.shares.Create("acme", "correct horse", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	rec := f.do(t, http.MethodGet, "/s/"+link.Token, "", map[string]string{SharePasswordHeader: "correct horse"})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestPruneSharesStopsWithContext(t *testing.T) {
	f := newFixture(t)
	_, err := f.shares.Create("acme", "correct horse", time.Nanosecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.PruneShares(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool {
		return f.logs.FilterMessage("pruned expired shares").Len() == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestSharedLinkAttemptsAreRateLimited(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(strategyDoc), 0o644))
	shares := share.NewRegistry(time.Hour, share.WithCost(bcrypt.MinCost))
	srv := New(Options{Store: store.New(dir), Shares: shares, ShareRate: 0.001, ShareBurst: 2})
	h := srv.Routes()
	link, err := shares.Create("acme", "correct horse", 0)
	require.NoError(t, err)

	try := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/s/"+link.Token, nil)
		req.Header.Set(SharePasswordHeader, "wrong guess")
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusUnauthorized, try("10.0.0.1:1000"))
	assert.Equal(t, http.StatusUnauthorized, try("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, try("10.0.0.1:1002"), "same host, new port")
	assert.Equal(t, http.StatusUnauthorized, try("10.0.0.2:1000"), "other clients keep their own budget")
}

func TestClientLimiterPrunesIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newClientLimiter(1, 1)
	l.now = func() time.Time { return now }
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	now = now.Add(limiterIdle + time.Second)
	assert.True(t, l.allow("b"))
	assert.Equal(t, 1, l.prune())
	assert.True(t, l.allow("a"), "a pruned client starts with a fresh budget")
}
