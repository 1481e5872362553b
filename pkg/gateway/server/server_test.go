package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kioskvoice/ordergate/pkg/chat/registry"
	"github.com/kioskvoice/ordergate/pkg/chat/relay"
	"github.com/kioskvoice/ordergate/pkg/gateway/config"
	"github.com/kioskvoice/ordergate/pkg/menu"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		SttFinalizeTimeout: 10 * time.Second,
		TTSChunkSize:       1024,
		OutboundQueueSize:  128,
		WriteTimeout:       5 * time.Second,
	}
}

func testRelay() *relay.Relay {
	service := menu.NewService(menu.DefaultCatalog(), nil, testLogger())
	return relay.New(relay.Deps{
		Registry: registry.New(registry.WithLogger(testLogger())),
		Searcher: service,
		Logger:   testLogger(),
	})
}

func TestServer_HealthRoute(t *testing.T) {
	t.Parallel()

	s := New(testConfig(), testLogger(), testRelay())

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}

func TestServer_ReadyRoute(t *testing.T) {
	t.Parallel()

	s := New(testConfig(), testLogger(), testRelay())

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestServer_OrderRoute_Reachable(t *testing.T) {
	t.Parallel()

	s := New(testConfig(), testLogger(), testRelay())

	// A plain GET without the websocket handshake headers fails the
	// upgrade, but the route itself must exist.
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws/order", nil))
	if rr.Code == http.StatusNotFound {
		t.Fatal("/ws/order unexpectedly returned 404")
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	t.Parallel()

	s := New(testConfig(), testLogger(), testRelay())

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/does-not-exist", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}
