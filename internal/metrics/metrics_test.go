package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetConnectionState(t *testing.T) {
	m := New()
	all := []string{"disconnected", "connecting", "connected"}

	m.SetConnectionState("connecting", all)
	m.SetConnectionState("connected", all)

	if got := testutil.ToFloat64(m.ConnectionState.WithLabelValues("connected")); got != 1 {
		t.Fatalf("connected gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConnectionState.WithLabelValues("connecting")); got != 0 {
		t.Fatalf("connecting gauge = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("connecting")); got != 1 {
		t.Fatalf("connecting transitions = %v, want 1", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.Commands.WithLabelValues("get_peers", "sent").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `vmpeer_commands_total{command="get_peers",result="sent"} 1`) {
		t.Fatalf("metrics output missing command counter:\n%s", body)
	}
}
