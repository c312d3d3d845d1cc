package status_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Wesleyxl/pitcrew-ai/pkg/diag"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
	"github.com/Wesleyxl/pitcrew-ai/pkg/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *diag.Tracker, *diag.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	tracker := diag.NewTracker()
	metrics := diag.NewMetrics(diag.WithRegistry(reg))

	srv := status.NewServer("", tracker, status.WithGatherer(reg))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tracker, metrics
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	ts, _, _ := newTestServer(t)
	code, body := get(t, ts.URL+"/healthz")
	if code != http.StatusOK || body != "ok" {
		t.Fatalf("unexpected health response: %d %q", code, body)
	}
}

func TestKindsSnapshot(t *testing.T) {
	ts, tracker, _ := newTestServer(t)

	code, body := get(t, ts.URL+"/kinds")
	if code != http.StatusOK || strings.TrimSpace(body) != "[]" {
		t.Fatalf("expected empty list, got %d %q", code, body)
	}

	tracker.Decoded(protocol.PacketLap)
	tracker.Decoded(protocol.PacketMotion)
	tracker.Dropped(protocol.PacketLap, &protocol.DecodeError{ID: protocol.PacketLap, Size: 40, Err: protocol.ErrShortBuffer})

	code, body = get(t, ts.URL+"/kinds")
	if code != http.StatusOK {
		t.Fatalf("unexpected status: %d", code)
	}
	var stats []diag.KindStats
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatalf("decode kinds: %v", err)
	}
	if len(stats) != 2 || stats[0].Kind != "motion" || stats[1].Kind != "lap" {
		t.Fatalf("unexpected kinds: %+v", stats)
	}
	if stats[1].Decoded != 1 || stats[1].Dropped != 1 || stats[1].LastReason != "short_buffer" {
		t.Fatalf("unexpected lap stats: %+v", stats[1])
	}
}

func TestKindLookup(t *testing.T) {
	ts, tracker, _ := newTestServer(t)
	tracker.Decoded(protocol.PacketCarDamage)

	code, body := get(t, ts.URL+"/kinds/car_damage")
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", code, body)
	}
	var st diag.KindStats
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatalf("decode kind: %v", err)
	}
	if st.ID != protocol.PacketCarDamage || st.Decoded != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	if code, _ := get(t, ts.URL+"/kinds/2"); code != http.StatusNotFound {
		t.Fatalf("unseen kind should be 404, got %d", code)
	}
	if code, _ := get(t, ts.URL+"/kinds/warp"); code != http.StatusBadRequest {
		t.Fatalf("unknown kind should be 400, got %d", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, metrics := newTestServer(t)
	metrics.Decoded(protocol.PacketSession)

	code, body := get(t, ts.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("unexpected status: %d", code)
	}
	if !strings.Contains(body, `pitcrew_decode_packets_total{kind="session"} 1`) {
		t.Fatalf("metrics body missing session counter:\n%s", body)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := status.NewServer("127.0.0.1:0", diag.NewTracker())
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("status server failed to start: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for status listener")
	}

	code, body := get(t, "http://"+srv.Addr().String()+"/healthz")
	if code != http.StatusOK || body != "ok" {
		t.Fatalf("unexpected health response: %d %q", code, body)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("status server did not stop")
	}
}
