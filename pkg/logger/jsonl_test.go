package logger_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Wesleyxl/pitcrew-ai/pkg/engine"
	"github.com/Wesleyxl/pitcrew-ai/pkg/logger"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

func TestJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := logger.NewJSONLWriter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan engine.Packet, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		writer.Consume(ctx, ch)
	}()

	ts := time.Date(2026, 2, 5, 16, 0, 0, 0, time.UTC)
	ch <- engine.NewPacket(protocol.LapPacket{LastLapTimeMs: 83456, CarPosition: 3}, protocol.LapSize, 7, ts)
	ch <- engine.NewPacket(protocol.EventPacket{Code: protocol.EventRetirement, Detail: protocol.Retirement{VehicleIdx: 11}}, 14, 0, ts)
	close(ch)
	wg.Wait()

	lines := readLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	lap := lines[0]
	if lap["id"] != "0x02" || lap["kind"] != "lap" {
		t.Fatalf("unexpected id/kind: %v %v", lap["id"], lap["kind"])
	}
	if lap["size"] != float64(protocol.LapSize) || lap["player"] != float64(7) {
		t.Fatalf("unexpected size/player: %v %v", lap["size"], lap["player"])
	}
	data, ok := lap["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected data: %T", lap["data"])
	}
	if data["lastLapTimeMs"] != float64(83456) || data["carPosition"] != float64(3) {
		t.Fatalf("unexpected lap data: %v", data)
	}
	tsValue, ok := lap["ts"].(string)
	if !ok || tsValue == "" {
		t.Fatalf("missing ts field")
	}
	if _, err := time.Parse(time.RFC3339Nano, tsValue); err != nil {
		t.Fatalf("invalid ts format: %v", err)
	}

	event := lines[1]
	if event["kind"] != "event" || event["text"] != "retirement: car 11" {
		t.Fatalf("unexpected event line: %v", event)
	}
	detail := event["data"].(map[string]any)["detail"].(map[string]any)
	if detail["vehicleIdx"] != float64(11) {
		t.Fatalf("unexpected event detail: %v", detail)
	}
}

func TestJSONLWriterKindFilter(t *testing.T) {
	var buf bytes.Buffer
	writer := logger.NewJSONLWriter(&buf, logger.WithKinds(protocol.PacketSession))

	ch := make(chan engine.Packet, 2)
	ch <- engine.NewPacket(protocol.LapPacket{}, protocol.LapSize, 0, time.Now())
	ch <- engine.NewPacket(protocol.SessionPacket{MarshalZones: []protocol.MarshalZone{}}, protocol.SessionSize(0), 0, time.Now())
	close(ch)
	writer.Consume(context.Background(), ch)

	lines := readLines(t, &buf)
	if len(lines) != 1 || lines[0]["kind"] != "session" {
		t.Fatalf("unexpected filtered output: %v", lines)
	}
}

func readLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(buf.String()))
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("json unmarshal failed: %v", err)
		}
		out = append(out, rec)
	}
	return out
}
