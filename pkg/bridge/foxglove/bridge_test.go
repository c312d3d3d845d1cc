package foxglove_test

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Wesleyxl/pitcrew-ai/pkg/bridge/foxglove"
	"github.com/Wesleyxl/pitcrew-ai/pkg/engine"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

type foxgloveSession struct {
	hub      *engine.Hub
	conn     *websocket.Conn
	channels map[string]foxglove.Channel
}

func startFoxgloveSession(t *testing.T, cfg foxglove.Config) *foxgloveSession {
	t.Helper()

	cfg.WSAddr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	hub := engine.NewHub()
	go hub.Run(ctx)

	srv := foxglove.NewServer(cfg, hub)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("foxglove server failed to start: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatalf("timed out waiting for foxglove listener")
	}

	dialURL := url.URL{Scheme: "ws", Host: srv.Addr().String(), Path: "/"}
	dialer := websocket.Dialer{Subprotocols: []string{"foxglove.websocket.v1"}}
	conn, _, err := dialer.Dial(dialURL.String(), nil)
	if err != nil {
		cancel()
		t.Fatalf("dial foxglove websocket: %v", err)
	}

	_, infoRaw, err := readWSMessage(conn)
	if err != nil {
		cancel()
		_ = conn.Close()
		t.Fatalf("read serverInfo: %v", err)
	}
	var info foxglove.ServerInfoMsg
	if err := json.Unmarshal(infoRaw, &info); err != nil || info.Op != foxglove.OpServerInfo {
		cancel()
		_ = conn.Close()
		t.Fatalf("unexpected serverInfo: %s (%v)", infoRaw, err)
	}

	_, advRaw, err := readWSMessage(conn)
	if err != nil {
		cancel()
		_ = conn.Close()
		t.Fatalf("read advertise: %v", err)
	}
	var adv foxglove.AdvertiseMsg
	if err := json.Unmarshal(advRaw, &adv); err != nil {
		cancel()
		_ = conn.Close()
		t.Fatalf("decode advertise json: %v", err)
	}

	channels := make(map[string]foxglove.Channel, len(adv.Channels))
	for _, ch := range adv.Channels {
		channels[ch.Topic] = ch
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("foxglove server run error: %v", err)
			}
		case <-time.After(3 * time.Second):
			t.Errorf("timed out waiting foxglove server shutdown")
		}
	})

	return &foxgloveSession{hub: hub, conn: conn, channels: channels}
}

func readWSMessage(conn *websocket.Conn) (int, []byte, error) {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	_ = conn.SetReadDeadline(time.Time{})
	return msgType, raw, err
}

func subscribeChannel(t *testing.T, conn *websocket.Conn, subID uint32, channelID uint64) {
	t.Helper()
	msg := foxglove.SubscribeMsg{
		Op:            foxglove.OpSubscribe,
		Subscriptions: []foxglove.Subscription{{ID: subID, ChannelID: channelID}},
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("subscribe channel %d: %v", channelID, err)
	}
	// Server subscriptions are async; give it a short window before publishing.
	time.Sleep(20 * time.Millisecond)
}

func readBinaryPayloadForSubID(t *testing.T, conn *websocket.Conn, subID uint32) []byte {
	t.Helper()
	for i := 0; i < 40; i++ {
		msgType, frame, err := readWSMessage(conn)
		if err != nil {
			t.Fatalf("read messageData frame: %v", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		gotSubID, _, payload, ok := foxglove.DecodeMessageData(frame)
		if !ok || gotSubID != subID {
			continue
		}
		return append([]byte(nil), payload...)
	}
	t.Fatalf("did not receive messageData for subscription id %d", subID)
	return nil
}

func TestFoxgloveAdvertisesKindChannels(t *testing.T) {
	s := startFoxgloveSession(t, foxglove.DefaultConfig())

	for _, id := range protocol.Kinds() {
		topic := "pitcrew/" + id.String()
		ch, ok := s.channels[topic]
		if !ok {
			t.Fatalf("missing advertised topic: %s", topic)
		}
		if ch.ID != foxglove.KindChannelID(id) {
			t.Fatalf("unexpected channel id for %s: %d", topic, ch.ID)
		}
	}
	if ch := s.channels["pitcrew/log"]; ch.SchemaName != "foxglove.Log" {
		t.Fatalf("unexpected log schema: %s", ch.SchemaName)
	}
}

func TestFoxglovePublishesLapPacket(t *testing.T) {
	s := startFoxgloveSession(t, foxglove.DefaultConfig())
	subscribeChannel(t, s.conn, 7, s.channels["pitcrew/lap"].ID)

	s.hub.Publish(engine.NewPacket(protocol.LapPacket{LastLapTimeMs: 83456, CarPosition: 2}, protocol.LapSize, 5, time.Unix(123, 456)))

	payload := readBinaryPayloadForSubID(t, s.conn, 7)
	var rec struct {
		Kind   string `json:"kind"`
		Player uint8  `json:"player"`
		Data   struct {
			LastLapTimeMs uint32 `json:"lastLapTimeMs"`
			CarPosition   uint8  `json:"carPosition"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &rec); err != nil {
		t.Fatalf("decode lap payload: %v", err)
	}
	if rec.Kind != "lap" || rec.Player != 5 || rec.Data.LastLapTimeMs != 83456 || rec.Data.CarPosition != 2 {
		t.Fatalf("unexpected lap payload: %+v", rec)
	}
}

func TestFoxglovePublishesEventLog(t *testing.T) {
	s := startFoxgloveSession(t, foxglove.DefaultConfig())
	subscribeChannel(t, s.conn, 11, foxglove.LogChannelID)

	s.hub.Publish(engine.NewPacket(protocol.EventPacket{
		Code:   protocol.EventFastestLap,
		Detail: protocol.FastestLap{VehicleIdx: 4, LapTime: 81.25},
	}, 18, 0, time.Unix(321, 0)))

	payload := readBinaryPayloadForSubID(t, s.conn, 11)
	var rec foxglove.LogMessage
	if err := json.Unmarshal(payload, &rec); err != nil {
		t.Fatalf("decode log payload: %v", err)
	}
	if rec.Level != 2 || rec.Message != "fastest lap: car 4 1:21.250" || rec.Name != "race" {
		t.Fatalf("unexpected log payload: %+v", rec)
	}
}

func TestFoxgloveRejectsUnknownChannel(t *testing.T) {
	s := startFoxgloveSession(t, foxglove.DefaultConfig())
	subscribeChannel(t, s.conn, 1, 9999)

	msgType, raw, err := readWSMessage(s.conn)
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("expected text status frame, got %d", msgType)
	}
	var status foxglove.StatusMsg
	if err := json.Unmarshal(raw, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Op != foxglove.OpStatus || status.Level != foxglove.StatusWarning {
		t.Fatalf("unexpected status: %+v", status)
	}
}
