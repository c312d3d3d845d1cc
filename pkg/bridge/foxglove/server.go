package foxglove

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Wesleyxl/pitcrew-ai/pkg/engine"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

// foxglove.Log levels.
const (
	logLevelInfo    = 2
	logLevelWarning = 3
)

// PacketMessage is the payload of every per-kind channel.
type PacketMessage struct {
	TS     string             `json:"ts,omitempty"`
	Kind   string             `json:"kind"`
	Player uint8              `json:"player"`
	Data   protocol.Telemetry `json:"data"`
}

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type FrameTime struct {
	Sec  uint32 `json:"sec"`
	Nsec uint32 `json:"nsec"`
}

type FrameTransformMessage struct {
	Timestamp     FrameTime  `json:"timestamp"`
	ParentFrameID string     `json:"parent_frame_id"`
	ChildFrameID  string     `json:"child_frame_id"`
	Translation   Vector3    `json:"translation"`
	Rotation      Quaternion `json:"rotation"`
}

type FrameTransformsMessage struct {
	Transforms []FrameTransformMessage `json:"transforms"`
}

type LogMessage struct {
	Timestamp FrameTime `json:"timestamp"`
	Level     uint8     `json:"level"`
	Message   string    `json:"message"`
	Name      string    `json:"name"`
	File      string    `json:"file"`
	Line      uint32    `json:"line"`
}

type Server struct {
	cfg      Config
	hub      *engine.Hub
	log      *zap.Logger
	kinds    map[protocol.PacketID]struct{}
	channels map[uint64]struct{}
	clients  map[*client]struct{}
	mu       sync.RWMutex

	// lap completion state, owned by broadcastLoop
	lapSeen bool
	lapNum  uint8

	addrMu sync.Mutex
	addr   net.Addr
	ready  chan struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	subs map[uint32]uint64
	mu   sync.RWMutex
	once sync.Once
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func NewServer(cfg Config, hub *engine.Hub, opts ...Option) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:      cfg,
		hub:      hub,
		log:      zap.NewNop(),
		kinds:    make(map[protocol.PacketID]struct{}, len(cfg.Kinds)),
		channels: map[uint64]struct{}{LogChannelID: {}, TransformChannelID: {}},
		clients:  make(map[*client]struct{}),
		ready:    make(chan struct{}),
	}
	for _, id := range cfg.Kinds {
		if !id.Known() {
			continue
		}
		s.kinds[id] = struct{}{}
		s.channels[KindChannelID(id)] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the listening address once Run has bound it.
func (s *Server) Addr() net.Addr {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.addr
}

// Ready is closed once the websocket listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.WSAddr)
	if err != nil {
		return fmt.Errorf("foxglove listen %s: %w", s.cfg.WSAddr, err)
	}
	sub := s.hub.Subscribe()
	s.addrMu.Lock()
	s.addr = ln.Addr()
	s.addrMu.Unlock()
	close(s.ready)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.broadcastLoop(ctx, sub)

	s.log.Info("foxglove bridge listening", zap.Stringer("addr", ln.Addr()))
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = httpServer.Shutdown(shutdownCtx)
		cancel()
		s.closeClients()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		Subprotocols: []string{"foxglove.websocket.v1"},
		CheckOrigin: func(*http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn, s.cfg.SendBuf)
	s.addClient(c)
	defer func() {
		c.close()
		s.removeClient(c)
	}()

	if err := conn.WriteJSON(s.serverInfo()); err != nil {
		return
	}
	if err := conn.WriteJSON(s.advertise()); err != nil {
		return
	}

	go c.writeLoop()
	c.readLoop(s.channels)
}

func (s *Server) serverInfo() ServerInfoMsg {
	return ServerInfoMsg{
		Op:                 OpServerInfo,
		Name:               s.cfg.Name,
		Capabilities:       []string{},
		SupportedEncodings: []string{},
		Metadata:           map[string]string{"packetFormat": fmt.Sprint(protocol.PacketFormat)},
		SessionID:          fmt.Sprintf("%d", time.Now().UTC().UnixNano()),
	}
}

func (s *Server) advertise() AdvertiseMsg {
	channels := make([]Channel, 0, len(s.kinds)+2)
	for _, id := range protocol.Kinds() {
		if _, ok := s.kinds[id]; !ok {
			continue
		}
		channels = append(channels, Channel{
			ID:             KindChannelID(id),
			Topic:          s.cfg.topic(id.String()),
			Encoding:       "json",
			SchemaName:     "pitcrew." + id.String(),
			SchemaEncoding: "jsonschema",
			Schema:         PacketSchema,
		})
	}
	channels = append(channels,
		Channel{
			ID:             LogChannelID,
			Topic:          s.cfg.topic("log"),
			Encoding:       "json",
			SchemaName:     "foxglove.Log",
			SchemaEncoding: "jsonschema",
			Schema:         LogSchema,
		},
		Channel{
			ID:             TransformChannelID,
			Topic:          s.cfg.topic("tf"),
			Encoding:       "json",
			SchemaName:     "foxglove.FrameTransforms",
			SchemaEncoding: "jsonschema",
			Schema:         FrameTransformSchema,
		},
	)
	return AdvertiseMsg{Op: OpAdvertise, Channels: channels}
}

func (s *Server) broadcastLoop(ctx context.Context, sub <-chan engine.Packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-sub:
			if !ok {
				return
			}
			s.broadcastPacket(pkt)
		}
	}
}

func (s *Server) broadcastPacket(pkt engine.Packet) {
	ts := pkt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	if _, ok := s.kinds[pkt.ID]; ok {
		s.publishJSONToChannel(KindChannelID(pkt.ID), ts, PacketMessage{
			TS:     ts.UTC().Format(time.RFC3339Nano),
			Kind:   pkt.ID.String(),
			Player: pkt.PlayerCarIndex,
			Data:   pkt.Data,
		})
	}
	if log, ok := s.logFromPacket(pkt, ts); ok {
		s.publishJSONToChannel(LogChannelID, ts, log)
	}
	if tf, ok := s.transformFromPacket(pkt, ts); ok {
		s.publishJSONToChannel(TransformChannelID, ts, tf)
	}
}

func (s *Server) publishJSONToChannel(channelID uint64, ts time.Time, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		s.log.Warn("foxglove marshal failed", zap.Uint64("channel", channelID), zap.Error(err))
		return
	}

	logTime := uint64(ts.UnixNano())
	for _, c := range s.snapshotClients() {
		for _, subID := range c.subIDsForChannel(channelID) {
			c.trySend(EncodeMessageData(subID, logTime, payload))
		}
	}
}

// logFromPacket turns race events and completed laps into log lines.
func (s *Server) logFromPacket(pkt engine.Packet, ts time.Time) (LogMessage, bool) {
	var (
		text  string
		level uint8 = logLevelInfo
	)
	switch data := pkt.Data.(type) {
	case protocol.EventPacket:
		text = protocol.Describe(data.Detail)
		switch data.Detail.(type) {
		case protocol.Penalty, protocol.Collision, protocol.Retirement:
			level = logLevelWarning
		}
	case protocol.LapPacket:
		text = s.lapCompleted(data)
	}
	if text == "" {
		return LogMessage{}, false
	}
	return LogMessage{
		Timestamp: frameTime(ts),
		Level:     level,
		Message:   text,
		Name:      s.cfg.LogName,
	}, true
}

// lapCompleted tracks the lap record of car slot 0, not necessarily the
// player car.
func (s *Server) lapCompleted(lap protocol.LapPacket) string {
	prev, seen := s.lapNum, s.lapSeen
	s.lapNum, s.lapSeen = lap.CurrentLapNum, true
	if !seen || lap.CurrentLapNum <= prev {
		return ""
	}
	return fmt.Sprintf("lap %d completed in %s", prev, protocol.FormatLapTime(lap.LastLapTimeMs))
}

// transformFromPacket places the player car in the world frame. The game's
// world is Y-up; foxglove frames are Z-up.
func (s *Server) transformFromPacket(pkt engine.Packet, ts time.Time) (FrameTransformsMessage, bool) {
	motion, ok := pkt.Data.(protocol.MotionPacket)
	if !ok || int(pkt.PlayerCarIndex) >= len(motion.Cars) {
		return FrameTransformsMessage{}, false
	}
	car := motion.Cars[pkt.PlayerCarIndex]
	return FrameTransformsMessage{Transforms: []FrameTransformMessage{{
		Timestamp:     frameTime(ts),
		ParentFrameID: s.cfg.ParentFrameID,
		ChildFrameID:  s.cfg.FrameID,
		Translation: Vector3{
			X: float64(car.WorldPositionX),
			Y: float64(car.WorldPositionZ),
			Z: float64(car.WorldPositionY),
		},
		Rotation: eulerToQuaternion(float64(car.Roll), float64(car.Pitch), float64(car.Yaw)),
	}}}, true
}

func eulerToQuaternion(roll, pitch, yaw float64) Quaternion {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)
	return Quaternion{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

func frameTime(ts time.Time) FrameTime {
	return FrameTime{Sec: uint32(ts.Unix()), Nsec: uint32(ts.Nanosecond())}
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func (s *Server) closeClients() {
	for _, c := range s.snapshotClients() {
		c.close()
	}
}

func (s *Server) snapshotClients() []*client {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()
	return clients
}

func newClient(conn *websocket.Conn, sendBuf int) *client {
	if sendBuf <= 0 {
		sendBuf = DefaultConfig().SendBuf
	}
	return &client{
		conn: conn,
		send: make(chan []byte, sendBuf),
		subs: make(map[uint32]uint64),
	}
}

func (c *client) readLoop(supportedChannels map[uint64]struct{}) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var header struct {
			Op string `json:"op"`
		}
		if err := json.Unmarshal(data, &header); err != nil {
			continue
		}

		switch header.Op {
		case OpSubscribe:
			var msg SubscribeMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			for _, sub := range msg.Subscriptions {
				if _, ok := supportedChannels[sub.ChannelID]; !ok {
					c.trySendStatus(StatusWarning, fmt.Sprintf("unknown channel %d", sub.ChannelID))
					continue
				}
				c.addSub(sub.ID, sub.ChannelID)
			}
		case OpUnsubscribe:
			var msg UnsubscribeMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			for _, id := range msg.SubscriptionIDs {
				c.removeSub(id)
			}
		}
	}
}

// writeLoop is the only writer once the handshake is done. Text frames are
// tagged with a leading 0x00 by trySendStatus; binary frames start with their
// opcode.
func (c *client) writeLoop() {
	for msg := range c.send {
		msgType := websocket.BinaryMessage
		if len(msg) > 0 && msg[0] == 0x00 {
			msgType, msg = websocket.TextMessage, msg[1:]
		}
		if err := c.conn.WriteMessage(msgType, msg); err != nil {
			c.close()
			return
		}
	}
}

func (c *client) trySendStatus(level int, message string) {
	raw, err := json.Marshal(StatusMsg{Op: OpStatus, Level: level, Message: message})
	if err != nil {
		return
	}
	c.trySend(append([]byte{0x00}, raw...))
}

func (c *client) trySend(msg []byte) {
	defer func() {
		_ = recover()
	}()
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) addSub(id uint32, channelID uint64) {
	c.mu.Lock()
	c.subs[id] = channelID
	c.mu.Unlock()
}

func (c *client) removeSub(id uint32) {
	c.mu.Lock()
	delete(c.subs, id)
	c.mu.Unlock()
}

func (c *client) subIDsForChannel(channelID uint64) []uint32 {
	c.mu.RLock()
	ids := make([]uint32, 0, len(c.subs))
	for id, ch := range c.subs {
		if ch == channelID {
			ids = append(ids, id)
		}
	}
	c.mu.RUnlock()
	return ids
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}
