package logger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/Wesleyxl/pitcrew-ai/pkg/engine"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

// JSONLWriter records every packet it consumes as one JSON object per line.
type JSONLWriter struct {
	enc   *json.Encoder
	kinds map[protocol.PacketID]struct{}
	log   *zap.Logger
}

type jsonRecord struct {
	TS     string `json:"ts"`
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Size   int    `json:"size"`
	Player uint8  `json:"player"`
	Data   any    `json:"data,omitempty"`
	Text   string `json:"text,omitempty"`
}

type Option func(*JSONLWriter)

// WithKinds restricts recording to the given packet kinds.
func WithKinds(kinds ...protocol.PacketID) Option {
	return func(j *JSONLWriter) {
		if len(kinds) == 0 {
			return
		}
		j.kinds = make(map[protocol.PacketID]struct{}, len(kinds))
		for _, id := range kinds {
			j.kinds[id] = struct{}{}
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(j *JSONLWriter) {
		if l != nil {
			j.log = l
		}
	}
}

func NewJSONLWriter(w io.Writer, opts ...Option) *JSONLWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	j := &JSONLWriter{
		enc: enc,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *JSONLWriter) Consume(ctx context.Context, in <-chan engine.Packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-in:
			if !ok {
				return
			}
			if !j.wants(pkt.ID) {
				continue
			}
			if err := j.Write(pkt); err != nil {
				j.log.Warn("jsonl write failed", zap.Stringer("kind", pkt.ID), zap.Error(err))
			}
		}
	}
}

// Write encodes a single packet. Event packets also carry a readable
// description in the text field.
func (j *JSONLWriter) Write(pkt engine.Packet) error {
	rec := jsonRecord{
		TS:     pkt.Timestamp.UTC().Format(time.RFC3339Nano),
		ID:     formatID(pkt.ID),
		Kind:   pkt.Kind,
		Size:   pkt.Size,
		Player: pkt.PlayerCarIndex,
		Data:   pkt.Data,
	}
	if rec.Kind == "" {
		rec.Kind = pkt.ID.String()
	}
	if ev, ok := pkt.Data.(protocol.EventPacket); ok {
		rec.Text = protocol.Describe(ev.Detail)
	}
	return j.enc.Encode(rec)
}

func (j *JSONLWriter) wants(id protocol.PacketID) bool {
	if j.kinds == nil {
		return true
	}
	_, ok := j.kinds[id]
	return ok
}

func formatID(id protocol.PacketID) string {
	return "0x" + hex.EncodeToString([]byte{uint8(id)})
}
