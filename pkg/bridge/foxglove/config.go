package foxglove

import "github.com/Wesleyxl/pitcrew-ai/pkg/protocol"

// PacketSchema describes every per-kind channel: the JSON form of the decoded
// record wrapped with its envelope fields.
const PacketSchema = `{
  "type": "object",
  "properties": {
    "ts": { "type": "string" },
    "kind": { "type": "string" },
    "player": { "type": "integer" },
    "data": { "type": "object", "additionalProperties": true }
  },
  "required": ["kind", "data"]
}`

const LogSchema = `{
  "type": "object",
  "properties": {
    "timestamp": {
      "type": "object",
      "properties": { "sec": { "type": "integer" }, "nsec": { "type": "integer" } }
    },
    "level": { "type": "integer" },
    "message": { "type": "string" },
    "name": { "type": "string" },
    "file": { "type": "string" },
    "line": { "type": "integer" }
  }
}`

const FrameTransformSchema = `{
  "type": "object",
  "properties": {
    "transforms": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "timestamp": {
            "type": "object",
            "properties": { "sec": { "type": "integer" }, "nsec": { "type": "integer" } }
          },
          "parent_frame_id": { "type": "string" },
          "child_frame_id": { "type": "string" },
          "translation": {
            "type": "object",
            "properties": { "x": { "type": "number" }, "y": { "type": "number" }, "z": { "type": "number" } }
          },
          "rotation": {
            "type": "object",
            "properties": {
              "x": { "type": "number" }, "y": { "type": "number" },
              "z": { "type": "number" }, "w": { "type": "number" }
            }
          }
        }
      }
    }
  }
}`

const (
	// LogChannelID and TransformChannelID sit above the per-kind range
	// (packet id + 1).
	LogChannelID       uint64 = 100
	TransformChannelID uint64 = 101
)

type Config struct {
	WSAddr        string
	Name          string
	TopicPrefix   string
	Kinds         []protocol.PacketID
	LogName       string
	ParentFrameID string
	FrameID       string
	SendBuf       int
}

func DefaultConfig() Config {
	return Config{
		WSAddr:        "127.0.0.1:8765",
		Name:          "pitcrew",
		TopicPrefix:   "pitcrew",
		Kinds:         protocol.Kinds(),
		LogName:       "race",
		ParentFrameID: "world",
		FrameID:       "player_car",
		SendBuf:       256,
	}
}

// KindChannelID is the channel that carries packets of kind id.
func KindChannelID(id protocol.PacketID) uint64 {
	return uint64(id) + 1
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.WSAddr == "" {
		c.WSAddr = defaults.WSAddr
	}
	if c.Name == "" {
		c.Name = defaults.Name
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = defaults.TopicPrefix
	}
	if len(c.Kinds) == 0 {
		c.Kinds = defaults.Kinds
	}
	if c.LogName == "" {
		c.LogName = defaults.LogName
	}
	if c.ParentFrameID == "" {
		c.ParentFrameID = defaults.ParentFrameID
	}
	if c.FrameID == "" {
		c.FrameID = defaults.FrameID
	}
	if c.SendBuf <= 0 {
		c.SendBuf = defaults.SendBuf
	}
	return c
}

func (c Config) topic(name string) string {
	return c.TopicPrefix + "/" + name
}
