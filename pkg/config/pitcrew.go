package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

const DefaultConfigPath = "pitcrew.toml"

type PitcrewConfig struct {
	Listener   ListenerConfig `toml:"listener"`
	Decode     DecodeConfig   `toml:"decode"`
	Log        LogConfig      `toml:"log"`
	Record     RecordConfig   `toml:"record"`
	Foxglove   FoxgloveConfig `toml:"foxglove"`
	Status     StatusConfig   `toml:"status"`
	Capture    CaptureConfig  `toml:"capture"`
	configPath string         `toml:"-"`
}

type ListenerConfig struct {
	Addr         string `toml:"addr"`
	Source       string `toml:"source,omitempty"`
	Handshake    string `toml:"handshake,omitempty"`
	Queue        int    `toml:"queue"`
	BufferSize   int    `toml:"buffer_size"`
	ReadTimeout  string `toml:"read_timeout"`
	Reconnect    string `toml:"reconnect"`
	ReconnectMax string `toml:"reconnect_max"`
}

type DecodeConfig struct {
	Workers   int `toml:"workers"`
	HubBuf    int `toml:"hub_buf"`
	ClientBuf int `toml:"client_buf"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file,omitempty"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type RecordConfig struct {
	Enabled    bool     `toml:"enabled"`
	Path       string   `toml:"path"`
	Kinds      []string `toml:"kinds,omitempty"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
	Compress   bool     `toml:"compress"`
}

type FoxgloveConfig struct {
	Enabled     bool     `toml:"enabled"`
	WSAddr      string   `toml:"ws_addr"`
	Name        string   `toml:"name"`
	TopicPrefix string   `toml:"topic_prefix"`
	Kinds       []string `toml:"kinds,omitempty"`
	LogName     string   `toml:"log_name"`
	ParentFrame string   `toml:"parent_frame"`
	FrameID     string   `toml:"frame_id"`
	SendBuf     int      `toml:"send_buf"`
}

type StatusConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// CaptureConfig names the raw datagram capture file. Empty disables capture.
type CaptureConfig struct {
	Path string `toml:"path,omitempty"`
}

func Default() PitcrewConfig {
	return PitcrewConfig{
		Listener: ListenerConfig{
			Addr:         "0.0.0.0:20777",
			Queue:        1024,
			BufferSize:   2048,
			ReadTimeout:  "250ms",
			Reconnect:    "1s",
			ReconnectMax: "30s",
		},
		Decode: DecodeConfig{
			Workers:   2,
			HubBuf:    1024,
			ClientBuf: 256,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		Record: RecordConfig{
			Enabled:    false,
			Path:       "sessions/pitcrew.jsonl",
			MaxSizeMB:  200,
			MaxBackups: 10,
			Compress:   true,
		},
		Foxglove: FoxgloveConfig{
			Enabled:     true,
			WSAddr:      "127.0.0.1:8765",
			Name:        "pitcrew",
			TopicPrefix: "pitcrew",
			LogName:     "race",
			ParentFrame: "world",
			FrameID:     "player_car",
			SendBuf:     256,
		},
		Status: StatusConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9102",
		},
	}
}

func Load(path string) (PitcrewConfig, error) {
	cfg, exists, err := LoadOrDefault(path)
	if err != nil {
		return PitcrewConfig{}, err
	}
	if !exists {
		return PitcrewConfig{}, os.ErrNotExist
	}
	return cfg, nil
}

// LoadOrDefault reads path, filling unset fields from Default. A missing file
// is not an error: the defaults are returned with exists=false.
func LoadOrDefault(path string) (PitcrewConfig, bool, error) {
	cfg := Default()
	cfg.configPath = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.normalize(path)
			return cfg, false, nil
		}
		return PitcrewConfig{}, false, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return PitcrewConfig{}, true, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize(path)

	if err := cfg.Validate(); err != nil {
		return PitcrewConfig{}, true, err
	}
	return cfg, true, nil
}

func (cfg *PitcrewConfig) Save(path string) error {
	cfg.normalize(path)
	if err := cfg.Validate(); err != nil {
		return err
	}

	cfg.Record.Kinds = sortKinds(cfg.Record.Kinds)
	cfg.Foxglove.Kinds = sortKinds(cfg.Foxglove.Kinds)

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (cfg *PitcrewConfig) ConfigPath() string {
	return cfg.configPath
}

// ResolvePath makes a relative file path relative to the config file's
// directory. Empty and absolute paths are returned unchanged.
func (cfg *PitcrewConfig) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	base := filepath.Dir(cfg.configPath)
	if base == "" {
		base = "."
	}
	resolved := filepath.Clean(filepath.Join(base, p))
	if abs, err := filepath.Abs(resolved); err == nil {
		return abs
	}
	return resolved
}

func (cfg *PitcrewConfig) Validate() error {
	l := cfg.Listener
	if l.Addr == "" {
		return fmt.Errorf("listener.addr is empty")
	}
	if l.Source != "" && net.ParseIP(l.Source) == nil {
		return fmt.Errorf("listener.source is not an ip address: %q", l.Source)
	}
	if l.BufferSize < protocol.HeaderSize {
		return fmt.Errorf("listener.buffer_size too small: %d", l.BufferSize)
	}
	for _, d := range []struct{ name, value string }{
		{"listener.read_timeout", l.ReadTimeout},
		{"listener.reconnect", l.Reconnect},
		{"listener.reconnect_max", l.ReconnectMax},
	} {
		if _, err := parseDuration(d.name, d.value); err != nil {
			return err
		}
	}

	if cfg.Decode.Workers < 1 || cfg.Decode.Workers > 64 {
		return fmt.Errorf("decode.workers out of range: %d", cfg.Decode.Workers)
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error: %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json: %q", cfg.Log.Format)
	}

	if cfg.Record.Enabled && cfg.Record.Path == "" {
		return fmt.Errorf("record.path is empty")
	}
	if _, err := parseKinds("record.kinds", cfg.Record.Kinds); err != nil {
		return err
	}

	if cfg.Foxglove.Enabled && cfg.Foxglove.WSAddr == "" {
		return fmt.Errorf("foxglove.ws_addr is empty")
	}
	if _, err := parseKinds("foxglove.kinds", cfg.Foxglove.Kinds); err != nil {
		return err
	}

	if cfg.Status.Enabled && cfg.Status.Addr == "" {
		return fmt.Errorf("status.addr is empty")
	}
	return nil
}

func (cfg *PitcrewConfig) normalize(path string) {
	def := Default()

	if cfg.Listener.Addr == "" {
		cfg.Listener.Addr = def.Listener.Addr
	}
	if cfg.Listener.Queue <= 0 {
		cfg.Listener.Queue = def.Listener.Queue
	}
	if cfg.Listener.BufferSize <= 0 {
		cfg.Listener.BufferSize = def.Listener.BufferSize
	}
	if cfg.Listener.ReadTimeout == "" {
		cfg.Listener.ReadTimeout = def.Listener.ReadTimeout
	}
	if cfg.Listener.Reconnect == "" {
		cfg.Listener.Reconnect = def.Listener.Reconnect
	}
	if cfg.Listener.ReconnectMax == "" {
		cfg.Listener.ReconnectMax = def.Listener.ReconnectMax
	}

	if cfg.Decode.Workers == 0 {
		cfg.Decode.Workers = def.Decode.Workers
	}
	if cfg.Decode.HubBuf <= 0 {
		cfg.Decode.HubBuf = def.Decode.HubBuf
	}
	if cfg.Decode.ClientBuf <= 0 {
		cfg.Decode.ClientBuf = def.Decode.ClientBuf
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = def.Log.MaxSizeMB
	}

	if cfg.Record.Path == "" {
		cfg.Record.Path = def.Record.Path
	}
	if cfg.Record.MaxSizeMB <= 0 {
		cfg.Record.MaxSizeMB = def.Record.MaxSizeMB
	}

	if cfg.Foxglove.WSAddr == "" {
		cfg.Foxglove.WSAddr = def.Foxglove.WSAddr
	}
	if cfg.Foxglove.Name == "" {
		cfg.Foxglove.Name = def.Foxglove.Name
	}
	if cfg.Foxglove.TopicPrefix == "" {
		cfg.Foxglove.TopicPrefix = def.Foxglove.TopicPrefix
	}
	if cfg.Foxglove.LogName == "" {
		cfg.Foxglove.LogName = def.Foxglove.LogName
	}
	if cfg.Foxglove.ParentFrame == "" {
		cfg.Foxglove.ParentFrame = def.Foxglove.ParentFrame
	}
	if cfg.Foxglove.FrameID == "" {
		cfg.Foxglove.FrameID = def.Foxglove.FrameID
	}
	if cfg.Foxglove.SendBuf <= 0 {
		cfg.Foxglove.SendBuf = def.Foxglove.SendBuf
	}

	if cfg.Status.Addr == "" {
		cfg.Status.Addr = def.Status.Addr
	}

	if path == "" {
		path = cfg.configPath
	}
	if path == "" {
		path = DefaultConfigPath
	}
	cfg.configPath = path
}

func (l ListenerConfig) ReadTimeoutDuration() time.Duration {
	d, _ := parseDuration("listener.read_timeout", l.ReadTimeout)
	return d
}

func (l ListenerConfig) ReconnectDuration() time.Duration {
	d, _ := parseDuration("listener.reconnect", l.Reconnect)
	return d
}

func (l ListenerConfig) ReconnectMaxDuration() time.Duration {
	d, _ := parseDuration("listener.reconnect_max", l.ReconnectMax)
	return d
}

// PacketKinds resolves the record kinds; nil means every kind.
func (r RecordConfig) PacketKinds() []protocol.PacketID {
	ids, _ := parseKinds("record.kinds", r.Kinds)
	return ids
}

// PacketKinds resolves the advertised kinds; nil means every kind.
func (f FoxgloveConfig) PacketKinds() []protocol.PacketID {
	ids, _ := parseKinds("foxglove.kinds", f.Kinds)
	return ids
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive: %s", field, value)
	}
	return d, nil
}

func parseKinds(field string, names []string) ([]protocol.PacketID, error) {
	if len(names) == 0 {
		return nil, nil
	}
	seen := make(map[protocol.PacketID]struct{}, len(names))
	ids := make([]protocol.PacketID, 0, len(names))
	for _, name := range names {
		id, err := protocol.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%s: duplicate kind %s", field, id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// sortKinds rewrites kind names canonically in packet id order.
func sortKinds(names []string) []string {
	ids, err := parseKinds("", names)
	if err != nil || ids == nil {
		return names
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
