// Package config loads observer configuration from file, environment and
// command line overrides.
package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnginePcap     = "pcap"
	EngineAFPacket = "afpacket"

	envPrefix = "TCPTS"
)

type Config struct {
	Capture       CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Flow          FlowConfig    `mapstructure:"flow" yaml:"flow"`
	Output        OutputConfig  `mapstructure:"output" yaml:"output"`
	Log           LogConfig     `mapstructure:"log" yaml:"log"`
	StatsInterval time.Duration `mapstructure:"stats_interval" yaml:"stats_interval"`
}

type CaptureConfig struct {
	Engine       string        `mapstructure:"engine" yaml:"engine"`
	Device       string        `mapstructure:"device" yaml:"device"`
	ReadFile     string        `mapstructure:"read_file" yaml:"read_file,omitempty"`
	SnapLen      int           `mapstructure:"snaplen" yaml:"snaplen"`
	Promisc      bool          `mapstructure:"promisc" yaml:"promisc"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	BufferSizeMB int           `mapstructure:"buffer_size_mb" yaml:"buffer_size_mb"`
	// Filter replaces the filter generated from the flow when set.
	Filter string `mapstructure:"filter" yaml:"filter,omitempty"`
}

type FlowConfig struct {
	LocalIP      string `mapstructure:"local_ip" yaml:"local_ip,omitempty"`
	RemoteIP     string `mapstructure:"remote_ip" yaml:"remote_ip"`
	RemotePort   uint16 `mapstructure:"remote_port" yaml:"remote_port"`
	PayloadsOnly bool   `mapstructure:"payloads_only" yaml:"payloads_only"`
}

type OutputConfig struct {
	File  string      `mapstructure:"file" yaml:"file"`
	Kafka KafkaConfig `mapstructure:"kafka" yaml:"kafka"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Brokers []string `mapstructure:"brokers" yaml:"brokers,omitempty"`
	Topic   string   `mapstructure:"topic" yaml:"topic"`
	Version string   `mapstructure:"version" yaml:"version"`
}

type LogConfig struct {
	Level  string        `mapstructure:"level" yaml:"level"`
	Format string        `mapstructure:"format" yaml:"format"`
	File   LogFileConfig `mapstructure:"file" yaml:"file"`
}

// LogFileConfig enables a rotated log file next to stderr output.
type LogFileConfig struct {
	Path       string `mapstructure:"path" yaml:"path,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.engine", EnginePcap)
	v.SetDefault("capture.device", "")
	v.SetDefault("capture.read_file", "")
	v.SetDefault("capture.snaplen", 8192)
	v.SetDefault("capture.promisc", false)
	v.SetDefault("capture.timeout", time.Second)
	v.SetDefault("capture.buffer_size_mb", 8)
	v.SetDefault("capture.filter", "")

	v.SetDefault("flow.local_ip", "")
	v.SetDefault("flow.remote_ip", "")
	v.SetDefault("flow.remote_port", 0)
	v.SetDefault("flow.payloads_only", true)

	v.SetDefault("output.file", "-")
	v.SetDefault("output.kafka.enabled", false)
	v.SetDefault("output.kafka.brokers", []string{})
	v.SetDefault("output.kafka.topic", "tcpts")
	v.SetDefault("output.kafka.version", "2.1.0")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file.path", "")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.max_age_days", 7)
	v.SetDefault("log.file.compress", false)

	v.SetDefault("stats_interval", time.Minute)
}

// Load reads path (may be empty), environment variables prefixed with TCPTS_
// and overrides, in increasing order of precedence. Override keys use the
// dotted form, e.g. "flow.remote_port".
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capture),
		validation.Field(&c.Flow),
		validation.Field(&c.Output),
		validation.Field(&c.Log),
		validation.Field(&c.StatsInterval, validation.Min(time.Duration(0))),
	)
}

func (c CaptureConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Engine, validation.Required, validation.In(EnginePcap, EngineAFPacket)),
		validation.Field(&c.Device, validation.When(c.ReadFile == "", validation.Required.Error("is required unless read_file is set"))),
		validation.Field(&c.ReadFile, validation.When(c.Engine == EngineAFPacket, validation.Empty.Error("cannot be used with the afpacket engine"))),
		validation.Field(&c.SnapLen, validation.Required, validation.Min(68), validation.Max(262144)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.BufferSizeMB, validation.Min(0), validation.When(c.Engine == EngineAFPacket, validation.Required)),
	)
}

func (f FlowConfig) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.RemoteIP, validation.Required, is.IPv4),
		validation.Field(&f.LocalIP, is.IPv4),
		validation.Field(&f.RemotePort, validation.Required),
	)
}

func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.File, validation.When(!o.Kafka.Enabled, validation.Required)),
		validation.Field(&o.Kafka),
	)
}

func (k KafkaConfig) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.Brokers, validation.When(k.Enabled, validation.Required)),
		validation.Field(&k.Topic, validation.When(k.Enabled, validation.Required)),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.Required, validation.In("trace", "debug", "info", "warn", "warning", "error")),
		validation.Field(&l.Format, validation.Required, validation.In("text", "json")),
	)
}

// Addrs returns the parsed remote and local addresses. local is the zero
// Addr when no local address is configured.
func (f FlowConfig) Addrs() (remote, local netip.Addr, err error) {
	remote, err = netip.ParseAddr(f.RemoteIP)
	if err != nil {
		return remote, local, fmt.Errorf("couldn't parse remote ip: %w", err)
	}
	if f.LocalIP != "" {
		local, err = netip.ParseAddr(f.LocalIP)
		if err != nil {
			return remote, local, fmt.Errorf("couldn't parse local ip: %w", err)
		}
	}
	return remote, local, nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
