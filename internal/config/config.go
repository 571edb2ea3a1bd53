// Package config loads the YAML configuration shared by the binprot tools.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/binprot/internal/core/observability/log"
	"github.com/zeusync/binprot/internal/schema"
	"github.com/zeusync/binprot/pkg/encoding/binprot"
	"github.com/zeusync/binprot/pkg/encoding/binprot/frame"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Log    LogConfig    `yaml:"log"`
	Codec  CodecConfig  `yaml:"codec"`
	Frame  FrameConfig  `yaml:"frame"`
	Server ServerConfig `yaml:"server"`
	Verify VerifyConfig `yaml:"verify"`
	// Schema lists the type descriptors of one record, e.g. ["i64", "string"].
	Schema []string `yaml:"schema"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type CodecConfig struct {
	MaxDepth  int    `yaml:"max_depth"`
	MaxLength uint64 `yaml:"max_length"`
}

type FrameConfig struct {
	MaxRecordBytes uint64 `yaml:"max_record_bytes"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Path            string        `yaml:"path"`
	ReadLimit       int64         `yaml:"read_limit"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type VerifyConfig struct {
	// Concurrency bounds how many files are checked at once.
	Concurrency int `yaml:"concurrency"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Codec: CodecConfig{
			MaxDepth:  binprot.DefaultMaxDepth,
			MaxLength: binprot.DefaultMaxLength,
		},
		Frame: FrameConfig{
			MaxRecordBytes: frame.DefaultMaxRecordBytes,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			Path:            "/ws",
			ReadLimit:       1 << 20,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Verify: VerifyConfig{
			Concurrency: 4,
		},
		Schema: []string{"string"},
	}
}

// LoadYAML reads a configuration on top of the defaults. Unknown keys are
// rejected.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile is LoadYAML on a file. An empty path yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		c := Default()
		return c, c.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		errs = append(errs, fmt.Errorf("log.encoding must be json or console, got %q", c.Log.Encoding))
	}
	if c.Codec.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("codec.max_depth must be positive"))
	}
	if c.Codec.MaxLength == 0 {
		errs = append(errs, fmt.Errorf("codec.max_length must be positive"))
	}
	if c.Frame.MaxRecordBytes == 0 {
		errs = append(errs, fmt.Errorf("frame.max_record_bytes must be positive"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.ReadLimit <= 0 {
		errs = append(errs, fmt.Errorf("server.read_limit must be positive"))
	}
	if c.Verify.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("verify.concurrency must be positive"))
	}
	if _, err := schema.ParseTuple(c.Schema); err != nil {
		errs = append(errs, fmt.Errorf("schema: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Config) LogLevel() log.Level {
	level, _ := log.ParseLevel(c.Log.Level)
	return level
}

func (c *Config) CodecOptions() binprot.Options {
	return binprot.Options{
		MaxDepth:  c.Codec.MaxDepth,
		MaxLength: c.Codec.MaxLength,
	}
}

func (c *Config) FrameLimits() frame.Limits {
	return frame.Limits{
		MaxRecordBytes: c.Frame.MaxRecordBytes,
		Codec:          c.CodecOptions(),
	}
}

// RecordSchema parses Schema. It cannot fail on a validated config.
func (c *Config) RecordSchema() (schema.Tuple, error) {
	return schema.ParseTuple(c.Schema)
}
