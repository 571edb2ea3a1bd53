package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/binprot/internal/config"
	"github.com/zeusync/binprot/internal/core/observability/log"
	"github.com/zeusync/binprot/internal/schema"
	"github.com/zeusync/binprot/internal/transport/websocket"
	"github.com/zeusync/binprot/pkg/encoding/binprot"
	"github.com/zeusync/binprot/pkg/encoding/binprot/frame"
)

// ConfigPath is the YAML file to load; empty means defaults.
type ConfigPath string

// Runtime is the wired set of components shared by the CLI commands.
type Runtime struct {
	Config *config.Config
	Logger *log.Logger
	Schema schema.Tuple
	Codec  binprot.Options
	Limits frame.Limits
	Server *websocket.Server
}

var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideSchema,
	ProvideCodecOptions,
	ProvideFrameLimits,
	ProvideServer,
	wire.Struct(new(Runtime), "*"),
)

func ProvideConfig(path ConfigPath) (*config.Config, error) {
	return config.LoadFile(string(path))
}

func ProvideLogger(cfg *config.Config) *log.Logger {
	return log.New(cfg.LogLevel(), log.Options{Encoding: cfg.Log.Encoding})
}

func ProvideSchema(cfg *config.Config) (schema.Tuple, error) {
	return cfg.RecordSchema()
}

func ProvideCodecOptions(cfg *config.Config) binprot.Options {
	return cfg.CodecOptions()
}

func ProvideFrameLimits(cfg *config.Config) frame.Limits {
	return cfg.FrameLimits()
}

// ProvideServer wires an echo server that answers each message with the
// same record re-encoded.
func ProvideServer(cfg *config.Config, tuple schema.Tuple, codec binprot.Options, logger log.Log) *websocket.Server {
	serverConfig := websocket.ServerConfig{
		Addr:            cfg.Server.Addr,
		Path:            cfg.Server.Path,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Conn: websocket.Config{
			ReadLimit:    cfg.Server.ReadLimit,
			WriteTimeout: cfg.Server.WriteTimeout,
			Codec:        codec,
		},
	}
	handler := websocket.EchoHandler(func() websocket.Message { return tuple.New() }, logger)
	return websocket.NewServer(serverConfig, handler, logger)
}
