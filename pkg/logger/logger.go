package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Service string
	Version string
	Level   string // debug|info|warn|error
	Format  string // text for dev, json for everything else

	AddSource bool

	// JSON output is sampled per second so presence event storms cannot
	// flood the sink. Zero values fall back to 100 initial / every 10th.
	SampleInitial    int
	SampleThereafter int
}

// Init builds the process logger and installs it as the slog default. Every
// record carries the service identity and a per-process instance id.
func Init(cfg Config) *slog.Logger {
	if cfg.Service == "" {
		cfg.Service = "ironbot"
	}
	lvl := ParseLevel(cfg.Level)

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		h = newJSONHandler(cfg, lvl)
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: cfg.AddSource,
		})
	}

	l := slog.New(withTraceContext(h)).With(
		slog.String("service", cfg.Service),
		slog.String("version", cfg.Version),
		slog.String("instance_id", instanceID()),
	)
	slog.SetDefault(l)
	return l
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func instanceID() string {
	hn, _ := os.Hostname()
	return hn + "-" + uuid.NewString()[:8]
}

func newJSONHandler(cfg Config, lvl slog.Level) slog.Handler {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(os.Stdout),
		toZapLevel(lvl),
	)

	initial := cfg.SampleInitial
	if initial <= 0 {
		initial = 100
	}
	thereafter := cfg.SampleThereafter
	if thereafter <= 0 {
		thereafter = 10
	}
	core = zapcore.NewSamplerWithOptions(core, time.Second, initial, thereafter)

	var opts []zap.Option
	if cfg.AddSource {
		// skip the slog-zap wrapper so the caller of slog is reported
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	return slogzap.Option{Logger: zap.New(core, opts...)}.NewZapHandler()
}

func toZapLevel(lvl slog.Level) zapcore.Level {
	switch {
	case lvl <= slog.LevelDebug:
		return zapcore.DebugLevel
	case lvl == slog.LevelInfo:
		return zapcore.InfoLevel
	case lvl == slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
