package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdslog "log/slog"
	"os"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/chunkcache"
	rbackend "github.com/unkn0wn-root/chunkcache/backend/redis"
	"github.com/unkn0wn-root/chunkcache/config"
	logruslog "github.com/unkn0wn-root/chunkcache/log/logrus"
	slogadapter "github.com/unkn0wn-root/chunkcache/log/slog"
	zaplog "github.com/unkn0wn-root/chunkcache/log/zap"
)

type globalOpts struct {
	configPath string
	addr       string
	label      string
	trace      bool
}

// app bundles what every subcommand needs. Records stay opaque JSON.
type app struct {
	cfg     *config.Config
	backend *rbackend.Redis
	cache   chunkcache.Cache[json.RawMessage]
	label   string
	sync    func()
	tp      *sdktrace.TracerProvider
}

func (o *globalOpts) load() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.addr != "" {
		cfg.Redis.Addr = o.addr
	}
	return cfg, cfg.Validate()
}

func (o *globalOpts) open() (*app, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	var tp *sdktrace.TracerProvider
	if o.trace {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("trace exporter: %w", err)
		}
		tp = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	}
	a, err := newApp(cfg, client, os.Stderr, tp)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	a.label = o.label
	return a, nil
}

// newApp owns client from here on.
// A nil tp leaves tracing on the global provider.
func newApp(cfg *config.Config, client goredis.UniversalClient, logOut io.Writer, tp *sdktrace.TracerProvider) (*app, error) {
	be, err := rbackend.New(rbackend.Config{
		Client:      client,
		CloseClient: true,
		Disabled:    cfg.Cache.Disabled,
		LockTTL:     cfg.Redis.LockTTL,
		RetryDelay:  cfg.Redis.RetryDelay,
	})
	if err != nil {
		return nil, err
	}
	cd, err := config.Codec[json.RawMessage](cfg)
	if err != nil {
		return nil, err
	}
	logger, sync, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	opts := chunkcache.Options[json.RawMessage]{
		Backend:   be,
		Codec:     cd,
		Logger:    logger,
		TTL:       cfg.EntryTTL(),
		LockWait:  cfg.Cache.LockWait,
		OpTimeout: cfg.Cache.OpTimeout,
		Disabled:  cfg.Cache.Disabled,
	}
	if tp != nil {
		opts.TracerProvider = tp
	}
	c, err := chunkcache.New[json.RawMessage](opts)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, backend: be, cache: c, sync: sync, tp: tp}, nil
}

func (a *app) ctx(parent context.Context) context.Context {
	if a.label == "" {
		return parent
	}
	return chunkcache.WithLabel(parent, a.label)
}

func (a *app) close(ctx context.Context) error {
	if a.sync != nil {
		a.sync()
	}
	if a.tp != nil {
		_ = a.tp.Shutdown(ctx)
	}
	return a.cache.Close(ctx)
}

func newLogger(lc config.LogConfig, out io.Writer) (chunkcache.Logger, func(), error) {
	level := strings.ToLower(lc.Level)
	switch strings.ToLower(lc.Backend) {
	case "none":
		return chunkcache.NopLogger{}, nil, nil
	case "logrus":
		l := logrus.New()
		l.SetOutput(out)
		lvl, err := logrus.ParseLevel(coalesceLevel(level))
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		l.SetLevel(lvl)
		return logruslog.LogrusLogger{E: logrus.NewEntry(l).WithField("component", "chunkcache")}, nil, nil
	case "zap":
		lvl, err := zapcore.ParseLevel(coalesceLevel(level))
		if err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(out),
			lvl,
		)
		z := zap.New(core).Named("chunkcache")
		return zaplog.ZapLogger{L: z}, func() { _ = z.Sync() }, nil
	default:
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(coalesceLevel(level))); err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
		h := stdslog.NewTextHandler(out, &stdslog.HandlerOptions{Level: lvl})
		return slogadapter.Logger{L: stdslog.New(h)}, nil, nil
	}
}

func coalesceLevel(l string) string {
	if l == "" {
		return "info"
	}
	return l
}
