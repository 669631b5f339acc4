package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdslog "log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/codec"
	"github.com/unkn0wn-root/entitycache/config"
	gen "github.com/unkn0wn-root/entitycache/genstore"
	asynchook "github.com/unkn0wn-root/entitycache/hooks/async"
	"github.com/unkn0wn-root/entitycache/hooks/prom"
	logruslog "github.com/unkn0wn-root/entitycache/log/logrus"
	sloglog "github.com/unkn0wn-root/entitycache/log/slog"
	zaplog "github.com/unkn0wn-root/entitycache/log/zap"
	zerologlog "github.com/unkn0wn-root/entitycache/log/zerolog"
	"github.com/unkn0wn-root/entitycache/remote"
	"github.com/unkn0wn-root/entitycache/sloghooks"
	"github.com/unkn0wn-root/entitycache/transport"
)

// runtime is everything a command talks to.
type runtime struct {
	session  *entitycache.Session
	registry *prometheus.Registry
	hooks    *asynchook.Hooks
	sync     func() error
}

// buildRuntime wires the session described by cfg. Failures are shown
// through notify and logged.
func buildRuntime(ctx context.Context, cfg *config.Config, notify entitycache.Notifier, errOut io.Writer) (*runtime, error) {
	log, sync, err := newLogger(cfg.Log, errOut)
	if err != nil {
		return nil, err
	}

	kind, err := codec.ParseKind(cfg.Codec)
	if err != nil {
		return nil, err
	}
	httpGW, err := transport.NewHTTP(transport.HTTPOptions{
		BaseURL:     cfg.BaseURL,
		Token:       cfg.Token,
		ContentType: kind.ContentType(),
		Timeout:     cfg.Timeout,
		MaxBody:     int64(cfg.MaxResponseBytes),
	})
	if err != nil {
		return nil, err
	}
	retry := []transport.RetryOption{
		transport.WithBackoff(cfg.Retry.InitialInterval, cfg.Retry.MaxInterval),
		transport.WithLogger(log),
	}
	if cfg.Retry.MaxRetries > 0 {
		retry = append(retry, transport.WithMaxRetries(cfg.Retry.MaxRetries))
	}
	gw := transport.NewRetry(httpGW, retry...)

	ro := remote.Options{
		Codec:     kind,
		MaxDecode: cfg.MaxResponseBytes,
		Guard:     entitycache.NewGuard(log, notify),
	}
	defs, err := remote.NewDefinitions(gw, ro)
	if err != nil {
		return nil, err
	}
	insts, err := remote.NewInstances(gw, ro)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	ph, err := prom.New(reg, "entitycache")
	if err != nil {
		return nil, err
	}
	var raw entitycache.Hooks = ph
	if cfg.Log.Level == "debug" {
		sh := sloghooks.New(newSlog(cfg.Log, errOut, stdslog.LevelDebug), sloghooks.Options{HitEvery: 10})
		raw = entitycache.Combine(ph, sh)
	}
	hooks := asynchook.New(raw, 1, 256)

	so := entitycache.SessionOptions{
		Definitions:     defs,
		Instances:       insts,
		Logger:          log,
		Hooks:           hooks,
		CleanupInterval: cfg.Generations.CleanupInterval,
		GenRetention:    cfg.Generations.Retention,
	}
	if cfg.Generations.Backend == "redis" {
		gs, err := newRedisGenerations(ctx, cfg.Generations)
		if err != nil {
			hooks.Close()
			return nil, err
		}
		so.GenStore = gs
	}

	s, err := entitycache.NewSession(so)
	if err != nil {
		hooks.Close()
		return nil, err
	}
	return &runtime{session: s, registry: reg, hooks: hooks, sync: sync}, nil
}

func newRedisGenerations(ctx context.Context, gc config.GenerationsConfig) (gen.GenStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: gc.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("generations: redis %s: %w", gc.RedisAddr, err)
	}
	return gen.NewRedis(rdb, gen.RedisOptions{
		Namespace:   gc.Namespace,
		TTL:         gc.TTL,
		CloseClient: true,
	})
}

// finish drains pending hook events, optionally prints the counters to
// metrics and releases the session.
func (r *runtime) finish(ctx context.Context, metrics io.Writer) error {
	r.hooks.Close()
	var errs []error
	if metrics != nil {
		errs = append(errs, r.writeMetrics(metrics))
	}
	errs = append(errs, r.session.Close(ctx))
	if r.sync != nil {
		_ = r.sync()
	}
	return errors.Join(errs...)
}

func (r *runtime) writeMetrics(w io.Writer) error {
	mfs, err := r.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// newLogger builds the configured backend writing to w. The returned func
// flushes buffered entries.
func newLogger(lc config.LogConfig, w io.Writer) (entitycache.Logger, func() error, error) {
	switch lc.Backend {
	case "zap":
		lvl, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, nil, err
		}
		var enc zapcore.Encoder
		if lc.Format == "json" {
			enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		} else {
			enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		}
		zl := zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl))
		return zaplog.New(zl), zl.Sync, nil
	case "logrus":
		lvl, err := logrus.ParseLevel(lc.Level)
		if err != nil {
			return nil, nil, err
		}
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(lvl)
		if lc.Format == "json" {
			l.SetFormatter(&logrus.JSONFormatter{})
		} else {
			l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
		}
		return logruslog.New(l), nil, nil
	case "zerolog":
		lvl, err := zerolog.ParseLevel(lc.Level)
		if err != nil {
			return nil, nil, err
		}
		out := w
		if lc.Format != "json" {
			out = zerolog.ConsoleWriter{Out: w, NoColor: true}
		}
		return zerologlog.New(zerolog.New(out).Level(lvl).With().Timestamp().Logger()), nil, nil
	case "", "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(lc.Level)); err != nil {
			return nil, nil, err
		}
		return sloglog.New(newSlog(lc, w, lvl)), nil, nil
	default:
		return nil, nil, fmt.Errorf("log: unknown backend %q", lc.Backend)
	}
}

func newSlog(lc config.LogConfig, w io.Writer, lvl stdslog.Level) *stdslog.Logger {
	ho := &stdslog.HandlerOptions{Level: lvl}
	if strings.EqualFold(lc.Format, "json") {
		return stdslog.New(stdslog.NewJSONHandler(w, ho))
	}
	return stdslog.New(stdslog.NewTextHandler(w, ho))
}
