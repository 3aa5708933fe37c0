// Package state defines shared program state.
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"okvars/common"
	"okvars/config"
	"okvars/store"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// set from global flags
	Format   common.OutputFmt
	CodePage encoding.Encoding

	store         store.Store
	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Store opens configured variable store on first use.
func (e *LocalEnv) Store() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if e.Cfg == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}

	s, err := store.Open(e.Cfg.Store.Kind, e.Cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s store: %w", e.Cfg.Store.Kind, err)
	}
	if e.Log != nil {
		e.Log.Debug("Store opened", zap.Stringer("kind", e.Cfg.Store.Kind), zap.String("path", e.Cfg.Store.Path))
	}
	if e.Cfg.Store.Kind.Persistent() {
		e.Rpt.Store("store."+e.Cfg.Store.Kind.String(), e.Cfg.Store.Path)
	}
	e.store = s
	return s, nil
}

// CloseStore releases store if it was opened.
func (e *LocalEnv) CloseStore() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
