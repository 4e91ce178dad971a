// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pdfpages/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by process subcommand
	CreateFolders bool
	Preview       bool
	Verbose       int

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

// Start returns moment environment was created, used as run start time.
func (e *LocalEnv) Start() time.Time {
	return e.start
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// StreamConverterOutput reports if external converter output should be
// passed through to the console.
func (e *LocalEnv) StreamConverterOutput() bool {
	return e.Verbose > 1
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
