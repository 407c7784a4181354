package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	log  *zap.Logger
	once sync.Once
)

// Init builds the process-wide logger. Production uses JSON output at info
// level; everything else gets the human-readable development encoder.
func Init(env string) {
	once.Do(func() {
		var err error
		if env == "production" {
			log, err = zap.NewProduction()
		} else {
			log, err = zap.NewDevelopment()
		}
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
	})
}

// L returns the global logger, falling back to a no-op logger when Init was
// never called (tests, tooling).
func L() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
