package logger

import (
	"os"
	"sync"

	"github.com/op/go-logging"
)

const (
	module           = "mirror"
	defaultLevel     = "warning"
	defaultFormatStr = "%{color}%{time:2006-01-02 15:04:05.000 MST} [%{module}] %{shortfunc} -> %{level:.4s} %{id:03x}%{color:reset} %{message}"

	envFormat = "MIRROR_LOGGING_FORMAT"
	envLevel  = "MIRROR_LOGGING_LEVEL"
)

var (
	lg   *logging.Logger
	mu   sync.Mutex
	once sync.Once
)

// Logger returns the logger of the library. On first use it is configured
// from MIRROR_LOGGING_FORMAT and MIRROR_LOGGING_LEVEL.
func Logger() *logging.Logger {
	once.Do(func() {
		if configured() {
			return
		}
		if err := Configure(os.Getenv(envLevel), os.Getenv(envFormat)); err != nil {
			_ = Configure(defaultLevel, "")
		}
	})

	mu.Lock()
	defer mu.Unlock()

	return lg
}

// Configure replaces the backend of the logger. Empty arguments select the
// defaults; an unknown level is an error and leaves the logger unchanged.
func Configure(levelStr, formatStr string) error {
	if levelStr == "" {
		levelStr = defaultLevel
	}
	level, err := logging.LogLevel(levelStr)
	if err != nil {
		return err
	}

	format, err := logging.NewStringFormatter(formatStr)
	if formatStr == "" || err != nil {
		format = defaultFormatter()
	}

	stderr := logging.NewLogBackend(os.Stderr, "", 0)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(stderr, format))
	leveled.SetLevel(level, module)

	mu.Lock()
	defer mu.Unlock()

	if lg == nil {
		lg = logging.MustGetLogger(module)
	}
	lg.SetBackend(leveled)

	return nil
}

func configured() bool {
	mu.Lock()
	defer mu.Unlock()

	return lg != nil
}

func defaultFormatter() logging.Formatter {
	format, err := logging.NewStringFormatter(defaultFormatStr)
	if err != nil {
		format = logging.DefaultFormatter
	}
	return format
}
