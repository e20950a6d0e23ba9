package logging

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	_logFileName     = "divergence.log"
	_logLevelDebug   = "debug"
	_logLevelInfo    = "info"
	_logLevelWarn    = "warn"
	_logLevelError   = "error"
	_logMaxSize      = 500
	_logMaxAge       = 30
	_logEncodingJson = "json"
)

// Config of the logger. Without Store the log goes to stderr.
type Config struct {
	Level    string // debug|info|warn|error
	Store    string // log directory
	FileName string
	MaxSize  int // megabytes per file
	MaxAge   int // days
	Compress bool
	Encoding string // console|json
}

// New builds the zap logger described by config. The returned close function
// flushes the logger and releases the log file.
func New(config Config) (*zap.Logger, func() error, error) {
	encoder := newEncoder(config.Encoding)
	level := getZapLevel(config.Level)

	if config.Store == "" {
		logger := zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
		return logger, ignoreSyncError(logger), nil
	}

	if config.MaxSize <= 0 {
		config.MaxSize = _logMaxSize
	}
	if config.MaxAge <= 0 {
		config.MaxAge = _logMaxAge
	}
	if config.FileName == "" {
		config.FileName = _logFileName
	}
	if err := os.MkdirAll(config.Store, 0755); err != nil {
		return nil, nil, errors.Wrap(err, "create log store")
	}

	hook := &lumberjack.Logger{
		Filename:  filepath.Join(config.Store, config.FileName),
		MaxSize:   config.MaxSize,
		MaxAge:    config.MaxAge,
		Compress:  config.Compress,
		LocalTime: true,
	}
	logger := zap.New(zapcore.NewCore(encoder, zapcore.AddSync(hook), level))
	return logger, func() error {
		_ = logger.Sync()
		return hook.Close()
	}, nil
}

func ignoreSyncError(logger *zap.Logger) func() error {
	return func() error {
		// stderr can't always be synced (e.g. a terminal).
		_ = logger.Sync()
		return nil
	}
}

func getZapLevel(level string) zapcore.Level {
	switch level {
	case "", _logLevelInfo:
		return zap.InfoLevel
	case _logLevelWarn:
		return zap.WarnLevel
	case _logLevelError:
		return zap.ErrorLevel
	case _logLevelDebug:
		return zap.DebugLevel
	default:
		return zap.DebugLevel
	}
}

func newEncoder(encoding string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	}
	encoderConfig.CallerKey = ""
	if encoding == _logEncodingJson {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}
