// Package logging builds the zap loggers used by ragprompt.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger's format and verbosity.
type Options struct {
	Verbose bool      // debug level instead of info
	JSON    bool      // JSON lines instead of console text
	Writer  io.Writer // defaults to os.Stderr
}

// New returns a logger writing to opts.Writer. Logs never go to stdout so
// resolved prompts can be piped cleanly.
func New(opts Options) *zap.Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncodeCaller = nil
		cfg.CallerKey = zapcore.OmitKey
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(writer), level)
	return zap.New(core)
}

// Named returns logger.Named(name), tolerating a nil logger.
func Named(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(name)
}
