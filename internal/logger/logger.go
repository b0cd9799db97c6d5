package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with additional functionality
type Logger struct {
	*zap.Logger
}

// Config selects the level, encoding and sinks of a Logger.
type Config struct {
	Level            string   `yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn error"`
	Encoding         string   `yaml:"encoding" json:"encoding" jsonschema:"enum=json,enum=console,default=json" validate:"omitempty,oneof=json console"`
	OutputPaths      []string `yaml:"output_paths" json:"output_paths"`
	ErrorOutputPaths []string `yaml:"error_output_paths" json:"error_output_paths"`
}

// NewLogger creates a new logger instance with production configuration
func NewLogger() (*Logger, error) {
	return New(Config{})
}

// New builds a production logger and applies the non-empty fields of cfg.
func New(cfg Config) (*Logger, error) {
	config := zap.NewProductionConfig()

	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}

		config.Level = zap.NewAtomicLevelAt(level)
	}

	if cfg.Encoding != "" {
		config.Encoding = cfg.Encoding
	}

	if cfg.Encoding == "console" {
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if len(cfg.OutputPaths) > 0 {
		config.OutputPaths = cfg.OutputPaths
	}

	if len(cfg.ErrorOutputPaths) > 0 {
		config.ErrorOutputPaths = cfg.ErrorOutputPaths
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named returns a child logger with name appended to the logger's name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// With returns a child logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}
