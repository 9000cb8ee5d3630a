package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	Level  string
	Pretty bool
}

// New builds a zap logger writing JSON (or console output when Pretty)
// to a log file under the user config directory. The terminal itself
// belongs to the TUI, so logs never go to stderr.
func New(c Config) (*zap.Logger, error) {
	var cfg zap.Config
	if c.Pretty {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	level := new(zapcore.Level)
	if err := level.Set(c.Level); err != nil {
		*level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(*level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{logFilePath()}
	cfg.ErrorOutputPaths = []string{logFilePath()}

	return cfg.Build()
}

func logFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bustracker.log"
	}
	dir := filepath.Join(home, ".config", "bustracker")
	_ = os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, "bustracker.log")
}
