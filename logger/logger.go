package logger

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
	WithField(key string, value interface{}) Logger
}

type NullLogger struct{}

func (NullLogger) Debug(msg string) {}
func (NullLogger) Info(msg string)  {}
func (NullLogger) Warn(msg string)  {}
func (NullLogger) Error(msg string) {}
func (NullLogger) Fatal(msg string) {}
func (NullLogger) WithField(key string, value interface{}) Logger {
	return NullLogger{}
}

func NewNullLogger() Logger {
	return NullLogger{}
}

var (
	log  Logger
	once sync.Once
)

// InitLogger initializes the file-backed logger under ~/.blendpipe.
// The TUI owns stdout, so log output never goes to the terminal.
func InitLogger() {
	once.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic("Failed to get user home directory: " + err.Error())
		}

		appDir := filepath.Join(homeDir, ".blendpipe")
		err = os.MkdirAll(appDir, 0755)
		if err != nil {
			panic("Failed to create .blendpipe directory: " + err.Error())
		}

		logFile, err := os.OpenFile(filepath.Join(appDir, "blendpipe.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			panic("Failed to open log file: " + err.Error())
		}

		zerologLogger := zerolog.New(logFile).With().Timestamp().Logger()
		log = &ZerologAdapter{logger: &zerologLogger}
	})
}

// GetLogger returns the logger instance
func GetLogger() Logger {
	if log == nil {
		return NewNullLogger()
	}
	return log
}

// ZerologAdapter adapts zerolog.Logger to our Logger interface
type ZerologAdapter struct {
	logger *zerolog.Logger
}

func (z *ZerologAdapter) Debug(msg string) { z.logger.Debug().Msg(msg) }
func (z *ZerologAdapter) Info(msg string)  { z.logger.Info().Msg(msg) }
func (z *ZerologAdapter) Warn(msg string)  { z.logger.Warn().Msg(msg) }
func (z *ZerologAdapter) Error(msg string) { z.logger.Error().Msg(msg) }
func (z *ZerologAdapter) Fatal(msg string) { z.logger.Fatal().Msg(msg) }
func (z *ZerologAdapter) WithField(key string, value interface{}) Logger {
	newLogger := z.logger.With().Interface(key, value).Logger()
	return &ZerologAdapter{logger: &newLogger}
}
