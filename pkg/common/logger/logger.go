package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

func init() {
	// Usable before Init so library consumers never hit a nil logger.
	Log = logrus.New()
	Log.SetOutput(os.Stderr)
	Log.SetLevel(logrus.WarnLevel)
}

// Init configures the process-wide logger. The devserver logs JSON to stdout;
// the console binary calls InitCLI instead so command output stays readable.
func Init() {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	Log.SetLevel(parseLevel(os.Getenv("LOG_LEVEL"), logrus.InfoLevel))
}

// InitCLI logs human-readable text to stderr and stays quiet unless LOG_LEVEL
// says otherwise.
func InitCLI() {
	Log = logrus.New()
	Log.SetOutput(os.Stderr)
	Log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	Log.SetLevel(parseLevel(os.Getenv("LOG_LEVEL"), logrus.WarnLevel))
}

func parseLevel(level string, fallback logrus.Level) logrus.Level {
	if level == "" {
		return fallback
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fallback
	}
	return parsed
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}
