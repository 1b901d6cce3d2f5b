package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Logger
}

func New(level, format string) *Logger {
	logger := logrus.New()

	// Set output
	logger.SetOutput(os.Stdout)

	// Set log level
	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	// Set formatter
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return &Logger{Logger: logger}
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.WithFields(parseFields(keysAndValues...)).Error(msg)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.WithFields(parseFields(keysAndValues...)).Warn(msg)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.WithFields(parseFields(keysAndValues...)).Info(msg)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.WithFields(parseFields(keysAndValues...)).Debug(msg)
}

// Component returns a child logger that always carries the given
// component name, so every line a package emits can be filtered by it.
func (l *Logger) Component(name string) *Component {
	return &Component{logger: l, entry: l.WithField("component", name)}
}

// Component is a logger scoped to one subsystem (a plugin kind, a
// queue, the scheduler, the broker). It keeps the same leveled methods
// as Logger but folds in the component field on every call.
type Component struct {
	logger *Logger
	entry  *logrus.Entry
}

func (c *Component) Error(msg string, keysAndValues ...interface{}) {
	c.entry.WithFields(parseFields(keysAndValues...)).Error(msg)
}

func (c *Component) Warn(msg string, keysAndValues ...interface{}) {
	c.entry.WithFields(parseFields(keysAndValues...)).Warn(msg)
}

func (c *Component) Info(msg string, keysAndValues ...interface{}) {
	c.entry.WithFields(parseFields(keysAndValues...)).Info(msg)
}

func (c *Component) Debug(msg string, keysAndValues ...interface{}) {
	c.entry.WithFields(parseFields(keysAndValues...)).Debug(msg)
}

func parseFields(keysAndValues ...interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			if key, ok := keysAndValues[i].(string); ok {
				fields[key] = keysAndValues[i+1]
			}
		}
	}
	return fields
}
