package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log = New()

type Logger struct {
	base   *logrus.Logger
	rotate *lumberjack.Logger
}

// Properties mirrors logger.properties.
type Properties struct {
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
	Level      string
}

func New() *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetLevel(logrus.InfoLevel)
	return &Logger{base: base}
}

// ReadLoggerProperties loads <dir>/logger.properties. A missing file is not
// an error: the zero Properties keeps logging on stdout.
func ReadLoggerProperties(dir string) (Properties, error) {
	v := viper.New()
	v.SetConfigName("logger")
	v.SetConfigType("properties")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return Properties{Level: "Info"}, nil
		}
		return Properties{}, fmt.Errorf("read logger properties: %w", err)
	}

	return Properties{
		Filename:   cast.ToString(v.Get("logFilename")),
		MaxSize:    cast.ToInt(v.Get("maxSize")),
		MaxBackups: cast.ToInt(v.Get("maxBackups")),
		MaxAge:     cast.ToInt(v.Get("maxAge")),
		Compress:   cast.ToBool(v.Get("compress")),
		Level:      cast.ToString(v.Get("level")),
	}, nil
}

func (l *Logger) Init(props Properties) {
	if props.Filename != "" {
		l.rotate = &lumberjack.Logger{
			Filename:   props.Filename,
			MaxSize:    props.MaxSize,
			MaxBackups: props.MaxBackups,
			MaxAge:     props.MaxAge,
			Compress:   props.Compress,
		}
		l.base.SetFormatter(&logrus.JSONFormatter{})
		l.base.SetOutput(io.MultiWriter(os.Stdout, l.rotate))
	}

	switch strings.ToLower(props.Level) {
	case "trace":
		l.base.SetLevel(logrus.TraceLevel)
	case "debug":
		l.base.SetLevel(logrus.DebugLevel)
	case "info", "":
		l.base.SetLevel(logrus.InfoLevel)
	case "warn":
		l.base.SetLevel(logrus.WarnLevel)
	case "error":
		l.base.SetLevel(logrus.ErrorLevel)
	case "fatal":
		l.base.SetLevel(logrus.FatalLevel)
	default:
		l.base.SetLevel(logrus.DebugLevel)
	}
}

// Close flushes and closes the rotating file, if any.
func (l *Logger) Close() error {
	if l.rotate == nil {
		return nil
	}
	return l.rotate.Close()
}

// Logrus exposes the underlying logger, mostly for test hooks.
func (l *Logger) Logrus() *logrus.Logger {
	return l.base
}

func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.base.WithFields(fields)
}

func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.base.WithField(key, value)
}

func (l *Logger) WithError(err error) *logrus.Entry {
	return l.base.WithError(err)
}

func (l *Logger) Info(message string) {
	l.base.Info(message)
}

func (l *Logger) Error(message string) {
	l.base.Error(message)
}

func (l *Logger) Debug(message string) {
	l.base.Debug(message)
}

func (l *Logger) Warn(message string) {
	l.base.Warn(message)
}

func (l *Logger) Fatal(message string) {
	l.base.Fatal(message)
}
