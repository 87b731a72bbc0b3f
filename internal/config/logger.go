package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger はプロセス全体のロガーを生成する。DEBUG=true は LOG_LEVEL より優先し、
// 不明なレベルは info として扱う。
func NewLogger(level string, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.Out = os.Stdout
	logger.Formatter = &logrus.TextFormatter{
		DisableLevelTruncation: true,
		PadLevelText:           true,
		TimestampFormat:        "2006/01/02 15:04:05",
		FullTimestamp:          true,
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	if debug {
		parsed = logrus.DebugLevel
	}
	logger.Level = parsed
	return logger
}
