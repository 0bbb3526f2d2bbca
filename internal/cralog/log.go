// Package cralog is the indexer's leveled logger: one process-wide
// *Logger writing to stdout or a log file, with caller file/line prefixing.
// It is a direct generalization of the teacher's dnflog package, extended
// with a Quiet mode sitting below Verbose.
package cralog

import (
	"fmt"
	"log"
	"os"
	"runtime"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	// SILENT suppresses everything; used by Quiet mode.
	SILENT
)

// L is the process-wide logger. Orchestrator configures it once at
// startup, before any worker goroutine starts.
var L = mustDefault()

func mustDefault() *Logger {
	l, _ := New(INFO, "")
	return l
}

type Logger struct {
	level   LogLevel
	logger  *log.Logger
	logFile *os.File
}

// New creates a logger at the given level. An empty logFilePath logs to
// stdout; otherwise the file is opened for append, created if necessary.
func New(level LogLevel, logFilePath string) (*Logger, error) {
	var logFile *os.File
	var err error

	if logFilePath != "" {
		logFile, err = os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
	} else {
		logFile = os.Stdout
	}

	return &Logger{
		level:   level,
		logger:  log.New(logFile, "", log.LstdFlags),
		logFile: logFile,
	}, nil
}

// Configure resets the package-level logger for --quiet/--verbose/--logfile
// CLI flags. Must run before the worker pool starts.
func Configure(quiet, verbose bool, logFilePath string) error {
	level := INFO
	switch {
	case quiet:
		level = SILENT
	case verbose:
		level = DEBUG
	}
	l, err := New(level, logFilePath)
	if err != nil {
		return err
	}
	L = l
	return nil
}

func (l *Logger) Close() {
	if l.logFile != os.Stdout {
		l.logFile.Close()
	}
}

func (l *Logger) logMessage(level LogLevel, format string, v ...interface{}) {
	if level < l.level {
		return
	}
	prefix := ""
	switch level {
	case DEBUG:
		prefix = "DEBUG"
	case INFO:
		prefix = "INFO"
	case WARN:
		prefix = "WARN"
	case ERROR:
		prefix = "ERROR"
	}
	_, file, line, ok := runtime.Caller(2)
	if ok {
		l.logger.SetPrefix(fmt.Sprintf("[%s][%s][%d] ", prefix, file, line))
	} else {
		l.logger.SetPrefix(fmt.Sprintf("[%s] ", prefix))
	}

	if format == "" {
		l.logger.Output(3, fmt.Sprint(v...))
	} else {
		l.logger.Output(3, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) Debug(format string, v ...interface{}) { l.logMessage(DEBUG, format, v...) }
func (l *Logger) Info(format string, v ...interface{})  { l.logMessage(INFO, format, v...) }
func (l *Logger) Warn(format string, v ...interface{})  { l.logMessage(WARN, format, v...) }
func (l *Logger) Error(format string, v ...interface{}) { l.logMessage(ERROR, format, v...) }
