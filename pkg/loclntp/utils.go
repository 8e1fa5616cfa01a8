package loclntp

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type LogLevel int32

const (
	LogError LogLevel = iota
	LogInfo
	LogDebug
)

var logLevel atomic.Int32

func init() {
	logLevel.Store(int32(LogInfo))
	if isDebug() {
		logLevel.Store(int32(LogDebug))
	}
}

func SetLogLevel(level LogLevel) {
	logLevel.Store(int32(level))
}

func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "error":
		return LogError, nil
	case "info":
		return LogInfo, nil
	case "debug":
		return LogDebug, nil
	}
	return LogInfo, fmt.Errorf("unknown log level %q", s)
}

func info(args ...any) {
	if LogLevel(logLevel.Load()) >= LogInfo || isInfo() {
		log.Println(args...)
	}
}

func debug(args ...any) {
	if debugEnabled() {
		log.Println(args...)
	}
}

func debugEnabled() bool {
	return LogLevel(logLevel.Load()) >= LogDebug || isDebug()
}

func isInfo() bool {
	return os.Getenv("INFO") == "1"
}

func isDebug() bool {
	return os.Getenv("DEBUG") == "1"
}
