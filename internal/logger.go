package internal

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const serviceName = "rankbot"

type Logger struct {
	level       LogLevel
	service     string
	environment string
	zl          zerolog.Logger
}

func NewLogger(cfg *Config) *Logger {
	return newLogger(os.Stdout, LogLevel(cfg.LogLevel), cfg.AppEnv)
}

func newLogger(w io.Writer, level LogLevel, environment string) *Logger {
	if _, ok := zerologLevels[level]; !ok {
		level = LogLevelInfo
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zl := zerolog.New(w).
		Level(zerologLevels[level]).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("environment", environment).
		Logger()

	return &Logger{
		level:       level,
		service:     serviceName,
		environment: environment,
		zl:          zl,
	}
}

var zerologLevels = map[LogLevel]zerolog.Level{
	LogLevelDebug: zerolog.DebugLevel,
	LogLevelInfo:  zerolog.InfoLevel,
	LogLevelWarn:  zerolog.WarnLevel,
	LogLevelError: zerolog.ErrorLevel,
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return zerologLevels[level] >= zerologLevels[l.level]
}

func (l *Logger) Debug(message string) *LogBuilder {
	return l.newBuilder(LogLevelDebug, message)
}

func (l *Logger) Info(message string) *LogBuilder {
	return l.newBuilder(LogLevelInfo, message)
}

func (l *Logger) Warn(message string) *LogBuilder {
	return l.newBuilder(LogLevelWarn, message)
}

func (l *Logger) Error(message string) *LogBuilder {
	return l.newBuilder(LogLevelError, message)
}

func (l *Logger) newBuilder(level LogLevel, message string) *LogBuilder {
	b := &LogBuilder{message: message}
	if l != nil && l.shouldLog(level) {
		b.event = l.zl.WithLevel(zerologLevels[level])
	}
	return b
}

// LogBuilder collects structured fields for one entry. Builders for disabled
// levels carry a nil event and every call is a no-op.
type LogBuilder struct {
	event   *zerolog.Event
	message string
}

func (b *LogBuilder) Component(component string) *LogBuilder {
	if b.event != nil {
		b.event.Str("component", component)
	}
	return b
}

func (b *LogBuilder) Operation(operation string) *LogBuilder {
	if b.event != nil {
		b.event.Str("operation", operation)
	}
	return b
}

func (b *LogBuilder) Duration(duration time.Duration) *LogBuilder {
	if b.event != nil {
		b.event.Int64("duration_ms", duration.Milliseconds())
	}
	return b
}

func (b *LogBuilder) HTTP(method, path string, statusCode int) *LogBuilder {
	if b.event == nil {
		return b
	}
	if method != "" {
		b.event.Str("method", method)
	}
	if path != "" {
		b.event.Str("path", path)
	}
	if statusCode != 0 {
		b.event.Int("status_code", statusCode)
	}
	return b
}

func (b *LogBuilder) Request(userAgent, remoteAddr, requestID string) *LogBuilder {
	if b.event == nil {
		return b
	}
	if userAgent != "" {
		b.event.Str("user_agent", userAgent)
	}
	if remoteAddr != "" {
		b.event.Str("remote_addr", remoteAddr)
	}
	if requestID != "" {
		b.event.Str("request_id", requestID)
	}
	return b
}

func (b *LogBuilder) Interaction(invocationID, userID, guildID string) *LogBuilder {
	if b.event == nil {
		return b
	}
	b.event.Str("invocation_id", invocationID)
	if userID != "" {
		b.event.Str("user_id", userID)
	}
	if guildID != "" {
		b.event.Str("guild_id", guildID)
	}
	return b
}

func (b *LogBuilder) Game(puuid, region, tier string) *LogBuilder {
	if b.event == nil {
		return b
	}
	if len(puuid) > 20 {
		puuid = puuid[:20] + "..."
	}
	if puuid != "" {
		b.event.Str("puuid", puuid)
	}
	if region != "" {
		b.event.Str("region", region)
	}
	if tier != "" {
		b.event.Str("tier", tier)
	}
	return b
}

func (b *LogBuilder) Err(err error) *LogBuilder {
	if b.event != nil && err != nil {
		b.event.Str("error", err.Error())
	}
	return b
}

func (b *LogBuilder) ErrorCode(code string) *LogBuilder {
	if b.event != nil && code != "" {
		b.event.Str("error_code", code)
	}
	return b
}

func (b *LogBuilder) Meta(key string, value interface{}) *LogBuilder {
	if b.event != nil {
		b.event.Interface(key, value)
	}
	return b
}

func (b *LogBuilder) Log() {
	if b.event != nil {
		b.event.Msg(b.message)
		b.event = nil
	}
}
