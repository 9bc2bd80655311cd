package mediator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LevelFromString parses a level name, ignoring case.  Unknown names
// give Info.
func LevelFromString(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the logging hook used by the call logging middleware and by
// the server.  Sinks are the application's business.
type Logger interface {
	Logf(level Level, format string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Logf(level Level, format string, args ...any) {}

// StdLogger adapts a *log.Logger.  Lines below Min are dropped.  With
// Color set the level label is painted (when the output supports it).
type StdLogger struct {
	L      *log.Logger
	Min    Level
	Prefix string
	Color  bool
}

var levelColors = map[Level]*color.Color{
	LevelDebug: color.New(color.Faint),
	LevelInfo:  color.New(color.FgCyan),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed, color.Bold),
}

func (s StdLogger) Logf(level Level, format string, args ...any) {
	if s.L == nil || level < s.Min {
		return
	}
	label := "[" + level.String() + "]"
	if c, ok := levelColors[level]; ok && s.Color {
		label = c.Sprint(label)
	}
	if s.Prefix != "" {
		label = s.Prefix + label
	}
	s.L.Print(label + " " + fmt.Sprintf(format, args...))
}

type callLogger struct {
	logger Logger
}

// LogCalls logs every call passing through it: a debug line when it
// starts and a line with the outcome and elapsed time when it returns.
func LogCalls(logger Logger) Middleware {
	if logger == nil {
		logger = NopLogger{}
	}
	return callLogger{logger: logger}
}

func (callLogger) Describe() string { return "log" }

var (
	okLabel  = color.New(color.FgWhite).Add(color.BgGreen)
	errLabel = color.New(color.FgWhite).Add(color.BgRed)
)

func (m callLogger) Handle(ctx context.Context, call Call, next Next) (HTTPResult[any], error) {
	d := call.Descriptor
	m.logger.Logf(LevelDebug, "start %s (%s)", d.route, d.requestType)
	start := time.Now()
	r, err := next(ctx, call)
	elapsed := fmt.Sprintf("%13v", time.Since(start))
	switch {
	case err != nil:
		m.logger.Logf(LevelWarn, "|%s| %s | %s aborted: %v", errLabel.Sprint(" ERR "), elapsed, d.route, err)
	case r.ok:
		m.logger.Logf(LevelInfo, "|%s| %s | %s %d", okLabel.Sprint(" OK  "), elapsed, d.route, r.statusCode)
	default:
		m.logger.Logf(LevelWarn, "|%s| %s | %s %d %s", errLabel.Sprint(" ERR "), elapsed, d.route, r.statusCode, r.err)
		if cause := r.err.cause; cause != nil {
			m.logger.Logf(LevelError, "%s caused by: %v", d.route, cause)
		}
	}
	return r, err
}
