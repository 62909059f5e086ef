package util

import (
	"bytes"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// Logger wraps a jww notepad per log area.
type Logger struct {
	*jww.Notepad
	name string
}

var (
	loggers    = map[string]*Logger{}
	levels     = map[string]jww.Threshold{}
	loggersMux sync.Mutex

	// OutThreshold is the default console log level
	OutThreshold = jww.LevelInfo

	// output is where all loggers write to
	output io.Writer = os.Stdout
)

// LogAreaPadding of log areas
var LogAreaPadding = 6

type redactor struct {
	r [][]byte
	w io.Writer
}

var _ io.Writer = (*redactor)(nil)

func (r *redactor) Write(p []byte) (int, error) {
	b := p
	for _, r := range r.r {
		b = bytes.ReplaceAll(b, r, []byte("***"))
	}
	return r.w.Write(b)
}

// NewLogger creates a logger with the given log area and adds it to the registry.
// Calling it twice for the same area returns the same logger.
func NewLogger(area string) *Logger {
	loggersMux.Lock()
	defer loggersMux.Unlock()

	if l, ok := loggers[area]; ok {
		return l
	}

	padded := area
	for len(padded) < LogAreaPadding {
		padded = padded + " "
	}

	level := logLevelForArea(area)
	notepad := jww.NewNotepad(level, level, output, io.Discard, padded, log.Ldate|log.Ltime)

	l := &Logger{
		Notepad: notepad,
		name:    area,
	}
	loggers[area] = l
	return l
}

// Name returns the loggers name
func (l *Logger) Name() string {
	return l.name
}

// Redact masks the given secrets in all log output of this logger
func (l *Logger) Redact(secrets ...string) {
	var red [][]byte
	for _, s := range secrets {
		if s == "" {
			continue
		}
		red = append(red, []byte(s), []byte(url.QueryEscape(s)))
	}
	if len(red) == 0 {
		return
	}

	for _, lg := range []*log.Logger{l.TRACE, l.DEBUG, l.INFO, l.WARN, l.ERROR, l.FATAL} {
		lg.SetOutput(&redactor{r: red, w: lg.Writer()})
	}
}

// logLevelForArea must be called with loggersMux held.
func logLevelForArea(area string) jww.Threshold {
	level, ok := levels[strings.ToLower(area)]
	if !ok {
		level = OutThreshold
	}
	return level
}

// LogLevel sets the default level and per-area levels for all loggers.
func LogLevel(defaultLevel string, areaLevels map[string]string) {
	loggersMux.Lock()
	defer loggersMux.Unlock()

	OutThreshold = LogLevelToThreshold(defaultLevel)

	for area, level := range areaLevels {
		levels[strings.ToLower(area)] = LogLevelToThreshold(level)
	}

	for name, l := range loggers {
		l.SetStdoutThreshold(logLevelForArea(name))
	}
}

// LogLevelToThreshold converts log level string to a jww Threshold
func LogLevelToThreshold(level string) jww.Threshold {
	switch strings.ToUpper(level) {
	case "FATAL":
		return jww.LevelFatal
	case "ERROR":
		return jww.LevelError
	case "WARN":
		return jww.LevelWarn
	case "INFO", "":
		return jww.LevelInfo
	case "DEBUG":
		return jww.LevelDebug
	case "TRACE":
		return jww.LevelTrace
	default:
		panic("invalid log level " + level)
	}
}
