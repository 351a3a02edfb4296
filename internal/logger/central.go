package logger

import (
	"io"
	"strings"
)

// maximum number of entries in the central log
const maxCentral = 256

var central = newLogger(maxCentral)

// Log adds an entry to the central log
func Log(level Level, tag, detail string) {
	central.log(level, tag, detail)
}

// Logf adds a formatted entry to the central log
func Logf(level Level, tag, format string, args ...interface{}) {
	central.log(level, tag, sprintf(format, args...))
}

// SetLevel drops entries below level from now on
func SetLevel(level Level) {
	central.mu.Lock()
	central.level = level
	central.mu.Unlock()
}

// SetEcho copies every new entry to w. nil stops the echo.
func SetEcho(w io.Writer) {
	central.mu.Lock()
	central.echo = w
	central.mu.Unlock()
}

// Clear removes all entries
func Clear() {
	central.clear()
}

// Write writes the whole log to w
func Write(w io.Writer) {
	central.write(w)
}

// Tail writes the last n entries to w
func Tail(w io.Writer, n int) {
	central.tail(w, n)
}

// Entries returns a copy of the log
func Entries() []Entry {
	return central.copyEntries()
}

// StdWriter adapts the central log to the standard library log package.
// Lines of the form "[TAG] detail" keep their tag; a tag ending in _DEBUG
// is logged at Debug level.
type StdWriter struct {
	// Level is used for lines without a debug tag
	Level Level
}

func (w StdWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		tag, detail := splitTag(line)
		level := w.Level
		if strings.HasSuffix(tag, "_DEBUG") {
			level = Debug
		}
		central.log(level, tag, detail)
	}
	return len(p), nil
}

// splitTag finds the bracketed component tag. The standard log prefix
// (date and time) in front of it is dropped.
func splitTag(line string) (string, string) {
	open := strings.IndexByte(line, '[')
	if open < 0 {
		return "LOG", strings.TrimSpace(line)
	}
	end := strings.IndexByte(line[open:], ']')
	if end < 0 {
		return "LOG", strings.TrimSpace(line)
	}
	return line[open+1 : open+end], strings.TrimSpace(line[open+end+1:])
}
