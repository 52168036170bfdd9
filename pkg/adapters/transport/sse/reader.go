package sse

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// maxLineSize bounds a single event-stream line
const maxLineSize = 1 << 20

// Event is one dispatched event-stream event
type Event struct {
	Type string
	Data string
	ID   string
}

// Read parses an event stream and calls fn for every complete event. Lines
// may end in "\r\n", "\n" or a bare "\r". Events with no data are dropped; a
// trailing event not terminated by a blank line is discarded. Read returns
// nil when r reaches EOF.
func Read(r io.Reader, fn func(Event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	scanner.Split(scanLines())

	var (
		eventType string
		lastID    string
		data      strings.Builder
	)

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if data.Len() > 0 {
				typ := eventType
				if typ == "" {
					typ = "message"
				}
				fn(Event{
					Type: typ,
					Data: strings.TrimSuffix(data.String(), "\n"),
					ID:   lastID,
				})
			}
			eventType = ""
			data.Reset()
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			eventType = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
		case "id":
			if !strings.ContainsRune(value, 0) {
				lastID = value
			}
		}
	}

	return scanner.Err()
}

// scanLines splits on CRLF, LF or CR. A CR ends its line immediately so events
// are dispatched without waiting for the next byte; an LF that follows it is
// skipped on the next call.
func scanLines() bufio.SplitFunc {
	skipLF := false

	return func(data []byte, atEOF bool) (int, []byte, error) {
		if skipLF && len(data) > 0 {
			skipLF = false
			if data[0] == '\n' {
				return 1, nil, nil
			}
		}

		if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
			if data[i] == '\n' {
				return i + 1, data[:i], nil
			}
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
			} else {
				skipLF = true
			}
			return i + 1, data[:i], nil
		}

		if atEOF && len(data) > 0 {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
