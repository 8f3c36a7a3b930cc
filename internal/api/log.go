package api

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"sailtimer/pkg/logging"
)

const maxLogLines = 50

// key=value or key="value with spaces"
var logRegex = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// [2026-05-18 10:05:00] [START] Race started
var eventRegex = regexp.MustCompile(`^\[([^\]]+)\] \[([A-Z_-]+)\] (.*)$`)

// EventEntry is one parsed line of the race event log.
type EventEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleLatestLog returns the last captured log line, or the last n lines
// when ?n= is given.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("n")
	if q == "" {
		writeJSON(w, http.StatusOK, map[string]string{
			"log": formatLogLine(logging.GlobalLogCapture.GetLastLine()),
		})
		return
	}

	n, err := strconv.Atoi(q)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid line count %q", q))
		return
	}
	n = min(n, maxLogLines)

	lines := logging.GlobalLogCapture.Lines()
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = formatLogLine(l)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"logs": out})
}

// handleEventLog returns the recent race events, oldest first.
func handleEventLog(w http.ResponseWriter, r *http.Request) {
	lines := logging.GlobalEventCapture.Lines()
	entries := make([]EventEntry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, parseEventLine(l))
	}
	writeJSON(w, http.StatusOK, map[string][]EventEntry{
		"events": entries,
	})
}

// parseEventLine splits an event log line. Lines in another format are
// returned whole as the message.
func parseEventLine(line string) EventEntry {
	m := eventRegex.FindStringSubmatch(line)
	if m == nil {
		return EventEntry{Message: line}
	}
	e := EventEntry{Time: m[1], Type: m[2], Message: m[3]}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", m[1], time.Local); err == nil {
		e.Time = t.Format("15:04:05")
	}
	return e
}

// formatLogLine turns a slog text line into "HH:MM:SS msg (k=v, ...)".
// Params are sorted and values longer than 20 chars are dropped; the
// source= attribute added at DEBUG level is always dropped.
func formatLogLine(raw string) string {
	matches := logRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return raw
	}

	var msg, timeStr string
	var params []string

	for _, m := range matches {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				timeStr = t.Format("15:04:05")
			}
		case "level", "source":
		case "msg":
			msg = val
		default:
			if len(val) <= 20 {
				params = append(params, key+"="+val)
			}
		}
	}

	if msg == "" {
		return raw
	}

	sort.Strings(params)

	output := msg
	if timeStr != "" {
		output = timeStr + " " + msg
	}
	if len(params) > 0 {
		return fmt.Sprintf("%s (%s)", output, strings.Join(params, ", "))
	}
	return output
}
