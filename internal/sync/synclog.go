package sync

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/2beens/gymrpg/internal/training"

	log "github.com/sirupsen/logrus"
)

const (
	logEntityTypeMaxLen = 50
	logActionMaxLen     = 20
)

var escapedNUL = []byte(`\u0000`)

// syncLogEntry records one item as it arrived. Client text is made storable:
// valid UTF-8 without NUL, clipped to the column sizes.
func syncLogEntry(change Change, status Status, itemErr error, now time.Time) training.SyncLogEntry {
	entry := training.SyncLogEntry{
		EntityType: clip(logText(string(change.EntityType)), logEntityTypeMaxLen),
		EntityKey:  clip(logText(change.EntityKey), maxEntityKeyLen),
		Action:     clip(logText(string(change.Action)), logActionMaxLen),
		Status:     string(status),
		SyncedAt:   now,
	}
	if itemErr != nil {
		entry.Error = logText(itemMessage(itemErr))
	}
	if len(change.Data) > 0 {
		entry.Payload = logPayload(change.Data)
	}
	return entry
}

func logText(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, "\uFFFD"), "\x00", "")
}

// logPayload returns data unchanged unless it carries invalid UTF-8 or NUL
// characters, in which case it is re-encoded with both replaced.
func logPayload(data json.RawMessage) []byte {
	if utf8.Valid(data) && !bytes.Contains(data, escapedNUL) {
		return data
	}

	// invalid UTF-8 is replaced while decoding
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		log.Debugf("sync log: dropping undecodable payload: %s", err)
		return nil
	}
	clean, err := json.Marshal(scrubNUL(v))
	if err != nil {
		log.Debugf("sync log: dropping unencodable payload: %s", err)
		return nil
	}
	return clean
}

func scrubNUL(v any) any {
	switch t := v.(type) {
	case string:
		return strings.ReplaceAll(t, "\x00", "\uFFFD")
	case []any:
		for i := range t {
			t[i] = scrubNUL(t[i])
		}
		return t
	case map[string]any:
		clean := make(map[string]any, len(t))
		for k, val := range t {
			clean[strings.ReplaceAll(k, "\x00", "\uFFFD")] = scrubNUL(val)
		}
		return clean
	default:
		return v
	}
}

// clip cuts s to at most n bytes without splitting a character.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
