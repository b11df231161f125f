package bridge

import (
	"encoding/base64"
	"strings"

	"github.com/pwrecorder/pwrecorder/pkg/models"
)

// Command is the first word of a line written to the bridge's stdin.
type Command string

const (
	CmdStart     Command = "START"
	CmdPick      Command = "PICK"
	CmdHighlight Command = "HIGHLIGHT"
	CmdReset     Command = "RESET"
	CmdStop      Command = "STOP"
)

const unknownError = "Unknown error"

// EncodeCommand renders one command line. Every argument is base64 encoded, so arguments may
// hold spaces and newlines.
func EncodeCommand(cmd Command, args ...string) []byte {
	var b strings.Builder
	b.WriteString(string(cmd))
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(base64.StdEncoding.EncodeToString([]byte(a)))
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// lineBuffer collects process output and hands back complete lines. It is not safe for
// concurrent use.
type lineBuffer struct {
	pending string
}

// Feed appends chunk and returns the trimmed complete lines. A trailing partial line is kept for
// the next call.
func (b *lineBuffer) Feed(chunk []byte) []string {
	b.pending += string(chunk)
	parts := strings.Split(b.pending, "\n")
	b.pending = parts[len(parts)-1]
	lines := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		if line := strings.TrimSpace(p); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// DecodeEvent parses a line written by a bridge script. ok is false for anything that is not a
// well-formed event, including a locator event without a locator.
func DecodeEvent(line string) (ev models.ProtocolEvent, ok bool) {
	rest, found := strings.CutPrefix(line, models.ProtocolPrefix)
	if !found {
		return ev, false
	}
	kind, payload, found := strings.Cut(rest, ":")
	if !found {
		return ev, false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return ev, false
	}
	value := string(raw)

	switch models.EventKind(kind) {
	case models.EventLocator:
		if strings.TrimSpace(value) == "" {
			return ev, false
		}
		return models.ProtocolEvent{Kind: models.EventLocator, Value: value}, true
	case models.EventError:
		if strings.TrimSpace(value) == "" {
			value = unknownError
		}
		return models.ProtocolEvent{Kind: models.EventError, Value: value}, true
	default:
		return ev, false
	}
}
