// Package sanitize cleans untrusted chat input before it reaches the model
// or the workspace. Basic mode strips control bytes; full mode also masks
// credential-shaped values.
package sanitize

import (
	"regexp"
	"strings"
)

// Mode selects how aggressive sanitization is.
type Mode string

const (
	ModeOff   Mode = "off"
	ModeBasic Mode = "basic"
	ModeFull  Mode = "full"
)

var (
	// ANSI escape sequences; terminal control injected into chat input.
	ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

	// Credentials: key=value / key: value pairs where the key suggests a
	// secret. The value is masked, the key is kept.
	credKVRe = regexp.MustCompile(`(?i)\b((?:password|passwd|secret|token|api_key|apikey|auth)[ \t]*[=:][ \t]*)(\S+)`)
)

// maxInputLen caps sanitized input; pathological pastes are truncated
// rather than rejected.
const maxInputLen = 1 << 16 // 64KB

// Sanitize returns text cleaned according to mode. ModeOff returns the
// input unchanged.
func Sanitize(text string, mode Mode) string {
	if mode == ModeOff || mode == "" {
		return text
	}

	out := stripControl(text)
	out = ansiRe.ReplaceAllString(out, "")

	if mode == ModeFull {
		out = credKVRe.ReplaceAllString(out, "${1}[redacted]")
	}

	if len(out) > maxInputLen {
		out = out[:maxInputLen]
	}
	return strings.TrimSpace(out)
}

// stripControl removes control bytes except newline and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
