// Package security holds the active security policy and derives
// per-operation decisions from it: rate limiting, input sanitization,
// confirmation, and auditing.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"chatpilot/internal/ratelimit"
	"chatpilot/internal/sanitize"
)

// Level is a named bundle of policy decisions. Each stricter level is a
// superset of the previous level's checks.
type Level string

const (
	LevelDisabled Level = "disabled"
	LevelMinimal  Level = "minimal"
	LevelStandard Level = "standard"
	LevelStrict   Level = "strict"
)

// levelRank orders levels for superset comparisons. Unknown levels rank
// as standard: fail toward more checking, not less.
var levelRank = map[Level]int{
	LevelDisabled: 0,
	LevelMinimal:  1,
	LevelStandard: 2,
	LevelStrict:   3,
}

func rank(l Level) int {
	if r, ok := levelRank[l]; ok {
		return r
	}
	return levelRank[LevelStandard]
}

// AtLeast reports whether l is level or stricter.
func (l Level) AtLeast(level Level) bool {
	return rank(l) >= rank(level)
}

// Policy is the process-wide security configuration. It is replaced
// wholesale on settings changes via Gate.UpdatePolicy; it is never
// mutated in place by decision paths.
type Policy struct {
	Level                  Level           `yaml:"security_level"`
	AllowDangerousCommands bool            `yaml:"allow_dangerous_commands"`
	RateLimit              ratelimit.Limit `yaml:"rate_limit"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() *Policy {
	return &Policy{
		Level:                  LevelStandard,
		AllowDangerousCommands: false,
		RateLimit: ratelimit.Limit{
			MaxRequests: 20,
			Window:      time.Minute,
		},
	}
}

// RateLimitOn reports whether rate checks apply at this level.
func (p *Policy) RateLimitOn() bool { return p.Level.AtLeast(LevelMinimal) }

// SanitizeMode maps the level to an input sanitization mode.
func (p *Policy) SanitizeMode() sanitize.Mode {
	switch {
	case p.Level == LevelMinimal:
		return sanitize.ModeBasic
	case p.Level.AtLeast(LevelStandard):
		return sanitize.ModeFull
	default:
		return sanitize.ModeOff
	}
}

// AuditOn reports whether executed actions are audited.
func (p *Policy) AuditOn() bool { return p.Level.AtLeast(LevelStandard) }

// AuditVerbose reports whether detection and confirmation events are
// audited too, not just execution outcomes.
func (p *Policy) AuditVerbose() bool { return p.Level.AtLeast(LevelStrict) }

// DefaultPath returns the default policy file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "chatpilot-policy.yaml")
	}
	return filepath.Join(home, ".chatpilot", "policy.yaml")
}

// LoadPolicy loads the policy from a YAML file. Empty path falls back to
// the default location. Missing file returns defaults. Invalid YAML
// returns an error.
func LoadPolicy(path string) (*Policy, error) {
	p, _, err := LoadPolicyWithHash(path)
	return p, err
}

// LoadPolicyWithHash loads the policy and returns a SHA-256 of the raw
// YAML bytes for audit stamping. Defaults hash as sha256 of empty input.
func LoadPolicyWithHash(path string) (*Policy, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return DefaultPolicy(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("failed to read security policy: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields
	p := DefaultPolicy()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, "", fmt.Errorf("failed to parse security policy: %w", err)
	}

	switch p.Level {
	case LevelDisabled, LevelMinimal, LevelStandard, LevelStrict:
	default:
		return nil, "", fmt.Errorf("unknown security_level %q", p.Level)
	}

	return p, hash, nil
}

// DefaultPolicyYAML returns a commented YAML string for init-policy.
func DefaultPolicyYAML() string {
	return `# chatpilot security policy
# Generated by: chatpilot init-policy

# Security level. Each level is a superset of the previous one:
#   disabled - no rate limit, no sanitization, no confirmation, no audit
#   minimal  - rate limit, basic sanitization, confirm implicit actions
#   standard - full sanitization, confirm all mutating actions, audit
#   strict   - standard plus dangerous-command veto, verbose audit
security_level: standard

# Allow project-level command execution (run_project actions).
# Independent of security_level. Default: false.
allow_dangerous_commands: false

# Fixed-window rate limit applied per key (e.g. chat_messages).
rate_limit:
  max_requests: 20
  window: 1m
`
}
