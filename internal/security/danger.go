package security

import "strings"

// Substring patterns that classify a command as dangerous. Matching is
// case-insensitive.
var (
	destructivePatterns = []string{
		"rm -rf", "rm -fr", "dd if=", "mkfs", "chmod -r 777",
		"> /dev/sd", ":(){ :|:& };:", "git push --force", "drop table",
		"truncate table",
	}
	credentialPatterns = []string{
		"sudo", "passwd", "ssh-keygen", "chpasswd", "chown root",
	}
)

// IsDangerousCommand reports whether a command matches a destructive or
// credential-touching pattern. Used by the strict-level veto.
func IsDangerousCommand(cmd string) bool {
	return DangerReason(cmd) != ""
}

// DangerReason returns a short label for why a command is dangerous, or
// the empty string when it is not.
func DangerReason(cmd string) string {
	lower := strings.ToLower(cmd)
	for _, p := range destructivePatterns {
		if strings.Contains(lower, p) {
			return "destructive: " + p
		}
	}
	for _, p := range credentialPatterns {
		if strings.Contains(lower, p) {
			return "credential: " + p
		}
	}
	return ""
}
