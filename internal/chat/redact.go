package chat

import (
	"regexp"
	"strings"
)

var (
	reOpenAIKey    = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{10,}\b`)
	reAnthropicKey = regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_-]{10,}\b`)
	reAWSKey       = regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)
)

// RedactSecrets masks API keys and private key blocks in text. The second
// result reports whether anything changed.
func RedactSecrets(text string) (string, bool) {
	out := text
	out = reAnthropicKey.ReplaceAllStringFunc(out, maskToken)
	out = reOpenAIKey.ReplaceAllStringFunc(out, maskToken)
	out = reAWSKey.ReplaceAllStringFunc(out, maskToken)
	if strings.Contains(out, "-----BEGIN") {
		out = redactPEMBlocks(out)
	}
	return out, out != text
}

func maskToken(token string) string {
	if strings.Contains(token, "***") {
		return token
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "***" + token[len(token)-4:]
}

func redactPEMBlocks(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inBlock := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "-----BEGIN"):
			inBlock = true
			out = append(out, "-----BEGIN [REDACTED]-----")
		case strings.HasPrefix(line, "-----END"):
			inBlock = false
			out = append(out, "-----END [REDACTED]-----")
		case !inBlock:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
