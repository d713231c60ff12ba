package bot

import (
	"strconv"
	"strings"

	"finbot/internal/core"
)

// Request is one chat command from a user.
type Request struct {
	UserID  int64
	Command string // without the leading slash
	Args    string // raw text after the command
}

// Document is a file attached to a reply.
type Document struct {
	Name    string
	Content []byte
}

// Response is what the bot sends back. Document is nil for plain replies.
type Response struct {
	Text     string
	Document *Document
}

// splitArgs joins the whitespace-separated words of raw with single spaces,
// splits the result on commas and trims every field.
func splitArgs(raw string) []string {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return nil
	}
	fields := strings.Split(strings.Join(words, " "), ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// firstWord returns the first whitespace-separated word of raw, or "".
func firstWord(raw string) string {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// parseIndex converts a 1-based index typed by the user into a 0-based one.
func parseIndex(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, core.ErrInvalidIndex
	}
	return n - 1, nil
}

func normalizeCommand(cmd string) string {
	cmd = strings.TrimPrefix(strings.TrimSpace(cmd), "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}
