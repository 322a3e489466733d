package retrieval

import (
	"io"
	"log/slog"
	"strings"
)

// punctTokenizer splits after '.', '!' or '?' followed by whitespace. It is
// deterministic enough to pin the window arithmetic in tests.
type punctTokenizer struct{}

func (punctTokenizer) Tokenize(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
