package sandbox

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// newToken returns a short random identifier suitable for embedding in
// schema and table names.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// namespaceFor derives the sandbox namespace from the source database
// label and a fresh random token. Concurrent sessions against the same
// source get distinct namespaces.
func namespaceFor(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		source = "sandbox"
	}
	return fmt.Sprintf("%s_sbx_%s", sanitizeIdent(source), newToken())
}

// sanitizeIdent keeps only characters that are safe in an unquoted SQL
// identifier on every supported backend.
func sanitizeIdent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
