package sandbox

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Mapper tracks the mapping from original table names to their sandbox
// counterparts and rewrites SQL text to target the sandbox. Matching is
// case-insensitive on whole identifiers; longer names are matched first
// so that "order_items" never partially matches as "order". Safe for
// concurrent use.
type Mapper struct {
	mu    sync.RWMutex
	names map[string]string // lowercased original -> sandbox reference
	re    *regexp.Regexp    // rebuilt on Add
}

// NewMapper returns an empty mapper.
func NewMapper() *Mapper {
	return &Mapper{names: make(map[string]string)}
}

// Add registers a mapping from an original table name to its sandbox
// reference (a qualified name or a suffixed table name, already quoted
// as needed).
func (m *Mapper) Add(original, sandbox string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.names[strings.ToLower(original)] = sandbox
	m.rebuildLocked()
}

// Lookup returns the sandbox reference for an original table name.
func (m *Mapper) Lookup(original string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ref, ok := m.names[strings.ToLower(original)]
	return ref, ok
}

// Names returns a copy of the full mapping.
func (m *Mapper) Names() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.names))
	for k, v := range m.names {
		out[k] = v
	}
	return out
}

// Rewrite replaces every occurrence of a mapped table name in the SQL
// text with its sandbox reference. Unmapped identifiers pass through
// untouched.
func (m *Mapper) Rewrite(sql string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.re == nil {
		return sql
	}
	return m.re.ReplaceAllStringFunc(sql, func(match string) string {
		key := strings.ToLower(strings.Trim(match, "`\""))
		if ref, ok := m.names[key]; ok {
			return ref
		}
		return match
	})
}

// rebuildLocked recompiles the match pattern. Caller holds the write lock.
func (m *Mapper) rebuildLocked() {
	if len(m.names) == 0 {
		m.re = nil
		return
	}

	keys := make([]string, 0, len(m.names))
	for k := range m.names {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	// longest first so nested names win over their prefixes
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	// quoted occurrences are consumed quotes and all, so the already
	// quoted sandbox reference slots in cleanly
	alts := make([]string, 0, len(keys)*3)
	for _, k := range keys {
		alts = append(alts, "`"+k+"`", `"`+k+`"`, `\b`+k+`\b`)
	}

	m.re = regexp.MustCompile(`(?i)(` + strings.Join(alts, "|") + `)`)
}
