package schema

import (
	"regexp"
	"strings"
)

// identSegment matches a single identifier segment in any supported
// quoting style: backticks, double quotes, brackets, or bare.
const identSegment = "`[^`]+`" + `|"[^"]+"|\[[^\]]+\]|[A-Za-z0-9_]+`

// qualifiedName matches an identifier with an optional namespace prefix,
// where prefix and name may each use any quoting style independently.
const qualifiedName = `(?:` + identSegment + `)(?:\.(?:` + identSegment + `))?`

// createPattern matches CREATE TABLE statements, tolerating TEMPORARY and
// IF NOT EXISTS variants and quoted or bracketed identifiers.
var createPattern = regexp.MustCompile(`(?i)\bCREATE\s+(?:TEMP(?:ORARY)?\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + qualifiedName + `)`)

// referencePattern matches both inline column REFERENCES clauses and
// table-level FOREIGN KEY ... REFERENCES clauses.
var referencePattern = regexp.MustCompile(`(?i)\bREFERENCES\s+(` + qualifiedName + `)`)

// Extract returns the table names a piece of DDL creates and references.
// Names are normalized (quoting stripped, namespace prefix dropped,
// lowercased) and deduplicated, preserving first-seen order. Extraction is
// purely lexical: it does not validate the SQL, and unparseable text simply
// yields empty sets.
func Extract(sqlText string) (creates, references []string) {
	seen := make(map[string]bool)
	for _, m := range createPattern.FindAllStringSubmatch(sqlText, -1) {
		name := NormalizeIdent(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		creates = append(creates, name)
	}

	seenRef := make(map[string]bool)
	for _, m := range referencePattern.FindAllStringSubmatch(sqlText, -1) {
		name := NormalizeIdent(m[1])
		if name == "" || seenRef[name] {
			continue
		}
		seenRef[name] = true
		references = append(references, name)
	}

	return creates, references
}

// NormalizeIdent strips identifier quoting and any qualifying namespace
// prefix, and lowercases the result.
func NormalizeIdent(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.Trim(name, "`\"[]")
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
		name = strings.Trim(name, "`\"[]")
	}
	return strings.ToLower(name)
}
