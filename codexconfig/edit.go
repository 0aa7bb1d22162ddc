package codexconfig

import (
	"strconv"
	"strings"
)

// upsertKey sets key = literal inside table, editing config.toml line by line
// so comments and unrelated keys survive. An empty table means the top level.
//
// A table already defined through top-level dotted keys (features.steer =
// true) is edited in that form; TOML forbids a [features] header after it.
func upsertKey(content, table, key, literal string) string {
	lines := splitLines(content)
	assignment := key + " = " + literal

	start, end, found := tableRegion(lines, table)
	if table != "" && !found {
		top, topEnd, _ := tableRegion(lines, "")
		dotted := false
		for i := top; i < topEnd; i++ {
			parts := keyParts(lines[i])
			if len(parts) < 2 || parts[0] != table {
				continue
			}
			dotted = true
			if len(parts) == 2 && parts[1] == key {
				lines[i] = rawKey(lines[i]) + " = " + literal
				return joinLines(lines)
			}
		}
		if dotted {
			return joinLines(insertLine(lines, top, topEnd, table+"."+assignment))
		}
	}
	if !found {
		var b strings.Builder
		b.WriteString(strings.TrimRight(content, "\n"))
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[" + table + "]\n")
		b.WriteString(assignment + "\n")
		return b.String()
	}

	for i := start; i < end; i++ {
		if lineKey(lines[i]) == key {
			lines[i] = assignment
			return joinLines(lines)
		}
	}

	return joinLines(insertLine(lines, start, end, assignment))
}

// insertLine adds line after the last non-blank line of the region
// [start, end).
func insertLine(lines []string, start, end int, line string) []string {
	insertAt := end
	for insertAt > start && strings.TrimSpace(lines[insertAt-1]) == "" {
		insertAt--
	}

	out := make([]string, 0, len(lines)+2)
	out = append(out, lines[:insertAt]...)
	out = append(out, line)
	if insertAt == end && end < len(lines) {
		// Keep a blank line in front of the next table header.
		out = append(out, "")
	}
	return append(out, lines[insertAt:]...)
}

// tableRegion returns the half-open line range holding table's keys,
// header excluded.
func tableRegion(lines []string, table string) (start, end int, found bool) {
	current := ""
	inTarget := table == ""
	if inTarget {
		start = 0
		found = true
	}
	for i, line := range lines {
		name, ok := headerName(line)
		if !ok {
			continue
		}
		if inTarget {
			return start, i, true
		}
		current = name
		if current == table {
			inTarget = true
			found = true
			start = i + 1
		}
	}
	if inTarget {
		return start, len(lines), true
	}
	return 0, 0, false
}

// headerName parses "[name]" or "[[name]]". Array-of-tables headers never
// match a plain table name.
func headerName(line string) (string, bool) {
	trimmed := strings.TrimSpace(stripComment(line))
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return "", false
	}
	if strings.HasPrefix(trimmed, "[[") {
		return "[[" + strings.TrimSpace(strings.Trim(trimmed, "[]")) + "]]", true
	}
	return strings.TrimSpace(trimmed[1 : len(trimmed)-1]), true
}

// lineKey extracts the bare or quoted key of an assignment line.
func lineKey(line string) string {
	return unquoteKey(rawKey(line))
}

// rawKey returns the key text of an assignment line as written.
func rawKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	idx := strings.Index(trimmed, "=")
	if idx <= 0 {
		return ""
	}
	return strings.TrimSpace(trimmed[:idx])
}

// keyParts splits a dotted assignment key into its unquoted parts.
// Quoted parts containing dots are not supported.
func keyParts(line string) []string {
	raw := rawKey(line)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ".")
	for i, part := range parts {
		parts[i] = unquoteKey(strings.TrimSpace(part))
	}
	return parts
}

func unquoteKey(key string) string {
	if unquoted, err := strconv.Unquote(key); err == nil {
		return unquoted
	}
	return strings.Trim(key, "'")
}

func stripComment(line string) string {
	if idx := strings.Index(line, "#"); idx >= 0 {
		return line[:idx]
	}
	return line
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func boolLiteral(v bool) string {
	return strconv.FormatBool(v)
}

func stringLiteral(v string) string {
	return strconv.Quote(v)
}
