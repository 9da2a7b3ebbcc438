package nlquery

import (
	"fmt"
	"regexp"
	"strings"
)

var forbiddenKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER", "CREATE", "TRUNCATE",
}

// ValidateReadOnly rejects anything that is not a single SELECT statement.
// The keyword scan is deliberately coarse: a false positive on a column name
// like "created_at" is acceptable, a write statement slipping through is not.
func ValidateReadOnly(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return fmt.Errorf("empty statement")
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") {
		return fmt.Errorf("only SELECT queries are allowed")
	}

	for _, kw := range forbiddenKeywords {
		if strings.Contains(upper, kw) {
			return fmt.Errorf("query contains forbidden keyword: %s", kw)
		}
	}

	if rest := strings.TrimRight(trimmed, "; \t\n"); strings.Contains(rest, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}

	return nil
}

var selectPattern = regexp.MustCompile(`(?is)(SELECT\s.+)`)

// ExtractSQL pulls a SQL statement out of free-form translator output,
// stripping markdown code fences and any prose before the SELECT.
func ExtractSQL(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		lines = lines[1:]
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	if !strings.HasPrefix(strings.ToUpper(text), "SELECT") {
		if m := selectPattern.FindString(text); m != "" {
			text = m
		}
	}
	return strings.TrimSpace(text)
}
