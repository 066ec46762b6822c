package blockdupes

import (
	"fmt"
	"regexp"
	"strings"
)

// NameMatcher holds case-insensitive file name patterns. A name passes when
// it fully matches any pattern; an empty matcher passes every name.
type NameMatcher struct {
	sources  []string
	patterns []*regexp.Regexp
}

// NewNameMatcher compiles patterns. Each pattern is tried as a regular
// expression first; one that does not compile is read as a shell glob.
func NewNameMatcher(patterns []string) (*NameMatcher, error) {
	nm := &NameMatcher{
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, p := range patterns {
		if err := nm.AddPattern(p); err != nil {
			return nil, err
		}
	}
	return nm, nil
}

// AddPattern compiles and appends a single pattern
func (nm *NameMatcher) AddPattern(patternStr string) error {
	re, err := compileNamePattern(patternStr)
	if err != nil {
		return err
	}
	nm.sources = append(nm.sources, patternStr)
	nm.patterns = append(nm.patterns, re)
	return nil
}

// Match reports whether the base name passes the filter
func (nm *NameMatcher) Match(name string) bool {
	if nm == nil || len(nm.patterns) == 0 {
		return true
	}
	for _, pattern := range nm.patterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// HasPatterns returns true if any pattern is loaded
func (nm *NameMatcher) HasPatterns() bool {
	return nm != nil && len(nm.patterns) > 0
}

// Patterns returns the compiled expressions, in the order they were added
func (nm *NameMatcher) Patterns() []*regexp.Regexp {
	return nm.patterns
}

func compileNamePattern(patternStr string) (*regexp.Regexp, error) {
	if patternStr == "" {
		return nil, fmt.Errorf("empty name pattern")
	}
	if re, err := regexp.Compile(`(?i)^(?:` + patternStr + `)$`); err == nil {
		return re, nil
	}
	re, err := regexp.Compile(`(?i)^(?:` + globToRegexp(patternStr) + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid name pattern: %s - %w", patternStr, err)
	}
	return re, nil
}

// globToRegexp translates shell glob syntax (*, ?, [...]) to a regular expression body
func globToRegexp(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}
