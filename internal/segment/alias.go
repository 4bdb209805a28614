// Package segment provides the bi-temporal domain model: segments,
// watermarks, facts, and entity-id alias resolution.
package segment

import (
	"log/slog"
	"regexp"
	"strings"
)

type (
	// compiledAliasPattern holds a pre-compiled regex pattern and its
	// canonical template for one entity-id alias rule.
	compiledAliasPattern struct {
		regex     *regexp.Regexp
		canonical string
		variables []string
	}

	// AliasResolver rewrites tool/feed-specific entity-id spellings to one
	// canonical entity_id, so that two facts naming "the same" real-world
	// entity through different identifier schemes land on one timeline
	// instead of fragmenting it.
	//
	// Thread-safe for concurrent use (immutable after construction).
	//
	// Pattern syntax:
	//   - {variable} captures any characters except "/"
	//   - {variable*} captures any characters including "/"
	//   - Literal characters match exactly
	//   - First matching pattern wins (order matters)
	AliasResolver struct {
		patterns []compiledAliasPattern
	}
)

// aliasVariableRegex matches {name} or {name*} placeholders in a pattern.
var aliasVariableRegex = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\*?\}`)

// compileAliasPattern converts a pattern string to a compiled regex.
//
// Pattern: "nasdaq:{ticker}" → Regex: ^nasdaq:(?P<ticker>[^/]+)$.
func compileAliasPattern(pattern string) (*regexp.Regexp, []string, error) {
	variables := make([]string, 0, 4)

	escaped := regexp.QuoteMeta(pattern)
	result := escaped

	matches := aliasVariableRegex.FindAllStringSubmatch(pattern, -1)
	for _, match := range matches {
		fullMatch := match[0]
		varName := match[1]
		isGreedy := strings.HasSuffix(fullMatch, "*}")

		variables = append(variables, varName)

		var captureGroup string
		if isGreedy {
			captureGroup = "(?P<" + varName + ">.+)"
		} else {
			captureGroup = "(?P<" + varName + ">[^/]+)"
		}

		escapedVar := regexp.QuoteMeta(fullMatch)
		result = strings.Replace(result, escapedVar, captureGroup, 1)
	}

	result = "^" + result + "$"

	regex, err := regexp.Compile(result)
	if err != nil {
		return nil, nil, err
	}

	return regex, variables, nil
}

// substituteAliasVariables replaces {var} placeholders in canonical with
// captured values.
func substituteAliasVariables(canonical string, captures map[string]string) string {
	result := canonical

	for varName, value := range captures {
		result = strings.ReplaceAll(result, "{"+varName+"}", value)
		result = strings.ReplaceAll(result, "{"+varName+"*}", value)
	}

	return result
}

// NewAliasResolver creates a resolver from config with validation.
//
// Patterns with an empty pattern/canonical or invalid regex are skipped
// with a warning. Returns a resolver containing only valid patterns. If cfg
// is nil or has no patterns, returns a no-op resolver (passthrough).
func NewAliasResolver(cfg *AliasConfig) *AliasResolver {
	if cfg == nil || len(cfg.EntityPatterns) == 0 {
		return &AliasResolver{patterns: []compiledAliasPattern{}}
	}

	validPatterns := make([]compiledAliasPattern, 0, len(cfg.EntityPatterns))

	for _, ep := range cfg.EntityPatterns {
		pattern := strings.TrimSpace(ep.Pattern)
		canonical := strings.TrimSpace(ep.Canonical)

		if pattern == "" {
			slog.Warn("skipping entity alias pattern with empty pattern string")

			continue
		}

		if canonical == "" {
			slog.Warn("skipping entity alias pattern with empty canonical", slog.String("pattern", pattern))

			continue
		}

		regex, variables, err := compileAliasPattern(pattern)
		if err != nil {
			slog.Warn("skipping entity alias pattern with invalid regex",
				slog.String("pattern", pattern), slog.String("error", err.Error()))

			continue
		}

		validPatterns = append(validPatterns, compiledAliasPattern{
			regex:     regex,
			canonical: canonical,
			variables: variables,
		})
	}

	return &AliasResolver{patterns: validPatterns}
}

// Resolve rewrites entityID to its canonical form if any pattern matches,
// otherwise returns entityID unchanged. Patterns are evaluated in order;
// first match wins. Safe to call on a nil receiver (passthrough).
func (r *AliasResolver) Resolve(entityID string) string {
	if r == nil || len(r.patterns) == 0 || entityID == "" {
		return entityID
	}

	for _, cp := range r.patterns {
		match := cp.regex.FindStringSubmatch(entityID)
		if match == nil {
			continue
		}

		captures := make(map[string]string)

		for i, name := range cp.regex.SubexpNames() {
			if i > 0 && name != "" && i < len(match) {
				captures[name] = match[i]
			}
		}

		return substituteAliasVariables(cp.canonical, captures)
	}

	return entityID
}

// PatternCount returns the number of compiled patterns.
func (r *AliasResolver) PatternCount() int {
	if r == nil {
		return 0
	}

	return len(r.patterns)
}
