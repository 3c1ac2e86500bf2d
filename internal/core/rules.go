package core

import (
	"fmt"
	"sort"
	"strings"
)

// Override is the og:image value of a route rule. Disabled marks the
// explicit `og_image: false` sentinel and Enabled an explicit `true`.
type Override struct {
	Disabled bool
	Enabled  bool
	Values   Options
}

func (o Override) IsZero() bool {
	return !o.Disabled && !o.Enabled && len(o.Values) == 0
}

type RouteRule struct {
	Pattern  string
	Override Override
}

type segmentKind int

const (
	segmentStatic segmentKind = iota
	segmentParam
	segmentCatchAll
)

type patternSegment struct {
	kind  segmentKind
	value string
}

type compiledRule struct {
	rule     RouteRule
	index    int
	segments []patternSegment
	catchAll bool
	statics  int
}

type RuleTable struct {
	rules []compiledRule
}

func NewRuleTable(rules []RouteRule) (*RuleTable, error) {
	table := &RuleTable{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		compiled, err := compilePattern(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("route rule %d: %w", i, err)
		}
		compiled.rule = rule
		compiled.index = i
		table.rules = append(table.rules, compiled)
	}
	return table, nil
}

func compilePattern(pattern string) (compiledRule, error) {
	if pattern == "" {
		return compiledRule{}, fmt.Errorf("pattern cannot be empty")
	}
	if !strings.HasPrefix(pattern, "/") {
		return compiledRule{}, fmt.Errorf("pattern %q must start with /", pattern)
	}

	parts := splitSegments(pattern)
	compiled := compiledRule{segments: make([]patternSegment, 0, len(parts))}

	for i, part := range parts {
		switch {
		case part == "**":
			if i != len(parts)-1 {
				return compiledRule{}, fmt.Errorf("pattern %q: ** is only allowed as the last segment", pattern)
			}
			compiled.catchAll = true
			compiled.segments = append(compiled.segments, patternSegment{kind: segmentCatchAll})
		case part == "*":
			compiled.segments = append(compiled.segments, patternSegment{kind: segmentParam})
		case strings.HasPrefix(part, ":"):
			if len(part) == 1 {
				return compiledRule{}, fmt.Errorf("pattern %q: parameter needs a name", pattern)
			}
			compiled.segments = append(compiled.segments, patternSegment{kind: segmentParam, value: part[1:]})
		default:
			if strings.Contains(part, "*") {
				return compiledRule{}, fmt.Errorf("pattern %q: wildcards must span a whole segment", pattern)
			}
			compiled.statics++
			compiled.segments = append(compiled.segments, patternSegment{kind: segmentStatic, value: part})
		}
	}

	return compiled, nil
}

func splitSegments(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func (r compiledRule) matches(segments []string) bool {
	for i, seg := range r.segments {
		if seg.kind == segmentCatchAll {
			return true
		}
		if i >= len(segments) {
			return false
		}
		if seg.kind == segmentStatic && seg.value != segments[i] {
			return false
		}
	}
	return len(segments) == len(r.segments)
}

// lessSpecific orders catch-all patterns before bounded ones, then fewer
// static segments before more, then shorter before longer. Equal patterns
// keep declaration order.
func lessSpecific(a, b compiledRule) bool {
	if a.catchAll != b.catchAll {
		return a.catchAll
	}
	if a.statics != b.statics {
		return a.statics < b.statics
	}
	if len(a.segments) != len(b.segments) {
		return len(a.segments) < len(b.segments)
	}
	return a.index < b.index
}

// Match returns every rule matching path, least specific first.
func (t *RuleTable) Match(path string) []RouteRule {
	if t == nil {
		return nil
	}

	segments := splitSegments(NormalizePath(path))
	matched := make([]compiledRule, 0, 4)
	for _, rule := range t.rules {
		if rule.matches(segments) {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return lessSpecific(matched[i], matched[j])
	})

	out := make([]RouteRule, len(matched))
	for i, m := range matched {
		out[i] = m.rule
	}
	return out
}

// Resolve folds every matching override so more specific rules win per key.
// A disabling rule clears whatever less specific rules contributed; a more
// specific rule that is enabled or carries values re-enables generation with
// only its own values layered on top.
func (t *RuleTable) Resolve(path string) Override {
	var folded Override
	for _, rule := range t.Match(path) {
		if rule.Override.Disabled {
			folded = Override{Disabled: true}
			continue
		}
		if !rule.Override.Enabled && len(rule.Override.Values) == 0 {
			continue
		}
		if folded.Disabled {
			folded = Override{}
		}
		folded.Values = MergeOptions(folded.Values, rule.Override.Values)
	}
	return folded
}
