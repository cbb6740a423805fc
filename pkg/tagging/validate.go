package tagging

import (
	"sort"
	"strings"
)

// Validator filters raw classifier labels against a closed allow-list
// and formats the survivors into the stored tag string.
type Validator struct {
	allowed map[string]struct{}
	prefix  string
}

// NewValidator builds a validator for the given allow-list. Allow-list
// entries are compared lower-cased and trimmed; prefix is the project
// namespace prepended to every emitted tag.
func NewValidator(allowed []string, prefix string) *Validator {
	set := make(map[string]struct{}, len(allowed))
	for _, tag := range allowed {
		set[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	return &Validator{allowed: set, prefix: prefix}
}

// Format normalizes raw label values into the final tag string:
// non-strings are discarded, strings are lower-cased and trimmed,
// anything outside the allow-list is silently dropped, survivors are
// de-duplicated, sorted and namespaced. Empty input yields "".
func (v *Validator) Format(raw []any) string {
	keep := make(map[string]struct{})
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if _, ok := v.allowed[s]; ok {
			keep[s] = struct{}{}
		}
	}
	if len(keep) == 0 {
		return ""
	}
	tags := make([]string, 0, len(keep))
	for tag := range keep {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for i, tag := range tags {
		tags[i] = v.prefix + "/" + tag
	}
	return strings.Join(tags, ",")
}
