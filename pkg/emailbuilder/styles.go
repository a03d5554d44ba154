package emailbuilder

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// StyleSet is a flat dictionary of CSS-like properties in semantic camelCase
// form ("backgroundColor": "#2563eb"), plus optional per-viewport override
// sets. Values are freeform strings; email HTML needs that permissiveness.
type StyleSet struct {
	Props        map[string]string `json:"-"`
	MobileStyles map[string]string `json:"-"`
	TabletStyles map[string]string `json:"-"`
}

const (
	mobileStylesKey = "mobileStyles"
	tabletStylesKey = "tabletStyles"
)

// MarshalJSON flattens the props at the top level, with the viewport
// overrides under their reserved keys.
func (s StyleSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Props)+2)
	for k, v := range s.Props {
		out[k] = v
	}
	if len(s.MobileStyles) > 0 {
		out[mobileStylesKey] = s.MobileStyles
	}
	if len(s.TabletStyles) > 0 {
		out[tabletStylesKey] = s.TabletStyles
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat form produced by MarshalJSON.
func (s *StyleSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal style set: %w", err)
	}

	s.Props = nil
	s.MobileStyles = nil
	s.TabletStyles = nil

	for key, value := range raw {
		switch key {
		case mobileStylesKey:
			if err := json.Unmarshal(value, &s.MobileStyles); err != nil {
				return fmt.Errorf("failed to unmarshal mobile styles: %w", err)
			}
		case tabletStylesKey:
			if err := json.Unmarshal(value, &s.TabletStyles); err != nil {
				return fmt.Errorf("failed to unmarshal tablet styles: %w", err)
			}
		default:
			var str string
			if err := json.Unmarshal(value, &str); err != nil {
				return fmt.Errorf("style %q must be a string: %w", key, err)
			}
			if s.Props == nil {
				s.Props = map[string]string{}
			}
			s.Props[key] = str
		}
	}
	return nil
}

// Get returns the value for a property, or the empty string when absent.
func (s StyleSet) Get(key string) string {
	return s.Props[key]
}

// IsEmpty reports whether the set carries no properties at all.
func (s StyleSet) IsEmpty() bool {
	return len(s.Props) == 0 && len(s.MobileStyles) == 0 && len(s.TabletStyles) == 0
}

// Clone returns an independent copy.
func (s StyleSet) Clone() StyleSet {
	return StyleSet{
		Props:        cloneStringMap(s.Props),
		MobileStyles: cloneStringMap(s.MobileStyles),
		TabletStyles: cloneStringMap(s.TabletStyles),
	}
}

// Merge overlays the given property maps onto a copy of the set, key by key.
// Nil maps leave the corresponding group untouched.
func (s StyleSet) Merge(props, mobile, tablet map[string]string) StyleSet {
	out := s.Clone()
	if len(props) > 0 && out.Props == nil {
		out.Props = map[string]string{}
	}
	for k, v := range props {
		out.Props[k] = v
	}
	if len(mobile) > 0 && out.MobileStyles == nil {
		out.MobileStyles = map[string]string{}
	}
	for k, v := range mobile {
		out.MobileStyles[k] = v
	}
	if len(tablet) > 0 && out.TabletStyles == nil {
		out.TabletStyles = map[string]string{}
	}
	for k, v := range tablet {
		out.TabletStyles[k] = v
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Styles builds a StyleSet from a plain property map. Convenience for tests
// and default tables.
func Styles(props map[string]string) StyleSet {
	return StyleSet{Props: props}
}

var camelBoundary = regexp.MustCompile("([A-Z])")

// camelToKebab converts a semantic camelCase property name to its CSS form.
func camelToKebab(str string) string {
	return camelBoundary.ReplaceAllStringFunc(str, func(match string) string {
		return "-" + strings.ToLower(match)
	})
}

// inlineStyle serializes a property map into the value of a style attribute.
// Keys are sorted so the output is deterministic.
func inlineStyle(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		if props[k] != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(camelToKebab(k))
		sb.WriteString(": ")
		sb.WriteString(props[k])
		sb.WriteString(";")
	}
	return sb.String()
}

// styleAttr renders a full style="" attribute, or an empty string when there
// is nothing to emit.
func styleAttr(props map[string]string) string {
	css := inlineStyle(props)
	if css == "" {
		return ""
	}
	return fmt.Sprintf(` style=%q`, css)
}

// mergedProps overlays defaults with the node's own properties. The node
// wins on conflicts; absent keys fall back to the type defaults.
func mergedProps(defaults map[string]string, own map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(own))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}

// cssRule renders a class-scoped rule block for the embedded stylesheet path.
func cssRule(selector string, props map[string]string) string {
	body := inlineStyle(props)
	if body == "" {
		return ""
	}
	return fmt.Sprintf("%s { %s }", selector, body)
}
