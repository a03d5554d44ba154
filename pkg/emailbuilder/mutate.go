package emailbuilder

import "encoding/json"

// Tree mutation engine. Every operation is a pure function: it deep-clones
// the incoming template, applies the change to the clone and returns it. A
// target id that is absent from the tree is a silent no-op returning the
// input unchanged; callers who need to detect "not found" compare
// metadata.components or check presence themselves.

// ComponentPatch is a partial update for one node. Content, Styles and
// Settings merge key-wise into the existing values; the remaining fields
// replace wholesale when set.
type ComponentPatch struct {
	Name         *string                `json:"name,omitempty"`
	Locked       *bool                  `json:"locked,omitempty"`
	Hidden       *bool                  `json:"hidden,omitempty"`
	Content      map[string]interface{} `json:"content,omitempty"`
	Styles       map[string]string      `json:"styles,omitempty"`
	MobileStyles map[string]string      `json:"mobileStyles,omitempty"`
	TabletStyles map[string]string      `json:"tabletStyles,omitempty"`
	Settings     map[string]interface{} `json:"settings,omitempty"`
}

// GlobalStylesPatch deep-merges into GlobalStyles group by group, so a
// partial update to one color leaves the other tokens untouched.
type GlobalStylesPatch struct {
	Container    map[string]interface{} `json:"container,omitempty"`
	Colors       map[string]interface{} `json:"colors,omitempty"`
	Typography   map[string]interface{} `json:"typography,omitempty"`
	Spacing      map[string]string      `json:"spacing,omitempty"`
	BorderRadius map[string]string      `json:"borderRadius,omitempty"`
	Shadows      map[string]string      `json:"shadows,omitempty"`
	Responsive   map[string]interface{} `json:"responsive,omitempty"`
	CustomCSS    *string                `json:"customCss,omitempty"`
}

// AddComponent inserts a fresh node of the given type. A nil parentID means
// root level; a nil index means append. The new node's id is returned so
// the caller can select it.
func AddComponent(t *Template, componentType ComponentType, parentID *string, index *int) (*Template, string) {
	next := t.Clone()
	node := NewComponent(componentType)

	siblings := &next.Components
	if parentID != nil {
		parent := FindByID(next.Components, *parentID)
		if parent == nil {
			return t, ""
		}
		siblings = &parent.Children
	}

	pos := len(*siblings)
	if index != nil && *index >= 0 && *index < len(*siblings) {
		pos = *index
	}

	*siblings = append(*siblings, nil)
	copy((*siblings)[pos+1:], (*siblings)[pos:])
	(*siblings)[pos] = node
	resequence(*siblings)

	next.touch()
	return next, node.ID
}

// UpdateComponent applies a partial update to the node with the given id,
// wherever it sits in the tree.
func UpdateComponent(t *Template, id string, patch ComponentPatch) *Template {
	next := t.Clone()
	node := FindByID(next.Components, id)
	if node == nil {
		return t
	}

	if patch.Name != nil {
		node.Name = *patch.Name
	}
	if patch.Locked != nil {
		node.Locked = *patch.Locked
	}
	if patch.Hidden != nil {
		node.Hidden = *patch.Hidden
	}
	if patch.Content != nil {
		merged, err := mergeContent(node.Type, node.Content, patch.Content)
		if err == nil {
			node.Content = merged
		}
	}
	if patch.Styles != nil || patch.MobileStyles != nil || patch.TabletStyles != nil {
		node.Styles = node.Styles.Merge(patch.Styles, patch.MobileStyles, patch.TabletStyles)
	}
	if patch.Settings != nil {
		merged, err := mergeSettings(node.Settings, patch.Settings)
		if err == nil {
			node.Settings = merged
		}
	}

	next.touch()
	return next
}

// DeleteComponent removes the node with the given id and its whole subtree,
// re-sequencing the remaining siblings.
func DeleteComponent(t *Template, id string) *Template {
	next := t.Clone()
	if !removeByID(&next.Components, id) {
		return t
	}
	next.touch()
	return next
}

// DuplicateComponent deep-clones the subtree rooted at id, assigns fresh ids
// to the clone and every descendant, and inserts the clone immediately after
// the original. Returns the clone's id, or "" when the target is absent.
func DuplicateComponent(t *Template, id string) (*Template, string) {
	next := t.Clone()
	siblings := siblingListOf(&next.Components, id)
	if siblings == nil {
		return t, ""
	}

	pos := -1
	for i, node := range *siblings {
		if node != nil && node.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return t, ""
	}

	clone := CloneNode((*siblings)[pos], true)

	*siblings = append(*siblings, nil)
	copy((*siblings)[pos+2:], (*siblings)[pos+1:])
	(*siblings)[pos+1] = clone
	resequence(*siblings)

	next.touch()
	return next, clone.ID
}

// ReorderComponents moves the node with the given id to targetIndex within
// its own sibling list. Moving to a different parent is out of scope for
// this primitive.
func ReorderComponents(t *Template, id string, targetIndex int) *Template {
	next := t.Clone()
	siblings := siblingListOf(&next.Components, id)
	if siblings == nil {
		return t
	}

	pos := -1
	for i, node := range *siblings {
		if node != nil && node.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return t
	}

	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex >= len(*siblings) {
		targetIndex = len(*siblings) - 1
	}

	node := (*siblings)[pos]
	*siblings = append((*siblings)[:pos], (*siblings)[pos+1:]...)
	*siblings = append(*siblings, nil)
	copy((*siblings)[targetIndex+1:], (*siblings)[targetIndex:])
	(*siblings)[targetIndex] = node
	resequence(*siblings)

	next.touch()
	return next
}

// UpdateGlobalStyles deep-merges a patch into the template's global style
// tokens, one group at a time.
func UpdateGlobalStyles(t *Template, patch GlobalStylesPatch) *Template {
	next := t.Clone()
	g := &next.GlobalStyles

	if patch.Container != nil {
		mergeStructGroup(&g.Container, patch.Container)
	}
	if patch.Colors != nil {
		mergeStructGroup(&g.Colors, patch.Colors)
	}
	if patch.Typography != nil {
		mergeStructGroup(&g.Typography, patch.Typography)
	}
	if patch.Responsive != nil {
		mergeStructGroup(&g.Responsive, patch.Responsive)
	}
	if patch.Spacing != nil {
		if g.Spacing == nil {
			g.Spacing = map[string]string{}
		}
		for k, v := range patch.Spacing {
			g.Spacing[k] = v
		}
	}
	if patch.BorderRadius != nil {
		if g.BorderRadius == nil {
			g.BorderRadius = map[string]string{}
		}
		for k, v := range patch.BorderRadius {
			g.BorderRadius[k] = v
		}
	}
	if patch.Shadows != nil {
		if g.Shadows == nil {
			g.Shadows = map[string]string{}
		}
		for k, v := range patch.Shadows {
			g.Shadows[k] = v
		}
	}
	if patch.CustomCSS != nil {
		g.CustomCSS = *patch.CustomCSS
	}

	next.touch()
	return next
}

// mergeStructGroup merges a partial map into a struct group through JSON,
// keeping fields the patch does not mention.
func mergeStructGroup(target interface{}, patch map[string]interface{}) {
	flat := map[string]interface{}{}
	data, err := json.Marshal(target)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, &flat); err != nil {
		return
	}
	for k, v := range patch {
		flat[k] = v
	}
	data, err = json.Marshal(flat)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, target)
}
