package emailbuilder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentTypeConstants(t *testing.T) {
	tests := []struct {
		constant ComponentType
		expected string
	}{
		{ComponentContainer, "container"},
		{ComponentRow, "row"},
		{ComponentColumn, "column"},
		{ComponentColumns, "columns"},
		{ComponentText, "text"},
		{ComponentHeading, "heading"},
		{ComponentHeader, "header"},
		{ComponentFooter, "footer"},
		{ComponentImage, "image"},
		{ComponentButton, "button"},
		{ComponentDivider, "divider"},
		{ComponentSpacer, "spacer"},
		{ComponentSocial, "social"},
		{ComponentVideo, "video"},
		{ComponentHTML, "html"},
		{ComponentAmpCarousel, "amp-carousel"},
		{ComponentAmpAccordion, "amp-accordion"},
		{ComponentAmpForm, "amp-form"},
		{ComponentAmpList, "amp-list"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, string(test.constant))
	}
}

func TestIsContainerType(t *testing.T) {
	assert.True(t, IsContainerType(ComponentContainer))
	assert.True(t, IsContainerType(ComponentColumns))
	assert.True(t, IsContainerType(ComponentRow))
	assert.True(t, IsContainerType(ComponentColumn))
	assert.False(t, IsContainerType(ComponentText))
	assert.False(t, IsContainerType(ComponentButton))
}

func TestIsKnownType(t *testing.T) {
	for _, typ := range AllComponentTypes {
		assert.True(t, IsKnownType(typ), "type %s", typ)
	}
	assert.False(t, IsKnownType(ComponentType("hologram")))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Text", DisplayName(ComponentText))
	assert.Equal(t, "Amp Carousel", DisplayName(ComponentAmpCarousel))
	assert.Equal(t, "Hologram", DisplayName(ComponentType("hologram")))
}

func TestComponentNodeUnmarshalDispatchesContent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, node *ComponentNode)
	}{
		{
			name:    "text",
			payload: `{"id":"node-1","type":"text","content":{"text":"hello"}}`,
			check: func(t *testing.T, node *ComponentNode) {
				content, ok := node.Content.(TextContent)
				require.True(t, ok)
				assert.Equal(t, "hello", content.Text)
			},
		},
		{
			name:    "button",
			payload: `{"id":"node-2","type":"button","content":{"text":"Go","href":"https://example.com","target":"_blank"}}`,
			check: func(t *testing.T, node *ComponentNode) {
				content, ok := node.Content.(ButtonContent)
				require.True(t, ok)
				assert.Equal(t, "Go", content.Text)
				assert.Equal(t, "https://example.com", content.Href)
			},
		},
		{
			name:    "social",
			payload: `{"id":"node-3","type":"social","content":{"links":[{"platform":"twitter","url":"https://twitter.com/acme"}]}}`,
			check: func(t *testing.T, node *ComponentNode) {
				content, ok := node.Content.(SocialContent)
				require.True(t, ok)
				require.Len(t, content.Links, 1)
				assert.Equal(t, "twitter", content.Links[0].Platform)
			},
		},
		{
			name:    "amp accordion",
			payload: `{"id":"node-4","type":"amp-accordion","content":{"sections":[{"title":"FAQ","body":"answer"}]}}`,
			check: func(t *testing.T, node *ComponentNode) {
				content, ok := node.Content.(AmpAccordionContent)
				require.True(t, ok)
				require.Len(t, content.Sections, 1)
				assert.Equal(t, "FAQ", content.Sections[0].Title)
			},
		},
		{
			name:    "unknown type keeps raw content",
			payload: `{"id":"node-5","type":"hologram","content":{"beam":"blue"}}`,
			check: func(t *testing.T, node *ComponentNode) {
				content, ok := node.Content.(RawContent)
				require.True(t, ok)
				assert.Equal(t, "blue", content["beam"])
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var node ComponentNode
			require.NoError(t, json.Unmarshal([]byte(test.payload), &node))
			test.check(t, &node)
		})
	}
}

func TestComponentNodeUnmarshalNestedChildren(t *testing.T) {
	payload := `{
		"id": "node-root",
		"type": "container",
		"children": [
			{"id": "node-a", "type": "text", "content": {"text": "a"}},
			{"id": "node-b", "type": "columns", "children": [
				{"id": "node-c", "type": "button", "content": {"text": "c", "href": "https://example.com"}}
			]}
		]
	}`

	var node ComponentNode
	require.NoError(t, json.Unmarshal([]byte(payload), &node))

	require.Len(t, node.Children, 2)
	assert.Equal(t, ComponentText, node.Children[0].Type)
	require.Len(t, node.Children[1].Children, 1)
	content, ok := node.Children[1].Children[0].Content.(ButtonContent)
	require.True(t, ok)
	assert.Equal(t, "c", content.Text)
}

func TestComponentNodeJSONRoundTrip(t *testing.T) {
	node := NewComponent(ComponentButton)
	node.Name = "Primary CTA"
	node.Styles = node.Styles.Merge(
		map[string]string{"backgroundColor": "#000000"},
		map[string]string{"fontSize": "14px"},
		nil,
	)
	node.Settings.HideOnMobile = true

	data, err := json.Marshal(node)
	require.NoError(t, err)

	var decoded ComponentNode
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, node.ID, decoded.ID)
	assert.Equal(t, node.Type, decoded.Type)
	assert.Equal(t, node.Name, decoded.Name)
	assert.Equal(t, node.Content, decoded.Content)
	assert.Equal(t, "#000000", decoded.Styles.Get("backgroundColor"))
	assert.Equal(t, "14px", decoded.Styles.MobileStyles["fontSize"])
	assert.True(t, decoded.Settings.HideOnMobile)
}

func TestNewComponentCoversEveryType(t *testing.T) {
	for _, typ := range AllComponentTypes {
		node := NewComponent(typ)
		require.NotNil(t, node, "type %s", typ)
		assert.NotEmpty(t, node.ID)
		assert.Equal(t, typ, node.Type)
		assert.Equal(t, DisplayName(typ), node.Name)
		assert.NotNil(t, node.Content, "type %s has no default content", typ)
		if IsContainerType(typ) {
			assert.NotNil(t, node.Children)
		}
	}
}

func TestStyleSetJSONShape(t *testing.T) {
	set := Styles(map[string]string{"color": "#111"}).Merge(
		nil,
		map[string]string{"fontSize": "13px"},
		map[string]string{"padding": "8px"},
	)

	data, err := json.Marshal(set)
	require.NoError(t, err)

	// Base props sit flat at the top level; responsive overrides nest under
	// reserved keys.
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "#111", raw["color"])
	mobile, ok := raw["mobileStyles"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "13px", mobile["fontSize"])
	tablet, ok := raw["tabletStyles"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "8px", tablet["padding"])

	var decoded StyleSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, set, decoded)
}

func TestStyleSetMergeDoesNotModifyReceiver(t *testing.T) {
	base := Styles(map[string]string{"color": "#111", "margin": "0"})
	merged := base.Merge(map[string]string{"color": "#222"}, nil, nil)

	assert.Equal(t, "#111", base.Get("color"))
	assert.Equal(t, "#222", merged.Get("color"))
	assert.Equal(t, "0", merged.Get("margin"))
}

func TestCamelToKebab(t *testing.T) {
	tests := map[string]string{
		"backgroundColor": "background-color",
		"fontSize":        "font-size",
		"zIndex":          "z-index",
		"color":           "color",
		"borderTopWidth":  "border-top-width",
	}
	for in, want := range tests {
		assert.Equal(t, want, camelToKebab(in))
	}
}

func TestNewNodeIDFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := NewNodeID()
		assert.Regexp(t, `^node-[0-9a-z]{10}$`, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
