package emailbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestTree() []*ComponentNode {
	return []*ComponentNode{
		{
			ID:   "node-root1",
			Type: ComponentContainer,
			Children: []*ComponentNode{
				{ID: "node-child1", Type: ComponentText, Content: TextContent{Text: "one"}},
				{
					ID:   "node-child2",
					Type: ComponentColumns,
					Children: []*ComponentNode{
						{ID: "node-grandchild", Type: ComponentButton, Content: ButtonContent{Text: "go", Href: "https://example.com"}},
					},
				},
			},
		},
		{ID: "node-root2", Type: ComponentDivider},
	}
}

func TestFindByID(t *testing.T) {
	tree := buildTestTree()

	tests := []struct {
		id    string
		found bool
	}{
		{"node-root1", true},
		{"node-root2", true},
		{"node-child1", true},
		{"node-grandchild", true},
		{"node-missing", false},
		{"", false},
	}

	for _, test := range tests {
		node := FindByID(tree, test.id)
		if test.found {
			require.NotNil(t, node, "id %s", test.id)
			assert.Equal(t, test.id, node.ID)
		} else {
			assert.Nil(t, node, "id %s", test.id)
		}
	}
}

func TestWalkTreeVisitsPreOrder(t *testing.T) {
	var visited []string
	WalkTree(buildTestTree(), func(node *ComponentNode) bool {
		visited = append(visited, node.ID)
		return true
	})

	assert.Equal(t, []string{"node-root1", "node-child1", "node-child2", "node-grandchild", "node-root2"}, visited)
}

func TestWalkTreeStopsEarly(t *testing.T) {
	var visited []string
	WalkTree(buildTestTree(), func(node *ComponentNode) bool {
		visited = append(visited, node.ID)
		return node.ID != "node-child1"
	})

	assert.Equal(t, []string{"node-root1", "node-child1"}, visited)
}

func TestCountNodes(t *testing.T) {
	assert.Equal(t, 5, CountNodes(buildTestTree()))
	assert.Equal(t, 0, CountNodes(nil))
	assert.Equal(t, 0, CountNodes([]*ComponentNode{}))
}

func TestCollectIDs(t *testing.T) {
	ids := CollectIDs(buildTestTree())

	assert.Len(t, ids, 5)
	for _, id := range []string{"node-root1", "node-child1", "node-child2", "node-grandchild", "node-root2"} {
		node, ok := ids[id]
		require.True(t, ok, "id %s", id)
		assert.Equal(t, id, node.ID)
	}
}

func TestCloneNodeKeepIDs(t *testing.T) {
	original := buildTestTree()[0]
	clone := CloneNode(original, false)

	require.NotNil(t, clone)
	assert.NotSame(t, original, clone)
	assert.Equal(t, original.ID, clone.ID)
	assert.Equal(t, original.Children[0].ID, clone.Children[0].ID)

	// Content is deep-copied, not shared.
	clone.Children[0].Content = TextContent{Text: "changed"}
	content, ok := original.Children[0].Content.(TextContent)
	require.True(t, ok)
	assert.Equal(t, "one", content.Text)
}

func TestCloneNodeFreshIDs(t *testing.T) {
	original := buildTestTree()[0]
	clone := CloneNode(original, true)

	require.NotNil(t, clone)
	assert.NotEqual(t, original.ID, clone.ID)

	originalIDs := CollectIDs([]*ComponentNode{original})
	WalkTree([]*ComponentNode{clone}, func(node *ComponentNode) bool {
		_, collides := originalIDs[node.ID]
		assert.False(t, collides, "clone reused id %s", node.ID)
		return true
	})

	// Shape and content survive the re-identification.
	assert.Equal(t, ComponentContainer, clone.Type)
	require.Len(t, clone.Children, 2)
	content, ok := clone.Children[0].Content.(TextContent)
	require.True(t, ok)
	assert.Equal(t, "one", content.Text)
}

func TestCloneNodeNil(t *testing.T) {
	assert.Nil(t, CloneNode(nil, true))
}
