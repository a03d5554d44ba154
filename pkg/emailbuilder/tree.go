package emailbuilder

import "encoding/json"

// Generic tree utilities shared by every mutation so find/traverse/reorder
// logic lives in exactly one place.

// FindByID returns the first node with the given id in a depth-first,
// pre-order walk, or nil when absent.
func FindByID(nodes []*ComponentNode, id string) *ComponentNode {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if node.ID == id {
			return node
		}
		if found := FindByID(node.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// WalkTree visits every node depth-first, pre-order. Returning false from
// the visitor stops the walk.
func WalkTree(nodes []*ComponentNode, visit func(node *ComponentNode) bool) bool {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if !visit(node) {
			return false
		}
		if !WalkTree(node.Children, visit) {
			return false
		}
	}
	return true
}

// CountNodes returns the total number of nodes reachable from the given
// roots, roots included.
func CountNodes(nodes []*ComponentNode) int {
	count := 0
	WalkTree(nodes, func(*ComponentNode) bool {
		count++
		return true
	})
	return count
}

// CollectIDs returns the id of every node reachable from the given roots.
func CollectIDs(nodes []*ComponentNode) map[string]*ComponentNode {
	ids := make(map[string]*ComponentNode)
	WalkTree(nodes, func(node *ComponentNode) bool {
		ids[node.ID] = node
		return true
	})
	return ids
}

// CloneNode deep-copies a subtree. When freshIDs is true the clone and every
// descendant receive brand-new ids; the original ids are never reused.
func CloneNode(node *ComponentNode, freshIDs bool) *ComponentNode {
	if node == nil {
		return nil
	}

	clone := &ComponentNode{
		ID:       node.ID,
		Type:     node.Type,
		Name:     node.Name,
		Order:    node.Order,
		Locked:   node.Locked,
		Hidden:   node.Hidden,
		Content:  cloneContent(node.Type, node.Content),
		Styles:   node.Styles.Clone(),
		Settings: cloneNodeSettings(node.Settings),
	}
	if freshIDs {
		clone.ID = NewNodeID()
	}

	if node.Children != nil {
		clone.Children = make([]*ComponentNode, 0, len(node.Children))
		for _, child := range node.Children {
			clone.Children = append(clone.Children, CloneNode(child, freshIDs))
		}
	}
	return clone
}

// CloneNodes deep-copies a sibling list, preserving ids.
func CloneNodes(nodes []*ComponentNode) []*ComponentNode {
	if nodes == nil {
		return nil
	}
	out := make([]*ComponentNode, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, CloneNode(node, false))
	}
	return out
}

// cloneContent deep-copies a content payload through JSON. Content shapes
// are plain data so the round-trip is lossless.
func cloneContent(t ComponentType, content Content) Content {
	if content == nil {
		return nil
	}
	data, err := json.Marshal(content)
	if err != nil {
		return content
	}
	cloned, err := decodeContent(t, data)
	if err != nil {
		return content
	}
	return cloned
}

func cloneNodeSettings(s NodeSettings) NodeSettings {
	out := s
	out.CustomAttributes = cloneStringMap(s.CustomAttributes)
	return out
}

// resequence rewrites Order to match slice position for one sibling level.
func resequence(nodes []*ComponentNode) {
	for i, node := range nodes {
		if node != nil {
			node.Order = i
		}
	}
}

// removeByID removes the node with the given id anywhere in the tree and
// re-sequences the affected sibling level. It reports whether a node was
// removed.
func removeByID(nodes *[]*ComponentNode, id string) bool {
	for i, node := range *nodes {
		if node == nil {
			continue
		}
		if node.ID == id {
			*nodes = append((*nodes)[:i], (*nodes)[i+1:]...)
			resequence(*nodes)
			return true
		}
		if removeByID(&node.Children, id) {
			return true
		}
	}
	return false
}

// siblingListOf returns the sibling slice containing the node with the given
// id, via a pointer so the caller can rewrite it in place.
func siblingListOf(nodes *[]*ComponentNode, id string) *[]*ComponentNode {
	for _, node := range *nodes {
		if node == nil {
			continue
		}
		if node.ID == id {
			return nodes
		}
		if found := siblingListOf(&node.Children, id); found != nil {
			return found
		}
	}
	return nil
}
