package types

import "fmt"

// EntityTree is a tree of named child edges where each node optionally
// holds an entity. Nodes live in an arena indexed by position, so parent
// and child references are stable integers rather than pointer cycles.
type EntityTree struct {
	hierarchyBase
	nodes []treeNode
}

type treeNode struct {
	parent   int // arena index; -1 for the root
	key      string
	entity   *Entity
	keys     []string
	children map[string]int
}

// TreeNode is a handle onto one arena slot of an EntityTree.
type TreeNode struct {
	tree  *EntityTree
	index int
}

// NewEntityTree creates an entity-tree hierarchy holding only a root node
// with no entity.
func NewEntityTree(name string) *EntityTree {
	t := &EntityTree{hierarchyBase: hierarchyBase{name: name, typ: HierarchyEntityTree}}
	t.nodes = append(t.nodes, treeNode{parent: -1, children: make(map[string]int)})
	return t
}

// Root returns the root node handle.
func (t *EntityTree) Root() TreeNode {
	return TreeNode{tree: t, index: 0}
}

// Len returns the number of nodes including the root.
func (t *EntityTree) Len() int { return len(t.nodes) }

// Walk visits every node depth-first in child insertion order, starting at
// the root. Returning false from fn stops the walk.
func (t *EntityTree) Walk(fn func(TreeNode) bool) {
	t.walk(0, fn)
}

func (t *EntityTree) walk(index int, fn func(TreeNode) bool) bool {
	if !fn(TreeNode{tree: t, index: index}) {
		return false
	}
	node := &t.nodes[index]
	for _, key := range node.keys {
		if !t.walk(node.children[key], fn) {
			return false
		}
	}
	return true
}

// Key returns the child key this node is attached under; empty for the
// root.
func (n TreeNode) Key() string { return n.tree.nodes[n.index].key }

// Path returns the materialized path of child keys from the root, "/" for
// the root itself.
func (n TreeNode) Path() string {
	if n.IsRoot() {
		return "/"
	}
	parent, _ := n.Parent()
	if parent.IsRoot() {
		return "/" + n.Key()
	}
	return parent.Path() + "/" + n.Key()
}

// Entity returns the entity held at this node, which may be nil.
func (n TreeNode) Entity() *Entity { return n.tree.nodes[n.index].entity }

// SetEntity replaces the entity held at this node.
func (n TreeNode) SetEntity(e *Entity) {
	n.tree.nodes[n.index].entity = e
	n.tree.bump()
}

// IsRoot reports whether this node is the tree root.
func (n TreeNode) IsRoot() bool { return n.tree.nodes[n.index].parent < 0 }

// IsLeaf reports whether this node has no children.
func (n TreeNode) IsLeaf() bool { return len(n.tree.nodes[n.index].children) == 0 }

// Parent returns the parent handle; ok is false for the root.
func (n TreeNode) Parent() (TreeNode, bool) {
	p := n.tree.nodes[n.index].parent
	if p < 0 {
		return TreeNode{}, false
	}
	return TreeNode{tree: n.tree, index: p}, true
}

// AddChild attaches a new child node under key, optionally holding entity.
// Returns ErrDuplicateName if the key is taken on this node.
func (n TreeNode) AddChild(key string, e *Entity) (TreeNode, error) {
	node := &n.tree.nodes[n.index]
	if _, ok := node.children[key]; ok {
		return TreeNode{}, fmt.Errorf("child key %q: %w", key, ErrDuplicateName)
	}
	childIndex := len(n.tree.nodes)
	n.tree.nodes = append(n.tree.nodes, treeNode{
		parent:   n.index,
		key:      key,
		entity:   e,
		children: make(map[string]int),
	})
	// The append may have moved the arena; re-resolve the parent slot.
	parent := &n.tree.nodes[n.index]
	parent.children[key] = childIndex
	parent.keys = append(parent.keys, key)
	n.tree.bump()
	return TreeNode{tree: n.tree, index: childIndex}, nil
}

// Child returns the child attached under key.
func (n TreeNode) Child(key string) (TreeNode, bool) {
	i, ok := n.tree.nodes[n.index].children[key]
	if !ok {
		return TreeNode{}, false
	}
	return TreeNode{tree: n.tree, index: i}, true
}

// ChildKeys returns this node's child keys in insertion order.
func (n TreeNode) ChildKeys() []string {
	keys := n.tree.nodes[n.index].keys
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}
