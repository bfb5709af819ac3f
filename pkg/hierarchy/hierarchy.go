// Package hierarchy builds the parent→children tree of an orbital system and
// enforces parent-child size ratios.
//
// The tree is an arena: nodes live in one slice and refer to each other by
// index. Nodes are rebuilt for every calculation and never shared.
//
// # Roots
//
// Root candidates are objects without an orbit or with an empty parent ID.
// The first candidate in input order becomes the root. When no object is a
// candidate but some orbit the synthetic [celestial.Barycenter], a synthetic
// barycenter node becomes the root. Otherwise the first object is used and
// the fallback is logged.
//
// Other root candidates stay in the arena as detached subtrees: they are
// not reachable from the root, but [Tree.TopDown] still visits them so that
// size enforcement and layout cover every object. [Validate] reports them.
package hierarchy

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/errors"
)

// Node is one object in the tree.
type Node struct {
	Object   celestial.Object
	Parent   int // -1 when the node has no parent in the tree
	Children []int
	Depth    int // -1 when unreachable from the root
	IsRoot   bool

	// Synthetic is set for the generated barycenter node.
	Synthetic bool
}

// Tree is an arena-backed hierarchy.
type Tree struct {
	nodes []Node
	index map[string]int
	root  int
}

// Build constructs the hierarchy of objects. It fails with ErrCodeInvalidInput
// on an empty list or duplicate IDs. A nil logger discards output.
func Build(objects []celestial.Object, logger *log.Logger) (*Tree, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if len(objects) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "object list is empty")
	}

	t := &Tree{
		nodes: make([]Node, 0, len(objects)+1),
		index: make(map[string]int, len(objects)+1),
		root:  -1,
	}
	barycentric := false
	for _, obj := range objects {
		if err := errors.ValidateObjectID(obj.ID); err != nil {
			return nil, err
		}
		if _, dup := t.index[obj.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate object id %q", obj.ID)
		}
		t.index[obj.ID] = len(t.nodes)
		t.nodes = append(t.nodes, Node{Object: obj, Parent: -1, Depth: -1})
		if t.root < 0 && obj.IsRootCandidate() {
			t.root = len(t.nodes) - 1
		}
		barycentric = barycentric || obj.OrbitsBarycenter()
	}

	if _, exists := t.index[celestial.Barycenter]; barycentric && !exists {
		t.index[celestial.Barycenter] = len(t.nodes)
		t.nodes = append(t.nodes, Node{
			Object:    celestial.Object{ID: celestial.Barycenter, Name: "Barycenter"},
			Parent:    -1,
			Depth:     -1,
			Synthetic: true,
		})
		if t.root < 0 {
			t.root = len(t.nodes) - 1
		}
	}
	if t.root < 0 {
		t.root = 0
		logger.Warn("no root candidate, using first object as root", "object", objects[0].ID)
	}
	t.nodes[t.root].IsRoot = true

	for i := range t.nodes {
		if i == t.root {
			continue
		}
		p, ok := t.index[t.nodes[i].Object.ParentID()]
		if !ok || p == i {
			continue
		}
		t.nodes[i].Parent = p
		t.nodes[p].Children = append(t.nodes[p].Children, i)
	}

	// Depths from the root; the visited bitset stops at cycles.
	visited := make([]bool, len(t.nodes))
	t.nodes[t.root].Depth = 0
	visited[t.root] = true
	queue := []int{t.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, c := range t.nodes[n].Children {
			if visited[c] {
				continue
			}
			visited[c] = true
			t.nodes[c].Depth = t.nodes[n].Depth + 1
			queue = append(queue, c)
		}
	}

	logger.Debug("built hierarchy", "root", t.nodes[t.root].Object.ID, "nodes", len(t.nodes))
	return t, nil
}

// Len returns the number of nodes, including a synthetic barycenter.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node at index i.
func (t *Tree) Node(i int) *Node { return &t.nodes[i] }

// Root returns the root node.
func (t *Tree) Root() *Node { return &t.nodes[t.root] }

// Lookup returns the node with id.
func (t *Tree) Lookup(id string) (*Node, bool) {
	i, ok := t.index[id]
	if !ok {
		return nil, false
	}
	return &t.nodes[i], true
}

// Parent returns the parent of n, or nil.
func (t *Tree) Parent(n *Node) *Node {
	if n.Parent < 0 {
		return nil
	}
	return &t.nodes[n.Parent]
}

// ChildIDs returns the IDs of the direct children of id.
func (t *Tree) ChildIDs(id string) []string {
	n, ok := t.Lookup(id)
	if !ok {
		return nil
	}
	out := make([]string, len(n.Children))
	for i, c := range n.Children {
		out[i] = t.nodes[c].Object.ID
	}
	return out
}

// Ancestors returns the parent chain of id, nearest first.
func (t *Tree) Ancestors(id string) []string {
	n, ok := t.Lookup(id)
	if !ok {
		return nil
	}
	var out []string
	seen := make([]bool, len(t.nodes))
	for p := n.Parent; p >= 0 && !seen[p]; p = t.nodes[p].Parent {
		seen[p] = true
		out = append(out, t.nodes[p].Object.ID)
	}
	return out
}

// Detached returns the IDs of nodes unreachable from the root.
func (t *Tree) Detached() []string {
	var out []string
	for _, n := range t.nodes {
		if n.Depth < 0 {
			out = append(out, n.Object.ID)
		}
	}
	return out
}

// TopDown returns node indices so that every parent precedes its children:
// the root's subtree first, then the subtrees of other parentless nodes.
// Nodes on a parent cycle are omitted.
func (t *Tree) TopDown() []int {
	order := make([]int, 0, len(t.nodes))
	visited := make([]bool, len(t.nodes))
	walk := func(start int) {
		if visited[start] {
			return
		}
		visited[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			order = append(order, n)
			for _, c := range t.nodes[n].Children {
				if !visited[c] {
					visited[c] = true
					queue = append(queue, c)
				}
			}
		}
	}
	walk(t.root)
	for i, n := range t.nodes {
		if n.Parent < 0 {
			walk(i)
		}
	}
	return order
}
