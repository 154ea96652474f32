// Package rewrite implements the bottom-up tree rewrite engine.
//
// A rewrite visits every node after its children. When no child of a node
// changed, the transform sees the original node; otherwise it sees a rebuilt
// node holding the new children. Untouched subtrees are shared between the
// input and the output, so a pass allocates only along the paths from changed
// nodes to the root, and a pass that changes nothing returns the input root.
package rewrite

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
)

// ErrNilResult is returned when a transform returns a nil node without an error.
var ErrNilResult = errors.New("transform returned nil node")

// Func transforms one node. It returns n itself to leave the node unchanged.
type Func func(n node.Node, ancestors Ancestors) (node.Node, error)

// frame is one link of a persistent ancestor chain, nearest first.
type frame struct {
	node  node.Node
	up    *frame
	depth int
}

func (f *frame) push(n node.Node) *frame {
	depth := 1
	if f != nil {
		depth += f.depth
	}

	return &frame{node: n, up: f, depth: depth}
}

// Ancestors is the immutable path of strict ancestors of the node being
// transformed, root first. Siblings share the links above their parent, so
// a value kept after the transform returns still describes its own path.
type Ancestors struct {
	parent node.Node
	above  *frame
}

// NewAncestors creates an ancestor path, root first.
func NewAncestors(nodes ...node.Node) Ancestors {
	if len(nodes) == 0 {
		return Ancestors{}
	}

	var chain *frame
	for _, n := range nodes[:len(nodes)-1] {
		chain = chain.push(n)
	}

	return Ancestors{parent: nodes[len(nodes)-1], above: chain}
}

// Len is the depth of the current node.
func (a Ancestors) Len() int {
	if a.parent == nil {
		return 0
	}

	if a.above == nil {
		return 1
	}

	return a.above.depth + 1
}

// At returns ancestor idx, where 0 is the root.
func (a Ancestors) At(idx int) node.Node {
	n := a.Up(a.Len() - 1 - idx)
	if n == nil {
		panic(fmt.Sprintf("ancestor %d out of range [0:%d]", idx, a.Len()))
	}

	return n
}

// Parent returns the nearest ancestor, or nil at the root.
func (a Ancestors) Parent() node.Node {
	return a.parent
}

// Up returns the ancestor levels above the parent: Up(0) is the parent,
// Up(1) the grandparent. It returns nil past the root.
func (a Ancestors) Up(levels int) node.Node {
	if levels < 0 || a.parent == nil {
		return nil
	}

	if levels == 0 {
		return a.parent
	}

	link := a.above
	for ; link != nil && levels > 1; levels-- {
		link = link.up
	}

	if link == nil {
		return nil
	}

	return link.node
}

// All iterates over the ancestors, root first.
func (a Ancestors) All() iter.Seq2[int, node.Node] {
	return slices.All(a.Slice())
}

// Slice returns the path as a new slice, root first.
func (a Ancestors) Slice() []node.Node {
	nodes := make([]node.Node, a.Len())

	for idx := len(nodes) - 1; idx >= 0; idx-- {
		nodes[idx] = a.Up(len(nodes) - 1 - idx)
	}

	return nodes
}

// chain materializes a as a frame chain that includes the parent.
func (a Ancestors) chain() *frame {
	if a.parent == nil {
		return nil
	}

	return a.above.push(a.parent)
}

// Stats counts the work done by one pass.
type Stats struct {
	// Visited is the number of transform calls.
	Visited int
	// Rebuilt is the number of nodes reconstructed because a child changed.
	Rebuilt int
	// Replaced is the number of transform calls that returned a different node.
	Replaced int
}

// Changed reports whether the pass produced a different tree.
func (s Stats) Changed() bool {
	return s.Rebuilt > 0 || s.Replaced > 0
}

// Add sums two stats.
func (s Stats) Add(other Stats) Stats {
	return Stats{
		Visited:  s.Visited + other.Visited,
		Rebuilt:  s.Rebuilt + other.Rebuilt,
		Replaced: s.Replaced + other.Replaced,
	}
}

// Rewrite applies fn to every node of the tree, children before parents.
func Rewrite(root node.Node, fn Func) (node.Node, error) {
	result, _, err := WithStats(root, fn)

	return result, err
}

// WithStats is Rewrite that also reports what the pass did.
func WithStats(root node.Node, fn Func) (node.Node, Stats, error) {
	return run(root, fn, Ancestors{}, false)
}

// RewriteFrom rewrites a subtree whose ancestors in some larger tree are
// known. The transform sees ancestors followed by the subtree's own path.
func RewriteFrom(root node.Node, fn Func, ancestors Ancestors) (node.Node, error) {
	result, _, err := run(root, fn, ancestors, false)

	return result, err
}

// Descendants applies fn to every node strictly below root. root itself is
// rebuilt when a child changes but is never passed to fn.
func Descendants(root node.Node, fn Func) (node.Node, error) {
	result, _, err := run(root, fn, Ancestors{}, true)

	return result, err
}

// Replace substitutes replacement for every occurrence of old, matched by
// reference.
func Replace(root, old, replacement node.Node) (node.Node, error) {
	if replacement == nil {
		return nil, ErrNilResult
	}

	return Rewrite(root, func(n node.Node, _ Ancestors) (node.Node, error) {
		if n == old {
			return replacement, nil
		}

		return n, nil
	})
}

func run(root node.Node, fn Func, prefix Ancestors, skipRoot bool) (node.Node, Stats, error) {
	r := &rewriter{fn: fn}

	var (
		result node.Node
		err    error
	)

	if skipRoot {
		result, err = r.children(root, prefix.chain())
	} else {
		result, err = r.visit(root, prefix, prefix.chain())
	}

	if err != nil {
		return nil, r.stats, err
	}

	return result, r.stats, nil
}

type rewriter struct {
	fn    Func
	stats Stats
}

// visit rewrites n. chain is ancestors materialized as a frame chain; it is
// passed along so siblings share it.
func (r *rewriter) visit(n node.Node, ancestors Ancestors, chain *frame) (node.Node, error) {
	current, err := r.children(n, chain)
	if err != nil {
		return nil, err
	}

	r.stats.Visited++

	result, err := r.fn(current, ancestors)
	if err != nil {
		return nil, fmt.Errorf("rewrite %s: %w", current.Kind(), err)
	}

	if result == nil {
		return nil, fmt.Errorf("rewrite %s: %w", current.Kind(), ErrNilResult)
	}

	if result != current {
		r.stats.Replaced++
	}

	return result, nil
}

// children rewrites the children of n and returns n, or a rebuilt node when
// any child changed. chain holds the ancestors of n. The link for n itself is
// allocated once, and only when some child has children of its own.
func (r *rewriter) children(n node.Node, chain *frame) (node.Node, error) {
	count := n.ChildCount()
	if count == 0 {
		return n, nil
	}

	childAncestors := Ancestors{parent: n, above: chain}

	var (
		childChain *frame
		changed    []node.Node
	)

	for idx := range count {
		child := n.Child(idx)

		if childChain == nil && child.ChildCount() > 0 {
			childChain = chain.push(n)
		}

		next, err := r.visit(child, childAncestors, childChain)
		if err != nil {
			return nil, err
		}

		if changed == nil && next != child {
			changed = make([]node.Node, count)
			for prev := range idx {
				changed[prev] = n.Child(prev)
			}
		}

		if changed != nil {
			changed[idx] = next
		}
	}

	if changed == nil {
		return n, nil
	}

	rebuilt, err := node.Rebuild(n, changed)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s: %w", n.Kind(), err)
	}

	r.stats.Rebuilt++

	return rebuilt, nil
}
