// Package migrate applies named sequences of tree rewrites to syntax trees.
//
// A Step is one rewrite transform. A Migration is an ordered list of steps;
// Migrate threads the tree through each step exactly once. Steps must be
// idempotent: applying a step to its own output returns that output
// unchanged, both textually and by reference.
package migrate

import (
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/rewrite"
)

// Step is one named rewrite transform.
type Step interface {
	Name() string
	Rewrite(n node.Node, ancestors rewrite.Ancestors) (node.Node, error)
}

type funcStep struct {
	name string
	fn   rewrite.Func
}

// NewStep wraps a transform function as a Step.
func NewStep(name string, fn rewrite.Func) Step {
	return &funcStep{name: name, fn: fn}
}

func (s *funcStep) Name() string { return s.name }

func (s *funcStep) Rewrite(n node.Node, ancestors rewrite.Ancestors) (node.Node, error) {
	return s.fn(n, ancestors)
}
