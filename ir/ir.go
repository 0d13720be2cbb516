// Package ir supplies the shared base for every intermediate representation
// node in the compiler (spec.md §3.7): by-value equality, a cached
// structural hash, and the acyclic-DAG/structural-sharing discipline all
// passes rely on.
//
// Every IR node (space.Space, code.Code, term.Term, frame.Frame, ...)
// implements Node by exposing Basis(), the tuple of defining attributes;
// two nodes are equal iff they have the same dynamic type and an equal
// Basis. Hash and Equal are derived mechanically from Basis so that state
// caches (map[ir.Node]X) in every pass's State object behave correctly
// without each IR package re-deriving equality by hand.
package ir

import (
	"fmt"

	"github.com/mitchellh/hashstructure"
)

// Node is implemented by every IR value type across space, code, term,
// frame and pipe.
type Node interface {
	// Basis returns the ordered tuple of attributes that define this node.
	// Child IR nodes may appear in Basis as nodes; Hash replaces each with
	// its own Hash() (see basisOf), so that structurally identical subtrees
	// hash identically even when built by different passes (structural
	// sharing, §3.7).
	Basis() []interface{}
}

// Hash returns the cached-free structural hash of a node. Passes that want
// memoized hashing should wrap a Node in a Cached value (below).
func Hash(n Node) uint64 {
	if n == nil {
		return 0
	}
	h, err := hashstructure.Hash(basisOf(n), nil)
	if err != nil {
		// Basis tuples are always hashable (they contain only primitives,
		// strings, and other nodes' already-computed hashes); a failure
		// here means a package built a Basis() with a non-hashable field.
		panic(fmt.Sprintf("ir: unhashable basis for %T: %v", n, err))
	}
	return h
}

func basisOf(n Node) []interface{} {
	kind := fmt.Sprintf("%T", n)
	basis := n.Basis()
	out := make([]interface{}, 0, len(basis)+1)
	out = append(out, kind)
	for _, b := range basis {
		if sub, ok := b.(Node); ok {
			out = append(out, Hash(sub))
			continue
		}
		out = append(out, b)
	}
	return out
}

// Equal reports whether two nodes have the same dynamic type and an equal
// Basis tuple (recursively, since nested Node fields compare by Hash).
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return Hash(a) == Hash(b)
}

// Cached memoizes the Hash of a wrapped node: after the first MemoHash(node)
// call, later calls return the stored value. No space, code or term node
// type in this module embeds it, so ir.Hash on those nodes recomputes the
// hash on every call.
type Cached struct {
	hash    uint64
	present bool
}

// MemoHash computes (once) and returns the structural hash of n, caching
// the result in the receiver.
func (c *Cached) MemoHash(n Node) uint64 {
	if !c.present {
		c.hash = Hash(n)
		c.present = true
	}
	return c.hash
}
