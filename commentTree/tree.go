// Package commentTree turns the flat, parent referencing comment list of a
// post into the tree the presentation layer renders, and keeps the displayed
// comment count in step with adds and removes.
package commentTree

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

var ErrCommentNotFound = errors.New("comment not found in tree")

// Policy decides where a reply to a reply is rendered. The stored parent of a
// comment is never changed by either policy.
type Policy string

const (
	// FlattenToRoot renders every reply under its root ancestor, two levels deep.
	FlattenToRoot Policy = "flatten"
	// Nested renders replies under their immediate parent, recursively.
	Nested Policy = "nested"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", FlattenToRoot:
		return FlattenToRoot, nil
	case Nested:
		return Nested, nil
	}
	return "", fmt.Errorf("unknown comment nesting %q", s)
}

type Node struct {
	models.Comment
	Replies []*Node `json:"replies"`
}

type Tree struct {
	Roots  []*Node `json:"comments"`
	Count  int     `json:"count"`
	Policy Policy  `json:"nesting"`

	nodes map[string]*Node
	// rendered parent of every node, nil for roots
	parents map[string]*Node
}

func newTree(policy Policy) *Tree {
	if policy == "" {
		policy = FlattenToRoot
	}
	return &Tree{
		Roots:   []*Node{},
		Policy:  policy,
		nodes:   map[string]*Node{},
		parents: map[string]*Node{},
	}
}

// Build partitions comments into roots and replies. A comment is a root when
// it has no parent, or its parent is missing from the set, belongs to another
// post, or sits on a parent cycle. Roots and replies keep the input order.
// Duplicate ids after the first one are ignored.
func Build(comments []models.Comment, policy Policy) *Tree {
	t := newTree(policy)

	order := make([]string, 0, len(comments))
	byId := make(map[string]models.Comment, len(comments))
	for _, c := range comments {
		if _, ok := byId[c.Id]; ok {
			continue
		}
		byId[c.Id] = c
		order = append(order, c.Id)
	}

	parentOf := make(map[string]string, len(order))
	for _, id := range order {
		c := byId[id]
		p, ok := byId[c.ParentId]
		if c.IsRoot() || !ok || p.Id == c.Id || p.PostId != c.PostId {
			continue
		}
		parentOf[id] = p.Id
	}
	breakCycles(order, parentOf)

	for _, id := range order {
		t.nodes[id] = &Node{Comment: byId[id], Replies: []*Node{}}
	}
	for _, id := range order {
		node := t.nodes[id]
		pid, ok := parentOf[id]
		if !ok {
			t.Roots = append(t.Roots, node)
			t.parents[id] = nil
			continue
		}
		if t.Policy == FlattenToRoot {
			pid = rootOf(pid, parentOf)
		}
		t.attach(t.nodes[pid], node)
	}
	t.Count = len(t.nodes)
	return t
}

// breakCycles drops the parent link of the comment where a walk up the chain
// first revisits itself, so every remaining chain ends at a root.
func breakCycles(order []string, parentOf map[string]string) {
	done := make(map[string]bool, len(order))
	for _, start := range order {
		onPath := map[string]bool{}
		id := start
		for !done[id] {
			if onPath[id] {
				delete(parentOf, id)
				break
			}
			onPath[id] = true
			next, ok := parentOf[id]
			if !ok {
				break
			}
			id = next
		}
		for id := range onPath {
			done[id] = true
		}
	}
}

func rootOf(id string, parentOf map[string]string) string {
	for {
		p, ok := parentOf[id]
		if !ok {
			return id
		}
		id = p
	}
}

func (t *Tree) attach(parent, node *Node) {
	parent.Replies = append(parent.Replies, node)
	t.nodes[node.Id] = node
	t.parents[node.Id] = parent
}

func (t *Tree) Find(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// AddRoot appends a root comment and returns the count delta.
// A comment already in the tree is ignored.
func (t *Tree) AddRoot(c models.Comment) int {
	if _, ok := t.nodes[c.Id]; ok {
		return 0
	}
	node := &Node{Comment: c, Replies: []*Node{}}
	t.Roots = append(t.Roots, node)
	t.nodes[c.Id] = node
	t.parents[c.Id] = nil
	t.Count++
	return 1
}

// AddReply attaches c below parentId according to the tree policy. An
// unknown parent makes c a root so the comment is not lost.
func (t *Tree) AddReply(parentId string, c models.Comment) int {
	if _, ok := t.nodes[c.Id]; ok {
		return 0
	}
	parent, ok := t.nodes[parentId]
	if !ok {
		return t.AddRoot(c)
	}
	if t.Policy == FlattenToRoot {
		parent = t.root(parent)
	}
	t.attach(parent, &Node{Comment: c, Replies: []*Node{}})
	t.Count++
	return 1
}

func (t *Tree) root(n *Node) *Node {
	for {
		p := t.parents[n.Id]
		if p == nil {
			return n
		}
		n = p
	}
}

// Remove deletes a comment together with everything rendered below it and
// returns the (negative) count delta.
func (t *Tree) Remove(id string) (int, error) {
	node, ok := t.nodes[id]
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrCommentNotFound, id)
	}

	parent := t.parents[id]
	if parent == nil {
		t.Roots = without(t.Roots, node)
	} else {
		parent.Replies = without(parent.Replies, node)
	}

	removed := 0
	var drop func(n *Node)
	drop = func(n *Node) {
		delete(t.nodes, n.Id)
		delete(t.parents, n.Id)
		removed++
		for _, r := range n.Replies {
			drop(r)
		}
	}
	drop(node)

	t.Count -= removed
	return -removed, nil
}

// RemoveThread removes id and every comment whose stored parent chain leads
// to it, which is what the store deletes. Under FlattenToRoot those replies
// render as siblings, so Remove alone would keep them.
func (t *Tree) RemoveThread(id string) (int, error) {
	if _, ok := t.nodes[id]; !ok {
		return 0, fmt.Errorf("%w: %v", ErrCommentNotFound, id)
	}
	doomed := map[string]bool{id: true}
	for grew := true; grew; {
		grew = false
		for cid, n := range t.nodes {
			if !doomed[cid] && n.ParentId != "" && doomed[n.ParentId] {
				doomed[cid] = true
				grew = true
			}
		}
	}

	delta, _ := t.Remove(id)
	for cid := range doomed {
		if _, ok := t.nodes[cid]; !ok {
			continue
		}
		d, _ := t.Remove(cid)
		delta += d
	}
	return delta, nil
}

func without(nodes []*Node, target *Node) []*Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

// Walk visits the tree depth first in render order. Roots have depth 0.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			visit(n.Replies, depth+1)
		}
	}
	visit(t.Roots, 0)
}

// UnmarshalJSON restores the lookup tables so a tree received over the wire
// accepts AddReply and Remove like a locally built one.
func (t *Tree) UnmarshalJSON(data []byte) error {
	type wire Tree
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	fresh := newTree(w.Policy)
	if w.Roots != nil {
		fresh.Roots = w.Roots
	}
	var index func(parent *Node, nodes []*Node)
	index = func(parent *Node, nodes []*Node) {
		for _, n := range nodes {
			if n.Replies == nil {
				n.Replies = []*Node{}
			}
			fresh.nodes[n.Id] = n
			fresh.parents[n.Id] = parent
			index(n, n.Replies)
		}
	}
	index(nil, fresh.Roots)
	fresh.Count = len(fresh.nodes)
	*t = *fresh
	return nil
}
