// This file contains redBlackTree, the self-balancing binary search tree that backs
// ValueOrderedMap. Unlike a key-sorted tree it does not own the ordering of its
// elements: the owning map supplies a comparator over whole nodes, which lets the
// tree be ordered by value while the map resolves identity by key.
//
// Red-black trees enforce the following properties to maintain balance:
//  1. Every node is either red or black
//  2. The root is always black
//  3. All leaves (nil nodes) are considered black
//  4. Red nodes cannot have red children (no two consecutive red nodes on any path)
//  5. Every path from root to leaf contains the same number of black nodes

package maps

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// visitor defines an interface for traversing red-black tree nodes.
// Visit returns false to stop traversal early.
type visitor[K comparable, V constraints.Integer] interface {
	Visit(node *rbtNode[K, V]) bool
}

// color represents the color of a red-black tree node.
type color bool

// String returns a human-readable representation of the node color.
func (c color) String() string {
	switch c {
	case true:
		return "Black"
	default:
		return "Red"
	}
}

// black and red are the two node colors in a red-black tree.
// Black is represented as true.
const black, red color = true, false

// rbtNode is a single entry of the map. The same node is referenced by the map's
// key index and linked into the tree, so moving a node inside the tree never
// invalidates the index.
type rbtNode[K comparable, V constraints.Integer] struct {
	key    K
	value  V
	seq    uint64
	color  color
	left   *rbtNode[K, V]
	right  *rbtNode[K, V]
	parent *rbtNode[K, V]
}

// String returns a string representation of the node showing its key, value and color.
func (n *rbtNode[K, V]) String() string {
	return fmt.Sprintf("(%#v=%d : %s)", n.key, n.value, n.color)
}

// next returns the in-order successor of n, or nil when n is the last node.
func (n *rbtNode[K, V]) next() *rbtNode[K, V] {
	if n.right != nil {
		return minimum(n.right)
	}

	parent := n.parent
	for parent != nil && n == parent.right {
		n = parent
		parent = parent.parent
	}

	return parent
}

// prev returns the in-order predecessor of n, or nil when n is the first node.
func (n *rbtNode[K, V]) prev() *rbtNode[K, V] {
	if n.left != nil {
		return maximum(n.left)
	}

	parent := n.parent
	for parent != nil && n == parent.left {
		n = parent
		parent = parent.parent
	}

	return parent
}

// detach clears the links of a node that has left the tree.
func (n *rbtNode[K, V]) detach() {
	n.left, n.right, n.parent = nil, nil, nil
	n.color = red
}

// redBlackTree keeps nodes sorted by compare, which must be a strict total order
// over every pair of distinct nodes the tree will ever hold.
type redBlackTree[K comparable, V constraints.Integer] struct {
	root    *rbtNode[K, V]
	size    int
	compare func(a, b *rbtNode[K, V]) int
}

func newRedBlackTree[K comparable, V constraints.Integer](
	compare func(a, b *rbtNode[K, V]) int,
) *redBlackTree[K, V] {
	return &redBlackTree[K, V]{compare: compare}
}

// insert links a detached node into the tree and rebalances.
func (t *redBlackTree[K, V]) insert(node *rbtNode[K, V]) {
	node.detach()

	var parent *rbtNode[K, V]

	dir := 0

	for cur := t.root; cur != nil; {
		parent = cur

		dir = t.compare(node, cur)
		if dir < 0 {
			cur = cur.left
		} else {
			cur = cur.right
		}
	}

	node.parent = parent

	switch {
	case parent == nil:
		t.root = node
	case dir < 0:
		parent.left = node
	default:
		parent.right = node
	}

	t.size++
	t.fixupPut(node)
}

// remove unlinks a node from the tree and rebalances. The node must be in the tree.
//
//nolint:varnamelen // Standard red-black tree variable names from CLRS
func (t *redBlackTree[K, V]) remove(z *rbtNode[K, V]) {
	y := z
	yOriginalColor := y.color

	// x takes y's old place. It may be nil, so its parent is tracked separately.
	var x, xParent *rbtNode[K, V]

	switch {
	case z.left == nil:
		x, xParent = z.right, z.parent
		t.transplant(z, z.right)
	case z.right == nil:
		x, xParent = z.left, z.parent
		t.transplant(z, z.left)
	default:
		y = minimum(z.right)
		yOriginalColor = y.color
		x = y.right

		if y.parent == z {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}

		t.transplant(z, y)

		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOriginalColor == black {
		t.fixupDelete(x, xParent)
	}

	z.detach()
	t.size--
}

// clear drops every node. Nodes are not detached; callers discard them.
func (t *redBlackTree[K, V]) clear() {
	t.root = nil
	t.size = 0
}

func (t *redBlackTree[K, V]) first() *rbtNode[K, V] {
	if t.root == nil {
		return nil
	}

	return minimum(t.root)
}

func (t *redBlackTree[K, V]) last() *rbtNode[K, V] {
	if t.root == nil {
		return nil
	}

	return maximum(t.root)
}

// ascend calls yield for every node in ascending order until yield returns false.
func (t *redBlackTree[K, V]) ascend(yield func(*rbtNode[K, V]) bool) {
	for node := t.first(); node != nil; node = node.next() {
		if !yield(node) {
			return
		}
	}
}

// descend calls yield for every node in descending order until yield returns false.
func (t *redBlackTree[K, V]) descend(yield func(*rbtNode[K, V]) bool) {
	for node := t.last(); node != nil; node = node.prev() {
		if !yield(node) {
			return
		}
	}
}

// rotateRight performs a right rotation around node y:
//
//	    y              x
//	   / \            / \
//	  x   C   =>     A   y
//	 / \                / \
//	A   B              B   C
//
//nolint:dupword,varnamelen // ASCII art; standard RB tree variable names
func (t *redBlackTree[K, V]) rotateRight(y *rbtNode[K, V]) {
	if y == nil || y.left == nil {
		return
	}

	x := y.left
	y.left = x.right

	if x.right != nil {
		x.right.parent = y
	}

	x.parent = y.parent

	switch {
	case y.parent == nil:
		t.root = x
	case y == y.parent.left:
		y.parent.left = x
	default:
		y.parent.right = x
	}

	x.right = y
	y.parent = x
}

// rotateLeft performs a left rotation around node x:
//
//	  x                y
//	 / \              / \
//	A   y      =>    x   C
//	   / \          / \
//	  B   C        A   B
//
//nolint:varnamelen // Standard red-black tree variable names
func (t *redBlackTree[K, V]) rotateLeft(x *rbtNode[K, V]) {
	if x == nil || x.right == nil {
		return
	}

	y := x.right
	x.right = y.left

	if y.left != nil {
		y.left.parent = x
	}

	y.parent = x.parent

	switch {
	case x.parent == nil:
		t.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}

	y.left = x
	x.parent = y
}

// transplant replaces the subtree rooted at node u with the subtree rooted at node v.
func (t *redBlackTree[K, V]) transplant(u *rbtNode[K, V], v *rbtNode[K, V]) {
	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}

	if v != nil {
		v.parent = u.parent
	}
}

// walk traverses the tree using the provided visitor.
func (t *redBlackTree[K, V]) walk(visitor visitor[K, V]) {
	visitor.Visit(t.root)
}

// isRed returns true if the node is red. nil nodes are black.
func isRed[K comparable, V constraints.Integer](n *rbtNode[K, V]) bool {
	return n != nil && n.color == red
}

func minimum[K comparable, V constraints.Integer](x *rbtNode[K, V]) *rbtNode[K, V] {
	for x.left != nil {
		x = x.left
	}

	return x
}

func maximum[K comparable, V constraints.Integer](x *rbtNode[K, V]) *rbtNode[K, V] {
	for x.right != nil {
		x = x.right
	}

	return x
}

// fixupPut restores red-black tree properties after inserting a new red node.
//
// The algorithm handles several cases:
//  1. New node is root - color it black
//  2. Parent is black - no violation, done
//  3. Parent is red:
//     a. Uncle is red - recolor parent, uncle, and grandparent
//     b. Uncle is black - perform rotations and recoloring
//
//nolint:varnamelen // Standard red-black tree variable names
func (t *redBlackTree[K, V]) fixupPut(z *rbtNode[K, V]) {
	for isRed(z.parent) {
		grandparent := z.parent.parent

		if z.parent == grandparent.left { //nolint:nestif // Red-black tree algorithm complexity
			y := grandparent.right
			if isRed(y) {
				z.parent.color = black
				y.color = black
				grandparent.color = red
				z = grandparent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.rotateLeft(z)
				}

				z.parent.color = black
				z.parent.parent.color = red
				t.rotateRight(z.parent.parent)
			}
		} else {
			y := grandparent.left
			if isRed(y) {
				z.parent.color = black
				y.color = black
				grandparent.color = red
				z = grandparent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rotateRight(z)
				}

				z.parent.color = black
				z.parent.parent.color = red
				t.rotateLeft(z.parent.parent)
			}
		}
	}

	t.root.color = black
}

// fixupDelete restores red-black tree properties after removing a black node.
// x is the node that took the removed node's place and parent is its parent; x may
// be nil, which is why parent is passed explicitly.
//
// The cases are based on the sibling w of x:
//  1. w is red - rotate and recolor to get a black sibling
//  2. w is black with two black children - recolor w, move the problem up
//  3. w is black with a red near child - rotate w to produce case 4
//  4. w is black with a red far child - rotate parent and recolor, done
//
//nolint:varnamelen,dupl,gocognit // Standard red-black tree variable names; symmetric cases
func (t *redBlackTree[K, V]) fixupDelete(x, parent *rbtNode[K, V]) {
	for x != t.root && !isRed(x) {
		if x == parent.left {
			w := parent.right
			if isRed(w) {
				w.color = black
				parent.color = red
				t.rotateLeft(parent)
				w = parent.right
			}

			if !isRed(w.left) && !isRed(w.right) {
				w.color = red
				x = parent
				parent = x.parent

				continue
			}

			if !isRed(w.right) {
				w.left.color = black
				w.color = red
				t.rotateRight(w)
				w = parent.right
			}

			w.color = parent.color
			parent.color = black
			w.right.color = black
			t.rotateLeft(parent)
			x = t.root
		} else {
			w := parent.left
			if isRed(w) {
				w.color = black
				parent.color = red
				t.rotateRight(parent)
				w = parent.left
			}

			if !isRed(w.left) && !isRed(w.right) {
				w.color = red
				x = parent
				parent = x.parent

				continue
			}

			if !isRed(w.left) {
				w.right.color = black
				w.color = red
				t.rotateLeft(w)
				w = parent.left
			}

			w.color = parent.color
			parent.color = black
			w.left.color = black
			t.rotateRight(parent)
			x = t.root
		}
	}

	if x != nil {
		x.color = black
	}
}

// invariantVisitor checks the red-black and ordering properties of a subtree,
// reporting every problem it finds to report.
type invariantVisitor[K comparable, V constraints.Integer] struct {
	compare func(a, b *rbtNode[K, V]) int
	report  func(problem string)
	count   int
}

// Visit checks node's subtree. It always returns true so the whole tree is checked.
func (v *invariantVisitor[K, V]) Visit(node *rbtNode[K, V]) bool {
	v.blackHeight(node)

	return true
}

// blackHeight returns the number of black nodes on every path below node, reporting
// a problem when the two sides disagree.
func (v *invariantVisitor[K, V]) blackHeight(node *rbtNode[K, V]) int {
	if node == nil {
		return 1
	}

	v.count++

	for _, child := range []*rbtNode[K, V]{node.left, node.right} {
		if child == nil {
			continue
		}

		if child.parent != node {
			v.report(fmt.Sprintf("node %v has a broken parent link", child))
		}

		if isRed(node) && isRed(child) {
			v.report(fmt.Sprintf("red node %v has red child %v", node, child))
		}
	}

	if node.left != nil && v.compare(node.left, node) >= 0 {
		v.report(fmt.Sprintf("node %v is not ordered before %v", node.left, node))
	}

	if node.right != nil && v.compare(node, node.right) >= 0 {
		v.report(fmt.Sprintf("node %v is not ordered before %v", node, node.right))
	}

	leftHeight := v.blackHeight(node.left)
	rightHeight := v.blackHeight(node.right)

	if leftHeight != rightHeight {
		v.report(fmt.Sprintf("node %v has black heights %d and %d", node, leftHeight, rightHeight))
	}

	if node.color == black {
		return leftHeight + 1
	}

	return leftHeight
}

// check reports every structural problem of the tree. It returns the number of nodes
// reachable from the root.
func (t *redBlackTree[K, V]) check(report func(problem string)) int {
	if isRed(t.root) {
		report("root is red")
	}

	if t.root != nil && t.root.parent != nil {
		report("root has a parent")
	}

	vis := &invariantVisitor[K, V]{compare: t.compare, report: report}
	t.walk(vis)

	if vis.count != t.size {
		report(fmt.Sprintf("tree holds %d nodes but records size %d", vis.count, t.size))
	}

	return vis.count
}
