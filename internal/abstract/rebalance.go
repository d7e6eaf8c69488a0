// Copyright 2021 Andrew Werner.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package abstract

// promote rotates c above its parent, preserving the in-order sequence.
// Balance factors are left for the caller to fix.
//
//	     p              c
//	    / \            / \
//	   c   z   ==>    x   p
//	  / \                / \
//	 x   y              y   z
func (t *Tree[T]) promote(c Handle) {
	cn := t.n(c)
	p := cn.parent
	pn := t.n(p)
	g := pn.parent
	if pn.left == c {
		pn.left = cn.right
		if cn.right != Nil {
			t.n(cn.right).parent = p
		}
		cn.right = p
	} else {
		pn.right = cn.left
		if cn.left != Nil {
			t.n(cn.left).parent = p
		}
		cn.left = p
	}
	pn.parent = c

	// The sentinel has no left child, so a root which is promoted over
	// always lands on the right.
	gn := t.n(g)
	if gn.left == p {
		gn.left = c
	} else {
		gn.right = c
	}
	cn.parent = g
}

// rebalance restores the balance of s, whose subtree on the side of its
// balance factor has become two levels taller than the other. It returns
// true when the height of the subtree rooted at the position of s is
// unchanged, which can only happen during deletion and ends the climb.
func (t *Tree[T]) rebalance(s Handle) (heightUnchanged bool) {
	sn := t.n(s)
	a := sn.balance
	r := sn.right
	if a == -1 {
		r = sn.left
	}
	rn := t.n(r)

	switch rn.balance {
	case a:
		// Single rotation.
		t.promote(r)
		rn.balance, sn.balance = 0, 0
		return false

	case -a:
		// Double rotation through the inner grandchild.
		p := rn.left
		if a == -1 {
			p = rn.right
		}
		pn := t.n(p)
		t.promote(p)
		t.promote(p)
		sn.balance, rn.balance = 0, 0
		switch pn.balance {
		case a:
			sn.balance = -a
		case -a:
			rn.balance = a
		}
		pn.balance = 0
		return false

	default:
		// r is balanced; only reachable when deleting.
		t.promote(r)
		rn.balance = -a
		return true
	}
}
