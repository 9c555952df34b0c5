package leaderboard

import "math/rand/v2"

// Ordering: value DESC, then userID ASC. "less" means ranks earlier, so an
// in-order walk yields the board from best to worst.

type node struct {
	id    string
	value int64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aValue int64, aID string, bValue int64, bID string) bool {
	if aValue != bValue {
		return aValue > bValue
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, value int64) *node {
	if n == nil {
		return &node{id: id, value: value, prio: rand.Uint64(), size: 1} //nolint:gosec // balancing only
	}
	if less(value, id, n.value, n.id) {
		n.left = insert(n.left, id, value)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, value)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, id string, value int64) *node {
	if n == nil {
		return nil
	}
	switch {
	case value == n.value && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, id, value)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, id, value)
		}
	case less(value, id, n.value, n.id):
		n.left = remove(n.left, id, value)
	default:
		n.right = remove(n.right, id, value)
	}
	fix(n)
	return n
}

// countGreater returns how many nodes hold a value strictly above value.
func countGreater(n *node, value int64) int {
	count := 0
	for n != nil {
		if n.value > value {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

func collectTopN(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{UserID: n.id, Value: n.value})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}
