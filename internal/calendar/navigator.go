package calendar

// Navigator tracks the visible month inside a fixed window [0, count).
type Navigator struct {
	index int
	count int
}

// NewNavigator clamps index into the window.
func NewNavigator(index, count int) Navigator {
	if count < 1 {
		count = 1
	}
	if index < 0 {
		index = 0
	}
	if index >= count {
		index = count - 1
	}
	return Navigator{index: index, count: count}
}

func (n Navigator) Index() int { return n.index }

func (n Navigator) CanNext() bool { return n.index+1 < n.count }

func (n Navigator) CanPrev() bool { return n.index > 0 }

// Next moves forward one month. It reports false and stays put at the last month.
func (n *Navigator) Next() bool {
	if !n.CanNext() {
		return false
	}
	n.index++
	return true
}

// Prev moves back one month. It reports false and stays put at the first month.
func (n *Navigator) Prev() bool {
	if !n.CanPrev() {
		return false
	}
	n.index--
	return true
}

// GoTo jumps to index if it is inside the window.
func (n *Navigator) GoTo(index int) bool {
	if index < 0 || index >= n.count || index == n.index {
		return false
	}
	n.index = index
	return true
}
