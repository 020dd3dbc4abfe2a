// ABOUTME: Cursor state machine over the focus queue
// ABOUTME: Reduces navigation events to a new cursor plus an optional notice
package focus

// Cursor is the navigation state. It tracks only the index; after an action removes
// the current item, the same index shows the item that followed it.
type Cursor struct {
	Index int
}

// NavEvent is one of Next, Prev, Skip, Select, or Rebuilt.
type NavEvent interface {
	navEvent()
}

type (
	Next    struct{}
	Prev    struct{}
	Skip    struct{}
	Select  struct{ ID string }
	Rebuilt struct{}
)

func (Next) navEvent()    {}
func (Prev) navEvent()    {}
func (Skip) navEvent()    {}
func (Select) navEvent()  {}
func (Rebuilt) navEvent() {}

// NoticeKind classifies what the operator should be told after a transition.
type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeInfo
	NoticeError
)

// Notice is a non-blocking message for the operator.
type Notice struct {
	Kind NoticeKind
	Text string
}

func infoNotice(text string) Notice  { return Notice{Kind: NoticeInfo, Text: text} }
func errorNotice(text string) Notice { return Notice{Kind: NoticeError, Text: text} }

// Reduce applies ev to c over queue. It never leaves the cursor outside
// [0, max(1, len(queue))) and is a no-op on an empty queue.
func Reduce(c Cursor, queue []FocusItem, ev NavEvent) (Cursor, Notice) {
	n := len(queue)
	if n == 0 {
		return Cursor{}, Notice{}
	}
	c = c.clamp(n)

	switch e := ev.(type) {
	case Next:
		if c.Index < n-1 {
			c.Index++
		}
	case Prev:
		if c.Index > 0 {
			c.Index--
		}
	case Skip:
		skipped := queue[c.Index].Title()
		if c.Index < n-1 {
			c.Index++
		}
		return c, infoNotice("Skipped: " + skipped)
	case Select:
		for i, item := range queue {
			if item.ID() == e.ID {
				c.Index = i
				break
			}
		}
	case Rebuilt:
		// clamp above is the whole transition
	}
	return c, Notice{}
}

// Current returns the item under the cursor, or false when the queue is empty.
func (c Cursor) Current(queue []FocusItem) (FocusItem, bool) {
	if len(queue) == 0 {
		return FocusItem{}, false
	}
	return queue[c.clamp(len(queue)).Index], true
}

func (c Cursor) clamp(n int) Cursor {
	if c.Index >= n {
		c.Index = n - 1
	}
	if c.Index < 0 {
		c.Index = 0
	}
	return c
}
