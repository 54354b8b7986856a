package frames

import "fmt"

// ResourceKind orders deferred releases. Kinds are drained in declaration order.
type ResourceKind uint8

const (
	KindBuffer ResourceKind = iota
	KindImageView
	KindImage
	KindMemory
	kindCount
)

func (k ResourceKind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindImageView:
		return "image_view"
	case KindImage:
		return "image"
	case KindMemory:
		return "memory"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Arena collects release functions for GPU objects destroyed during one frame.
type Arena struct {
	pending [kindCount][]func()
}

func (a *Arena) Push(kind ResourceKind, release func()) {
	if kind >= kindCount {
		kind = KindMemory
	}
	a.pending[kind] = append(a.pending[kind], release)
}

// Drain runs every pending release, buffers first and memory last, and returns how many ran.
func (a *Arena) Drain() int {
	n := 0
	for kind := range a.pending {
		list := a.pending[kind]
		for i, release := range list {
			release()
			list[i] = nil
			n++
		}
		a.pending[kind] = list[:0]
	}
	return n
}

func (a *Arena) Len() int {
	n := 0
	for _, list := range a.pending {
		n += len(list)
	}
	return n
}

func (a *Arena) LenKind(kind ResourceKind) int {
	if kind >= kindCount {
		return 0
	}
	return len(a.pending[kind])
}
