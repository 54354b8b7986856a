package frames

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/anima-gfx/engine/containers"
	"github.com/spaghettifunk/anima-gfx/engine/core"
)

var ErrNotStarted = errors.New("frame ring not started")

// ImageSource hands out the index of the next presentable image.
type ImageSource interface {
	AcquireNextImage() (uint32, error)
}

type submission struct {
	slot  int
	start uint32
}

/**
 * @brief Cycles frame slots in swapchain order and bounds the frames in flight.
 *
 * Submissions complete in queue order, so once a slot's fence is waited on every
 * earlier submission is known to be finished as well.
 */
type Ring struct {
	slots      []*Slot
	images     ImageSource
	scratch    *RingAllocator
	inFlight   *containers.RingQueue[submission]
	current    int
	frameStart uint32
	frame      uint64
	started    bool
}

func NewRing(slots []SlotSync, images ImageSource, scratch *RingAllocator) *Ring {
	r := &Ring{
		slots:    make([]*Slot, len(slots)),
		images:   images,
		scratch:  scratch,
		inFlight: containers.NewRingQueue[submission](len(slots)),
	}
	for i, s := range slots {
		r.slots[i] = NewSlot(i, s)
	}
	return r
}

// Start acquires the first image and begins its slot.
func (r *Ring) Start() error {
	if r.started {
		return core.ErrAlreadyInitialized
	}
	if len(r.slots) == 0 {
		return fmt.Errorf("frame ring: no slots")
	}
	if err := r.beginNext(); err != nil {
		return err
	}
	r.started = true
	return nil
}

func (r *Ring) Current() *Slot {
	if !r.started {
		return nil
	}
	return r.slots[r.current]
}

func (r *Ring) Slot(i int) *Slot { return r.slots[i] }
func (r *Ring) Len() int         { return len(r.slots) }

// Frame returns how many times the ring has advanced.
func (r *Ring) Frame() uint64 { return r.frame }

// InFlight returns the number of submitted frames whose slot has not been reused yet.
func (r *Ring) InFlight() int { return r.inFlight.Len() }

// Defer queues release on the current slot.
func (r *Ring) Defer(kind ResourceKind, release func()) {
	if !r.started {
		release()
		return
	}
	r.slots[r.current].Defer(kind, release)
}

// Advance closes the current frame and begins the slot of the next image. It
// blocks while that slot's previous submission is still executing.
func (r *Ring) Advance() error {
	if !r.started {
		return ErrNotStarted
	}
	cur := r.slots[r.current]
	if err := cur.MarkSubmitted(); err != nil {
		return err
	}
	if err := r.inFlight.Enqueue(submission{slot: cur.index, start: r.frameStart}); err != nil {
		return fmt.Errorf("frame ring: more than %d frames in flight: %w", len(r.slots), err)
	}
	r.frame++
	return r.beginNext()
}

func (r *Ring) beginNext() error {
	idx, err := r.images.AcquireNextImage()
	if err != nil {
		return fmt.Errorf("frame ring: acquire image: %w", err)
	}
	if int(idx) >= len(r.slots) {
		return fmt.Errorf("frame ring: image index %d out of range [0, %d)", idx, len(r.slots))
	}
	if r.scratch != nil {
		r.scratch.MarkFrameBoundary()
	}

	next := r.slots[idx]
	if err := next.Begin(); err != nil {
		return err
	}
	r.retire(next.index)
	r.current = next.index
	if r.scratch != nil {
		if oldest, err := r.inFlight.Peek(); err == nil {
			r.scratch.RetainFrom(oldest.start)
		}
		r.frameStart = r.scratch.WriteCursor()
	}
	return nil
}

// retire drops every submission up to and including the last one made on slot.
func (r *Ring) retire(slot int) {
	pending := false
	for i := 0; i < r.inFlight.Len(); i++ {
		if s, err := r.inFlight.At(i); err == nil && s.slot == slot {
			pending = true
		}
	}
	if !pending {
		return
	}
	for {
		s, err := r.inFlight.Dequeue()
		if err != nil || s.slot == slot {
			return
		}
	}
}

// Close waits for every submitted slot and runs every deferred release.
func (r *Ring) Close() error {
	var errs []error
	for _, s := range r.slots {
		if err := s.finish(); err != nil {
			errs = append(errs, err)
		}
	}
	for !r.inFlight.IsEmpty() {
		_, _ = r.inFlight.Dequeue()
	}
	r.started = false
	core.LogDebug("frame ring closed after %d frames", r.frame)
	return errors.Join(errs...)
}
