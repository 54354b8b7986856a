package frames

import (
	"errors"
	"fmt"
)

var ErrSlotState = errors.New("invalid frame slot state")

// SlotSync is the synchronization a backend provides for one swapchain image.
type SlotSync interface {
	// WaitFence blocks until the GPU has finished the slot's last submission.
	WaitFence() error
	ResetFence() error
	// ResetPools recycles the slot's command and descriptor pools.
	ResetPools() error
}

type SlotState uint8

const (
	SlotIdle SlotState = iota
	SlotRecording
	SlotSubmitted
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotRecording:
		return "recording"
	case SlotSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("slot_state(%d)", uint8(s))
	}
}

/**
 * @brief Per-swapchain-image frame state: fence-gated pools plus the deletion arena.
 */
type Slot struct {
	index      int
	sync       SlotSync
	state      SlotState
	arena      Arena
	fenceWaits int
}

func NewSlot(index int, sync SlotSync) *Slot {
	return &Slot{index: index, sync: sync, state: SlotIdle}
}

func (s *Slot) Index() int       { return s.index }
func (s *Slot) State() SlotState { return s.state }

// FenceWaits returns how many times Begin has waited on the slot's fence.
func (s *Slot) FenceWaits() int { return s.fenceWaits }

// Pending returns the number of releases deferred until the slot's next reuse.
func (s *Slot) Pending() int { return s.arena.Len() }

// Begin makes the slot ready for recording. It waits for the slot's previous
// submission, resets the fence and pools, then releases everything deferred
// while that submission was pending.
func (s *Slot) Begin() error {
	if s.state == SlotRecording {
		return fmt.Errorf("%w: slot %d is already recording", ErrSlotState, s.index)
	}
	s.fenceWaits++
	if err := s.sync.WaitFence(); err != nil {
		return fmt.Errorf("frame slot %d: wait fence: %w", s.index, err)
	}
	if err := s.sync.ResetFence(); err != nil {
		return fmt.Errorf("frame slot %d: reset fence: %w", s.index, err)
	}
	if err := s.sync.ResetPools(); err != nil {
		return fmt.Errorf("frame slot %d: reset pools: %w", s.index, err)
	}
	s.arena.Drain()
	s.state = SlotRecording
	return nil
}

func (s *Slot) MarkSubmitted() error {
	if s.state != SlotRecording {
		return fmt.Errorf("%w: slot %d submitted while %s", ErrSlotState, s.index, s.state)
	}
	s.state = SlotSubmitted
	return nil
}

// Defer queues release to run the next time the slot begins.
func (s *Slot) Defer(kind ResourceKind, release func()) {
	s.arena.Push(kind, release)
}

// finish waits for any pending submission and releases everything deferred.
func (s *Slot) finish() error {
	var err error
	if s.state == SlotSubmitted {
		s.fenceWaits++
		if werr := s.sync.WaitFence(); werr != nil {
			err = fmt.Errorf("frame slot %d: wait fence: %w", s.index, werr)
		}
	}
	s.arena.Drain()
	s.state = SlotIdle
	return err
}
