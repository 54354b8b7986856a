package frames

import (
	"errors"
	"fmt"
)

var (
	// ErrRingOverlap means an allocation would overwrite bytes a pending frame may still read.
	ErrRingOverlap = errors.New("ring allocation overlaps in-flight data")
	// ErrAllocationTooLarge means the request can never fit in the ring.
	ErrAllocationTooLarge = errors.New("allocation larger than ring")
	ErrEmptyAllocation    = errors.New("zero-byte ring allocation")
)

/**
 * @brief Fixed-size circular staging region shared by every transient upload.
 *
 * The write cursor advances with every allocation. The read cursor is the last
 * byte that may still belong to a frame the GPU has not finished. No allocation
 * may claim, or skip over, the byte under the read cursor.
 */
type RingAllocator struct {
	size  uint32
	write uint32
	read  uint32
}

func NewRingAllocator(size uint32) *RingAllocator {
	if size < 2 {
		size = 2
	}
	return &RingAllocator{
		size:  size,
		write: 0,
		read:  size - 1,
	}
}

func (r *RingAllocator) Size() uint32        { return r.size }
func (r *RingAllocator) ReadCursor() uint32  { return r.read }
func (r *RingAllocator) WriteCursor() uint32 { return r.write }

// Alloc claims amount bytes at the given alignment and returns their offset.
// A request that does not fit before the end of the ring restarts at offset 0.
func (r *RingAllocator) Alloc(amount, alignment uint32) (uint32, error) {
	if amount == 0 {
		return 0, ErrEmptyAllocation
	}
	if amount > r.size-1 {
		return 0, fmt.Errorf("%w: %d bytes requested, ring holds %d", ErrAllocationTooLarge, amount, r.size)
	}

	pos := AlignUp(r.write, alignment)
	if uint64(pos)+uint64(amount) > uint64(r.size) {
		// the skipped tail [write, size) counts as crossed
		if r.read >= r.write || r.read < amount {
			return 0, r.overlap(0, amount)
		}
		r.write = amount
		return 0, nil
	}

	if r.write <= r.read && r.read < pos+amount {
		return 0, r.overlap(pos, amount)
	}
	r.write = pos + amount
	return pos, nil
}

func (r *RingAllocator) overlap(pos, amount uint32) error {
	return fmt.Errorf("%w: [%d, %d) with write=%d read=%d size=%d", ErrRingOverlap, pos, pos+amount, r.write, r.read, r.size)
}

// MarkFrameBoundary records that everything written so far may still be read
// by a submitted frame.
func (r *RingAllocator) MarkFrameBoundary() {
	r.RetainFrom(r.write)
}

// RetainFrom protects every byte from offset up to the write cursor by moving
// the read cursor to the byte just before offset.
func (r *RingAllocator) RetainFrom(offset uint32) {
	if offset == 0 || offset > r.size {
		r.read = r.size - 1
		return
	}
	r.read = offset - 1
}
