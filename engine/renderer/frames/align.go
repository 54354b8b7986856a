package frames

import "golang.org/x/exp/constraints"

// AlignUp rounds v up to the next multiple of align. Alignments of 0 and 1 leave v unchanged.
func AlignUp[T constraints.Unsigned](v, align T) T {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}
