package physics

import "github.com/san-kum/gravsim/internal/body"

// Merge records one collision: bodies A and B were consumed and replaced
// by Result.
type Merge struct {
	A, B   body.Handle
	Result body.Handle
	Mass   float64
	Radius float64
}

// Collide merges overlapping pairs until a full scan finds none. Pairs are
// scanned in ascending (i, j) order and the first overlap found is merged;
// the merged body is appended and the scan restarts. Each merge removes one
// body, so at most Len()-1 merges happen.
func Collide(s *body.Store, maxRadius float64) []Merge {
	var merges []Merge

	for limit := s.Len(); limit > 0; limit-- {
		i, j, ok := firstOverlap(s)
		if !ok {
			break
		}

		ha, _ := s.HandleAt(i)
		hb, _ := s.HandleAt(j)
		merged := body.Merge(s.Ref(i), s.Ref(j), maxRadius)

		// j > i: removing j first leaves i in place
		_ = s.Remove(j)
		_ = s.Remove(i)
		h, _ := s.Append(merged)

		merges = append(merges, Merge{
			A:      ha,
			B:      hb,
			Result: h,
			Mass:   merged.Mass(),
			Radius: merged.Radius(),
		})
	}

	return merges
}

func firstOverlap(s *body.Store) (int, int, bool) {
	n := s.Len()
	for i := 0; i < n; i++ {
		bi := s.Ref(i)
		for j := i + 1; j < n; j++ {
			if body.Overlaps(bi, s.Ref(j)) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}
