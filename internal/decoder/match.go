package decoder

import "math"

// DefaultTolerance is the horizontal distance within which a shape center votes for a slot
const DefaultTolerance = 40.0

// MatchMethod records how a slot was chosen
type MatchMethod string

const (
	MethodNone        MatchMethod = "none"
	MethodVote        MatchMethod = "vote"
	MethodNearestMean MatchMethod = "nearest_mean"
)

// Match is the outcome of slot voting
type Match struct {
	Slot         Slot
	Votes        int
	ActiveShapes int
	Method       MatchMethod
	Tally        map[int]int // slot index -> votes
}

// MatchSlot votes the active candidates into slots.
//
// Every active shape votes for each slot whose center lies within tolerance
// of the shape's horizontal center, so one shape may vote twice where slot
// windows overlap. The slot with the most votes wins and ties go to the
// lowest slot index. The result does not depend on candidate order.
//
// When there are active shapes but none is near any slot, the slot nearest
// the mean active center is returned with zero votes, so the second return
// value is false only when no candidate is active.
func MatchSlot(candidates []Shape, slots []Slot, tolerance float64, classifier *Classifier) (Match, bool) {
	var centers []float64
	for i := range candidates {
		if classifier.Classify(candidates[i].Fill) == Active {
			centers = append(centers, candidates[i].Box.CenterX())
		}
	}
	if len(centers) == 0 || len(slots) == 0 {
		return Match{Method: MethodNone}, false
	}

	tally := make(map[int]int, len(slots))
	for _, slot := range slots {
		for _, x := range centers {
			if math.Abs(x-slot.CenterX) <= tolerance {
				tally[slot.Index]++
			}
		}
	}

	best, bestVotes := -1, 0
	for i, slot := range slots {
		v := tally[slot.Index]
		if v == 0 {
			continue
		}
		if best < 0 || v > bestVotes || (v == bestVotes && slot.Index < slots[best].Index) {
			best, bestVotes = i, v
		}
	}
	if best >= 0 {
		return Match{
			Slot:         slots[best],
			Votes:        bestVotes,
			ActiveShapes: len(centers),
			Method:       MethodVote,
			Tally:        tally,
		}, true
	}

	return Match{
		Slot:         nearestSlot(mean(centers), slots),
		ActiveShapes: len(centers),
		Method:       MethodNearestMean,
		Tally:        tally,
	}, true
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// nearestSlot ties go to the lowest index as well
func nearestSlot(x float64, slots []Slot) Slot {
	best := slots[0]
	bestDist := math.Abs(x - best.CenterX)
	for _, s := range slots[1:] {
		d := math.Abs(x - s.CenterX)
		if d < bestDist || (d == bestDist && s.Index < best.Index) {
			best, bestDist = s, d
		}
	}
	return best
}
