package tilegrid

import "math"

// decimalsFactor fixes the rounding precision (5 decimal digits) applied
// before flooring or ceiling tile fractions.
const decimalsFactor = 1e5

func roundDec(v float64) float64 {
	return math.Round(v*decimalsFactor) / decimalsFactor
}

func floorDec(v float64) int {
	return int(math.Floor(roundDec(v)))
}

func ceilDec(v float64) int {
	return int(math.Ceil(roundDec(v)))
}

// floorDiv divides rounding toward negative infinity, unlike Go's
// truncating integer division.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// linearFindNearest returns the index in arr (sorted descending) nearest
// to target. direction > 0 biases toward the preceding (larger) value,
// direction < 0 toward the following (smaller) one; direction 0 compares
// absolute distance and resolves exact ties toward the smaller value.
func linearFindNearest(arr []float64, target float64, direction int) int {
	n := len(arr)
	if arr[0] <= target {
		return 0
	}
	if target <= arr[n-1] {
		return n - 1
	}

	switch {
	case direction > 0:
		for i := 1; i < n; i++ {
			if arr[i] < target {
				return i - 1
			}
		}
	case direction < 0:
		for i := 1; i < n; i++ {
			if arr[i] <= target {
				return i
			}
		}
	default:
		for i := 1; i < n; i++ {
			if arr[i] == target {
				return i
			}
			if arr[i] < target {
				if arr[i-1]-target < target-arr[i] {
					return i - 1
				}
				return i
			}
		}
	}
	return n - 1
}
