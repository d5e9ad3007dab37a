package bracket

import "math/bits"

// BracketSize rounds count up to the next power of two, so 5 becomes 8.
func BracketSize(count int) int {
	if count <= 1 {
		return count
	}
	return 1 << bits.Len(uint(count-1))
}

// Rounds is the number of elimination rounds for count participants.
func Rounds(count int) int {
	if count <= 1 {
		return 0
	}
	return bits.Len(uint(count - 1))
}

// SeedPairs returns the zero based seed indices that meet in each first round
// match of a bracket, in match order. Top seeds land in separate halves so
// that byes go to them first: 8 gives {0,7} {3,4} {1,6} {2,5}.
func SeedPairs(bracketSize int) [][2]int {
	if bracketSize < 2 {
		return [][2]int{}
	}

	order := []int{0}
	for len(order) < bracketSize {
		next := make([]int, 0, len(order)*2)
		count := len(order) * 2
		for _, seed := range order {
			next = append(next, seed, (count-1)-seed)
		}
		order = next
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(order); i += 2 {
		pairs = append(pairs, [2]int{order[i], order[i+1]})
	}
	return pairs
}

// SeedSlot finds where a zero based seed starts in a bracket of the given
// size: the first round match order and slot.
func SeedSlot(bracketSize, seed int) (order, slot int) {
	for i, pair := range SeedPairs(bracketSize) {
		if pair[0] == seed {
			return i + 1, 1
		}
		if pair[1] == seed {
			return i + 1, 2
		}
	}
	return 0, 0
}
