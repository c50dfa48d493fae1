package gate

import (
	"fmt"
	"math/rand/v2"
)

const optionCount = 4

// GenerateCaptcha returns a simple arithmetic question and its answer.
// Operands are kept in 1..10 and subtraction is ordered so the result
// is never negative.
func GenerateCaptcha() (string, int) {
	a := rand.IntN(10) + 1
	b := rand.IntN(10) + 1

	switch rand.IntN(3) {
	case 0:
		return fmt.Sprintf("What is %d + %d?", a, b), a + b
	case 1:
		if a < b {
			a, b = b, a
		}
		return fmt.Sprintf("What is %d - %d?", a, b), a - b
	default:
		return fmt.Sprintf("What is %d × %d?", a, b), a * b
	}
}

// GenerateOptions returns 4 distinct non-negative integers in random
// order, one of which is the correct answer. Decoys are the answer
// perturbed by small offsets; after a bounded number of collisions the
// sampling window is widened so this cannot loop forever.
func GenerateOptions(answer int) []int {
	options := []int{answer}
	seen := map[int]bool{answer: true}

	for len(options) < optionCount {
		wrong := answer + sign()*(rand.IntN(10)+1)
		if wrong >= 0 && !seen[wrong] {
			options = append(options, wrong)
			seen[wrong] = true
			continue
		}

		// Collided or went negative, resample from a wider window.
		found := false
		for range 10 {
			wrong = max(0, answer-15) + rand.IntN(31)
			if !seen[wrong] {
				found = true
				break
			}
		}
		if !found {
			// Out of luck with sampling, take the first free value.
			for wrong = 0; seen[wrong]; wrong++ {
			}
		}
		options = append(options, wrong)
		seen[wrong] = true
	}

	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

func sign() int {
	if rand.IntN(2) == 0 {
		return -1
	}
	return 1
}
