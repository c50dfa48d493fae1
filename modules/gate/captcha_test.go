package gate_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/modules/gate"
)

func solveQuestion(t *testing.T, question string) int {
	t.Helper()

	var a, b int
	var op string
	_, err := fmt.Sscanf(question, "What is %d %s %d?", &a, &op, &b)
	require.NoError(t, err, "unparseable question: %q", question)

	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "×":
		return a * b
	}
	t.Fatalf("unknown operator %q in %q", op, question)
	return 0
}

func TestGenerateCaptcha(t *testing.T) {
	t.Parallel()

	for range 200 {
		question, answer := gate.GenerateCaptcha()
		assert.Equal(t, solveQuestion(t, question), answer)
		assert.GreaterOrEqual(t, answer, 0, "answers are never negative")
	}
}

func TestGenerateOptions(t *testing.T) {
	t.Parallel()

	for answer := range 120 {
		options := gate.GenerateOptions(answer)
		require.Len(t, options, 4)

		seen := make(map[int]bool)
		found := false
		for _, opt := range options {
			assert.GreaterOrEqual(t, opt, 0)
			assert.False(t, seen[opt], "options must be distinct")
			seen[opt] = true
			if opt == answer {
				found = true
			}
		}
		assert.True(t, found, "correct answer must be among the options")
	}
}

func TestGenerateOptionsZeroAnswer(t *testing.T) {
	t.Parallel()

	// With answer 0 the negative half of the perturbation range is
	// unusable, which forces the widened-window fallback.
	for range 50 {
		options := gate.GenerateOptions(0)
		require.Len(t, options, 4)
		assert.Contains(t, options, 0)
	}
}
