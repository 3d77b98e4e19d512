package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_GenerateReferenceCode(t *testing.T) {
	code := GenerateReferenceCode(10)
	require.Len(t, code, 10)

	for _, c := range code {
		require.True(t, strings.ContainsRune(referenceAlphabet, c), "unexpected character %q", c)
	}

	// Ambiguous characters never appear in a code.
	require.NotContains(t, referenceAlphabet, "0")
	require.NotContains(t, referenceAlphabet, "O")
	require.NotContains(t, referenceAlphabet, "1")
	require.NotContains(t, referenceAlphabet, "I")
	require.NotContains(t, referenceAlphabet, "L")
}

func Test_RandRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		got := RandRange(5, 8)
		require.GreaterOrEqual(t, got, 5)
		require.Less(t, got, 8)
	}
}
