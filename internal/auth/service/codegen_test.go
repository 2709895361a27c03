package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	hexCode     = regexp.MustCompile(`^[0-9a-f]{64}$`)
	numericCode = regexp.MustCompile(`^[0-9]{78}$`)
)

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	t.Run("default mode is 64 hex chars", func(t *testing.T) {
		seen := map[string]bool{}
		for range 50 {
			code, err := GenerateCode(false)
			require.NoError(t, err)
			require.Regexp(t, hexCode, code)
			require.False(t, seen[code], "codes must not repeat")
			seen[code] = true
		}
	})

	t.Run("numeric mode is longer and digit only", func(t *testing.T) {
		def, err := GenerateCode(false)
		require.NoError(t, err)

		for range 50 {
			code, err := GenerateCode(true)
			require.NoError(t, err)
			require.Regexp(t, numericCode, code)
			require.Greater(t, len(code), len(def))
		}
	})
}
