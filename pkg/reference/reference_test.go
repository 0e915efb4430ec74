package reference

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var validCode = regexp.MustCompile(`^[A-Z0-9]{10}$`)

func TestGenerateShape(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, Length)
		require.Regexp(t, validCode, code)
	}
}

func TestGenerateDispersion(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code, err := Generate()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	// 64 bits of entropy squeezed into 10 base-36 chars; a collision in a
	// thousand draws would point at a broken encoder, not bad luck.
	require.Len(t, seen, 1000)
}

func TestKeepAlphanumeric(t *testing.T) {
	require.Equal(t, "AB12", keepAlphanumeric("A-B_1.2"))
	require.Equal(t, "", keepAlphanumeric("-_."))
}
