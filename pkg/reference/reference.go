// Package reference generates the short human-usable codes that identify
// insurance cases. Codes are 10 characters drawn from [A-Z0-9].
package reference

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Length is the fixed size of a generated reference.
const Length = 10

// filler pads short base-36 renderings so every reference reaches Length.
const filler = "ABCDEFGHJKLMNPQRSTUVWXYZ0123456789"

// Generate draws 8 cryptographically random bytes, renders them as an unsigned
// big integer in base 36 and uppercases the result. Encodings shorter than
// Length are right-padded from the filler alphabet before truncation.
//
// The generator performs no uniqueness check; callers that need unique codes
// must detect insert conflicts and regenerate.
func Generate() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	code := strings.ToUpper(new(big.Int).SetBytes(buf).Text(36))
	code = keepAlphanumeric(code)
	if len(code) < Length {
		code += filler
	}
	return code[:Length], nil
}

func keepAlphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
