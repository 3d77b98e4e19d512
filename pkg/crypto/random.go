package crypto

import (
	"crypto/rand"
	"math/big"
)

// referenceAlphabet excludes 0/O/1/I/L so a code survives being read aloud or
// typed from a receipt.
const referenceAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateReferenceCode returns an n-character redemption code.
func GenerateReferenceCode(n uint) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = referenceAlphabet[RandIntn(len(referenceAlphabet))]
	}
	return string(b)
}

// RandIntn returns a uniform random value in [0, n). It panics if got a
// non-positive parameter.
func RandIntn(n int) int {
	r, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}

	return int(r.Int64())
}

// RandRange returns a uniform random value in [a, b). It panics if got a
// non-positive parameter or a>=b.
func RandRange(a, b int) int {
	return RandIntn(b-a) + a
}
