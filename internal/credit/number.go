package credit

import (
	"fmt"
	"math/rand/v2"
)

// NumberGenerator produces externally visible account numbers. Format and
// uniqueness are owned by the generator, not by the ledger.
type NumberGenerator interface {
	Generate() string
}

// RandomNumberGenerator issues 18-digit account numbers with a fixed "00"
// separator between the branch prefix and the serial part.
type RandomNumberGenerator struct{}

func (RandomNumberGenerator) Generate() string {
	return fmt.Sprintf("%04d00%012d", rand.IntN(10000), rand.Int64N(1_000_000_000_000))
}
