package simulation

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// modelSeed derives a stable 63-bit seed from "ticker:model". Keying the
// seed by model keeps each simulator's paths identical regardless of which
// sibling models run alongside it.
func modelSeed(ticker, model string) uint64 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", ticker, model)))
	return binary.BigEndian.Uint64(sum[24:32]) & (1<<63 - 1)
}

// tickerSeed derives a stable 32-bit seed from the ticker alone, used for
// the fallback RNG when no model-keyed seed applies.
func tickerSeed(ticker string) uint64 {
	sum := sha256.Sum256([]byte(ticker))
	return uint64(binary.BigEndian.Uint32(sum[28:32]))
}

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
