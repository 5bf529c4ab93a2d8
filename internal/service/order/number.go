package order

import (
	"crypto/rand"
	"fmt"
	"time"
)

const numberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// rejectAbove is the largest multiple of len(numberAlphabet) that fits in a
// byte; bytes at or above it are redrawn so every symbol is equally likely.
const rejectAbove = 256 - 256%len(numberAlphabet)

// NewOrderNumber returns ORD-<unix millis>-<9 base36 chars>.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), randomSymbols(9))
}

func randomSymbols(n int) []byte {
	out := make([]byte, 0, n)
	var buf [16]byte
	for len(out) < n {
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(fmt.Sprintf("order number entropy: %v", err))
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, numberAlphabet[int(b)%len(numberAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return out
}
