package libutil

import (
	"math"
)

const (
	Rad2Deg = float32(180 / math.Pi)
	Deg2Rad = float32(math.Pi / 180)
)

type Deleter interface {
	Delete()
}

// DeleteAll deletes in reverse order of creation
func DeleteAll(deleters []Deleter) {
	for i := len(deleters) - 1; i >= 0; i-- {
		if deleters[i] != nil {
			deleters[i].Delete()
		}
	}
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns floor(log2(n)) for n > 0
func Log2(n int) int {
	l := -1
	for n > 0 {
		n >>= 1
		l++
	}
	return l
}
