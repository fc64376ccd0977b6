package services

import (
	"dm-lab/domain"
	"dm-lab/runtime"
)

// PairLocker serializes the operations touching the same unordered pair of users.
type PairLocker struct {
	keys *runtime.KeyLocker
}

func NewPairLocker() *PairLocker {
	return &PairLocker{keys: runtime.NewKeyLocker()}
}

// Lock blocks until the pair is free and returns the matching unlock function.
func (l *PairLocker) Lock(pair domain.Pair) func() {
	return l.keys.Lock("pair:" + pair.Key())
}

// Len is the number of pairs currently locked or awaited.
func (l *PairLocker) Len() int {
	return l.keys.Len()
}
