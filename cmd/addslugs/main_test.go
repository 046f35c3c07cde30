package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueSlug(t *testing.T) {
	t.Run("FreeBaseKeptPlain", func(t *testing.T) {
		taken := map[string]bool{}
		assert.Equal(t, "chocolate-truffle", uniqueSlug("Chocolate Truffle", taken))
	})

	t.Run("CollisionCounterStartsAtOne", func(t *testing.T) {
		taken := map[string]bool{"chocolate-truffle": true}
		assert.Equal(t, "chocolate-truffle-1", uniqueSlug("Chocolate Truffle", taken))
	})

	t.Run("CounterAdvancesPastTakenSuffixes", func(t *testing.T) {
		taken := map[string]bool{
			"chocolate-truffle":   true,
			"chocolate-truffle-1": true,
			"chocolate-truffle-2": true,
		}
		assert.Equal(t, "chocolate-truffle-3", uniqueSlug("Chocolate Truffle", taken))
	})
}
