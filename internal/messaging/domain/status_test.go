package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrecedence_Values(t *testing.T) {
	assert.Equal(t, 1, StatusQueued.Precedence())
	assert.Equal(t, 4, StatusSent.Precedence())
	assert.Equal(t, 5, StatusDelivered.Precedence())
	assert.Equal(t, 6, StatusRead.Precedence())
	assert.Equal(t, -1, StatusFailed.Precedence())
	assert.Equal(t, -2, StatusUndelivered.Precedence())
}

func TestPrecedence_ProgressOrdering(t *testing.T) {
	progression := []DeliveryStatus{StatusQueued, StatusSent, StatusDelivered, StatusRead}
	for i := 1; i < len(progression); i++ {
		assert.Greater(t, progression[i].Precedence(), progression[i-1].Precedence(),
			"%s should rank above %s", progression[i], progression[i-1])
	}
}

func TestPrecedence_FailuresNeverRankAboveProgress(t *testing.T) {
	for _, failure := range []DeliveryStatus{StatusFailed, StatusUndelivered} {
		for _, progress := range []DeliveryStatus{StatusQueued, StatusSent, StatusDelivered, StatusRead} {
			assert.Less(t, failure.Precedence(), progress.Precedence())
		}
	}
}

func TestPrecedence_UnknownStatusRanksAsFailed(t *testing.T) {
	assert.Equal(t, StatusFailed.Precedence(), DeliveryStatus("bogus").Precedence())
	assert.Equal(t, StatusFailed.Precedence(), DeliveryStatus("").Precedence())
}
