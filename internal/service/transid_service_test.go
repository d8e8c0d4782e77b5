package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func allocatorAt(t time.Time) *TimeTransIDAllocator {
	return &TimeTransIDAllocator{now: func() time.Time { return t }}
}

func TestTimeTransIDAllocator_Next(t *testing.T) {
	cases := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), "000000"},
		{time.Date(2026, 8, 30, 0, 0, 1, 0, time.UTC), "000010"},
		{time.Date(2026, 8, 30, 0, 1, 0, 0, time.UTC), "000600"},
		{time.Date(2026, 8, 30, 12, 30, 15, int(700*time.Millisecond), time.UTC), "450157"},
		{time.Date(2026, 8, 30, 23, 59, 59, int(900*time.Millisecond), time.UTC), "863999"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, allocatorAt(c.at).Next())
	}
}

func TestTimeTransIDAllocator_StaysInAllowedWindow(t *testing.T) {
	// The gateway rejects identifiers above 899999. Walk the day at a
	// coarse step and check the ceiling holds.
	for h := 0; h < 24; h++ {
		at := time.Date(2026, 8, 30, h, 59, 59, int(900*time.Millisecond), time.UTC)
		id := allocatorAt(at).Next()
		assert.Len(t, id, 6)
		assert.LessOrEqual(t, id, "863999")
	}
}

func TestTimeTransIDAllocator_NormalizesToUTC(t *testing.T) {
	paris := time.FixedZone("CEST", 2*60*60)
	at := time.Date(2026, 8, 30, 2, 0, 0, 0, paris) // 00:00 UTC
	assert.Equal(t, "000000", allocatorAt(at).Next())
}
