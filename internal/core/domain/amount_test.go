package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in    string
		minor int64
	}{
		{"50.24", 5024},
		{"0.01", 1},
		{"0", 0},
		{"7", 700},
		{"7.5", 750},
		{".99", 99},
		{"1234567.89", 123456789},
		{"3.14159", 314}, // truncated, matching the wire conversion
	}
	for _, c := range cases {
		a, err := ParseAmount(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.minor, a.MinorUnits(), c.in)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "-1", "-0.01", "abc", "12.x"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestAmountFromMinor_RejectsNegative(t *testing.T) {
	_, err := AmountFromMinor(-1)
	assert.Error(t, err)
}

func TestAmount_RoundTrip(t *testing.T) {
	// decode(encode(x)) == x over a representative range of two-digit
	// decimals, including values that are not exactly representable in
	// binary floating point.
	for minor := int64(0); minor <= 20000; minor++ {
		a, err := AmountFromMinor(minor)
		require.NoError(t, err)
		back, err := ParseAmount(a.String())
		require.NoError(t, err)
		assert.Equal(t, minor, back.MinorUnits())
	}
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "50.24", MustAmount("50.24").String())
	assert.Equal(t, "0.05", MustAmount("0.05").String())
	assert.Equal(t, "100.00", MustAmount("100").String())
}

func TestAmount_JSON(t *testing.T) {
	data, err := json.Marshal(MustAmount("19.90"))
	require.NoError(t, err)
	assert.Equal(t, `"19.90"`, string(data))

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"19.90"`), &a))
	assert.Equal(t, int64(1990), a.MinorUnits())
}

func TestAmount_WireEncoding(t *testing.T) {
	a := MustAmount("50.24")
	assert.Equal(t, "5024", fmt.Sprintf("%d", a.MinorUnits()))
}
