package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
	}{
		{"#6155F5", RGB{0x61, 0x55, 0xf5}},
		{"6155f5", RGB{0x61, 0x55, 0xf5}},
		{"#fff", RGB{255, 255, 255}},
		{" #000000 ", RGB{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHex_Malformed(t *testing.T) {
	for _, in := range []string{"", "#", "##ffffff", "#12345g", "#ffff", "blue"} {
		_, err := ParseHex(in)
		assert.ErrorIs(t, err, ErrMalformedHex, "input %q", in)
	}
}

func TestRGBToHex_ZeroPadded(t *testing.T) {
	assert.Equal(t, "#000a01", RGBToHex(0, 10, 1))
	assert.Equal(t, "#ffffff", RGBToHex(255, 255, 255))
}

func TestHexToRGB(t *testing.T) {
	r, g, b, err := HexToRGB("#2196F3")
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x21, 0x96, 0xf3}, []uint8{r, g, b})
}

func TestAdjustBrightness(t *testing.T) {
	lighter, err := AdjustBrightness("#6155F5", 15)
	require.NoError(t, err)
	assert.Equal(t, "#7062ff", lighter)

	darker, err := AdjustBrightness("#6155F5", -15)
	require.NoError(t, err)
	assert.Equal(t, "#5248d0", darker)

	_, err = AdjustBrightness("nope", 10)
	assert.ErrorIs(t, err, ErrMalformedHex)
}

func TestAdjust_ClampsChannels(t *testing.T) {
	c := RGB{200, 128, 3}
	assert.Equal(t, RGB{255, 255, 6}, c.Adjust(100))
	assert.Equal(t, RGB{0, 0, 0}, c.Adjust(-100))
	assert.Equal(t, RGB{0, 0, 0}, c.Adjust(-250))
}

func TestAdjust_RoundTripWithinTolerance(t *testing.T) {
	for _, p := range []float64{1, 2, -1, -2} {
		for v := 0; v <= 250; v += 5 {
			c := RGB{uint8(v), uint8(250 - v), uint8(v / 2)}
			back := c.Adjust(p).Adjust(-p)
			assert.InDelta(t, float64(c.R), float64(back.R), 1, "p=%v c=%v", p, c)
			assert.InDelta(t, float64(c.G), float64(back.G), 1, "p=%v c=%v", p, c)
			assert.InDelta(t, float64(c.B), float64(back.B), 1, "p=%v c=%v", p, c)
		}
	}
}

func TestLighterDarker(t *testing.T) {
	c := MustParseHex("#6155F5")
	assert.Equal(t, c.Adjust(GradientShift), c.Lighter())
	assert.Equal(t, c.Adjust(-GradientShift), c.Darker())
}
