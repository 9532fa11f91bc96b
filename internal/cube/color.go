package cube

// Color is an 8-bit-per-channel RGB value.
type Color struct{ R, G, B uint8 }

var (
	Black   = Color{0, 0, 0}
	White   = Color{255, 255, 255}
	Red     = Color{255, 0, 0}
	Green   = Color{0, 255, 0}
	Blue    = Color{0, 0, 255}
	Yellow  = Color{255, 255, 0}
	Cyan    = Color{0, 255, 255}
	Magenta = Color{255, 0, 255}
)

// Scale multiplies every channel by f. f is clamped to [0,1].
func (c Color) Scale(f float64) Color {
	if f <= 0 {
		return Black
	}
	if f >= 1 {
		return c
	}
	return Color{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// Pack565 quantizes c to 5-6-5 bits (r high, b low), rounding to nearest.
func Pack565(c Color) uint16 {
	r5 := (uint32(c.R)*31 + 127) / 255
	g6 := (uint32(c.G)*63 + 127) / 255
	b5 := (uint32(c.B)*31 + 127) / 255
	return uint16(r5<<11 | g6<<5 | b5)
}

// Unpack565 expands a 5-6-5 value back to 8-bit channels.
func Unpack565(v uint16) Color {
	return Color{
		R: uint8((uint32(v>>11&0x1F)*255 + 15) / 31),
		G: uint8((uint32(v>>5&0x3F)*255 + 31) / 63),
		B: uint8((uint32(v&0x1F)*255 + 15) / 31),
	}
}
