package mask

// Coverage is a single-channel per-pixel weight buffer.
// Values range from 0 (no effect) to 255 (full effect).
type Coverage struct {
	width  int
	height int
	data   []uint8
}

// NewCoverage creates an empty coverage buffer with the given dimensions.
func NewCoverage(width, height int) *Coverage {
	return &Coverage{
		width:  width,
		height: height,
		data:   make([]uint8, width*height),
	}
}

// Width returns the coverage width.
func (c *Coverage) Width() int { return c.width }

// Height returns the coverage height.
func (c *Coverage) Height() int { return c.height }

// Data returns the raw coverage values.
func (c *Coverage) Data() []uint8 { return c.data }

// SizeBytes returns the memory footprint of the coverage data.
func (c *Coverage) SizeBytes() int64 { return int64(len(c.data)) }

// At returns the coverage value at (x, y).
// Returns 0 for coordinates outside the buffer.
func (c *Coverage) At(x, y int) uint8 {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return 0
	}
	return c.data[y*c.width+x]
}

// Set sets the coverage value at (x, y).
// Coordinates outside the buffer are ignored.
func (c *Coverage) Set(x, y int, value uint8) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.data[y*c.width+x] = value
}

// Fill fills the entire buffer with a value.
func (c *Coverage) Fill(value uint8) {
	for i := range c.data {
		c.data[i] = value
	}
}

// Invert inverts all values (255 - value).
func (c *Coverage) Invert() {
	for i := range c.data {
		c.data[i] = 255 - c.data[i]
	}
}

// Clone returns a deep copy.
func (c *Coverage) Clone() *Coverage {
	out := &Coverage{width: c.width, height: c.height, data: make([]uint8, len(c.data))}
	copy(out.data, c.data)
	return out
}

// Max merges other into c taking the per-pixel maximum.
// Buffers must have identical dimensions; mismatches are ignored.
func (c *Coverage) Max(other *Coverage) {
	if other == nil || other.width != c.width || other.height != c.height {
		return
	}
	for i, v := range other.data {
		if v > c.data[i] {
			c.data[i] = v
		}
	}
}

// Replace overwrites c wherever other has any coverage.
func (c *Coverage) Replace(other *Coverage) {
	if other == nil || other.width != c.width || other.height != c.height {
		return
	}
	for i, v := range other.data {
		if v > 0 {
			c.data[i] = v
		}
	}
}
