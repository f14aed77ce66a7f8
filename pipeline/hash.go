package pipeline

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// chainKey derives a pass key from the previous link and everything that
// determines the pass output. Two passes hash equal iff they run the same
// kernel with the same parameters on the same upstream result, which is
// exactly the render cache's validity condition.
func chainKey(prev uint64, p *Pass) uint64 {
	d := xxhash.New()
	writeU64(d, prev)
	d.WriteString(string(p.Kernel))
	for _, u := range p.Uniforms {
		writeU64(d, math.Float64bits(u))
	}
	for _, v := range p.LUT {
		writeU32(d, math.Float32bits(v))
	}
	for _, g := range p.Geo {
		d.WriteString(string(g.Kind))
		for _, a := range g.Args {
			writeU64(d, math.Float64bits(a))
		}
	}
	if p.Mask != nil {
		writeU64(d, p.Mask.Fingerprint())
	}
	writeU64(d, uint64(p.OutWidth))
	writeU64(d, uint64(p.OutHeight))
	return d.Sum64()
}

func writeU64(d *xxhash.Digest, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	d.Write(b[:])
}

func writeU32(d *xxhash.Digest, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	d.Write(b[:])
}
