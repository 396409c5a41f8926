package hrrr

import (
	"encoding/binary"
	"fmt"
	"math"
)

// packing is a decoded Section 5 data representation template that knows
// how to unpack the matching Section 7.
type packing interface {
	unpack(sec7 []byte) ([]float64, error)
}

// parsePacking reads the template number from Section 5 and dispatches.
func parsePacking(sec []byte) (packing, error) {
	if len(sec) < 11 {
		return nil, fmt.Errorf("section 5 too short (%d bytes)", len(sec))
	}
	switch tmpl := binary.BigEndian.Uint16(sec[9:11]); tmpl {
	case 0:
		return parseSimplePacking(sec)
	case 3:
		return parseComplexPacking(sec)
	default:
		return nil, fmt.Errorf("unsupported DRS template 5.%d (supported: 5.0, 5.3)", tmpl)
	}
}

// scaling holds the fields shared by every packing template:
// Y = (R + X·2^E) / 10^D.
type scaling struct {
	Reference float64
	BinaryE   int
	DecimalD  int
	Nbits     int
}

func parseScaling(t []byte) (scaling, error) {
	s := scaling{
		Reference: float64(math.Float32frombits(binary.BigEndian.Uint32(t[0:4]))),
		BinaryE:   scaleFactor(binary.BigEndian.Uint16(t[4:6])),
		DecimalD:  scaleFactor(binary.BigEndian.Uint16(t[6:8])),
		Nbits:     int(t[8]),
	}
	if s.Nbits > maxBitWidth {
		return scaling{}, fmt.Errorf("Nbits=%d exceeds %d", s.Nbits, maxBitWidth)
	}
	return s, nil
}

// decoder returns the function mapping a packed integer back to a physical
// value, with both powers computed once.
func (s scaling) decoder() func(x int64) float64 {
	e := math.Ldexp(1, s.BinaryE)
	d := math.Pow(10, float64(s.DecimalD))
	return func(x int64) float64 { return (s.Reference + e*float64(x)) / d }
}

// simplePacking is DRS template 5.0: N consecutive Nbits-wide integers.
type simplePacking struct {
	scaling
	N int
}

func parseSimplePacking(sec []byte) (*simplePacking, error) {
	if len(sec) < 11+10 {
		return nil, fmt.Errorf("section 5 DRS 5.0: too short (%d bytes)", len(sec))
	}
	n := binary.BigEndian.Uint32(sec[5:9])
	if n > maxTotal {
		return nil, fmt.Errorf("section 5: N=%d exceeds maximum %d", n, maxTotal)
	}
	s, err := parseScaling(sec[11:])
	if err != nil {
		return nil, fmt.Errorf("section 5: %w", err)
	}
	return &simplePacking{scaling: s, N: int(n)}, nil
}

func (p *simplePacking) unpack(sec7 []byte) ([]float64, error) {
	if len(sec7) < 5 {
		return nil, fmt.Errorf("drs0: section 7 too short")
	}
	out := make([]float64, p.N)
	apply := p.decoder()

	// Nbits == 0 encodes a constant field.
	if p.Nbits == 0 {
		v := apply(0)
		for i := range out {
			out[i] = v
		}
		return out, nil
	}

	br := newBitReader(sec7[5:])
	for i := range out {
		x, err := br.read(p.Nbits)
		if err != nil {
			return nil, fmt.Errorf("drs0: value %d: %w", i, err)
		}
		out[i] = apply(int64(x))
	}
	return out, nil
}
