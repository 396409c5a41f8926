package hrrr

import (
	"encoding/binary"
	"fmt"
)

// complexPacking is DRS template 5.3: complex packing with spatial
// differencing, the template HRRR uses for nearly every field.
type complexPacking struct {
	scaling
	Groups          int // NG
	RefGroupWidth   int
	BitsGroupWidth  int
	RefGroupLength  int
	LengthIncrement int
	LastGroupLength int
	BitsGroupLength int
	DiffOrder       int // 1 or 2
	ExtraOctets     int // bytes per extra descriptor, 1..4
}

func parseComplexPacking(sec []byte) (*complexPacking, error) {
	if len(sec) < 11+38 {
		return nil, fmt.Errorf("section 5 DRS 5.3: too short (%d bytes)", len(sec))
	}
	t := sec[11:]
	s, err := parseScaling(t)
	if err != nil {
		return nil, fmt.Errorf("section 5: %w", err)
	}

	// Bytes 9..19 carry type of value, splitting method and missing-value
	// management; HRRR never uses missing-value substitution here.
	ng := binary.BigEndian.Uint32(t[20:24])
	if ng < 1 || ng > maxGroups {
		return nil, fmt.Errorf("section 5: ng=%d out of valid range [1, %d]", ng, maxGroups)
	}
	p := &complexPacking{
		scaling:         s,
		Groups:          int(ng),
		RefGroupWidth:   int(t[24]),
		BitsGroupWidth:  int(t[25]),
		RefGroupLength:  int(binary.BigEndian.Uint32(t[26:30])),
		LengthIncrement: int(t[30]),
		LastGroupLength: int(binary.BigEndian.Uint32(t[31:35])),
		BitsGroupLength: int(t[35]),
		DiffOrder:       int(t[36]),
		ExtraOctets:     int(t[37]),
	}
	if p.BitsGroupWidth > maxBitWidth {
		return nil, fmt.Errorf("section 5: BitsGroupWidth=%d exceeds %d", p.BitsGroupWidth, maxBitWidth)
	}
	if p.BitsGroupLength > maxBitWidth {
		return nil, fmt.Errorf("section 5: BitsGroupLength=%d exceeds %d", p.BitsGroupLength, maxBitWidth)
	}
	return p, nil
}

// unpack decodes Section 7. The payload is laid out as: extra descriptors
// (initial values and the minimum), then per-group references, widths and
// lengths (each padded to a byte boundary), then the group members.
func (p *complexPacking) unpack(sec7 []byte) ([]float64, error) {
	if len(sec7) < 5 {
		return nil, fmt.Errorf("drs53: section 7 too short")
	}
	data := sec7[5:]

	order, m := p.DiffOrder, p.ExtraOctets
	if order < 1 || order > 2 {
		return nil, fmt.Errorf("drs53: unsupported spatial differencing order %d", order)
	}
	if m < 1 || m > 4 {
		return nil, fmt.Errorf("drs53: unsupported extra descriptor octets %d", m)
	}
	extra := (order + 1) * m
	if len(data) < extra {
		return nil, fmt.Errorf("drs53: data too short for extra descriptors (%d < %d)", len(data), extra)
	}
	seeds := make([]int64, order)
	for i := range seeds {
		seeds[i] = signMagnitude(data[i*m : (i+1)*m])
	}
	minimum := signMagnitude(data[order*m : extra])

	br := newBitReader(data[extra:])
	ng := p.Groups

	refs := make([]int64, ng)
	for g := range refs {
		v, err := br.read(p.Nbits)
		if err != nil {
			return nil, fmt.Errorf("drs53: reading gref[%d]: %w", g, err)
		}
		refs[g] = int64(v)
	}
	br.align()

	widths := make([]int, ng)
	for g := range widths {
		v, err := br.read(p.BitsGroupWidth)
		if err != nil {
			return nil, fmt.Errorf("drs53: reading width[%d]: %w", g, err)
		}
		widths[g] = p.RefGroupWidth + int(v)
		if widths[g] > maxBitWidth {
			return nil, fmt.Errorf("drs53: group %d width %d exceeds %d", g, widths[g], maxBitWidth)
		}
	}
	br.align()

	// The last group's stored length is a placeholder; the true value is in
	// Section 5. Its bits are still present and must be consumed.
	lengths := make([]int, ng)
	total := 0
	for g := range lengths {
		v, err := br.read(p.BitsGroupLength)
		if err != nil {
			return nil, fmt.Errorf("drs53: reading length[%d]: %w", g, err)
		}
		if g == ng-1 {
			lengths[g] = p.LastGroupLength
		} else {
			lengths[g] = p.RefGroupLength + int(v)*p.LengthIncrement
		}
		total += lengths[g]
		if total > maxTotal {
			return nil, fmt.Errorf("drs53: total of %d values exceeds maximum %d", total, maxTotal)
		}
	}
	br.align()

	if total < order {
		return nil, fmt.Errorf("drs53: %d values cannot hold %d initial values", total, order)
	}

	// Group members, with the minimum added back.
	z := make([]int64, 0, total)
	for g := 0; g < ng; g++ {
		for k := 0; k < lengths[g]; k++ {
			v, err := br.read(widths[g])
			if err != nil {
				return nil, fmt.Errorf("drs53: reading group %d val %d: %w", g, k, err)
			}
			z = append(z, refs[g]+int64(v)+minimum)
		}
	}

	// Undo first- or second-order spatial differencing in place.
	copy(z, seeds)
	switch order {
	case 1:
		for i := 1; i < total; i++ {
			z[i] += z[i-1]
		}
	case 2:
		for i := 2; i < total; i++ {
			z[i] += 2*z[i-1] - z[i-2]
		}
	}

	apply := p.decoder()
	out := make([]float64, total)
	for i, x := range z {
		out[i] = apply(x)
	}
	return out, nil
}

// signMagnitude decodes a big-endian sign-magnitude integer of len(b) bytes;
// the top bit is the sign.
func signMagnitude(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	raw := uintOctets(b)
	sign := uint64(1) << (uint(len(b))*8 - 1)
	if raw&sign != 0 {
		return -int64(raw &^ sign)
	}
	return int64(raw)
}

// uintOctets decodes a big-endian unsigned integer of up to 8 bytes.
func uintOctets(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
