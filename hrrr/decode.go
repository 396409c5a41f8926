package hrrr

import (
	"fmt"
)

// DecodeMessage decodes one raw GRIB2 message (Section 0 through "7777")
// into a Field. Only what HRRR needs is supported: grid template 3.30,
// data representation templates 5.0 and 5.3, and an optional bitmap.
// Malformed input returns an error; it never panics.
func DecodeMessage(raw []byte) (*Field, error) {
	if _, err := parseIndicator(raw); err != nil {
		return nil, err
	}

	var (
		grid    *LambertGrid
		pack    packing
		bitmap  []byte
		payload []byte
	)
	for off := 16; off < len(raw) && !isEndMarker(raw, off); {
		sec, next, err := sectionAt(raw, off)
		if err != nil {
			return nil, err
		}
		switch sec.num {
		case 3:
			g, err := parseLambertSection(sec.data)
			if err != nil {
				return nil, err
			}
			grid = &g
		case 5:
			if pack, err = parsePacking(sec.data); err != nil {
				return nil, fmt.Errorf("section 5: %w", err)
			}
		case 6:
			if len(sec.data) < 6 {
				return nil, fmt.Errorf("section 6 too short")
			}
			switch ind := sec.data[5]; ind {
			case 255: // no bitmap, every point present
			case 0:
				bitmap = sec.data[6:]
			default:
				return nil, fmt.Errorf("bitmap section: unsupported indicator %d", ind)
			}
		case 7:
			payload = sec.data
		}
		// Sections 1 (identification), 2 (local use) and 4 (product
		// definition) carry nothing the decoder needs.
		off = next
	}

	switch {
	case grid == nil:
		return nil, fmt.Errorf("no Section 3 found in message")
	case pack == nil:
		return nil, fmt.Errorf("no Section 5 found in message")
	case payload == nil:
		return nil, fmt.Errorf("no Section 7 found in message")
	}

	vals, err := pack.unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}

	// int64 so the product cannot overflow on 32-bit platforms.
	points := int64(grid.Ni) * int64(grid.Nj)
	if bitmap != nil {
		if vals, err = expandBitmap(vals, bitmap, int(points)); err != nil {
			return nil, err
		}
	}
	if int64(len(vals)) != points {
		return nil, fmt.Errorf("decoded %d values, expected %d (%dx%d)", len(vals), points, grid.Ni, grid.Nj)
	}
	return &Field{Grid: *grid, Vals: vals}, nil
}
