package hrrr

import (
	"encoding/binary"
	"fmt"
)

// Sanity limits on values read from a message. All sit well above anything a
// real HRRR file carries and exist to stop a corrupt or hostile message from
// driving huge allocations.
const (
	maxGroups   = 1 << 22  // DRS 5.3 group count; HRRR uses a few thousand
	maxGridDim  = 30000    // Ni, Nj; HRRR CONUS is 1799x1059
	maxBitWidth = 64       // widest field a uint64 accumulator can hold
	maxTotal    = 10000000 // decoded values per message
)

// indicator is the 16-byte GRIB2 Section 0.
type indicator struct {
	discipline byte
	edition    byte
	length     uint64
}

func parseIndicator(b []byte) (indicator, error) {
	if len(b) < 16 {
		return indicator{}, fmt.Errorf("section 0: need 16 bytes, got %d", len(b))
	}
	if string(b[:4]) != "GRIB" {
		return indicator{}, fmt.Errorf("section 0: missing GRIB magic: %q", b[:4])
	}
	ind := indicator{
		discipline: b[6],
		edition:    b[7],
		length:     binary.BigEndian.Uint64(b[8:16]),
	}
	if ind.edition != 2 {
		return indicator{}, fmt.Errorf("section 0: GRIB edition %d, only 2 is supported", ind.edition)
	}
	return ind, nil
}

// isEndMarker reports whether buf holds the "7777" trailer at off.
func isEndMarker(buf []byte, off int) bool {
	return off+4 <= len(buf) && string(buf[off:off+4]) == "7777"
}

// section is one length-prefixed GRIB2 section. data includes the 5-byte
// header (length + number) so template offsets match the WMO tables.
type section struct {
	num  byte
	data []byte
}

// sectionAt slices out the section starting at off and returns the offset
// of the one after it.
func sectionAt(buf []byte, off int) (section, int, error) {
	if off+5 > len(buf) {
		return section{}, 0, fmt.Errorf("section header at %d: out of bounds (buf=%d)", off, len(buf))
	}
	n := binary.BigEndian.Uint32(buf[off : off+4])
	num := buf[off+4]
	// uint64 so a huge length cannot wrap int on 32-bit platforms.
	end := uint64(off) + uint64(n)
	if n < 5 || end > uint64(len(buf)) {
		return section{}, 0, fmt.Errorf("section %d at %d: length %d does not fit buffer of %d", num, off, n, len(buf))
	}
	return section{num: num, data: buf[off:int(end)]}, int(end), nil
}

// parseLambertSection decodes Section 3 with grid definition template 3.30
// in the compact layout HRRR writes. Offsets below are relative to the
// template start, 14 bytes into the section:
//
//	0       shape of earth (6 = sphere, r = 6371229 m)
//	16..19  Ni
//	20..23  Nj
//	24..27  La1, microdegrees, signed
//	28..31  Lo1, microdegrees, 0-360
//	32      resolution and component flags
//	33..36  LaD, latitude where Dx and Dy apply
//	37..40  LoV, microdegrees, 0-360
//	41..44  Dx, millimetres
//	45..48  Dy, millimetres
//	49      projection centre flag
//	50      scanning mode
//	51..54  Latin1, microdegrees
//	55..58  Latin2, microdegrees
func parseLambertSection(sec []byte) (LambertGrid, error) {
	if len(sec) < 14+67 {
		return LambertGrid{}, fmt.Errorf("section 3: too short (%d bytes)", len(sec))
	}
	if tmpl := binary.BigEndian.Uint16(sec[12:14]); tmpl != 30 {
		return LambertGrid{}, fmt.Errorf("section 3: grid template 3.%d, only 3.30 (Lambert conformal) is supported", tmpl)
	}
	t := sec[14:]
	u32 := func(off int) uint32 { return binary.BigEndian.Uint32(t[off : off+4]) }
	micro := func(off int) float64 { return float64(int32(u32(off))) / 1e6 }

	ni, nj := int(u32(16)), int(u32(20))
	if ni <= 0 || ni > maxGridDim || nj <= 0 || nj > maxGridDim {
		return LambertGrid{}, fmt.Errorf("section 3: invalid grid dimensions %dx%d (max %d)", ni, nj, maxGridDim)
	}

	// The lookup and resampling code assumes +i east, +j north, i fastest.
	scan := t[50]
	if scan != 0x40 {
		return LambertGrid{}, fmt.Errorf("section 3: unsupported scan mode 0x%02X (only 0x40 supported)", scan)
	}

	return LambertGrid{
		Ni:       ni,
		Nj:       nj,
		La1:      micro(24),
		Lo1:      float64(u32(28)) / 1e6,
		LoV:      float64(u32(37)) / 1e6,
		Latin1:   micro(51),
		Latin2:   micro(55),
		Dx:       float64(u32(41)) / 1e3,
		Dy:       float64(u32(45)) / 1e3,
		ScanMode: scan,
	}, nil
}

// scaleFactor decodes a GRIB2 sign-magnitude 16-bit scale factor.
func scaleFactor(raw uint16) int {
	m := int(raw & 0x7FFF)
	if raw&0x8000 != 0 {
		return -m
	}
	return m
}
