package hrrr

import (
	"encoding/binary"
	"math"
)

// Helpers that assemble small synthetic GRIB2 messages. Offsets follow the
// WMO section layouts the decoder reads.

// lambertSection builds Section 3 with template 3.30 and HRRR's projection
// constants (sphere, LoV 262.5, Latin1 = Latin2 = 38.5, 3 km spacing).
func lambertSection(ni, nj uint32, scan byte) []byte {
	sec := make([]byte, 81)
	binary.BigEndian.PutUint32(sec[0:4], 81)
	sec[4] = 3
	binary.BigEndian.PutUint32(sec[6:10], ni*nj)
	binary.BigEndian.PutUint16(sec[12:14], 30)
	g := sec[14:]
	g[0] = 6
	binary.BigEndian.PutUint32(g[16:20], ni)
	binary.BigEndian.PutUint32(g[20:24], nj)
	binary.BigEndian.PutUint32(g[24:28], uint32(int32(38000000)))
	binary.BigEndian.PutUint32(g[28:32], 262000000)
	binary.BigEndian.PutUint32(g[33:37], uint32(int32(38500000)))
	binary.BigEndian.PutUint32(g[37:41], 262500000)
	binary.BigEndian.PutUint32(g[41:45], 3000000)
	binary.BigEndian.PutUint32(g[45:49], 3000000)
	g[50] = scan
	binary.BigEndian.PutUint32(g[51:55], uint32(int32(38500000)))
	binary.BigEndian.PutUint32(g[55:59], uint32(int32(38500000)))
	return sec
}

// simpleSection builds Section 5 with template 5.0.
func simpleSection(n uint32, ref float32, e, d int, nbits byte) []byte {
	sec := make([]byte, 21)
	binary.BigEndian.PutUint32(sec[0:4], 21)
	sec[4] = 5
	binary.BigEndian.PutUint32(sec[5:9], n)
	binary.BigEndian.PutUint16(sec[9:11], 0)
	putScaling(sec[11:], ref, e, d, nbits)
	return sec
}

// complexSection builds Section 5 with template 5.3 using one byte per
// extra descriptor.
func complexSection(p complexPacking, ref float32) []byte {
	sec := make([]byte, 49)
	binary.BigEndian.PutUint32(sec[0:4], 49)
	sec[4] = 5
	binary.BigEndian.PutUint16(sec[9:11], 3)
	t := sec[11:]
	putScaling(t, ref, p.BinaryE, p.DecimalD, byte(p.Nbits))
	binary.BigEndian.PutUint32(t[20:24], uint32(p.Groups))
	t[24] = byte(p.RefGroupWidth)
	t[25] = byte(p.BitsGroupWidth)
	binary.BigEndian.PutUint32(t[26:30], uint32(p.RefGroupLength))
	t[30] = byte(p.LengthIncrement)
	binary.BigEndian.PutUint32(t[31:35], uint32(p.LastGroupLength))
	t[35] = byte(p.BitsGroupLength)
	t[36] = byte(p.DiffOrder)
	t[37] = byte(p.ExtraOctets)
	return sec
}

func putScaling(t []byte, ref float32, e, d int, nbits byte) {
	binary.BigEndian.PutUint32(t[0:4], math.Float32bits(ref))
	binary.BigEndian.PutUint16(t[4:6], signedScale(e))
	binary.BigEndian.PutUint16(t[6:8], signedScale(d))
	t[8] = nbits
}

func signedScale(v int) uint16 {
	if v < 0 {
		return 0x8000 | uint16(-v)
	}
	return uint16(v)
}

// bitmapSection builds Section 6 with indicator 0 and the given bitmap.
func bitmapSection(bitmap ...byte) []byte {
	sec := make([]byte, 6+len(bitmap))
	binary.BigEndian.PutUint32(sec[0:4], uint32(len(sec)))
	sec[4] = 6
	copy(sec[6:], bitmap)
	return sec
}

// dataSection builds Section 7 around payload.
func dataSection(payload []byte) []byte {
	sec := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(sec[0:4], uint32(len(sec)))
	sec[4] = 7
	copy(sec[5:], payload)
	return sec
}

// packBits packs values MSB-first at a fixed width, zero-padding the tail.
func packBits(vals []uint64, width int) []byte {
	out := make([]byte, (len(vals)*width+7)/8)
	pos := 0
	for _, v := range vals {
		for b := width - 1; b >= 0; b-- {
			if v>>uint(b)&1 == 1 {
				out[pos/8] |= 0x80 >> (pos % 8)
			}
			pos++
		}
	}
	return out
}

// message wraps sections in Section 0, a minimal Section 1 and the trailer.
func message(sections ...[]byte) []byte {
	msg := make([]byte, 16, 256)
	copy(msg, "GRIB")
	msg[7] = 2
	sec1 := make([]byte, 21)
	binary.BigEndian.PutUint32(sec1[0:4], 21)
	sec1[4] = 1
	msg = append(msg, sec1...)
	for _, s := range sections {
		msg = append(msg, s...)
	}
	msg = append(msg, "7777"...)
	binary.BigEndian.PutUint64(msg[8:16], uint64(len(msg)))
	return msg
}
