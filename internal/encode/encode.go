// Package encode shapes pipeline results into documents and writes them as
// JSON or msgpack.
package encode

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

// Output formats.
const (
	JSON    = "json"
	Msgpack = "msgpack"
)

// ContentType returns the media type for format.
func ContentType(format string) string {
	if format == Msgpack {
		return "application/msgpack"
	}
	return "application/json"
}

// FromAccept picks msgpack when the Accept header lists a msgpack media type
// and JSON otherwise.
func FromAccept(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case "application/msgpack", "application/x-msgpack", "application/vnd.msgpack":
			return Msgpack
		}
	}
	return JSON
}

// Write encodes v to w. JSON is indented when pretty is set.
func Write(w io.Writer, format string, v any, pretty bool) error {
	switch format {
	case Msgpack:
		return msgpack.NewEncoder(w).Encode(v)
	case JSON, "":
		enc := json.NewEncoder(w)
		if pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// Floats is a float64 slice whose JSON form writes non-finite values as
// null. msgpack carries NaN natively.
type Floats []float64

func (f Floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(f)*8)
	buf = append(buf, '[')
	for i, v := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

// UnmarshalJSON reads null entries back as NaN.
func (f *Floats) UnmarshalJSON(b []byte) error {
	var raw []*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*f = nil
		return nil
	}
	out := make(Floats, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *p
	}
	*f = out
	return nil
}

// Rows copies a matrix into row slices.
func Rows(m mat.Matrix) []Floats {
	r, c := m.Dims()
	out := make([]Floats, r)
	for i := range out {
		row := make(Floats, c)
		mat.Row(row, i, m)
		out[i] = row
	}
	return out
}
