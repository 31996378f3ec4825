// Package num holds the numeric helpers shared by the risk calculator and the
// aggregation engine: optional values, rounding and display formatting.
package num

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Opt is a float64 that may be absent. The zero value is None.
//
// A field that cannot be computed is represented as None instead of zero so
// that readers can tell "not computable" apart from a real 0. Some never
// stores NaN or an infinity; those collapse to None.
type Opt struct {
	v  float64
	ok bool
}

// Some returns a present value. NaN and ±Inf become None.
func Some(v float64) Opt {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Opt{}
	}
	return Opt{v: v, ok: true}
}

// None returns the absent value.
func None() Opt { return Opt{} }

// Get returns the value and whether it is present.
func (o Opt) Get() (float64, bool) { return o.v, o.ok }

// Valid reports whether the value is present.
func (o Opt) Valid() bool { return o.ok }

// Or returns the value, or def when absent.
func (o Opt) Or(def float64) float64 {
	if !o.ok {
		return def
	}
	return o.v
}

// Round rounds a present value to the given decimal places.
func (o Opt) Round(places int32) Opt {
	if !o.ok {
		return o
	}
	return Some(Round(o.v, places))
}

// Positive reports whether the value is present and strictly greater than zero.
func (o Opt) Positive() bool { return o.ok && o.v > 0 }

func (o Opt) String() string {
	if !o.ok {
		return "-"
	}
	return strconv.FormatFloat(o.v, 'f', -1, 64)
}

func (o Opt) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

func (o *Opt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = Opt{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("num: optional value: %w", err)
	}
	*o = Some(v)
	return nil
}

// Value implements driver.Valuer so None is stored as SQL NULL.
func (o Opt) Value() (driver.Value, error) {
	if !o.ok {
		return nil, nil
	}
	return o.v, nil
}

// Scan implements sql.Scanner.
func (o *Opt) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = Opt{}
	case float64:
		*o = Some(v)
	case float32:
		*o = Some(float64(v))
	case int64:
		*o = Some(float64(v))
	case []byte:
		return o.parse(string(v))
	case string:
		return o.parse(v)
	default:
		return fmt.Errorf("num: cannot scan %T into Opt", src)
	}
	return nil
}

func (o *Opt) parse(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("num: scan %q: %w", s, err)
	}
	*o = Some(f)
	return nil
}
