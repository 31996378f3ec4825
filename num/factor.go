package num

import (
	"encoding/json"
	"fmt"
	"math"
)

// Factor is a ratio that may be unbounded, such as a profit factor with no
// losing trades. It never holds an IEEE infinity; the unbounded case is a flag.
type Factor struct {
	v   float64
	inf bool
}

// Finite returns a bounded factor. NaN and infinities are rejected as zero and
// infinite respectively.
func Finite(v float64) Factor {
	switch {
	case math.IsNaN(v):
		return Factor{}
	case math.IsInf(v, 0):
		return Factor{inf: true}
	}
	return Factor{v: v}
}

// Infinite returns the unbounded sentinel.
func Infinite() Factor { return Factor{inf: true} }

// IsInf reports whether the factor is the unbounded sentinel.
func (f Factor) IsInf() bool { return f.inf }

// Float returns the bounded value and false for the sentinel.
func (f Factor) Float() (float64, bool) { return f.v, !f.inf }

func (f Factor) String() string {
	if f.inf {
		return "INF"
	}
	return Fixed(f.v, 2)
}

// MarshalJSON encodes the sentinel as the string "INF" and a bounded factor as
// a number rounded to two decimals.
func (f Factor) MarshalJSON() ([]byte, error) {
	if f.inf {
		return []byte(`"INF"`), nil
	}
	return json.Marshal(Round(f.v, 2))
}

func (f *Factor) UnmarshalJSON(b []byte) error {
	if string(b) == `"INF"` {
		*f = Infinite()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("num: factor: %w", err)
	}
	*f = Finite(v)
	return nil
}
