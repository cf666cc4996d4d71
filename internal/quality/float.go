// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package quality

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Float is a float64 that survives JSON round trips when it is infinite.
// Infinite values are written as the strings "inf" and "-inf"; encoding/json
// rejects them as numbers. Aspect ratios of degenerate triangles need this.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-inf"`), nil
	case math.IsNaN(v):
		return []byte(`"nan"`), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch s {
		case "inf", "+inf", "Infinity":
			*f = Float(math.Inf(1))
		case "-inf", "-Infinity":
			*f = Float(math.Inf(-1))
		case "nan", "NaN":
			*f = Float(math.NaN())
		default:
			return fmt.Errorf("invalid float %q", s)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// String formats the value with two decimals, or "inf".
func (f Float) String() string {
	if math.IsInf(float64(f), 1) {
		return "inf"
	}
	return strconv.FormatFloat(float64(f), 'f', 2, 64)
}
