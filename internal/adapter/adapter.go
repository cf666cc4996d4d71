// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/meshbench/internal/mesh"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTimeout is returned when a backend call exceeds its timeout.
	ErrTimeout = errors.New("triangulation timed out")
	// ErrUnknownBackend is returned by New for an unregistered backend kind.
	ErrUnknownBackend = errors.New("unknown backend")
	// ErrInvalidOutput is returned when a backend produces unusable output.
	ErrInvalidOutput = errors.New("invalid backend output")
)

// =============================================================================
// CONTRACT
// =============================================================================

// Triangulator is implemented by every triangulation backend.
//
// Implementations must return an error rather than a partially valid mesh.
// Nothing is prescribed about triangle winding, vertex order or index
// numbering.
type Triangulator interface {
	Triangulate(ctx context.Context, req Request) (*mesh.Mesh, error)
}

// Func adapts an ordinary function to the Triangulator interface.
type Func func(ctx context.Context, req Request) (*mesh.Mesh, error)

// Triangulate calls f.
func (f Func) Triangulate(ctx context.Context, req Request) (*mesh.Mesh, error) {
	return f(ctx, req)
}

// Request is one triangulation call: the polygon and how to mesh it.
type Request struct {
	Outer mesh.Loop   `json:"outer"`
	Inner []mesh.Loop `json:"inner_loops"`
	Options
}

// Validate checks the loops of the request.
func (r Request) Validate() error {
	return mesh.ValidateLoops(r.Outer, r.Inner)
}

// Options are the refinement parameters passed to a backend.
type Options struct {
	// MaxH is a target edge-length hint; backends convert it to whatever
	// refinement criterion they use.
	MaxH Optional `json:"maxh"`
	// Quality selects the backend's refinement preset.
	Quality Tier `json:"quality"`
	// EnforceConstraints asks the backend to keep every loop edge verbatim
	// as a constraint edge.
	EnforceConstraints bool `json:"enforce_constraints"`
	// MinAngle, when set, overrides the angle threshold implied by Quality.
	MinAngle Optional `json:"min_angle"`
}

// String renders the options for logs and reports.
func (o Options) String() string {
	parts := []string{"quality=" + string(o.Quality)}
	if v, ok := o.MaxH.Get(); ok {
		parts = append(parts, "maxh="+strconv.FormatFloat(v, 'g', -1, 64))
	}
	if v, ok := o.MinAngle.Get(); ok {
		parts = append(parts, "min_angle="+strconv.FormatFloat(v, 'g', -1, 64))
	}
	if o.EnforceConstraints {
		parts = append(parts, "constraints")
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// QUALITY TIER
// =============================================================================

// Tier is a coarse refinement preset.
type Tier string

const (
	TierDefault  Tier = "default"
	TierModerate Tier = "moderate"
)

// ParseTier parses a tier name. The empty string means TierDefault.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case "", TierDefault:
		return TierDefault, nil
	case TierModerate:
		return TierModerate, nil
	}
	return "", fmt.Errorf("invalid quality tier %q, must be one of: default, moderate", s)
}

// =============================================================================
// OPTIONAL VALUES
// =============================================================================

// Optional is a float64 with an explicit presence flag, so "not supplied"
// and "supplied as zero" stay distinct. It encodes as JSON null when unset.
type Optional struct {
	value float64
	set   bool
}

// Some returns an Optional holding v.
func Some(v float64) Optional {
	return Optional{value: v, set: true}
}

// None returns an unset Optional.
func None() Optional {
	return Optional{}
}

// Get returns the value and whether it is set.
func (o Optional) Get() (float64, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was supplied.
func (o Optional) IsSet() bool {
	return o.set
}

// MarshalJSON implements json.Marshaler.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
