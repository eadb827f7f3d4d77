package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// VerticalType is the IOAPI VGTYP code of a grid's vertical coordinate.
type VerticalType int

const (
	VerticalNone            VerticalType = -9999 // IMISS3
	VerticalSigmaP          VerticalType = 1     // VGSGPH3 hydrostatic sigma-P
	VerticalSigmaPNonHydro  VerticalType = 2     // VGSGPN3 non-hydrostatic sigma-P0
	VerticalSigmaZ          VerticalType = 3     // VGSIGZ3
	VerticalPressure        VerticalType = 4     // VGPRES3, Pa
	VerticalHeightSeaLevel  VerticalType = 5     // VGZVAL3, metres above sea level
	VerticalHeightGround    VerticalType = 6     // VGHVAL3, metres above ground
	VerticalWRFMass         VerticalType = 7     // VGWRFEM
	VerticalWRFNonHydroMass VerticalType = 8     // VGWRFNM
)

// ErrThicknessUnknown is returned by operations that need level elevations
// on a grid whose vertical scheme has no supported elevation formula.
var ErrThicknessUnknown = errors.New("layer thickness unknown for vertical grid type")

// Reference atmosphere used to turn sigma-pressure levels into heights
// (MM5 reference state with sea-level surface pressure).
const (
	surfacePressure = 100000.0 // Pa
	surfaceTemp     = 290.0    // K
	lapseConstant   = 50.0     // K
	gasConstant     = 287.04   // J/(kg K), dry air
	gravity         = 9.81     // m/s^2
)

func (t VerticalType) isSigmaP() bool {
	switch t {
	case VerticalSigmaP, VerticalSigmaPNonHydro, VerticalWRFMass, VerticalWRFNonHydroMass:
		return true
	}
	return false
}

func (t VerticalType) isHeight() bool {
	return t == VerticalHeightSeaLevel || t == VerticalHeightGround
}

func (t VerticalType) String() string {
	switch t {
	case VerticalNone:
		return "none"
	case VerticalSigmaP:
		return "sigma-p"
	case VerticalSigmaPNonHydro:
		return "sigma-p0"
	case VerticalSigmaZ:
		return "sigma-z"
	case VerticalPressure:
		return "pressure"
	case VerticalHeightSeaLevel:
		return "height-msl"
	case VerticalHeightGround:
		return "height-agl"
	case VerticalWRFMass:
		return "wrf-mass"
	case VerticalWRFNonHydroMass:
		return "wrf-nmm"
	default:
		return fmt.Sprintf("vgtyp(%d)", int(t))
	}
}

// ParseVerticalType parses a vertical coordinate name such as "sigma-p"
// or "height-msl".
func ParseVerticalType(s string) (VerticalType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range []VerticalType{VerticalNone, VerticalSigmaP, VerticalSigmaPNonHydro, VerticalSigmaZ,
		VerticalPressure, VerticalHeightSeaLevel, VerticalHeightGround, VerticalWRFMass, VerticalWRFNonHydroMass} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, &ValidationError{"vgtyp", fmt.Sprintf("unknown vertical type %q", s)}
}

func (t VerticalType) validateLevels(top float64, levels []float64) error {
	for i, v := range levels {
		if !finite(v) {
			return &ValidationError{"vglvls", fmt.Sprintf("level %d is not finite", i)}
		}
	}
	if len(levels) > 1 {
		increasing := levels[1] > levels[0]
		for i := 1; i < len(levels); i++ {
			if (levels[i] > levels[i-1]) != increasing || levels[i] == levels[i-1] {
				return &ValidationError{"vglvls", fmt.Sprintf("levels not strictly monotone at %d", i)}
			}
		}
		if t.isSigmaP() && increasing {
			return &ValidationError{"vglvls", "sigma levels must decrease upward"}
		}
		if t.isHeight() && !increasing {
			return &ValidationError{"vglvls", "height levels must increase upward"}
		}
	}
	if t.isSigmaP() {
		for i, v := range levels {
			if v < 0 || v > 1 {
				return &ValidationError{"vglvls", fmt.Sprintf("sigma level %d = %g outside [0, 1]", i, v)}
			}
		}
		if !(top >= 0 && top < surfacePressure) {
			return &ValidationError{"vgtop", fmt.Sprintf("%g Pa outside [0, %g)", top, surfacePressure)}
		}
	}
	return nil
}

// verticalProfile caches level elevations (metres) and layer thickness.
type verticalProfile struct {
	known     bool
	elevation []float64 // len(levels)
	thickness []float64 // len(levels)-1
}

func newVerticalProfile(t VerticalType, top float64, levels []float64) verticalProfile {
	layers := len(levels) - 1
	vp := verticalProfile{thickness: make([]float64, layers)}

	switch {
	case t.isSigmaP():
		vp.elevation = make([]float64, len(levels))
		for k, sigma := range levels {
			vp.elevation[k] = sigmaPHeight(sigma, top)
		}
	case t.isHeight():
		vp.elevation = append([]float64(nil), levels...)
	default:
		// thickness stays zero; see Grid.ThicknessKnown
		return vp
	}

	vp.known = true
	for k := 0; k < layers; k++ {
		vp.thickness[k] = vp.elevation[k+1] - vp.elevation[k]
	}
	return vp
}

// sigmaPHeight returns the reference-atmosphere height of a sigma-pressure
// level over a sea-level surface.
func sigmaPHeight(sigma, top float64) float64 {
	p := sigma*(surfacePressure-top) + top
	l := math.Log(p / surfacePressure)
	return -(gasConstant*lapseConstant/(2*gravity))*l*l - (gasConstant*surfaceTemp/gravity)*l
}

// ThicknessKnown reports whether the vertical scheme supports elevations.
// When false, Thickness returns zeros and elevation lookups fail with
// ErrThicknessUnknown.
func (g *Grid) ThicknessKnown() bool {
	return g.vertical.known
}

// Thickness returns a copy of the per-layer thickness in metres.
func (g *Grid) Thickness() []float64 {
	return append([]float64(nil), g.vertical.thickness...)
}

// LevelElevation returns the elevation in metres of level k,
// 0 <= k <= Layers. Level 0 is the bottom of layer 0.
func (g *Grid) LevelElevation(k int) (float64, error) {
	if !g.vertical.known {
		return 0, fmt.Errorf("%w %s", ErrThicknessUnknown, g.params.VerticalType)
	}
	if k < 0 || k >= len(g.vertical.elevation) {
		return 0, fmt.Errorf("level %d out of range [0, %d]", k, len(g.vertical.elevation)-1)
	}
	return g.vertical.elevation[k], nil
}

// LayerCenterElevation returns the mid-layer elevation of layer k.
func (g *Grid) LayerCenterElevation(k int) (float64, error) {
	bottom, err := g.LevelElevation(k)
	if err != nil {
		return 0, err
	}
	top, err := g.LevelElevation(k + 1)
	if err != nil {
		return 0, err
	}
	return (bottom + top) / 2, nil
}

// LayerOfElevation returns the layer containing elevation z. Elevations
// below the first level map to layer 0 and above the last to the top layer.
func (g *Grid) LayerOfElevation(z float64) (int, error) {
	if !g.vertical.known {
		return 0, fmt.Errorf("%w %s", ErrThicknessUnknown, g.params.VerticalType)
	}
	elev := g.vertical.elevation
	k := sort.SearchFloat64s(elev, z) - 1
	return max(0, min(k, len(elev)-2)), nil
}
