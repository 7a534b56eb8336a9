package gpa

import (
	"fmt"
	"strings"
)

// Mode selects which decomposition of the distortion tensor is reported
type Mode int

const (
	// Distortion keeps the raw displacement gradient
	Distortion Mode = iota
	// Strain keeps the symmetric part
	Strain
	// Rotation keeps the antisymmetric part
	Rotation
	// Dilatation keeps the trace in Exx
	Dilatation
)

// dilatationLegacy is the spelling used by earlier output files
const dilatationLegacy = "Dilitation"

func (m Mode) String() string {
	switch m {
	case Distortion:
		return "Distortion"
	case Strain:
		return "Strain"
	case Rotation:
		return "Rotation"
	case Dilatation:
		return "Dilatation"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name, case-insensitively. The legacy spelling
// "Dilitation" is accepted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "distortion":
		return Distortion, nil
	case "strain":
		return Strain, nil
	case "rotation":
		return Rotation, nil
	case "dilatation", strings.ToLower(dilatationLegacy):
		return Dilatation, nil
	default:
		return 0, fmt.Errorf("gpa: unknown mode %q", s)
	}
}

// FieldNames returns the output names of the tensor components that carry
// information in mode m, in Exx, Exy, Eyx, Eyy order.
func FieldNames(m Mode) []string {
	switch m {
	case Distortion:
		return []string{"exx", "exy", "eyx", "eyy"}
	case Strain:
		return []string{"epsxx", "epsxy", "epsyy"}
	case Rotation:
		return []string{"wxy", "wyx"}
	case Dilatation:
		return []string{dilatationLegacy}
	default:
		return nil
	}
}
