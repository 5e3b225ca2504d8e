package domain

import (
	"fmt"
	"slices"
	"strings"
)

type OdontogramType string

const (
	OdontogramPermanent OdontogramType = "permanent"
	OdontogramTemporary OdontogramType = "temporary"
)

func ParseOdontogramType(s string) (OdontogramType, error) {
	switch OdontogramType(s) {
	case OdontogramPermanent, OdontogramTemporary:
		return OdontogramType(s), nil
	}
	return "", fmt.Errorf("unknown odontogram type %q", s)
}

type ToothStatus string

const (
	ToothSano           ToothStatus = "sano"
	ToothIndicado       ToothStatus = "indicado"
	ToothProceso        ToothStatus = "proceso"
	ToothFinalizado     ToothStatus = "finalizado"
	ToothContraindicado ToothStatus = "contraindicado"
	ToothAusente        ToothStatus = "ausente"
	ToothExtraido       ToothStatus = "extraido"
	ToothCorona         ToothStatus = "corona"
	ToothProtesis       ToothStatus = "protesis"
)

var ToothStatuses = []ToothStatus{
	ToothSano, ToothIndicado, ToothProceso, ToothFinalizado, ToothContraindicado,
	ToothAusente, ToothExtraido, ToothCorona, ToothProtesis,
}

func ParseToothStatus(s string) (ToothStatus, error) {
	if slices.Contains(ToothStatuses, ToothStatus(s)) {
		return ToothStatus(s), nil
	}
	return "", fmt.Errorf("unknown tooth status %q", s)
}

// Missing reports whether the tooth is no longer in the mouth.
func (s ToothStatus) Missing() bool {
	return s == ToothAusente || s == ToothExtraido
}

// Surfaces are single-letter codes. The empty surface is the whole tooth.
var Surfaces = []string{"", "O", "M", "D", "V", "L", "P", "I"}

func NormalizeSurface(s *string) (string, error) {
	if s == nil {
		return "", nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	if !slices.Contains(Surfaces, v) {
		return "", fmt.Errorf("unknown surface %q", *s)
	}
	return v, nil
}

// Arch is a dental arch of the FDI notation.
type Arch string

const (
	ArchUpper Arch = "upper"
	ArchLower Arch = "lower"
)

// quadrants per dentition: upper quadrants first, then lower.
var dentition = map[OdontogramType]struct {
	upper, lower []int
	teeth        int
}{
	OdontogramPermanent: {upper: []int{1, 2}, lower: []int{3, 4}, teeth: 8},
	OdontogramTemporary: {upper: []int{5, 6}, lower: []int{7, 8}, teeth: 5},
}

// ValidTooth reports whether fdi is a tooth of the given dentition.
func ValidTooth(t OdontogramType, fdi int) bool {
	d, ok := dentition[t]
	if !ok {
		return false
	}
	q, n := fdi/10, fdi%10
	if n < 1 || n > d.teeth {
		return false
	}
	return slices.Contains(d.upper, q) || slices.Contains(d.lower, q)
}

// ValidToothAny accepts a tooth from either dentition.
func ValidToothAny(fdi int) bool {
	return ValidTooth(OdontogramPermanent, fdi) || ValidTooth(OdontogramTemporary, fdi)
}

// ArchTeeth lists every tooth of an arch in FDI order.
func ArchTeeth(t OdontogramType, a Arch) []int {
	d, ok := dentition[t]
	if !ok {
		return nil
	}
	quadrants := d.upper
	if a == ArchLower {
		quadrants = d.lower
	}
	out := make([]int, 0, len(quadrants)*d.teeth)
	for _, q := range quadrants {
		for n := 1; n <= d.teeth; n++ {
			out = append(out, q*10+n)
		}
	}
	return out
}
