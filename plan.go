package glbpack

import "math"

// Plan is the per-run compression policy derived from a single level in
// [10,100]. It is immutable once computed; every knob is monotonic in the
// level, so a higher level never produces a less aggressive policy.
type Plan struct {
	Level int

	// Quantization bit widths per attribute semantic. Storage narrows to
	// uint8 at 8 bits or fewer, uint16 otherwise.
	PositionBits int
	NormalBits   int
	UVBits       int
	ColorBits    int

	// Image policy.
	ImageQuality     int // JPEG quality, 1-100
	ConvertOpaquePNG bool

	// Mesh policy.
	WeldVertices bool
	WeldEpsilon  float64 // relative to the primitive's largest bounding-box extent

	// Always-safe transforms.
	DedupeViews bool

	// Optional BIN chunk supercompression; off unless requested by the caller.
	BinCodec Codec
}

// NewPlan derives the policy for level. Levels outside [10,100] are clamped,
// mirroring the slider bounds of typical callers, so the function is total.
func NewPlan(level int) Plan {
	if level < 10 {
		level = 10
	}
	if level > 100 {
		level = 100
	}
	t := float64(level) / 100

	return Plan{
		Level:            level,
		PositionBits:     int(math.Round(lerp(16, 10, t))),
		NormalBits:       int(math.Round(lerp(12, 8, t))),
		UVBits:           int(math.Round(lerp(14, 10, t))),
		ColorBits:        8,
		ImageQuality:     int(math.Round(lerp(90, 30, t))),
		ConvertOpaquePNG: level >= 60,
		WeldVertices:     level >= 20,
		WeldEpsilon:      lerp(1e-6, 1e-3, t),
		DedupeViews:      true,
		BinCodec:         CodecNone,
	}
}

// bitsFor returns the quantization width for an attribute semantic, or 0 if
// the plan leaves that semantic untouched.
func (p Plan) bitsFor(semantic string) int {
	switch semantic {
	case SemanticPosition:
		return p.PositionBits
	case SemanticNormal:
		return p.NormalBits
	case SemanticTexCoord:
		return p.UVBits
	case SemanticColor:
		return p.ColorBits
	default:
		return 0
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
