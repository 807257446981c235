package glbpack

import (
	"bytes"
	"fmt"
)

// Warning records an element the engine degraded instead of failing on:
// an image it could not re-encode, an attribute it could not quantize, a
// primitive it could not weld.
type Warning struct {
	Element string
	Detail  string
}

func (w Warning) String() string {
	return w.Element + ": " + w.Detail
}

// Report summarizes a successful Compress run.
type Report struct {
	Plan       Plan
	InputSize  int
	OutputSize int
	Warnings   []Warning
}

func (r *Report) warnf(element, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Element: element, Detail: fmt.Sprintf(format, args...)})
}

// Compress reads a GLB container from input and returns a smaller, spec-valid
// GLB container, trading fidelity for size according to level (clamped to
// [10,100]; see [NewPlan] for the derived policy).
//
// Compress holds no state between calls and mutates nothing but its own
// document copy; concurrent calls on different inputs are safe. Progress and
// cancellation hooks are passed via options and run synchronously on the
// calling goroutine.
//
// On error no output is returned. A non-nil Report accompanies every success
// and lists the elements that were passed through unmodified.
func Compress(input []byte, level int, opts ...CompressOption) ([]byte, *Report, error) {
	cfg := compressConfig{limits: defaultLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	doc, err := Decode(bytes.NewReader(input), WithReadLimits(cfg.limits))
	if err != nil {
		return nil, nil, err
	}
	cfg.report(StageParsed, 1, 1)

	plan := NewPlan(level)
	plan.BinCodec = cfg.binCodec
	if cfg.convertOpaquePNG != nil {
		plan.ConvertOpaquePNG = *cfg.convertOpaquePNG
	}
	rep := &Report{Plan: plan, InputSize: len(input)}
	cfg.report(StagePlanned, 1, 1)

	if err := compressMeshes(doc, plan, rep, &cfg); err != nil {
		return nil, nil, err
	}
	if err := recompressImages(doc, plan, rep, &cfg); err != nil {
		return nil, nil, err
	}

	if err := packBuffers(doc, plan.DedupeViews); err != nil {
		return nil, nil, err
	}
	cfg.report(StagePacked, 1, 1)

	var buf bytes.Buffer
	if err := Encode(&buf, doc, WithEncodeBinCompression(plan.BinCodec)); err != nil {
		return nil, nil, err
	}
	cfg.report(StageWritten, 1, 1)

	rep.OutputSize = buf.Len()
	return buf.Bytes(), rep, nil
}
