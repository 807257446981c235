package glbpack

// Stage identifies a checkpoint reported through a ProgressFunc.
type Stage int

const (
	StageParsed Stage = iota + 1
	StagePlanned
	StagePrimitive
	StageImage
	StagePacked
	StageWritten
)

func (s Stage) String() string {
	switch s {
	case StageParsed:
		return "container parsed"
	case StagePlanned:
		return "plan computed"
	case StagePrimitive:
		return "primitive compressed"
	case StageImage:
		return "image recompressed"
	case StagePacked:
		return "buffers packed"
	case StageWritten:
		return "container written"
	default:
		return "unknown"
	}
}

// ProgressFunc receives pipeline checkpoints. It is invoked synchronously on
// the calling goroutine and must not block indefinitely. index and total are
// 1-based counters for the per-element stages and 1/1 otherwise.
type ProgressFunc func(stage Stage, index, total int)

// CancelFunc is polled between primitives and between images. Returning true
// aborts the run with ErrCanceled.
type CancelFunc func() bool

type readConfig struct {
	limits Limits
}

type ReadOption func(*readConfig)

func WithReadLimits(l Limits) ReadOption {
	return func(c *readConfig) { c.limits = l }
}

type encodeConfig struct {
	binCodec Codec
}

type EncodeOption func(*encodeConfig)

// WithEncodeBinCompression supercompresses the BIN chunk payload with codec
// and declares the LOGI_binary_compression extension.
func WithEncodeBinCompression(codec Codec) EncodeOption {
	return func(c *encodeConfig) { c.binCodec = codec }
}

type compressConfig struct {
	limits           Limits
	progress         ProgressFunc
	cancel           CancelFunc
	binCodec         Codec
	convertOpaquePNG *bool
}

type CompressOption func(*compressConfig)

func WithCompressLimits(l Limits) CompressOption {
	return func(c *compressConfig) { c.limits = l }
}

func WithProgress(fn ProgressFunc) CompressOption {
	return func(c *compressConfig) { c.progress = fn }
}

func WithCancelCheck(fn CancelFunc) CompressOption {
	return func(c *compressConfig) { c.cancel = fn }
}

// WithBinCompression enables BIN chunk supercompression on the output.
// The resulting file requires the LOGI_binary_compression extension to read.
func WithBinCompression(codec Codec) CompressOption {
	return func(c *compressConfig) { c.binCodec = codec }
}

// WithOpaquePNGConversion overrides the plan's policy of converting opaque
// PNG images to JPEG at high compression levels.
func WithOpaquePNGConversion(v bool) CompressOption {
	return func(c *compressConfig) { c.convertOpaquePNG = &v }
}

func (c *compressConfig) report(stage Stage, index, total int) {
	if c.progress != nil {
		c.progress(stage, index, total)
	}
}

func (c *compressConfig) canceled() bool {
	return c.cancel != nil && c.cancel()
}
