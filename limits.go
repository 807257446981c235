package glbpack

// Limits bounds allocations made while decoding hostile input. A zero field
// means "use the default".
type Limits struct {
	MaxJSONChunkLen    uint64 // stored JSON chunk length, padding included
	MaxBinChunkLen     uint64 // stored BIN chunk length, padding included
	MaxBinUncompressed uint64 // BIN payload after supercompression is undone
	MaxImagePixels     int64  // width*height of any embedded image
}

func defaultLimits() Limits {
	return Limits{
		MaxJSONChunkLen:    256 << 20, // 256 MiB
		MaxBinChunkLen:     2 << 30,   // 2 GiB
		MaxBinUncompressed: 2 << 30,   // 2 GiB
		MaxImagePixels:     64 << 20,  // 64 Mpixel
	}
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxJSONChunkLen == 0 {
		l.MaxJSONChunkLen = d.MaxJSONChunkLen
	}
	if l.MaxBinChunkLen == 0 {
		l.MaxBinChunkLen = d.MaxBinChunkLen
	}
	if l.MaxBinUncompressed == 0 {
		l.MaxBinUncompressed = d.MaxBinUncompressed
	}
	if l.MaxImagePixels == 0 {
		l.MaxImagePixels = d.MaxImagePixels
	}
	return l
}
