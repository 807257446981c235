package glbpack

import (
	"encoding/json"
	"fmt"
	"io"
)

// Decode reads a GLB container from r.
//
// The decoding process:
//  1. Reads and validates the 12-byte header (magic "glTF", version 2).
//  2. Reads the JSON chunk and unmarshals the glTF document.
//  3. Reads the BIN chunk, undoing LOGI_binary_compression if declared.
//  4. Checks the declared total length against the bytes actually present.
//  5. Validates every index reference in the document graph.
//
// Decode returns ErrMalformedContainer for envelope problems (with the byte
// offset of the failure), ErrSchema or ErrReference for invalid glTF content,
// and ErrLimitExceeded when a size limit from [WithReadLimits] is hit.
func Decode(r io.Reader, opts ...ReadOption) (*Document, error) {
	cfg := readConfig{limits: defaultLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	h, err := readGLBHeader(r)
	if err != nil {
		return nil, err
	}

	jsonChunk, err := readChunk(r, glbHeaderSize, chunkTypeJSON, cfg.limits.MaxJSONChunkLen)
	if err != nil {
		return nil, err
	}
	binOff := glbHeaderSize + chunkHeaderSize + len(jsonChunk)
	binChunk, err := readChunk(r, binOff, chunkTypeBIN, cfg.limits.MaxBinChunkLen)
	if err != nil {
		return nil, err
	}

	total := glbHeaderSize + 2*chunkHeaderSize + len(jsonChunk) + len(binChunk)
	if uint32(total) != h.Length {
		return nil, fmt.Errorf("%w: header length %d != %d bytes of chunks at offset 8", ErrMalformedContainer, h.Length, total)
	}
	var one [1]byte
	if n, _ := r.Read(one[:]); n != 0 {
		return nil, fmt.Errorf("%w: trailing data at offset %d", ErrMalformedContainer, total)
	}

	var doc Document
	if err := json.Unmarshal(trimJSONPadding(jsonChunk), &doc); err != nil {
		return nil, fmt.Errorf("%w: JSON chunk: %v", ErrSchema, err)
	}

	doc.bin, err = undoBinCompression(&doc, binChunk, cfg.limits.MaxBinUncompressed)
	if err != nil {
		return nil, err
	}

	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// undoBinCompression strips the LOGI_binary_compression extension, if
// declared, and returns the plain BIN payload. The extension is removed from
// the document so later stages always see uncompressed data; Encode re-adds
// it when asked to.
func undoBinCompression(d *Document, binChunk []byte, maxUncompressed uint64) ([]byte, error) {
	raw, ok := d.Extensions[BinCompressionExtension]
	if !ok {
		return binChunk, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s extension is not an object", ErrSchema, BinCompressionExtension)
	}
	name, _ := obj["codec"].(string)
	codec, ok := CodecByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s codec %q", ErrSchema, BinCompressionExtension, name)
	}
	// byteLength separates the payload from chunk padding, which would
	// otherwise trail into the compressed stream.
	bl, ok := obj["byteLength"].(float64)
	if !ok || bl < 8 || int(bl) > len(binChunk) {
		return nil, fmt.Errorf("%w: %s byteLength", ErrSchema, BinCompressionExtension)
	}
	bin, err := decompressPayload(codec, binChunk[:int(bl)], maxUncompressed)
	if err != nil {
		return nil, err
	}
	d.dropExtension(BinCompressionExtension)
	return bin, nil
}
