package glbpack

import (
	"encoding/json"
	"fmt"
	"io"
)

// Encode writes doc to w as a GLB container.
//
// The document is validated before writing, the JSON chunk is padded with
// 0x20 and the BIN chunk with 0x00, and the header carries the exact total
// length. Serialization is deterministic: struct fields keep declaration
// order and map keys are sorted, so identical documents produce identical
// bytes.
//
// With [WithEncodeBinCompression] the BIN payload is supercompressed and the
// LOGI_binary_compression extension declared on the output. doc itself is
// not modified.
//
// A document that fails validation here indicates a bug in an earlier
// pipeline stage when called from Compress; callers constructing documents
// by hand get the same ErrSchema/ErrReference errors Decode would produce.
func Encode(w io.Writer, doc *Document, opts ...EncodeOption) error {
	cfg := encodeConfig{binCodec: CodecNone}
	for _, opt := range opts {
		opt(&cfg)
	}
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrSchema)
	}
	if err := validateDocument(doc); err != nil {
		return err
	}

	bin := doc.bin
	out := doc
	if cfg.binCodec != CodecNone {
		payload, err := compressPayload(cfg.binCodec, doc.bin)
		if err != nil {
			return err
		}
		shallow := *doc
		shallow.ExtensionsUsed = append([]string(nil), doc.ExtensionsUsed...)
		shallow.ExtensionsRequired = append([]string(nil), doc.ExtensionsRequired...)
		shallow.Extensions = make(map[string]any, len(doc.Extensions)+1)
		for k, v := range doc.Extensions {
			shallow.Extensions[k] = v
		}
		shallow.declareExtension(BinCompressionExtension, true)
		shallow.Extensions[BinCompressionExtension] = map[string]any{
			"codec":      cfg.binCodec.String(),
			"byteLength": len(payload),
		}
		out = &shallow
		bin = payload
	}

	jsonBytes, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", ErrInternal, err)
	}

	total := glbHeaderSize + 2*chunkHeaderSize + pad4(len(jsonBytes)) + pad4(len(bin))
	if uint64(total) > uint64(^uint32(0)) {
		return fmt.Errorf("%w: container length %d overflows 32 bits", ErrInternal, total)
	}
	h := glbHeader{Magic: glbMagic, Version: GLBVersion, Length: uint32(total)}
	if err := writeGLBHeader(w, h); err != nil {
		return err
	}
	if err := writeChunk(w, chunkTypeJSON, jsonBytes, jsonPadByte); err != nil {
		return err
	}
	return writeChunk(w, chunkTypeBIN, bin, binPadByte)
}
