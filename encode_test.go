package glbpack

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDeterministic(t *testing.T) {
	doc := triangleDoc()
	doc.Extras = map[string]any{"b": 1, "a": 2}
	first := encodeDoc(t, doc)
	second := encodeDoc(t, doc)
	if !bytes.Equal(first, second) {
		t.Error("identical documents encode to different bytes")
	}
}

func TestEncodeRejectsInvalidDocument(t *testing.T) {
	doc := triangleDoc()
	bad := 99
	doc.Accessors[0].BufferView = &bad

	var buf bytes.Buffer
	err := Encode(&buf, doc)
	if !errors.Is(err, ErrReference) {
		t.Fatalf("got %v, want ErrReference", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes before failing validation", buf.Len())
	}

	if err := Encode(&buf, nil); !errors.Is(err, ErrSchema) {
		t.Errorf("nil document: got %v, want ErrSchema", err)
	}
}

func TestEncodeBinCompressionRoundTrip(t *testing.T) {
	doc := triangleDoc()
	for _, codec := range []Codec{CodecZstd, CodecLZ4, CodecBrotli} {
		t.Run(codec.String(), func(t *testing.T) {
			glb := encodeDoc(t, doc, WithEncodeBinCompression(codec))
			if !bytes.Contains(glb, []byte(BinCompressionExtension)) {
				t.Error("extension not declared in JSON chunk")
			}

			got := decodeBytes(t, glb)
			if got.hasExtension(BinCompressionExtension) {
				t.Error("extension still declared after decode")
			}
			if !bytes.Equal(got.Bin()[:len(doc.Bin())], doc.Bin()) {
				t.Error("BIN payload does not survive supercompression")
			}
			// The document passed to Encode must not be touched.
			if doc.hasExtension(BinCompressionExtension) || doc.Extensions != nil {
				t.Error("Encode mutated the input document")
			}
		})
	}
}

func TestDecodeRejectsCorruptSupercompressedPayload(t *testing.T) {
	glb := encodeDoc(t, triangleDoc(), WithEncodeBinCompression(CodecZstd))

	// Locate the BIN chunk payload and break the zstd frame magic, which
	// sits right after the 8-byte uncompressed-length prefix.
	jsonLen := int(uint32(glb[12]) | uint32(glb[13])<<8 | uint32(glb[14])<<16 | uint32(glb[15])<<24)
	off := glbHeaderSize + chunkHeaderSize + jsonLen + chunkHeaderSize + 8
	bad := append([]byte(nil), glb...)
	bad[off] ^= 0xFF

	_, err := Decode(bytes.NewReader(bad))
	if !errors.Is(err, ErrMalformedContainer) {
		t.Errorf("got %v, want ErrMalformedContainer", err)
	}
}
