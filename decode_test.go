package glbpack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestDecodeRoundTrip(t *testing.T) {
	doc := triangleDoc()
	glb := encodeDoc(t, doc)

	got := decodeBytes(t, glb)
	if len(got.Accessors) != len(doc.Accessors) {
		t.Fatalf("accessors: got %d, want %d", len(got.Accessors), len(doc.Accessors))
	}
	if len(got.BufferViews) != len(doc.BufferViews) {
		t.Fatalf("bufferViews: got %d, want %d", len(got.BufferViews), len(doc.BufferViews))
	}
	// The BIN chunk is zero padded to 4 bytes; the payload prefix must match.
	if len(got.Bin()) < len(doc.Bin()) || !bytes.Equal(got.Bin()[:len(doc.Bin())], doc.Bin()) {
		t.Error("BIN payload does not round-trip")
	}
	if got.Asset.Version != "2.0" {
		t.Errorf("asset.version %q", got.Asset.Version)
	}
}

func TestDecodeRejectsCorruptContainers(t *testing.T) {
	glb := encodeDoc(t, triangleDoc())

	tests := []struct {
		name   string
		mutate func(b []byte)
		want   error
	}{
		{"wrong magic", func(b []byte) { b[0] = 'X' }, ErrMalformedContainer},
		{"wrong version", func(b []byte) { binary.LittleEndian.PutUint32(b[4:8], 1) }, ErrMalformedContainer},
		{"length mismatch", func(b []byte) {
			binary.LittleEndian.PutUint32(b[8:12], binary.LittleEndian.Uint32(b[8:12])+4)
		}, ErrMalformedContainer},
		{"BIN chunk first", func(b []byte) {
			binary.LittleEndian.PutUint32(b[16:20], chunkTypeBIN)
		}, ErrMalformedContainer},
		{"broken JSON", func(b []byte) { b[glbHeaderSize+chunkHeaderSize] = '#' }, ErrSchema},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := append([]byte(nil), glb...)
			tc.mutate(b)
			_, err := Decode(bytes.NewReader(b))
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDecodeRejectsTruncation(t *testing.T) {
	glb := encodeDoc(t, triangleDoc())
	for _, n := range []int{0, 5, glbHeaderSize, glbHeaderSize + 3, len(glb) - 1} {
		_, err := Decode(bytes.NewReader(glb[:n]))
		if !errors.Is(err, ErrMalformedContainer) {
			t.Errorf("truncated to %d bytes: got %v, want ErrMalformedContainer", n, err)
		}
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	glb := encodeDoc(t, triangleDoc())
	_, err := Decode(bytes.NewReader(append(glb, 0, 0, 0, 0)))
	if !errors.Is(err, ErrMalformedContainer) {
		t.Errorf("got %v, want ErrMalformedContainer", err)
	}
}

func TestDecodeHonorsLimits(t *testing.T) {
	glb := encodeDoc(t, triangleDoc())

	_, err := Decode(bytes.NewReader(glb), WithReadLimits(Limits{MaxJSONChunkLen: 4}))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("JSON limit: got %v, want ErrLimitExceeded", err)
	}
	_, err = Decode(bytes.NewReader(glb), WithReadLimits(Limits{MaxBinChunkLen: 4}))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("BIN limit: got %v, want ErrLimitExceeded", err)
	}
}

func TestDecodeRejectsUnknownSupercompressionCodec(t *testing.T) {
	glb := encodeDoc(t, triangleDoc(), WithEncodeBinCompression(CodecZstd))
	bad := bytes.Replace(glb, []byte(`"codec":"zstd"`), []byte(`"codec":"zzzz"`), 1)
	if bytes.Equal(bad, glb) {
		t.Fatal("codec name not found in JSON chunk")
	}
	_, err := Decode(bytes.NewReader(bad))
	if !errors.Is(err, ErrSchema) {
		t.Errorf("got %v, want ErrSchema", err)
	}
}

func TestUndoBinCompressionByteLength(t *testing.T) {
	payload, err := compressPayload(CodecZstd, []byte("hello glb"))
	if err != nil {
		t.Fatalf("compressPayload: %v", err)
	}
	mk := func(bl any) *Document {
		return &Document{Extensions: map[string]any{
			BinCompressionExtension: map[string]any{"codec": "zstd", "byteLength": bl},
		}}
	}

	d := mk(float64(len(payload)))
	bin, err := undoBinCompression(d, append(payload, 0, 0, 0), 1<<20)
	if err != nil {
		t.Fatalf("undoBinCompression: %v", err)
	}
	if string(bin) != "hello glb" {
		t.Errorf("payload %q", bin)
	}
	if d.hasExtension(BinCompressionExtension) || d.Extensions != nil {
		t.Error("extension not stripped after decompression")
	}

	for name, bl := range map[string]any{
		"missing":   nil,
		"too small": float64(4),
		"too large": float64(len(payload) + 100),
	} {
		if _, err := undoBinCompression(mk(bl), payload, 1<<20); !errors.Is(err, ErrSchema) {
			t.Errorf("%s byteLength: got %v, want ErrSchema", name, err)
		}
	}
}
