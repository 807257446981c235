package glbpack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the supercompression algorithm applied to the BIN chunk
// payload when the LOGI_binary_compression extension is in use.
type Codec uint16

const (
	CodecNone   Codec = 0
	CodecZstd   Codec = 1
	CodecLZ4    Codec = 2
	CodecBrotli Codec = 3
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	case CodecBrotli:
		return "brotli"
	default:
		return "unknown"
	}
}

// CodecByName maps an extension codec name back to a Codec.
func CodecByName(name string) (Codec, bool) {
	switch name {
	case "zstd":
		return CodecZstd, true
	case "lz4":
		return CodecLZ4, true
	case "brotli":
		return CodecBrotli, true
	default:
		return CodecNone, false
	}
}

// Function variables for testing injection.
var (
	newZstdWriter = func() (*zstd.Encoder, error) { return zstd.NewWriter(nil) }
	newZstdReader = func() (*zstd.Decoder, error) { return zstd.NewReader(nil) }
	lz4Close      = func(w *lz4.Writer) error { return w.Close() }
	brotliClose   = func(w *brotli.Writer) error { return w.Close() }
)

// compressPayload compresses raw with codec c. The result carries an 8-byte
// little-endian uncompressed-length prefix so decompression can be bounded.
func compressPayload(c Codec, raw []byte) ([]byte, error) {
	var compressed []byte
	var err error
	switch c {
	case CodecZstd:
		compressed, err = zstdCompress(raw)
	case CodecLZ4:
		compressed, err = lz4Compress(raw)
	case CodecBrotli:
		compressed, err = brotliCompress(raw)
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrInternal, c)
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8, 8+len(compressed))
	binary.LittleEndian.PutUint64(out[:8], uint64(len(raw)))
	return append(out, compressed...), nil
}

// decompressPayload reverses compressPayload, refusing to expand beyond the
// declared length or maxUncompressed.
func decompressPayload(c Codec, payload []byte, maxUncompressed uint64) ([]byte, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("%w: supercompressed payload too short for length prefix", ErrMalformedContainer)
	}
	uncompressedLen := binary.LittleEndian.Uint64(payload[:8])
	if uncompressedLen > maxUncompressed {
		return nil, fmt.Errorf("%w: uncompressed BIN length %d", ErrLimitExceeded, uncompressedLen)
	}
	var out []byte
	var err error
	switch c {
	case CodecZstd:
		out, err = zstdDecompress(payload[8:], uncompressedLen)
	case CodecLZ4:
		out, err = lz4Decompress(payload[8:], uncompressedLen)
	case CodecBrotli:
		out, err = brotliDecompress(payload[8:], uncompressedLen)
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrMalformedContainer, c)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedContainer, c, err)
	}
	if uint64(len(out)) != uncompressedLen {
		return nil, fmt.Errorf("%w: decompressed length %d != declared %d", ErrMalformedContainer, len(out), uncompressedLen)
	}
	return out, nil
}

func zstdCompress(in []byte) ([]byte, error) {
	enc, err := newZstdWriter()
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

// zstdDecompress rejects output that exceeds expected bytes.
func zstdDecompress(in []byte, expected uint64) ([]byte, error) {
	dec, err := newZstdReader()
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(in, nil)
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) > expected {
		return nil, fmt.Errorf("zstd expanded beyond declared size")
	}
	return out, nil
}

func lz4Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(in); err != nil {
		_ = lz4Close(zw)
		return nil, err
	}
	if err := lz4Close(zw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lz4Decompress uses a LimitReader so decompression never runs past expected bytes.
func lz4Decompress(in []byte, expected uint64) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(in))
	b, err := io.ReadAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > expected {
		return nil, fmt.Errorf("lz4 expanded beyond declared size")
	}
	return b, nil
}

func brotliCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	if _, err := bw.Write(in); err != nil {
		_ = brotliClose(bw)
		return nil, err
	}
	if err := brotliClose(bw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// brotliDecompress uses a LimitReader so decompression never runs past expected bytes.
func brotliDecompress(in []byte, expected uint64) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(in))
	b, err := io.ReadAll(io.LimitReader(r, int64(expected)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > expected {
		return nil, fmt.Errorf("brotli expanded beyond declared size")
	}
	return b, nil
}
