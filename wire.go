package glbpack

import (
	"encoding/binary"
	"fmt"
	"io"
)

// GLB envelope layout: a 12-byte header followed by exactly two chunks,
// JSON then BIN, each 4-byte aligned. Chunk lengths include their padding.
const (
	glbMagic      uint32 = 0x46546C67 // "glTF"
	chunkTypeJSON uint32 = 0x4E4F534A // "JSON"
	chunkTypeBIN  uint32 = 0x004E4942 // "BIN\0"

	glbHeaderSize   = 12
	chunkHeaderSize = 8

	jsonPadByte = 0x20
	binPadByte  = 0x00
)

type glbHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

func readGLBHeader(r io.Reader) (glbHeader, error) {
	var buf [glbHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return glbHeader{}, fmt.Errorf("%w: header truncated at offset 0: %v", ErrMalformedContainer, err)
	}
	h := glbHeader{
		Magic:   binary.LittleEndian.Uint32(buf[0:4]),
		Version: binary.LittleEndian.Uint32(buf[4:8]),
		Length:  binary.LittleEndian.Uint32(buf[8:12]),
	}
	if h.Magic != glbMagic {
		return glbHeader{}, fmt.Errorf("%w: bad magic 0x%08X at offset 0, want 0x%08X", ErrMalformedContainer, h.Magic, glbMagic)
	}
	if h.Version != GLBVersion {
		return glbHeader{}, fmt.Errorf("%w: unsupported container version %d at offset 4", ErrMalformedContainer, h.Version)
	}
	return h, nil
}

func writeGLBHeader(w io.Writer, h glbHeader) error {
	var buf [glbHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Length)
	_, err := w.Write(buf[:])
	return err
}

// readChunk reads one chunk header plus payload at offset off, enforcing the
// expected chunk type and a payload size cap. The returned payload still
// carries its padding bytes; its length is the stored (padded) chunk length.
func readChunk(r io.Reader, off int, wantType uint32, maxLen uint64) ([]byte, error) {
	var buf [chunkHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("%w: chunk header truncated at offset %d: %v", ErrMalformedContainer, off, err)
	}
	length := binary.LittleEndian.Uint32(buf[0:4])
	typ := binary.LittleEndian.Uint32(buf[4:8])
	if typ != wantType {
		return nil, fmt.Errorf("%w: chunk type 0x%08X at offset %d, want 0x%08X", ErrMalformedContainer, typ, off+4, wantType)
	}
	if length%4 != 0 {
		return nil, fmt.Errorf("%w: chunk length %d at offset %d is not 4-byte aligned", ErrMalformedContainer, length, off)
	}
	if uint64(length) > maxLen {
		return nil, fmt.Errorf("%w: chunk length %d at offset %d", ErrLimitExceeded, length, off)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: chunk payload truncated at offset %d: %v", ErrMalformedContainer, off+chunkHeaderSize, err)
	}
	return payload, nil
}

func writeChunk(w io.Writer, typ uint32, payload []byte, padByte byte) error {
	var buf [chunkHeaderSize]byte
	padded := pad4(len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(padded))
	binary.LittleEndian.PutUint32(buf[4:8], typ)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	for i := len(payload); i < padded; i++ {
		if _, err := w.Write([]byte{padByte}); err != nil {
			return err
		}
	}
	return nil
}

// pad4 rounds n up to the next multiple of 4.
func pad4(n int) int {
	return (n + 3) &^ 3
}

// trimJSONPadding strips trailing pad bytes from a JSON chunk payload.
// The writer always pads with 0x20, but NUL-padded files exist in the wild
// and the reader tolerates both.
func trimJSONPadding(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == jsonPadByte || b[len(b)-1] == binPadByte) {
		b = b[:len(b)-1]
	}
	return b
}
