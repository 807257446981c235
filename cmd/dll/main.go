// Package main provides C-compatible exports for the glbpack engine so a
// desktop front end can embed it.
// Build with: go build -buildmode=c-shared -o glbpack.dll
package main

/*
#include <stdlib.h>
#include <stdint.h>

// Result structure for operations that return data
typedef struct {
    char* data;
    int   data_len;
    char* warnings; // newline-separated, may be NULL
    char* error;
} GlbpackResult;
*/
import "C"

import (
	"bytes"
	"strings"
	"unsafe"

	glbpack "github.com/logicossoftware/go-glbpack"
)

func main() {}

// GlbpackVersion returns the GLB container version the engine reads and writes.
//
//export GlbpackVersion
func GlbpackVersion() C.uint32_t {
	return C.uint32_t(glbpack.GLBVersion)
}

// GlbpackFreeResult frees memory allocated by other Glbpack functions.
// Must be called to avoid memory leaks.
//
//export GlbpackFreeResult
func GlbpackFreeResult(result C.GlbpackResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.warnings != nil {
		C.free(unsafe.Pointer(result.warnings))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// GlbpackFreeString frees a C string allocated by Go.
//
//export GlbpackFreeString
func GlbpackFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func makeError(err error) C.GlbpackResult {
	var result C.GlbpackResult
	result.error = C.CString(err.Error())
	return result
}

// GlbpackCompress compresses a GLB file held in memory.
// Parameters:
//   - data: pointer to GLB file bytes
//   - dataLen: length of the data
//   - level: compression level, 10-100 (values outside are clamped)
//
// Returns GlbpackResult with the compressed bytes, a newline-separated
// warning list for degraded elements, or an error message. Call
// GlbpackFreeResult when done.
//
//export GlbpackCompress
func GlbpackCompress(data *C.char, dataLen C.int, level C.int) C.GlbpackResult {
	input := C.GoBytes(unsafe.Pointer(data), dataLen)
	out, report, err := glbpack.Compress(input, int(level))
	if err != nil {
		return makeError(err)
	}
	var result C.GlbpackResult
	result.data = (*C.char)(C.CBytes(out))
	result.data_len = C.int(len(out))
	if len(report.Warnings) > 0 {
		lines := make([]string, len(report.Warnings))
		for i, w := range report.Warnings {
			lines[i] = w.String()
		}
		result.warnings = C.CString(strings.Join(lines, "\n"))
	}
	return result
}

// GlbpackValidate decodes and validates a GLB file without rewriting it.
// Returns NULL on success, or an error message string on failure.
// Call GlbpackFreeString on the result if non-NULL.
//
//export GlbpackValidate
func GlbpackValidate(data *C.char, dataLen C.int) *C.char {
	input := C.GoBytes(unsafe.Pointer(data), dataLen)
	if _, err := glbpack.Decode(bytes.NewReader(input)); err != nil {
		return C.CString(err.Error())
	}
	return nil
}
