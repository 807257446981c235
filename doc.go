// Package glbpack implements a self-contained compression engine for binary
// glTF (GLB) containers.
//
// The engine reads a GLB file, applies lossy and lossless size reductions
// controlled by a single compression level, and writes a spec-valid GLB file
// back out. No external geometry library is involved: container parsing,
// document validation, mesh quantization, vertex welding, image re-encoding,
// buffer packing, and serialization are all implemented here.
//
// # Pipeline
//
// A call to [Compress] runs a fixed pipeline:
//
//  1. Parse the GLB envelope (12-byte header, JSON chunk, BIN chunk) and
//     unmarshal the glTF document, validating every index reference eagerly.
//  2. Derive a [Plan] from the compression level (10-100).
//  3. Per mesh primitive: weld near-duplicate vertices, quantize vertex
//     attributes to fixed-point integers, and narrow index widths.
//  4. Per embedded image: decode and re-encode at the planned quality,
//     keeping whichever encoding is smaller.
//  5. Deduplicate and repack all buffer views into one contiguous,
//     4-byte-aligned buffer.
//  6. Serialize the document back into a GLB container.
//
// Lossy steps are best effort: an attribute or image the engine cannot
// process is passed through unchanged and reported as a warning in the
// [Report], never as a failure of the whole run.
//
// # Basic Usage
//
//	in, _ := os.ReadFile("model.glb")
//	out, report, err := glbpack.Compress(in, 75)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, w := range report.Warnings {
//		log.Printf("skipped %s: %s", w.Element, w.Detail)
//	}
//	_ = os.WriteFile("model.small.glb", out, 0o644)
//
// [Decode] and [Encode] expose the container codec on its own, for tools
// that only need to inspect or rewrite GLB files.
//
// # Binary chunk supercompression
//
// With [WithBinCompression] the BIN chunk payload is additionally compressed
// with Zstandard, LZ4, or Brotli and the document declares the vendor
// extension LOGI_binary_compression in extensionsUsed and extensionsRequired.
// Decode reverses this transparently. Readers without the extension reject
// such files instead of misreading them, so the mode is off by default.
//
// # Security Considerations
//
// Decoding enforces configurable [Limits] on chunk sizes, decompressed BIN
// payloads, and image pixel counts, so hostile files cannot trigger
// oversized allocations or decompression bombs.
package glbpack
