package glbpack

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func f32bytes(vals []float32) []byte {
	out := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func u16bytes(vals []uint16) []byte {
	out := make([]byte, 0, len(vals)*2)
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint16(out, v)
	}
	return out
}

func intp(v int) *int { return &v }

// triangleDoc builds a document with a single triangle: three unique
// vertices with positions, normals, and UVs, indexed with uint16.
func triangleDoc() *Document {
	d := &Document{Asset: Asset{Version: "2.0"}}

	pv := d.addView(f32bytes([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}), nil)
	nv := d.addView(f32bytes([]float32{0, 0, 1, 0, 0, 1, 0, 0, 1}), nil)
	uv := d.addView(f32bytes([]float32{0, 0, 1, 0, 0, 1}), nil)
	iv := d.addView(u16bytes([]uint16{0, 1, 2}), nil)

	d.Accessors = []Accessor{
		{BufferView: &pv, ComponentType: ComponentFloat, Count: 3, Type: TypeVec3,
			Min: []float64{0, 0, 0}, Max: []float64{1, 1, 0}},
		{BufferView: &nv, ComponentType: ComponentFloat, Count: 3, Type: TypeVec3},
		{BufferView: &uv, ComponentType: ComponentFloat, Count: 3, Type: TypeVec2},
		{BufferView: &iv, ComponentType: ComponentUnsignedShort, Count: 3, Type: TypeScalar},
	}
	d.Meshes = []Mesh{{Primitives: []Primitive{{
		Attributes: map[string]int{SemanticPosition: 0, SemanticNormal: 1, SemanticTexCoord: 2},
		Indices:    intp(3),
	}}}}
	d.Nodes = []Node{{Mesh: intp(0)}}
	d.Scenes = []Scene{{Nodes: []int{0}}}
	d.Scene = intp(0)
	d.Buffers = []Buffer{{ByteLength: len(d.bin)}}
	return d
}

// quadDoc builds two triangles over six vertices where two vertex pairs are
// exact duplicates, so welding should leave four.
func quadDoc() *Document {
	d := &Document{Asset: Asset{Version: "2.0"}}

	positions := []float32{
		0, 0, 0, 1, 0, 0, 0, 1, 0, // triangle one
		1, 0, 0, 1, 1, 0, 0, 1, 0, // triangle two, sharing two corners
	}
	normals := make([]float32, 0, 18)
	for i := 0; i < 6; i++ {
		normals = append(normals, 0, 0, 1)
	}
	pv := d.addView(f32bytes(positions), nil)
	nv := d.addView(f32bytes(normals), nil)
	iv := d.addView(u16bytes([]uint16{0, 1, 2, 3, 4, 5}), nil)

	d.Accessors = []Accessor{
		{BufferView: &pv, ComponentType: ComponentFloat, Count: 6, Type: TypeVec3,
			Min: []float64{0, 0, 0}, Max: []float64{1, 1, 0}},
		{BufferView: &nv, ComponentType: ComponentFloat, Count: 6, Type: TypeVec3},
		{BufferView: &iv, ComponentType: ComponentUnsignedShort, Count: 6, Type: TypeScalar},
	}
	d.Meshes = []Mesh{{Primitives: []Primitive{{
		Attributes: map[string]int{SemanticPosition: 0, SemanticNormal: 1},
		Indices:    intp(2),
	}}}}
	d.Nodes = []Node{{Mesh: intp(0)}}
	d.Scenes = []Scene{{Nodes: []int{0}}}
	d.Scene = intp(0)
	d.Buffers = []Buffer{{ByteLength: len(d.bin)}}
	return d
}

// noisyPNG renders a deterministic high-frequency pattern that compresses
// poorly, so JPEG quality changes move the output size by a lot.
func noisyPNG(t *testing.T, w, h int, opaque bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if !opaque && (x+y)%7 == 0 {
				a = 128
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x*37 + y*101) % 256),
				G: uint8((x * y) % 256),
				B: uint8((x*13 ^ y*29) % 256),
				A: a,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// withImage embeds img bytes as an image stored in the BIN buffer.
func withImage(d *Document, data []byte, mime string) {
	vi := d.addView(data, nil)
	d.Images = append(d.Images, Image{BufferView: &vi, MimeType: mime})
	d.Buffers[0].ByteLength = len(d.bin)
}

func encodeDoc(t *testing.T, d *Document, opts ...EncodeOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, d, opts...); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func decodeBytes(t *testing.T, b []byte, opts ...ReadOption) *Document {
	t.Helper()
	d, err := Decode(bytes.NewReader(b), opts...)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return d
}

// findAttr returns the accessor for a semantic of the first primitive.
func findAttr(t *testing.T, d *Document, sem string) *Accessor {
	t.Helper()
	if len(d.Meshes) == 0 || len(d.Meshes[0].Primitives) == 0 {
		t.Fatal("document has no primitives")
	}
	ai, ok := d.Meshes[0].Primitives[0].Attributes[sem]
	if !ok {
		t.Fatalf("no %s attribute", sem)
	}
	return &d.Accessors[ai]
}
