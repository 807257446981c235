package glbpack

import (
	"bytes"
	"testing"
)

func TestPackDropsUnreferencedViews(t *testing.T) {
	doc := triangleDoc()
	doc.addView([]byte("orphan data!"), nil)

	if err := packBuffers(doc, true); err != nil {
		t.Fatalf("packBuffers: %v", err)
	}
	if got := len(doc.BufferViews); got != 4 {
		t.Errorf("bufferViews %d, want 4", got)
	}
	if bytes.Contains(doc.Bin(), []byte("orphan data!")) {
		t.Error("orphan bytes survived packing")
	}
	if doc.Buffers[0].ByteLength != len(doc.Bin()) {
		t.Errorf("buffer byteLength %d != BIN %d", doc.Buffers[0].ByteLength, len(doc.Bin()))
	}
	if err := validateDocument(doc); err != nil {
		t.Errorf("packed document invalid: %v", err)
	}
}

func TestPackDedupesIdenticalViews(t *testing.T) {
	doc := &Document{Asset: Asset{Version: "2.0"}}
	content := f32bytes([]float32{1, 2, 3, 4})
	v0 := doc.addView(content, nil)
	v1 := doc.addView(append([]byte(nil), content...), nil)
	doc.Accessors = []Accessor{
		{BufferView: &v0, ComponentType: ComponentFloat, Count: 4, Type: TypeScalar},
		{BufferView: &v1, ComponentType: ComponentFloat, Count: 4, Type: TypeScalar},
	}
	doc.Buffers = []Buffer{{ByteLength: len(doc.Bin())}}

	if err := packBuffers(doc, true); err != nil {
		t.Fatalf("packBuffers: %v", err)
	}
	if got := len(doc.BufferViews); got != 1 {
		t.Fatalf("bufferViews %d, want 1", got)
	}
	if *doc.Accessors[0].BufferView != *doc.Accessors[1].BufferView {
		t.Error("accessors do not share the deduped view")
	}
	if len(doc.Bin()) != len(content) {
		t.Errorf("BIN %d bytes, want %d", len(doc.Bin()), len(content))
	}
}

func TestPackDedupeRespectsLayout(t *testing.T) {
	doc := &Document{Asset: Asset{Version: "2.0"}}
	content := f32bytes([]float32{1, 2, 3, 4})
	stride := 8
	v0 := doc.addView(content, nil)
	v1 := doc.addView(append([]byte(nil), content...), &stride)
	doc.Accessors = []Accessor{
		{BufferView: &v0, ComponentType: ComponentFloat, Count: 4, Type: TypeScalar},
		{BufferView: &v1, ComponentType: ComponentFloat, Count: 2, Type: TypeScalar},
	}
	doc.Buffers = []Buffer{{ByteLength: len(doc.Bin())}}

	if err := packBuffers(doc, true); err != nil {
		t.Fatalf("packBuffers: %v", err)
	}
	if got := len(doc.BufferViews); got != 2 {
		t.Errorf("bufferViews %d, want 2 (stride differs)", got)
	}
}

func TestPackDedupeRespectsTarget(t *testing.T) {
	// Identical bytes serving as index data and as vertex data must stay in
	// separate views; a view cannot be bound to both GPU targets.
	doc := &Document{Asset: Asset{Version: "2.0"}}
	content := []byte{0, 1, 2, 3}
	v0 := doc.addView(content, nil)
	v1 := doc.addView(append([]byte(nil), content...), nil)
	doc.BufferViews[v0].Target = targetArrayBuffer
	doc.BufferViews[v1].Target = targetElementArrayBuffer
	doc.Accessors = []Accessor{
		{BufferView: &v0, ComponentType: ComponentUnsignedByte, Count: 4, Type: TypeScalar},
		{BufferView: &v1, ComponentType: ComponentUnsignedByte, Count: 4, Type: TypeScalar},
	}
	doc.Buffers = []Buffer{{ByteLength: len(doc.Bin())}}

	if err := packBuffers(doc, true); err != nil {
		t.Fatalf("packBuffers: %v", err)
	}
	if got := len(doc.BufferViews); got != 2 {
		t.Errorf("bufferViews %d, want 2 (targets differ)", got)
	}
}

func TestPackWithoutDedupe(t *testing.T) {
	doc := &Document{Asset: Asset{Version: "2.0"}}
	content := []byte{1, 2, 3, 4}
	v0 := doc.addView(content, nil)
	v1 := doc.addView(append([]byte(nil), content...), nil)
	doc.Accessors = []Accessor{
		{BufferView: &v0, ComponentType: ComponentUnsignedByte, Count: 4, Type: TypeScalar},
		{BufferView: &v1, ComponentType: ComponentUnsignedByte, Count: 4, Type: TypeScalar},
	}
	doc.Buffers = []Buffer{{ByteLength: len(doc.Bin())}}

	if err := packBuffers(doc, false); err != nil {
		t.Fatalf("packBuffers: %v", err)
	}
	if got := len(doc.BufferViews); got != 2 {
		t.Errorf("bufferViews %d, want 2 with dedup off", got)
	}
}

func TestPackIdempotent(t *testing.T) {
	doc := triangleDoc()
	if err := packBuffers(doc, true); err != nil {
		t.Fatalf("first pack: %v", err)
	}
	bin := append([]byte(nil), doc.Bin()...)
	views := append([]BufferView(nil), doc.BufferViews...)

	if err := packBuffers(doc, true); err != nil {
		t.Fatalf("second pack: %v", err)
	}
	if !bytes.Equal(doc.Bin(), bin) {
		t.Error("repacking changed the buffer bytes")
	}
	if len(doc.BufferViews) != len(views) {
		t.Fatalf("repacking changed the view count")
	}
	for i := range views {
		if doc.BufferViews[i] != views[i] {
			t.Errorf("view %d changed: %+v -> %+v", i, views[i], doc.BufferViews[i])
		}
	}
}

func TestPackAllViewsDropped(t *testing.T) {
	doc := &Document{Asset: Asset{Version: "2.0"}}
	doc.addView([]byte{1, 2, 3, 4}, nil)
	doc.Buffers = []Buffer{{ByteLength: len(doc.Bin())}}

	if err := packBuffers(doc, true); err != nil {
		t.Fatalf("packBuffers: %v", err)
	}
	if len(doc.BufferViews) != 0 || doc.Buffers != nil || len(doc.Bin()) != 0 {
		t.Errorf("empty document not fully cleared: %d views, %d buffers, %d bytes",
			len(doc.BufferViews), len(doc.Buffers), len(doc.Bin()))
	}
	if err := validateDocument(doc); err != nil {
		t.Errorf("cleared document invalid: %v", err)
	}
}

func TestPackRewritesImageViews(t *testing.T) {
	doc := triangleDoc()
	doc.addView([]byte("junk junk junk"), nil) // pushes the image view index up
	withImage(doc, []byte("fake image bytes"), "image/png")

	if err := packBuffers(doc, true); err != nil {
		t.Fatalf("packBuffers: %v", err)
	}
	img := doc.Images[0]
	if img.BufferView == nil {
		t.Fatal("image lost its bufferView")
	}
	got := doc.viewBytes(*img.BufferView)
	if !bytes.Equal(got, []byte("fake image bytes")) {
		t.Errorf("image view content %q", got)
	}
}
