package glbpack

import (
	"crypto/sha256"
	"fmt"
)

// viewKey identifies a deduplicable bufferView: identical content is only
// collapsed when layout properties agree, so an interleaved view never
// aliases a tightly packed one by accident.
type viewKey struct {
	hash   [sha256.Size]byte
	stride int
	target int
}

// packBuffers rebuilds the single binary buffer: unreferenced bufferViews
// are dropped, byte-identical views collapse to one physical copy, and the
// survivors are laid out in encounter order at 4-byte alignment (the maximum
// glTF requires, since no component is wider than 4 bytes). All view indices
// and offsets are rewritten. Packing an already-packed document is a no-op
// on the buffer bytes.
func packBuffers(doc *Document, dedupe bool) error {
	if len(doc.BufferViews) == 0 {
		doc.Buffers = nil
		doc.bin = nil
		return nil
	}

	referenced := make([]bool, len(doc.BufferViews))
	mark := func(vi int) {
		referenced[vi] = true
	}
	for i := range doc.Accessors {
		a := &doc.Accessors[i]
		if a.BufferView != nil {
			mark(*a.BufferView)
		}
		if a.Sparse != nil {
			mark(a.Sparse.Indices.BufferView)
			mark(a.Sparse.Values.BufferView)
		}
	}
	for i := range doc.Images {
		if doc.Images[i].BufferView != nil {
			mark(*doc.Images[i].BufferView)
		}
	}

	newIndex := make([]int, len(doc.BufferViews))
	for i := range newIndex {
		newIndex[i] = -1
	}
	seen := make(map[viewKey]int)
	var out []BufferView
	var bin []byte
	for vi := range doc.BufferViews {
		if !referenced[vi] {
			continue
		}
		v := doc.BufferViews[vi]
		content := doc.viewBytes(vi)
		if dedupe {
			key := viewKey{hash: sha256.Sum256(content), target: v.Target}
			if v.ByteStride != nil {
				key.stride = *v.ByteStride
			}
			if prev, ok := seen[key]; ok {
				newIndex[vi] = prev
				continue
			}
			seen[key] = len(out)
		}
		for len(bin)%4 != 0 {
			bin = append(bin, 0)
		}
		v.Buffer = 0
		v.ByteOffset = len(bin)
		bin = append(bin, content...)
		newIndex[vi] = len(out)
		out = append(out, v)
	}

	remap := func(vi int) (int, error) {
		ni := newIndex[vi]
		if ni < 0 {
			return 0, fmt.Errorf("%w: bufferView %d lost during packing", ErrInternal, vi)
		}
		return ni, nil
	}
	for i := range doc.Accessors {
		a := &doc.Accessors[i]
		if a.BufferView != nil {
			ni, err := remap(*a.BufferView)
			if err != nil {
				return err
			}
			a.BufferView = &ni
		}
		if a.Sparse != nil {
			ni, err := remap(a.Sparse.Indices.BufferView)
			if err != nil {
				return err
			}
			a.Sparse.Indices.BufferView = ni
			nv, err := remap(a.Sparse.Values.BufferView)
			if err != nil {
				return err
			}
			a.Sparse.Values.BufferView = nv
		}
	}
	for i := range doc.Images {
		if doc.Images[i].BufferView != nil {
			ni, err := remap(*doc.Images[i].BufferView)
			if err != nil {
				return err
			}
			doc.Images[i].BufferView = &ni
		}
	}

	doc.BufferViews = out
	doc.bin = bin
	if len(out) == 0 {
		doc.Buffers = nil
		return nil
	}
	name := ""
	if len(doc.Buffers) > 0 {
		name = doc.Buffers[0].Name
	}
	doc.Buffers = []Buffer{{ByteLength: len(bin), Name: name}}
	return nil
}
