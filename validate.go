package glbpack

import (
	"fmt"
	"strings"
)

// validateDocument checks the reference integrity of the whole glTF graph.
// Every index must resolve in bounds and the node graph must be an acyclic
// forest. Violations are hard errors; nothing is silently dropped.
func validateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("%w: document is nil", ErrSchema)
	}
	if d.Asset.Version == "" {
		return fmt.Errorf("%w: asset.version is required", ErrSchema)
	}
	if d.Asset.Version != "2.0" && !strings.HasPrefix(d.Asset.Version, "2.") {
		return fmt.Errorf("%w: unsupported asset.version %q", ErrSchema, d.Asset.Version)
	}
	if len(d.Buffers) > 1 {
		return fmt.Errorf("%w: GLB allows at most one buffer, got %d", ErrSchema, len(d.Buffers))
	}
	if len(d.Buffers) == 1 {
		b := d.Buffers[0]
		if b.URI != "" {
			return fmt.Errorf("%w: buffer 0 must not have a uri in GLB", ErrSchema)
		}
		if b.ByteLength > len(d.bin) {
			return fmt.Errorf("%w: buffer 0 byteLength %d exceeds BIN payload %d", ErrSchema, b.ByteLength, len(d.bin))
		}
	}

	for i, v := range d.BufferViews {
		if v.Buffer != 0 || len(d.Buffers) == 0 {
			return fmt.Errorf("%w: bufferView %d buffer %d", ErrReference, i, v.Buffer)
		}
		if v.ByteOffset < 0 || v.ByteLength <= 0 || v.ByteOffset+v.ByteLength > d.Buffers[0].ByteLength {
			return fmt.Errorf("%w: bufferView %d range [%d,%d) outside buffer", ErrSchema, i, v.ByteOffset, v.ByteOffset+v.ByteLength)
		}
		if v.ByteStride != nil && (*v.ByteStride < 4 || *v.ByteStride > 252 || *v.ByteStride%4 != 0) {
			return fmt.Errorf("%w: bufferView %d byteStride %d", ErrSchema, i, *v.ByteStride)
		}
	}

	for i := range d.Accessors {
		if err := validateAccessor(d, i); err != nil {
			return err
		}
	}

	for mi, m := range d.Meshes {
		if len(m.Primitives) == 0 {
			return fmt.Errorf("%w: mesh %d has no primitives", ErrSchema, mi)
		}
		for pi, p := range m.Primitives {
			if err := validatePrimitive(d, mi, pi, &p); err != nil {
				return err
			}
		}
	}

	for i, n := range d.Nodes {
		if n.Mesh != nil && (*n.Mesh < 0 || *n.Mesh >= len(d.Meshes)) {
			return fmt.Errorf("%w: node %d mesh %d", ErrReference, i, *n.Mesh)
		}
		if n.Skin != nil && (*n.Skin < 0 || *n.Skin >= len(d.Skins)) {
			return fmt.Errorf("%w: node %d skin %d", ErrReference, i, *n.Skin)
		}
		if n.Camera != nil && (*n.Camera < 0 || *n.Camera >= len(d.Cameras)) {
			return fmt.Errorf("%w: node %d camera %d", ErrReference, i, *n.Camera)
		}
		for _, c := range n.Children {
			if c < 0 || c >= len(d.Nodes) {
				return fmt.Errorf("%w: node %d child %d", ErrReference, i, c)
			}
		}
	}
	if err := validateNodeGraph(d); err != nil {
		return err
	}

	if d.Scene != nil && (*d.Scene < 0 || *d.Scene >= len(d.Scenes)) {
		return fmt.Errorf("%w: scene %d", ErrReference, *d.Scene)
	}
	for si, s := range d.Scenes {
		for _, n := range s.Nodes {
			if n < 0 || n >= len(d.Nodes) {
				return fmt.Errorf("%w: scene %d node %d", ErrReference, si, n)
			}
		}
	}

	for i, m := range d.Materials {
		for _, ti := range materialTextureRefs(&m) {
			if ti < 0 || ti >= len(d.Textures) {
				return fmt.Errorf("%w: material %d texture %d", ErrReference, i, ti)
			}
		}
	}
	for i, t := range d.Textures {
		if t.Source != nil && (*t.Source < 0 || *t.Source >= len(d.Images)) {
			return fmt.Errorf("%w: texture %d source %d", ErrReference, i, *t.Source)
		}
		if t.Sampler != nil && (*t.Sampler < 0 || *t.Sampler >= len(d.Samplers)) {
			return fmt.Errorf("%w: texture %d sampler %d", ErrReference, i, *t.Sampler)
		}
	}
	for i, img := range d.Images {
		if img.BufferView != nil {
			if *img.BufferView < 0 || *img.BufferView >= len(d.BufferViews) {
				return fmt.Errorf("%w: image %d bufferView %d", ErrReference, i, *img.BufferView)
			}
			if img.MimeType == "" {
				return fmt.Errorf("%w: image %d stored in bufferView needs mimeType", ErrSchema, i)
			}
		} else if img.URI == "" {
			return fmt.Errorf("%w: image %d has neither uri nor bufferView", ErrSchema, i)
		}
	}

	for i, s := range d.Skins {
		if len(s.Joints) == 0 {
			return fmt.Errorf("%w: skin %d has no joints", ErrSchema, i)
		}
		for _, j := range s.Joints {
			if j < 0 || j >= len(d.Nodes) {
				return fmt.Errorf("%w: skin %d joint %d", ErrReference, i, j)
			}
		}
		if s.Skeleton != nil && (*s.Skeleton < 0 || *s.Skeleton >= len(d.Nodes)) {
			return fmt.Errorf("%w: skin %d skeleton %d", ErrReference, i, *s.Skeleton)
		}
		if s.InverseBindMatrices != nil && (*s.InverseBindMatrices < 0 || *s.InverseBindMatrices >= len(d.Accessors)) {
			return fmt.Errorf("%w: skin %d inverseBindMatrices %d", ErrReference, i, *s.InverseBindMatrices)
		}
	}

	for ai, a := range d.Animations {
		for ci, c := range a.Channels {
			if c.Sampler < 0 || c.Sampler >= len(a.Samplers) {
				return fmt.Errorf("%w: animation %d channel %d sampler %d", ErrReference, ai, ci, c.Sampler)
			}
			if c.Target.Node != nil && (*c.Target.Node < 0 || *c.Target.Node >= len(d.Nodes)) {
				return fmt.Errorf("%w: animation %d channel %d node %d", ErrReference, ai, ci, *c.Target.Node)
			}
		}
		for si, s := range a.Samplers {
			if s.Input < 0 || s.Input >= len(d.Accessors) || s.Output < 0 || s.Output >= len(d.Accessors) {
				return fmt.Errorf("%w: animation %d sampler %d accessors", ErrReference, ai, si)
			}
		}
	}

	return nil
}

func validateAccessor(d *Document, i int) error {
	a := &d.Accessors[i]
	if a.ComponentType.Size() == 0 {
		return fmt.Errorf("%w: accessor %d componentType %d", ErrSchema, i, a.ComponentType)
	}
	if a.Type.Components() == 0 {
		return fmt.Errorf("%w: accessor %d type %q", ErrSchema, i, a.Type)
	}
	if a.Count <= 0 {
		return fmt.Errorf("%w: accessor %d count %d", ErrSchema, i, a.Count)
	}
	if a.BufferView != nil {
		vi := *a.BufferView
		if vi < 0 || vi >= len(d.BufferViews) {
			return fmt.Errorf("%w: accessor %d bufferView %d", ErrReference, i, vi)
		}
		v := &d.BufferViews[vi]
		stride := a.elementSize()
		if v.ByteStride != nil {
			stride = *v.ByteStride
		}
		need := a.ByteOffset + (a.Count-1)*stride + a.elementSize()
		if need > v.ByteLength {
			return fmt.Errorf("%w: accessor %d needs %d bytes, bufferView %d has %d", ErrSchema, i, need, vi, v.ByteLength)
		}
	}
	if a.Sparse != nil {
		for _, vi := range []int{a.Sparse.Indices.BufferView, a.Sparse.Values.BufferView} {
			if vi < 0 || vi >= len(d.BufferViews) {
				return fmt.Errorf("%w: accessor %d sparse bufferView %d", ErrReference, i, vi)
			}
		}
	}
	return nil
}

func validatePrimitive(d *Document, mi, pi int, p *Primitive) error {
	if len(p.Attributes) == 0 {
		return fmt.Errorf("%w: mesh %d primitive %d has no attributes", ErrSchema, mi, pi)
	}
	count := -1
	for sem, ai := range p.Attributes {
		if ai < 0 || ai >= len(d.Accessors) {
			return fmt.Errorf("%w: mesh %d primitive %d attribute %s accessor %d", ErrReference, mi, pi, sem, ai)
		}
		c := d.Accessors[ai].Count
		if count == -1 {
			count = c
		} else if c != count {
			return fmt.Errorf("%w: mesh %d primitive %d attribute %s count %d != %d", ErrSchema, mi, pi, sem, c, count)
		}
	}
	if p.Indices != nil {
		ii := *p.Indices
		if ii < 0 || ii >= len(d.Accessors) {
			return fmt.Errorf("%w: mesh %d primitive %d indices accessor %d", ErrReference, mi, pi, ii)
		}
		ia := &d.Accessors[ii]
		if ia.Type != TypeScalar {
			return fmt.Errorf("%w: mesh %d primitive %d indices type %q", ErrSchema, mi, pi, ia.Type)
		}
		switch ia.ComponentType {
		case ComponentUnsignedByte, ComponentUnsignedShort, ComponentUnsignedInt:
		default:
			return fmt.Errorf("%w: mesh %d primitive %d indices componentType %s", ErrSchema, mi, pi, ia.ComponentType)
		}
	}
	for ti, tgt := range p.Targets {
		for sem, ai := range tgt {
			if ai < 0 || ai >= len(d.Accessors) {
				return fmt.Errorf("%w: mesh %d primitive %d target %d attribute %s accessor %d", ErrReference, mi, pi, ti, sem, ai)
			}
		}
	}
	return nil
}

// validateNodeGraph rejects cycles and nodes with more than one parent,
// walking the children digraph with a visited set from every root.
func validateNodeGraph(d *Document) error {
	parents := make([]int, len(d.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for i, n := range d.Nodes {
		for _, c := range n.Children {
			if parents[c] != -1 {
				return fmt.Errorf("%w: node %d has parents %d and %d", ErrReference, c, parents[c], i)
			}
			parents[c] = i
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]byte, len(d.Nodes))
	var walk func(n int) error
	walk = func(n int) error {
		switch color[n] {
		case gray:
			return fmt.Errorf("%w: node %d is part of a cycle", ErrReference, n)
		case black:
			return nil
		}
		color[n] = gray
		for _, c := range d.Nodes[n].Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		color[n] = black
		return nil
	}
	for i := range d.Nodes {
		if parents[i] == -1 {
			if err := walk(i); err != nil {
				return err
			}
		}
	}
	// Anything still white sits on a cycle unreachable from any root.
	for i := range d.Nodes {
		if color[i] == white {
			return fmt.Errorf("%w: node %d is part of a cycle", ErrReference, i)
		}
	}
	return nil
}

func materialTextureRefs(m *Material) []int {
	var refs []int
	if m.PBRMetallicRoughness != nil {
		if t := m.PBRMetallicRoughness.BaseColorTexture; t != nil {
			refs = append(refs, t.Index)
		}
		if t := m.PBRMetallicRoughness.MetallicRoughnessTexture; t != nil {
			refs = append(refs, t.Index)
		}
	}
	if m.NormalTexture != nil {
		refs = append(refs, m.NormalTexture.Index)
	}
	if m.OcclusionTexture != nil {
		refs = append(refs, m.OcclusionTexture.Index)
	}
	if m.EmissiveTexture != nil {
		refs = append(refs, m.EmissiveTexture.Index)
	}
	return refs
}
