package glbpack

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// elementBytes returns the raw bytes of accessor element i, honoring the
// bufferView's interleave stride. The accessor must have a bufferView and the
// document must have passed validation.
func (d *Document) elementBytes(a *Accessor, i int) []byte {
	v := &d.BufferViews[*a.BufferView]
	stride := a.elementSize()
	if v.ByteStride != nil {
		stride = *v.ByteStride
	}
	base := v.ByteOffset + a.ByteOffset + i*stride
	return d.bin[base : base+a.elementSize()]
}

// accessorFloats reads a FLOAT accessor into a flat component slice.
func (d *Document) accessorFloats(ai int) ([]float32, error) {
	a := &d.Accessors[ai]
	if a.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no bufferView", ai)
	}
	if a.ComponentType != ComponentFloat {
		return nil, fmt.Errorf("accessor %d componentType %s is not FLOAT", ai, a.ComponentType)
	}
	comps := a.Type.Components()
	out := make([]float32, 0, a.Count*comps)
	for i := 0; i < a.Count; i++ {
		e := d.elementBytes(a, i)
		for c := 0; c < comps; c++ {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(e[c*4:])))
		}
	}
	return out, nil
}

// accessorIndices reads an unsigned scalar accessor into uint32s.
func (d *Document) accessorIndices(ai int) []uint32 {
	a := &d.Accessors[ai]
	out := make([]uint32, a.Count)
	for i := 0; i < a.Count; i++ {
		e := d.elementBytes(a, i)
		switch a.ComponentType {
		case ComponentUnsignedByte:
			out[i] = uint32(e[0])
		case ComponentUnsignedShort:
			out[i] = uint32(binary.LittleEndian.Uint16(e))
		default:
			out[i] = binary.LittleEndian.Uint32(e)
		}
	}
	return out
}

// compressMeshes runs welding, quantization, and index compaction over every
// primitive. Each step is best effort: a primitive or attribute that cannot
// be processed is recorded as a warning and left intact.
func compressMeshes(doc *Document, plan Plan, rep *Report, cfg *compressConfig) error {
	total := 0
	for i := range doc.Meshes {
		total += len(doc.Meshes[i].Primitives)
	}
	if total == 0 {
		return nil
	}

	refs := accessorRefCounts(doc)
	quantized := make(map[int]bool)
	done := 0
	for mi := range doc.Meshes {
		for pi := range doc.Meshes[mi].Primitives {
			if cfg.canceled() {
				return ErrCanceled
			}
			p := &doc.Meshes[mi].Primitives[pi]
			label := fmt.Sprintf("mesh %d primitive %d", mi, pi)

			if plan.WeldVertices {
				weldPrimitive(doc, p, plan, refs, rep, label)
			}
			for sem, ai := range p.Attributes {
				bits := plan.bitsFor(sem)
				if bits == 0 || quantized[ai] {
					continue
				}
				quantized[ai] = true
				quantizeAccessor(doc, ai, bits, rep, label+" "+sem)
			}
			compactIndices(doc, p)

			done++
			cfg.report(StagePrimitive, done, total)
		}
	}
	return nil
}

// accessorRefCounts counts how many primitives reference each accessor,
// through attributes, morph targets, or indices. Welding rewrites accessors
// in place and must not touch one that another primitive still reads.
func accessorRefCounts(doc *Document) map[int]int {
	refs := make(map[int]int)
	for mi := range doc.Meshes {
		for pi := range doc.Meshes[mi].Primitives {
			p := &doc.Meshes[mi].Primitives[pi]
			for _, ai := range p.Attributes {
				refs[ai]++
			}
			for _, tgt := range p.Targets {
				for _, ai := range tgt {
					refs[ai]++
				}
			}
			if p.Indices != nil {
				refs[*p.Indices]++
			}
		}
	}
	return refs
}

// weldPrimitive merges vertices whose attributes all agree within the weld
// epsilon and remaps the index list, dropping triangles that collapse. The
// weld key covers every attribute of the vertex, so positions on a UV seam
// or with divergent normals are never merged.
func weldPrimitive(doc *Document, p *Primitive, plan Plan, refs map[int]int, rep *Report, label string) {
	if p.ModeOrDefault() != ModeTriangles {
		return
	}
	if len(p.Targets) > 0 {
		rep.warnf(label, "welding skipped: primitive has morph targets")
		return
	}
	for sem, ai := range p.Attributes {
		if refs[ai] > 1 {
			rep.warnf(label, "welding skipped: attribute %s accessor shared between primitives", sem)
			return
		}
		a := &doc.Accessors[ai]
		if a.BufferView == nil || a.Sparse != nil {
			rep.warnf(label, "welding skipped: attribute %s has no plain buffer data", sem)
			return
		}
	}
	if p.Indices != nil {
		if refs[*p.Indices] > 1 {
			rep.warnf(label, "welding skipped: index accessor shared between primitives")
			return
		}
		ia := &doc.Accessors[*p.Indices]
		if ia.BufferView == nil || ia.Sparse != nil {
			rep.warnf(label, "welding skipped: index accessor has no plain buffer data")
			return
		}
	}

	pi, ok := p.Attributes[SemanticPosition]
	if !ok {
		return
	}
	positions, err := doc.accessorFloats(pi)
	if err != nil || doc.Accessors[pi].Type != TypeVec3 {
		rep.warnf(label, "welding skipped: POSITION is not a FLOAT VEC3 accessor")
		return
	}
	eps := plan.WeldEpsilon * float64(maxExtent(positions))
	if eps <= 0 {
		eps = plan.WeldEpsilon
	}

	sems := make([]string, 0, len(p.Attributes))
	for sem := range p.Attributes {
		sems = append(sems, sem)
	}
	sort.Strings(sems)

	n := doc.Accessors[pi].Count
	remap := make([]uint32, n)
	kept := make([]int, 0, n)
	seen := make(map[string]uint32, n)
	key := make([]byte, 0, 64)
	for i := 0; i < n; i++ {
		key = key[:0]
		for _, sem := range sems {
			a := &doc.Accessors[p.Attributes[sem]]
			e := doc.elementBytes(a, i)
			if a.ComponentType == ComponentFloat {
				// Snap float components to epsilon-sized cells. Position
				// cells scale with the bounding box; every other float
				// semantic lives in a unit-scale range and keeps the raw
				// tolerance, so UV seams survive on large models.
				cell := plan.WeldEpsilon
				if sem == SemanticPosition {
					cell = eps
				}
				for c := 0; c < a.Type.Components(); c++ {
					f := float64(math.Float32frombits(binary.LittleEndian.Uint32(e[c*4:])))
					key = binary.LittleEndian.AppendUint64(key, uint64(int64(math.Round(f/cell))))
				}
			} else {
				key = append(key, e...)
			}
		}
		if j, ok := seen[string(key)]; ok {
			remap[i] = j
			continue
		}
		j := uint32(len(kept))
		seen[string(key)] = j
		remap[i] = j
		kept = append(kept, i)
	}
	if len(kept) == n {
		return
	}

	for _, sem := range sems {
		ai := p.Attributes[sem]
		a := doc.Accessors[ai]
		esz := a.elementSize()
		data := make([]byte, 0, len(kept)*esz)
		for _, oi := range kept {
			data = append(data, doc.elementBytes(&a, oi)...)
		}
		vi := doc.addView(data, nil)
		doc.BufferViews[vi].Target = targetArrayBuffer
		a.BufferView = &vi
		a.ByteOffset = 0
		a.Count = len(kept)
		if a.ComponentType == ComponentFloat && (a.Min != nil || a.Max != nil) {
			floats, _ := floatsFromPacked(data, a.Type.Components())
			a.Min, a.Max = componentBounds(floats, a.Type.Components())
		}
		doc.Accessors[ai] = a
	}

	var oldIdx []uint32
	if p.Indices != nil {
		oldIdx = doc.accessorIndices(*p.Indices)
	} else {
		oldIdx = make([]uint32, n)
		for i := range oldIdx {
			oldIdx[i] = uint32(i)
		}
	}
	newIdx := make([]uint32, 0, len(oldIdx))
	for t := 0; t+2 < len(oldIdx); t += 3 {
		a, b, c := remap[oldIdx[t]], remap[oldIdx[t+1]], remap[oldIdx[t+2]]
		if a == b || b == c || a == c {
			continue
		}
		newIdx = append(newIdx, a, b, c)
	}
	writeIndices(doc, p, newIdx, len(kept))
}

// quantizeAccessor rewrites a FLOAT accessor as fixed-point integers at the
// given bit width, normalized to the accessor's own per-component bounds.
// The dequantization transform lands in the accessor's extras and the
// KHR_mesh_quantization extension is declared on the document. Unsupported
// accessors are skipped with a warning.
func quantizeAccessor(doc *Document, ai int, bits int, rep *Report, label string) {
	a := &doc.Accessors[ai]
	if a.Sparse != nil {
		rep.warnf(label, "quantization skipped: sparse accessor")
		return
	}
	if a.BufferView == nil {
		rep.warnf(label, "quantization skipped: accessor has no buffer data")
		return
	}
	if a.ComponentType != ComponentFloat {
		rep.warnf(label, "quantization skipped: componentType %s already below target precision", a.ComponentType)
		return
	}
	if bits < 1 || bits > 16 {
		rep.warnf(label, "quantization skipped: unsupported bit width %d", bits)
		return
	}

	comps := a.Type.Components()
	floats, err := doc.accessorFloats(ai)
	if err != nil {
		rep.warnf(label, "quantization skipped: %v", err)
		return
	}
	mins, maxs := componentBounds(floats, comps)

	maxQ := uint32(1)<<bits - 1
	storage := ComponentUnsignedShort
	esz := 2
	if bits <= 8 {
		storage = ComponentUnsignedByte
		esz = 1
	}

	scale := make([]float64, comps)
	for c := 0; c < comps; c++ {
		if span := maxs[c] - mins[c]; span > 0 {
			scale[c] = span / float64(maxQ)
		}
	}

	data := make([]byte, 0, a.Count*comps*esz)
	qmin := make([]float64, comps)
	qmax := make([]float64, comps)
	for c := range qmin {
		qmin[c] = math.Inf(1)
		qmax[c] = math.Inf(-1)
	}
	for i := 0; i < a.Count; i++ {
		for c := 0; c < comps; c++ {
			v := float64(floats[i*comps+c])
			var q uint32
			if scale[c] > 0 {
				q = uint32(math.Round((v - mins[c]) / (maxs[c] - mins[c]) * float64(maxQ)))
			}
			if fq := float64(q); fq < qmin[c] {
				qmin[c] = fq
			}
			if fq := float64(q); fq > qmax[c] {
				qmax[c] = fq
			}
			if esz == 1 {
				data = append(data, byte(q))
			} else {
				data = binary.LittleEndian.AppendUint16(data, uint16(q))
			}
		}
	}

	vi := doc.addView(data, nil)
	doc.BufferViews[vi].Target = targetArrayBuffer
	na := Accessor{
		BufferView:    &vi,
		ComponentType: storage,
		Count:         a.Count,
		Type:          a.Type,
		Min:           qmin,
		Max:           qmax,
		Name:          a.Name,
		Extras: map[string]any{
			extraQuantizeBits:   bits,
			extraQuantizeScale:  scale,
			extraQuantizeOffset: mins,
		},
	}
	doc.Accessors[ai] = na
	doc.declareExtension(meshQuantizationExtension, true)
}

// compactIndices re-types a primitive's index accessor to the narrowest
// unsigned width that fits its largest index. It never widens.
func compactIndices(doc *Document, p *Primitive) {
	if p.Indices == nil {
		return
	}
	a := &doc.Accessors[*p.Indices]
	if a.BufferView == nil || a.Sparse != nil {
		return
	}
	idx := doc.accessorIndices(*p.Indices)
	var maxIdx uint32
	for _, v := range idx {
		if v > maxIdx {
			maxIdx = v
		}
	}
	if indexComponentFor(int(maxIdx)+1).Size() >= a.ComponentType.Size() {
		return
	}
	writeIndices(doc, p, idx, int(maxIdx)+1)
}

// writeIndices stores idx at the narrowest width that fits vertexCount and
// points the primitive's index accessor at the new data, reusing the
// existing accessor slot when there is one.
func writeIndices(doc *Document, p *Primitive, idx []uint32, vertexCount int) {
	ct := indexComponentFor(vertexCount)
	data := make([]byte, 0, len(idx)*ct.Size())
	for _, v := range idx {
		switch ct {
		case ComponentUnsignedByte:
			data = append(data, byte(v))
		case ComponentUnsignedShort:
			data = binary.LittleEndian.AppendUint16(data, uint16(v))
		default:
			data = binary.LittleEndian.AppendUint32(data, v)
		}
	}
	vi := doc.addView(data, nil)
	doc.BufferViews[vi].Target = targetElementArrayBuffer
	na := Accessor{
		BufferView:    &vi,
		ComponentType: ct,
		Count:         len(idx),
		Type:          TypeScalar,
	}
	if p.Indices != nil {
		na.Name = doc.Accessors[*p.Indices].Name
		doc.Accessors[*p.Indices] = na
		return
	}
	doc.Accessors = append(doc.Accessors, na)
	ii := len(doc.Accessors) - 1
	p.Indices = &ii
}

func indexComponentFor(vertexCount int) ComponentType {
	switch {
	case vertexCount <= 1<<8:
		return ComponentUnsignedByte
	case vertexCount <= 1<<16:
		return ComponentUnsignedShort
	default:
		return ComponentUnsignedInt
	}
}

// componentBounds returns per-component minima and maxima of a flat slice.
func componentBounds(floats []float32, comps int) (mins, maxs []float64) {
	mins = make([]float64, comps)
	maxs = make([]float64, comps)
	for c := 0; c < comps; c++ {
		mins[c] = math.Inf(1)
		maxs[c] = math.Inf(-1)
	}
	for i := 0; i+comps <= len(floats); i += comps {
		for c := 0; c < comps; c++ {
			v := float64(floats[i+c])
			if v < mins[c] {
				mins[c] = v
			}
			if v > maxs[c] {
				maxs[c] = v
			}
		}
	}
	return mins, maxs
}

func floatsFromPacked(data []byte, comps int) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("packed float data length %d", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// maxExtent returns the largest axis extent of a flat VEC3 position slice.
func maxExtent(positions []float32) float32 {
	if len(positions) < 3 {
		return 0
	}
	mn := mgl32.Vec3{positions[0], positions[1], positions[2]}
	mx := mn
	for i := 3; i+2 < len(positions); i += 3 {
		v := mgl32.Vec3{positions[i], positions[i+1], positions[i+2]}
		for c := 0; c < 3; c++ {
			if v[c] < mn[c] {
				mn[c] = v[c]
			}
			if v[c] > mx[c] {
				mx[c] = v[c]
			}
		}
	}
	ext := mx.Sub(mn)
	m := ext.X()
	if ext.Y() > m {
		m = ext.Y()
	}
	if ext.Z() > m {
		m = ext.Z()
	}
	return m
}
