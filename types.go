package glbpack

// GLBVersion is the binary glTF container version this package reads and writes.
const GLBVersion uint32 = 2

// BinCompressionExtension is the vendor extension declared when the BIN chunk
// payload is supercompressed. Its value object carries a single "codec" key.
const BinCompressionExtension = "LOGI_binary_compression"

// meshQuantizationExtension is declared whenever an attribute accessor has
// been rewritten to fixed-point integers.
const meshQuantizationExtension = "KHR_mesh_quantization"

// Accessor extras keys carrying the dequantization transform
// (value = stored * scale + offset, per component).
const (
	extraQuantizeBits   = "quantizeBits"
	extraQuantizeScale  = "quantizeScale"
	extraQuantizeOffset = "quantizeOffset"
)

// ComponentType enumerates glTF accessor component types.
type ComponentType int

const (
	ComponentByte          ComponentType = 5120
	ComponentUnsignedByte  ComponentType = 5121
	ComponentShort         ComponentType = 5122
	ComponentUnsignedShort ComponentType = 5123
	ComponentUnsignedInt   ComponentType = 5125
	ComponentFloat         ComponentType = 5126
)

// Size returns the byte size of a single component, or 0 if t is unknown.
func (t ComponentType) Size() int {
	switch t {
	case ComponentByte, ComponentUnsignedByte:
		return 1
	case ComponentShort, ComponentUnsignedShort:
		return 2
	case ComponentUnsignedInt, ComponentFloat:
		return 4
	default:
		return 0
	}
}

func (t ComponentType) String() string {
	switch t {
	case ComponentByte:
		return "BYTE"
	case ComponentUnsignedByte:
		return "UNSIGNED_BYTE"
	case ComponentShort:
		return "SHORT"
	case ComponentUnsignedShort:
		return "UNSIGNED_SHORT"
	case ComponentUnsignedInt:
		return "UNSIGNED_INT"
	case ComponentFloat:
		return "FLOAT"
	default:
		return "UNKNOWN"
	}
}

// AccessorType is the glTF element shape ("SCALAR", "VEC3", ...).
type AccessorType string

const (
	TypeScalar AccessorType = "SCALAR"
	TypeVec2   AccessorType = "VEC2"
	TypeVec3   AccessorType = "VEC3"
	TypeVec4   AccessorType = "VEC4"
	TypeMat2   AccessorType = "MAT2"
	TypeMat3   AccessorType = "MAT3"
	TypeMat4   AccessorType = "MAT4"
)

// Components returns the number of components per element, or 0 if a is unknown.
func (a AccessorType) Components() int {
	switch a {
	case TypeScalar:
		return 1
	case TypeVec2:
		return 2
	case TypeVec3:
		return 3
	case TypeVec4:
		return 4
	case TypeMat2:
		return 4
	case TypeMat3:
		return 9
	case TypeMat4:
		return 16
	default:
		return 0
	}
}

// Primitive topology modes.
const (
	ModePoints        = 0
	ModeLines         = 1
	ModeLineLoop      = 2
	ModeLineStrip     = 3
	ModeTriangles     = 4
	ModeTriangleStrip = 5
	ModeTriangleFan   = 6
)

// bufferView GPU binding targets.
const (
	targetArrayBuffer        = 34962
	targetElementArrayBuffer = 34963
)

// Attribute semantics the planner knows how to quantize.
const (
	SemanticPosition = "POSITION"
	SemanticNormal   = "NORMAL"
	SemanticTexCoord = "TEXCOORD_0"
	SemanticColor    = "COLOR_0"
)

type Asset struct {
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
	Copyright  string `json:"copyright,omitempty"`
}

type Scene struct {
	Nodes []int  `json:"nodes,omitempty"`
	Name  string `json:"name,omitempty"`
}

type Node struct {
	Camera      *int         `json:"camera,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Skin        *int         `json:"skin,omitempty"`
	Matrix      *[16]float64 `json:"matrix,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Rotation    *[4]float64  `json:"rotation,omitempty"`
	Scale       *[3]float64  `json:"scale,omitempty"`
	Translation *[3]float64  `json:"translation,omitempty"`
	Weights     []float64    `json:"weights,omitempty"`
	Name        string       `json:"name,omitempty"`
}

type Mesh struct {
	Primitives []Primitive `json:"primitives"`
	Weights    []float64   `json:"weights,omitempty"`
	Name       string      `json:"name,omitempty"`
}

type Primitive struct {
	Attributes map[string]int   `json:"attributes"`
	Indices    *int             `json:"indices,omitempty"`
	Material   *int             `json:"material,omitempty"`
	Mode       *int             `json:"mode,omitempty"`
	Targets    []map[string]int `json:"targets,omitempty"`
}

// ModeOrDefault returns the topology mode, defaulting to TRIANGLES.
func (p *Primitive) ModeOrDefault() int {
	if p.Mode == nil {
		return ModeTriangles
	}
	return *p.Mode
}

type Accessor struct {
	BufferView    *int           `json:"bufferView,omitempty"`
	ByteOffset    int            `json:"byteOffset,omitempty"`
	ComponentType ComponentType  `json:"componentType"`
	Normalized    bool           `json:"normalized,omitempty"`
	Count         int            `json:"count"`
	Type          AccessorType   `json:"type"`
	Max           []float64      `json:"max,omitempty"`
	Min           []float64      `json:"min,omitempty"`
	Sparse        *Sparse        `json:"sparse,omitempty"`
	Name          string         `json:"name,omitempty"`
	Extras        map[string]any `json:"extras,omitempty"`
}

// elementSize returns the tightly packed byte size of one accessor element.
func (a *Accessor) elementSize() int {
	return a.ComponentType.Size() * a.Type.Components()
}

type Sparse struct {
	Count   int           `json:"count"`
	Indices SparseIndices `json:"indices"`
	Values  SparseValues  `json:"values"`
}

type SparseIndices struct {
	BufferView    int           `json:"bufferView"`
	ByteOffset    int           `json:"byteOffset,omitempty"`
	ComponentType ComponentType `json:"componentType"`
}

type SparseValues struct {
	BufferView int `json:"bufferView"`
	ByteOffset int `json:"byteOffset,omitempty"`
}

type BufferView struct {
	Buffer     int    `json:"buffer"`
	ByteOffset int    `json:"byteOffset,omitempty"`
	ByteLength int    `json:"byteLength"`
	ByteStride *int   `json:"byteStride,omitempty"`
	Target     int    `json:"target,omitempty"`
	Name       string `json:"name,omitempty"`
}

type Buffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
	Name       string `json:"name,omitempty"`
}

type Material struct {
	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	NormalTexture        *NormalTextureInfo    `json:"normalTexture,omitempty"`
	OcclusionTexture     *OcclusionTextureInfo `json:"occlusionTexture,omitempty"`
	EmissiveTexture      *TextureInfo          `json:"emissiveTexture,omitempty"`
	EmissiveFactor       *[3]float64           `json:"emissiveFactor,omitempty"`
	AlphaMode            string                `json:"alphaMode,omitempty"`
	AlphaCutoff          *float64              `json:"alphaCutoff,omitempty"`
	DoubleSided          bool                  `json:"doubleSided,omitempty"`
	Name                 string                `json:"name,omitempty"`
	Extensions           map[string]any        `json:"extensions,omitempty"`
}

type PBRMetallicRoughness struct {
	BaseColorFactor          *[4]float64  `json:"baseColorFactor,omitempty"`
	BaseColorTexture         *TextureInfo `json:"baseColorTexture,omitempty"`
	MetallicFactor           *float64     `json:"metallicFactor,omitempty"`
	RoughnessFactor          *float64     `json:"roughnessFactor,omitempty"`
	MetallicRoughnessTexture *TextureInfo `json:"metallicRoughnessTexture,omitempty"`
}

type TextureInfo struct {
	Index    int `json:"index"`
	TexCoord int `json:"texCoord,omitempty"`
}

type NormalTextureInfo struct {
	Index    int      `json:"index"`
	TexCoord int      `json:"texCoord,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
}

type OcclusionTextureInfo struct {
	Index    int      `json:"index"`
	TexCoord int      `json:"texCoord,omitempty"`
	Strength *float64 `json:"strength,omitempty"`
}

type Texture struct {
	Sampler *int   `json:"sampler,omitempty"`
	Source  *int   `json:"source,omitempty"`
	Name    string `json:"name,omitempty"`
}

type Sampler struct {
	MagFilter int    `json:"magFilter,omitempty"`
	MinFilter int    `json:"minFilter,omitempty"`
	WrapS     int    `json:"wrapS,omitempty"`
	WrapT     int    `json:"wrapT,omitempty"`
	Name      string `json:"name,omitempty"`
}

type Image struct {
	URI        string `json:"uri,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	BufferView *int   `json:"bufferView,omitempty"`
	Name       string `json:"name,omitempty"`
}

type Skin struct {
	InverseBindMatrices *int   `json:"inverseBindMatrices,omitempty"`
	Skeleton            *int   `json:"skeleton,omitempty"`
	Joints              []int  `json:"joints"`
	Name                string `json:"name,omitempty"`
}

type Animation struct {
	Channels []AnimationChannel `json:"channels"`
	Samplers []AnimationSampler `json:"samplers"`
	Name     string             `json:"name,omitempty"`
}

type AnimationChannel struct {
	Sampler int             `json:"sampler"`
	Target  AnimationTarget `json:"target"`
}

type AnimationTarget struct {
	Node *int   `json:"node,omitempty"`
	Path string `json:"path"`
}

type AnimationSampler struct {
	Input         int    `json:"input"`
	Interpolation string `json:"interpolation,omitempty"`
	Output        int    `json:"output"`
}

type Camera struct {
	Type         string         `json:"type"`
	Perspective  map[string]any `json:"perspective,omitempty"`
	Orthographic map[string]any `json:"orthographic,omitempty"`
	Name         string         `json:"name,omitempty"`
}

// Document is the in-memory form of a glTF 2.0 asset plus the BIN chunk
// payload it refers to. It is produced by Decode and consumed by Encode;
// Compress mutates it in place between the two.
type Document struct {
	ExtensionsUsed     []string       `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string       `json:"extensionsRequired,omitempty"`
	Asset              Asset          `json:"asset"`
	Scene              *int           `json:"scene,omitempty"`
	Scenes             []Scene        `json:"scenes,omitempty"`
	Nodes              []Node         `json:"nodes,omitempty"`
	Meshes             []Mesh         `json:"meshes,omitempty"`
	Accessors          []Accessor     `json:"accessors,omitempty"`
	BufferViews        []BufferView   `json:"bufferViews,omitempty"`
	Buffers            []Buffer       `json:"buffers,omitempty"`
	Materials          []Material     `json:"materials,omitempty"`
	Textures           []Texture      `json:"textures,omitempty"`
	Samplers           []Sampler      `json:"samplers,omitempty"`
	Images             []Image        `json:"images,omitempty"`
	Skins              []Skin         `json:"skins,omitempty"`
	Animations         []Animation    `json:"animations,omitempty"`
	Cameras            []Camera       `json:"cameras,omitempty"`
	Extensions         map[string]any `json:"extensions,omitempty"`
	Extras             any            `json:"extras,omitempty"`

	bin []byte
}

// Bin returns the decoded BIN chunk payload backing the document's buffer.
func (d *Document) Bin() []byte { return d.bin }

// SetBin replaces the BIN chunk payload. Callers constructing documents by
// hand must keep buffer and bufferView byte lengths consistent with it.
func (d *Document) SetBin(b []byte) { d.bin = b }

// viewBytes returns the byte range of bufferView vi. The document must have
// passed validation first.
func (d *Document) viewBytes(vi int) []byte {
	v := &d.BufferViews[vi]
	return d.bin[v.ByteOffset : v.ByteOffset+v.ByteLength]
}

// addView appends data to the BIN payload at 4-byte alignment and returns the
// index of a new bufferView covering it. The enclosing buffer's byteLength is
// left stale; the buffer packer rewrites it.
func (d *Document) addView(data []byte, stride *int) int {
	for len(d.bin)%4 != 0 {
		d.bin = append(d.bin, 0)
	}
	v := BufferView{
		Buffer:     0,
		ByteOffset: len(d.bin),
		ByteLength: len(data),
		ByteStride: stride,
	}
	d.bin = append(d.bin, data...)
	d.BufferViews = append(d.BufferViews, v)
	return len(d.BufferViews) - 1
}

// hasExtension reports whether name is declared in extensionsUsed.
func (d *Document) hasExtension(name string) bool {
	for _, e := range d.ExtensionsUsed {
		if e == name {
			return true
		}
	}
	return false
}

// declareExtension adds name to extensionsUsed and, if required is set,
// extensionsRequired. Idempotent.
func (d *Document) declareExtension(name string, required bool) {
	if !d.hasExtension(name) {
		d.ExtensionsUsed = append(d.ExtensionsUsed, name)
	}
	if required {
		for _, e := range d.ExtensionsRequired {
			if e == name {
				return
			}
		}
		d.ExtensionsRequired = append(d.ExtensionsRequired, name)
	}
}

// dropExtension removes name from both declaration lists and the extensions map.
func (d *Document) dropExtension(name string) {
	d.ExtensionsUsed = removeString(d.ExtensionsUsed, name)
	d.ExtensionsRequired = removeString(d.ExtensionsRequired, name)
	delete(d.Extensions, name)
	if len(d.Extensions) == 0 {
		d.Extensions = nil
	}
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, e := range s {
		if e != v {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
