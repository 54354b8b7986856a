package metadata

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type UniformType uint8

const (
	UniformFloat UniformType = iota
	UniformInt
	UniformVec2
	UniformVec4
	UniformMat4
)

func (u UniformType) String() string {
	switch u {
	case UniformFloat:
		return "float"
	case UniformInt:
		return "int"
	case UniformVec2:
		return "vec2"
	case UniformVec4:
		return "vec4"
	case UniformMat4:
		return "mat4"
	default:
		return fmt.Sprintf("uniform(%d)", uint8(u))
	}
}

// Size returns the std140 byte size of the type.
func (u UniformType) Size() uint32 {
	switch u {
	case UniformVec2:
		return 8
	case UniformVec4:
		return 16
	case UniformMat4:
		return 64
	default:
		return 4
	}
}

// Align returns the std140 base alignment of the type.
func (u UniformType) Align() uint32 {
	switch u {
	case UniformVec2:
		return 8
	case UniformVec4, UniformMat4:
		return 16
	default:
		return 4
	}
}

// Floats returns the number of 32-bit components of the type.
func (u UniformType) Floats() int {
	return int(u.Size() / 4)
}

type ConstantField struct {
	Name string
	Type UniformType
}

type PlacedConstant struct {
	ConstantField
	Offset uint32
}

/**
 * @brief The std140 placement of every uniform of one shader's constant block.
 */
type ConstantLayout struct {
	Fields []PlacedConstant
	// Size is the block size rounded up to 16 bytes.
	Size uint32
}

// Std140Layout places fields in order following std140 alignment rules.
func Std140Layout(fields []ConstantField) ConstantLayout {
	layout := ConstantLayout{Fields: make([]PlacedConstant, 0, len(fields))}
	var offset uint32
	for _, f := range fields {
		offset = alignUp(offset, f.Type.Align())
		layout.Fields = append(layout.Fields, PlacedConstant{ConstantField: f, Offset: offset})
		offset += f.Type.Size()
	}
	layout.Size = alignUp(offset, 16)
	return layout
}

func (l ConstantLayout) Field(name string) (PlacedConstant, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return PlacedConstant{}, false
}

// Float32s decodes the value of f from a packed block.
func (f PlacedConstant) Float32s(block []byte) []float32 {
	n := f.Type.Floats()
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(block[f.Offset+uint32(i)*4:]))
	}
	return out
}

// Int32 decodes an int uniform from a packed block.
func (f PlacedConstant) Int32(block []byte) int32 {
	return int32(binary.LittleEndian.Uint32(block[f.Offset:]))
}

/**
 * @brief Packs values into a constant block, in layout order, checking each type.
 */
type ConstantWriter struct {
	layout ConstantLayout
	buf    []byte
	next   int
	err    error
}

func NewConstantWriter(shader ShaderMode) *ConstantWriter {
	cfg, err := LookupShader(shader)
	if err != nil {
		return &ConstantWriter{err: err}
	}
	return &ConstantWriter{
		layout: cfg.Constants,
		buf:    make([]byte, cfg.Constants.Size),
	}
}

func (w *ConstantWriter) field(t UniformType) (PlacedConstant, bool) {
	if w.err != nil {
		return PlacedConstant{}, false
	}
	if w.next >= len(w.layout.Fields) {
		w.err = fmt.Errorf("%w: too many values (%d fields)", ErrConstantBlockShape, len(w.layout.Fields))
		return PlacedConstant{}, false
	}
	f := w.layout.Fields[w.next]
	if f.Type != t {
		w.err = fmt.Errorf("%w: %s is %s, got %s", ErrConstantBlockShape, f.Name, f.Type, t)
		return PlacedConstant{}, false
	}
	w.next++
	return f, true
}

func (w *ConstantWriter) putFloats(offset uint32, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(w.buf[offset+uint32(i)*4:], math.Float32bits(v))
	}
}

func (w *ConstantWriter) Mat4(m mgl32.Mat4) *ConstantWriter {
	if f, ok := w.field(UniformMat4); ok {
		w.putFloats(f.Offset, m[:])
	}
	return w
}

func (w *ConstantWriter) Vec4(v mgl32.Vec4) *ConstantWriter {
	if f, ok := w.field(UniformVec4); ok {
		w.putFloats(f.Offset, v[:])
	}
	return w
}

func (w *ConstantWriter) Vec2(v mgl32.Vec2) *ConstantWriter {
	if f, ok := w.field(UniformVec2); ok {
		w.putFloats(f.Offset, v[:])
	}
	return w
}

func (w *ConstantWriter) Float(v float32) *ConstantWriter {
	if f, ok := w.field(UniformFloat); ok {
		w.putFloats(f.Offset, []float32{v})
	}
	return w
}

func (w *ConstantWriter) Int(v int32) *ConstantWriter {
	if f, ok := w.field(UniformInt); ok {
		binary.LittleEndian.PutUint32(w.buf[f.Offset:], uint32(v))
	}
	return w
}

func (w *ConstantWriter) Bool(v bool) *ConstantWriter {
	if v {
		return w.Int(1)
	}
	return w.Int(0)
}

// Bytes returns the packed block. Every field of the layout must have been written.
func (w *ConstantWriter) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.next != len(w.layout.Fields) {
		return nil, fmt.Errorf("%w: %d of %d fields written", ErrConstantBlockShape, w.next, len(w.layout.Fields))
	}
	return w.buf, nil
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
