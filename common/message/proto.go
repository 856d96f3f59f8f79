package message

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Encoder appends protobuf wire-format fields. Message layouts are fixed by
// the callers' field numbers; there is no generated code.
type Encoder struct {
	buf []byte
}

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Uint32(num protowire.Number, v uint32) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.VarintType)
	e.buf = protowire.AppendVarint(e.buf, uint64(v))
}

func (e *Encoder) Float32(num protowire.Number, v float32) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.Fixed32Type)
	e.buf = protowire.AppendFixed32(e.buf, math.Float32bits(v))
}

// Blob writes raw bytes as a length-delimited field.
func (e *Encoder) Blob(num protowire.Number, v []byte) {
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, v)
}

// PackedFloat32s writes a packed repeated float field.
func (e *Encoder) PackedFloat32s(num protowire.Number, v []float32) {
	if len(v) == 0 {
		return
	}
	packed := make([]byte, 0, 4*len(v))
	for _, f := range v {
		packed = protowire.AppendFixed32(packed, math.Float32bits(f))
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, packed)
}

// PackedUint32s writes a packed repeated varint field.
func (e *Encoder) PackedUint32s(num protowire.Number, v []uint32) {
	if len(v) == 0 {
		return
	}
	var packed []byte
	for _, u := range v {
		packed = protowire.AppendVarint(packed, uint64(u))
	}
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, packed)
}

// Message writes a length-delimited sub message built by fill.
func (e *Encoder) Message(num protowire.Number, fill func(sub *Encoder)) {
	sub := &Encoder{}
	fill(sub)
	e.buf = protowire.AppendTag(e.buf, num, protowire.BytesType)
	e.buf = protowire.AppendBytes(e.buf, sub.buf)
}

// Field is one decoded wire field. Exactly one of Varint, Fixed32 or Bytes
// is meaningful depending on Type.
type Field struct {
	Num     protowire.Number
	Type    protowire.Type
	Varint  uint64
	Fixed32 uint32
	Bytes   []byte
}

func (f Field) Float32() float32 { return math.Float32frombits(f.Fixed32) }

// Decode walks the fields of data in order. Unknown wire types are skipped.
func Decode(data []byte, visit func(f Field) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.Varint, n = protowire.ConsumeVarint(data)
		case protowire.Fixed32Type:
			f.Fixed32, n = protowire.ConsumeFixed32(data)
		case protowire.BytesType:
			f.Bytes, n = protowire.ConsumeBytes(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
		}
		data = data[n:]
		if err := visit(f); err != nil {
			return err
		}
	}
	return nil
}

// UnpackFloat32s decodes a packed repeated float field.
func UnpackFloat32s(b []byte) ([]float32, error) {
	var res []float32
	for len(b) > 0 {
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		res = append(res, math.Float32frombits(v))
		b = b[n:]
	}
	return res, nil
}

// UnpackUint32s decodes a packed repeated varint field.
func UnpackUint32s(b []byte) ([]uint32, error) {
	var res []uint32
	for len(b) > 0 {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		res = append(res, uint32(v))
		b = b[n:]
	}
	return res, nil
}
