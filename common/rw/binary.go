package rw

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ReaderWriter is a little-endian binary stream. Reads past the end of the
// buffer do not panic: the first failure is kept and returned by Err, and
// every later read yields zero values.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf []byte
	rw      bytes.Buffer
	err     error
}

func NewBinWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
}

func NewBinReader(data []byte) *ReaderWriter {
	d := &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
	d.rw.Write(data)
	return d
}

// Err returns the first read error, if any.
func (w *ReaderWriter) Err() error {
	return w.err
}

func (w *ReaderWriter) read(n int) []byte {
	buf := w.dataBuf[:n]
	if w.err != nil {
		clear(buf)
		return buf
	}
	if _, err := io.ReadFull(&w.rw, buf); err != nil {
		w.err = fmt.Errorf("read %d bytes: %w", n, io.ErrUnexpectedEOF)
		clear(buf)
	}
	return buf
}

func (w *ReaderWriter) ReadUInt8() uint8 {
	return w.read(1)[0]
}

func (w *ReaderWriter) ReadBool() bool {
	return w.ReadUInt8() != 0
}

func (w *ReaderWriter) ReadUInt32() uint32 {
	return w.order.Uint32(w.read(4))
}

func (w *ReaderWriter) ReadFloat32() float32 {
	return math.Float32frombits(w.ReadUInt32())
}

func (w *ReaderWriter) ReadFloat32s(value []float32) {
	for i := range value {
		value[i] = w.ReadFloat32()
	}
}

// ReadBitLen reads the length prefix of a bit vector written by WriteBits
// and checks that all of its packed bytes are still buffered, so callers
// can size their slice from untrusted input.
func (w *ReaderWriter) ReadBitLen() int {
	n := int(w.ReadUInt32())
	if w.err != nil {
		return 0
	}
	if need := (n + 7) / 8; need > w.rw.Len() {
		w.err = fmt.Errorf("bit vector of %d bits needs %d bytes, %d left: %w", n, need, w.rw.Len(), io.ErrUnexpectedEOF)
		return 0
	}
	return n
}

// ReadBitValues reads the packed bits that follow ReadBitLen.
func (w *ReaderWriter) ReadBitValues(value []bool) {
	var cur uint8
	for i := range value {
		if i%8 == 0 {
			cur = w.ReadUInt8()
		}
		value[i] = cur&(1<<(i%8)) != 0
	}
}

// ReadBits reads a bit vector written by WriteBits. The stored length must
// match len(value).
func (w *ReaderWriter) ReadBits(value []bool) {
	n := w.ReadBitLen()
	if w.err != nil {
		return
	}
	if n != len(value) {
		w.err = fmt.Errorf("bit vector length %d, expected %d", n, len(value))
		return
	}
	w.ReadBitValues(value)
}

func (w *ReaderWriter) WriteInt8(v interface{}) {
	switch value := v.(type) {
	case int8:
		w.rw.WriteByte(byte(value))
	case uint8:
		w.rw.WriteByte(value)
	case bool:
		if value {
			w.rw.WriteByte(1)
		} else {
			w.rw.WriteByte(0)
		}
	default:
		panic(fmt.Sprintf("rw: WriteInt8 does not support %T", v))
	}
}

func (w *ReaderWriter) WriteInt32(v interface{}) {
	switch value := v.(type) {
	case int32:
		w.order.PutUint32(w.dataBuf, uint32(value))
	case int:
		w.order.PutUint32(w.dataBuf, uint32(value))
	case uint32:
		w.order.PutUint32(w.dataBuf, value)
	default:
		panic(fmt.Sprintf("rw: WriteInt32 does not support %T", v))
	}
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteFloat32(v interface{}) {
	switch value := v.(type) {
	case float32:
		w.order.PutUint32(w.dataBuf, math.Float32bits(value))
	case float64:
		w.order.PutUint32(w.dataBuf, math.Float32bits(float32(value)))
	default:
		panic(fmt.Sprintf("rw: WriteFloat32 does not support %T", v))
	}
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteFloat32s(v interface{}) {
	switch value := v.(type) {
	case []float32:
		for _, tmp := range value {
			w.WriteFloat32(tmp)
		}
	case []float64:
		for _, tmp := range value {
			w.WriteFloat32(float32(tmp))
		}
	default:
		panic(fmt.Sprintf("rw: WriteFloat32s does not support %T", v))
	}
}

// WriteBits writes a u32 bit count followed by ceil(n/8) bytes, bit i
// stored at byte i/8, bit position i%8.
func (w *ReaderWriter) WriteBits(value []bool) {
	w.WriteInt32(uint32(len(value)))
	var cur uint8
	for i, bit := range value {
		if bit {
			cur |= 1 << (i % 8)
		}
		if i%8 == 7 {
			w.rw.WriteByte(cur)
			cur = 0
		}
	}
	if len(value)%8 != 0 {
		w.rw.WriteByte(cur)
	}
}

func (w *ReaderWriter) WriteString(s string) {
	w.rw.WriteString(s)
}

func (w *ReaderWriter) Skip(size int) {
	if w.err == nil && w.rw.Len() < size {
		w.err = fmt.Errorf("skip %d bytes: %w", size, io.ErrUnexpectedEOF)
	}
	w.rw.Next(size)
}

func (w *ReaderWriter) GetWriteBytes() (res []byte) {
	res = w.rw.Bytes()
	return res
}

func (w *ReaderWriter) Size() int {
	return w.rw.Len()
}
