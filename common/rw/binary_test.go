package rw

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarsRoundTrip(t *testing.T) {
	w := NewBinWriter()
	w.WriteInt8(true)
	w.WriteInt8(uint8(7))
	w.WriteInt32(uint32(0xdeadbeef))
	w.WriteInt32(int32(-5))
	w.WriteFloat32(float32(1.5))
	w.WriteFloat32s([]float32{-2, 3.25})

	r := NewBinReader(w.GetWriteBytes())
	assert.True(t, r.ReadBool())
	assert.Equal(t, uint8(7), r.ReadUInt8())
	assert.Equal(t, uint32(0xdeadbeef), r.ReadUInt32())
	assert.Equal(t, uint32(0xfffffffb), r.ReadUInt32())
	assert.Equal(t, float32(1.5), r.ReadFloat32())
	fs := make([]float32, 2)
	r.ReadFloat32s(fs)
	assert.Equal(t, []float32{-2, 3.25}, fs)
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Size())
}

func TestBitsLayout(t *testing.T) {
	bits := []bool{true, false, false, true, false, false, false, false, true, true}
	w := NewBinWriter()
	w.WriteBits(bits)
	data := w.GetWriteBytes()
	// u32 count plus two bytes
	require.Len(t, data, 6)
	assert.Equal(t, []byte{10, 0, 0, 0, 0x09, 0x03}, data)

	got := make([]bool, len(bits))
	r := NewBinReader(data)
	r.ReadBits(got)
	require.NoError(t, r.Err())
	assert.Equal(t, bits, got)
}

func TestBitsLengthMismatch(t *testing.T) {
	w := NewBinWriter()
	w.WriteBits(make([]bool, 9))
	r := NewBinReader(w.GetWriteBytes())
	r.ReadBits(make([]bool, 8))
	assert.Error(t, r.Err())
}

func TestBitLenNeedsData(t *testing.T) {
	w := NewBinWriter()
	w.WriteInt32(uint32(4_000_000_000))
	w.WriteString("\xff")
	r := NewBinReader(w.GetWriteBytes())
	assert.Equal(t, 0, r.ReadBitLen())
	assert.True(t, errors.Is(r.Err(), io.ErrUnexpectedEOF), "got %v", r.Err())

	w = NewBinWriter()
	w.WriteBits(make([]bool, 12))
	r = NewBinReader(w.GetWriteBytes())
	assert.Equal(t, 12, r.ReadBitLen())
	require.NoError(t, r.Err())
}

func TestErrorIsSticky(t *testing.T) {
	r := NewBinReader([]byte{1, 2})
	assert.Equal(t, uint32(0), r.ReadUInt32())
	err := r.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	// later reads keep the first error and return zero values
	assert.Equal(t, uint8(0), r.ReadUInt8())
	r.Skip(100)
	assert.Equal(t, err, r.Err())
}

func TestSkip(t *testing.T) {
	r := NewBinReader([]byte{1, 2, 3, 4, 5})
	r.Skip(4)
	assert.Equal(t, uint8(5), r.ReadUInt8())
	require.NoError(t, r.Err())
}
