package pcm

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrPartialSample indicates a byte slice whose length is not a whole
	// number of samples for the format.
	ErrPartialSample = errors.New("pcm: partial sample")
)

// BytesPerInt16 is the encoded size of one 16-bit sample.
const BytesPerInt16 = 2

// BytesPerFloat32 is the encoded size of one 32-bit float sample.
const BytesPerFloat32 = 4

// DecodeInt16LE decodes little-endian signed 16-bit samples.
func DecodeInt16LE(data []byte) ([]int16, error) {
	if len(data)%BytesPerInt16 != 0 {
		return nil, ErrPartialSample
	}
	out := make([]int16, len(data)/BytesPerInt16)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*BytesPerInt16:]))
	}
	return out, nil
}

// EncodeInt16LE encodes samples as little-endian signed 16-bit values,
// appending to dst and returning the extended slice.
func EncodeInt16LE(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

// DecodeFloat32LE decodes little-endian 32-bit IEEE float samples.
func DecodeFloat32LE(data []byte) ([]float32, error) {
	if len(data)%BytesPerFloat32 != 0 {
		return nil, ErrPartialSample
	}
	out := make([]float32, len(data)/BytesPerFloat32)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*BytesPerFloat32:]))
	}
	return out, nil
}

// EncodeFloat32LE encodes samples as little-endian 32-bit IEEE floats,
// appending to dst and returning the extended slice.
func EncodeFloat32LE(dst []byte, samples []float32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s))
	}
	return dst
}
