package libio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/chewxy/math32"
	"github.com/pierrec/lz4/v4"
)

const MagicNumberF32 = 0x6d16837d

var ErrCorruptHeader = errors.New("corrupt header")

type FloatImageVersion uint32

const (
	F32Version1_001_000 = FloatImageVersion(1_001_000)
)

type FloatImageCompression uint32

const (
	FloatImageCompressionNone = FloatImageCompression(iota)
	FloatImageCompressionFixedPoint16Lz4
)

type FloatImageHeader struct {
	Check         uint32
	Version       FloatImageVersion
	Width, Height uint32
	Channels      uint8
	Compression   FloatImageCompression
	Unused        [14]uint8
}

func EncodeFloatImage(w io.Writer, img *FloatImage, compression FloatImageCompression) (err error) {
	var bw *BinaryWriter
	var ok bool

	if bw, ok = w.(*BinaryWriter); !ok {
		bw = NewBinaryWriter(w)

		defer func() {
			if bw.Err != nil && err == nil {
				err = bw.Err
			}
		}()
	}

	header := FloatImageHeader{
		Check:       MagicNumberF32,
		Version:     F32Version1_001_000,
		Width:       uint32(img.Width),
		Height:      uint32(img.Height),
		Channels:    uint8(img.Channels),
		Compression: compression,
	}

	if !bw.WriteRef(header) {
		return fmt.Errorf("could not write f32 header: %w", bw.Err)
	}

	switch compression {
	case FloatImageCompressionNone:
		if !bw.WriteRef(img.Pix) {
			return fmt.Errorf("could not write f32 pixels: %w", bw.Err)
		}
		return nil
	case FloatImageCompressionFixedPoint16Lz4:
		data, err := compressFixedPoint16(img.Channels, img.Count(), img.Pix)
		if err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
		lzw := lz4.NewWriter(bw.Dst)
		if err = lzw.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
			return fmt.Errorf("could not compress f32 pixels: %w", err)
		}
		if _, err = lzw.Write(data); err != nil {
			return fmt.Errorf("could not write f32 encoded pixels: %w", err)
		}
		if err = lzw.Close(); err != nil {
			return fmt.Errorf("could not write f32 encoded pixels: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown f32 compression %d", compression)
}

func compressFixedPoint16(channels int, count int, pix []float32) ([]byte, error) {
	rangeBytes := 4 * 2 * channels
	dataBytes := count * channels * 2
	buf := bytes.NewBuffer(make([]byte, 0, rangeBytes+dataBytes))
	bw := NewBinaryWriter(buf)
	for ch := 0; ch < channels; ch++ {
		compressChannelFixedPoint16(channels, count, pix, bw, ch)
		if bw.Err != nil {
			return nil, bw.Err
		}
	}
	return buf.Bytes(), nil
}

func compressChannelFixedPoint16(channels int, count int, pix []float32, bw *BinaryWriter, ch int) {
	var min, max float32 = math32.Inf(1), math32.Inf(-1)

	for i := 0; i < count; i++ {
		v := pix[i*channels+ch]
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if count == 0 {
		min, max = 0, 0
	}

	bw.WriteUInt32(math32.Float32bits(min))
	bw.WriteUInt32(math32.Float32bits(max))

	r := max - min
	for i := 0; i < count; i++ {
		if r == 0 {
			bw.WriteUInt16(0)
			continue
		}
		flt := pix[i*channels+ch]
		fix := uint16(((flt-min)/r)*0xffff + 0.5)
		bw.WriteUInt16(fix)
	}
}

func DecodeFloatImage(r io.Reader) (img *FloatImage, err error) {
	var br *BinaryReader
	var ok bool

	if br, ok = r.(*BinaryReader); !ok {
		br = NewBinaryReader(r)
	}

	header := FloatImageHeader{}
	if !br.ReadRef(&header) {
		return nil, fmt.Errorf("expected f32 header; byte 0x%08x: %w", br.LastIndex, br.Err)
	}

	if header.Check != MagicNumberF32 {
		return nil, fmt.Errorf("f32 magic number mismatch; byte 0x%08x: %w", br.LastIndex, ErrCorruptHeader)
	}

	if header.Version != F32Version1_001_000 {
		return nil, fmt.Errorf("f32 version %d unsupported; byte 0x%08x: %w", header.Version, br.LastIndex, ErrCorruptHeader)
	}

	if err := CheckDimensions(int(header.Width), int(header.Height)); err != nil {
		return nil, fmt.Errorf("f32 header; byte 0x%08x: %w", br.LastIndex, err)
	}
	if header.Channels == 0 || header.Channels > 4 {
		return nil, fmt.Errorf("f32 channel count %d unsupported; byte 0x%08x: %w", header.Channels, br.LastIndex, ErrCorruptHeader)
	}

	var data []float32
	count := int(header.Width) * int(header.Height)

	switch header.Compression {
	case FloatImageCompressionNone:
		data = make([]float32, count*int(header.Channels))
		br.ReadRef(data)
		err = br.Err
	case FloatImageCompressionFixedPoint16Lz4:
		rangeBytes := 4 * 2 * int(header.Channels)
		dataBytes := count * int(header.Channels) * 2
		buf := make([]byte, rangeBytes+dataBytes)
		lzr := lz4.NewReader(br.Src)
		_, err = io.ReadFull(lzr, buf)
		if err != nil {
			break
		}
		data, err = decompressFixedPoint16(int(header.Channels), count, buf)
	default:
		return nil, fmt.Errorf("f32 compression %d unsupported: %w", header.Compression, ErrCorruptHeader)
	}

	if err != nil {
		return nil, fmt.Errorf("could not decompress f32 pixels: %w", err)
	}

	return NewFloatImage(data, int(header.Channels), int(header.Width), int(header.Height)), nil
}

func decompressFixedPoint16(channels, count int, data []byte) ([]float32, error) {
	result := make([]float32, count*channels)
	br := NewBinaryReader(bytes.NewReader(data))
	fix := make([]uint16, count)
	for ch := 0; ch < channels; ch++ {
		decompressChannelFixedPoint16(channels, count, result, fix, br, ch)
		if br.Err != nil {
			return nil, br.Err
		}
	}
	return result, nil
}

func decompressChannelFixedPoint16(channels, count int, pix []float32, fix []uint16, br *BinaryReader, ch int) {
	var imin, imax int
	br.ReadUInt32(&imin)
	br.ReadUInt32(&imax)
	br.ReadRef(fix)

	min := math32.Float32frombits(uint32(imin))
	max := math32.Float32frombits(uint32(imax))

	r := max - min
	for i := 0; i < count; i++ {
		pix[i*channels+ch] = (float32(fix[i])/0xffff)*r + min
	}
}
