package ibl

import (
	"fmt"
	"io"

	"advanced-ibl/libio"

	"github.com/pierrec/lz4/v4"
)

const MagicNumberIBLENV = 0x78b85411

type IblEnvVersion uint32

const (
	// single level, no level count in the header
	IblEnvVersion1_001_000 = IblEnvVersion(1_001_000)
	IblEnvVersion1_002_000 = IblEnvVersion(1_002_000)
)

type IblEnvCompression uint32

const (
	IblEnvCompressionNone = IblEnvCompression(iota)
	IblEnvCompressionLZ4Fast
	IblEnvCompressionLZ4
)

type iblEnvHeader1_001_000 struct {
	Check       uint32
	Version     IblEnvVersion
	Compression IblEnvCompression
	Size        uint32
}

type IblEnvHeader struct {
	Check       uint32
	Version     IblEnvVersion
	Compression IblEnvCompression
	Size        uint32
	Levels      uint32
}

type EncodeContext struct {
	Compression IblEnvCompression
	Writer      io.Writer
}

type EncodeOption func(ctx *EncodeContext) error

// OptCompress enables lz4 compression. Level 0 is the fast mode, 1 to 9 are the lz4 levels.
// A negative level returns nil, which disables compression.
func OptCompress(level int) EncodeOption {
	levels := []lz4.CompressionLevel{lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9}
	if level < 0 {
		return nil
	}

	if level >= len(levels) {
		level = len(levels) - 1
	}

	return func(ctx *EncodeContext) error {
		if ctx.Compression != IblEnvCompressionNone {
			return fmt.Errorf("compression already configured")
		}
		lzw := lz4.NewWriter(ctx.Writer)
		if err := lzw.Apply(lz4.CompressionLevelOption(levels[level])); err != nil {
			return err
		}
		if level == 0 {
			ctx.Compression = IblEnvCompressionLZ4Fast
		} else {
			ctx.Compression = IblEnvCompressionLZ4
		}
		ctx.Writer = lzw
		return nil
	}
}

// EncodeIblEnv writes all levels of env as shared exponent pixels
func EncodeIblEnv(w io.Writer, env *IblEnv, options ...EncodeOption) (err error) {
	var bw *libio.BinaryWriter
	var ok bool

	if bw, ok = w.(*libio.BinaryWriter); !ok {
		bw = libio.NewBinaryWriter(w)

		defer func() {
			if bw.Err != nil {
				if err == nil {
					err = bw.Err
				} else {
					err = fmt.Errorf("%v: %w", err, bw.Err)
				}
			}
		}()
	}

	ctx := EncodeContext{
		Writer: bw.Dst,
	}

	for _, opt := range options {
		if opt != nil {
			err = opt(&ctx)
			if err != nil {
				return err
			}
		}
	}

	header := IblEnvHeader{
		Check:       MagicNumberIBLENV,
		Version:     IblEnvVersion1_002_000,
		Compression: ctx.Compression,
		Size:        uint32(env.BaseSize),
		Levels:      uint32(env.Levels),
	}
	if !bw.WriteRef(&header) {
		return fmt.Errorf("could not write ibl env header: %w", bw.Err)
	}

	if err := EncodeRgbe(ctx.Writer, env.Data()); err != nil {
		return fmt.Errorf("could not write ibl env encoded pixels: %w", err)
	}

	// flushes the compressor, the destination stays open
	if closer, ok := (ctx.Writer).(io.WriteCloser); ok && ctx.Compression != IblEnvCompressionNone {
		err = closer.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// EncodeRgbe writes rgb triplets as 4 byte shared exponent pixels
func EncodeRgbe(w io.Writer, data []float32) error {
	if len(data)%3 != 0 {
		return fmt.Errorf("source not a multiple of 3 values")
	}

	// 4096 pixels per write
	chunk := 4096 * 3
	buf := make([]byte, 0, 4096*4)
	for i := 0; i < len(data); i += chunk {
		j := min(i+chunk, len(data))
		buf = buf[:0]
		for k := i; k < j; k += 3 {
			rgbe := libio.FloatToRgbe(data[k], data[k+1], data[k+2])
			buf = append(buf, rgbe[:]...)
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// DecodeRgbe reads count shared exponent pixels into rgb triplets
func DecodeRgbe(r io.Reader, count int) ([]float32, error) {
	result := make([]float32, count*3)
	buf := make([]byte, 4096*4)
	for i := 0; i < count; {
		n := min(count-i, 4096)
		if _, err := io.ReadFull(r, buf[:n*4]); err != nil {
			return nil, fmt.Errorf("expected %d encoded pixels: %w", count, err)
		}
		for k := 0; k < n; k++ {
			var rgbe [4]byte
			copy(rgbe[:], buf[k*4:k*4+4])
			result[(i+k)*3+0], result[(i+k)*3+1], result[(i+k)*3+2] = libio.RgbeToFloat(rgbe)
		}
		i += n
	}
	return result, nil
}

// DecodeIblEnv reads environments of the current and the single level version
func DecodeIblEnv(r io.Reader) (env *IblEnv, err error) {
	var br *libio.BinaryReader
	var ok bool

	if br, ok = r.(*libio.BinaryReader); !ok {
		br = libio.NewBinaryReader(r)
	}

	legacy := iblEnvHeader1_001_000{}
	if !br.ReadRef(&legacy) {
		return nil, fmt.Errorf("expected environment header; byte 0x%08x: %w", br.LastIndex, br.Err)
	}

	header := IblEnvHeader{
		Check:       legacy.Check,
		Version:     legacy.Version,
		Compression: legacy.Compression,
		Size:        legacy.Size,
	}
	if header.Check != MagicNumberIBLENV {
		return nil, fmt.Errorf("environment magic number mismatch; byte 0x%08x: %w", br.LastIndex, libio.ErrCorruptHeader)
	}

	switch header.Version {
	case IblEnvVersion1_001_000:
		header.Levels = 1
	case IblEnvVersion1_002_000:
		if !br.ReadRef(&header.Levels) {
			return nil, fmt.Errorf("expected environment level count; byte 0x%08x: %w", br.LastIndex, br.Err)
		}
	default:
		return nil, fmt.Errorf("environment version %d unsupported; byte 0x%08x: %w", header.Version, br.LastIndex, libio.ErrCorruptHeader)
	}

	size, levels := int(header.Size), int(header.Levels)
	if err := libio.CheckDimensions(size, 6*size); err != nil {
		return nil, fmt.Errorf("environment size %d: %w", size, err)
	}
	if levels < 1 || levels > MaxLevels(size) {
		return nil, fmt.Errorf("environment size %d with %d levels is invalid: %w", size, levels, libio.ErrCorruptHeader)
	}

	pixr := br.Src
	switch header.Compression {
	case IblEnvCompressionLZ4, IblEnvCompressionLZ4Fast:
		pixr = lz4.NewReader(br.Src)
	case IblEnvCompressionNone:
	default:
		return nil, fmt.Errorf("environment compression id %d unsupported; byte 0x%08x: %w", header.Compression, br.LastIndex, libio.ErrCorruptHeader)
	}

	colors, err := DecodeRgbe(pixr, calcCubeMapPixels(size, levels))
	if err != nil {
		return nil, fmt.Errorf("could not decode environment pixels: %w", err)
	}

	return NewIblEnv(colors, size, levels), nil
}
