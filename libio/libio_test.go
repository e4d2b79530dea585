package libio

import (
	"bytes"
	"encoding/binary"
	goimg "image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomFloatImage(channels, width, height int, max float32) *FloatImage {
	rng := rand.New(rand.NewSource(0))
	img := NewFloatImage(nil, channels, width, height)
	for i := range img.Pix {
		img.Pix[i] = rng.Float32() * max
	}
	return img
}

func TestFloatImageRoundTripUncompressed(t *testing.T) {
	img := randomFloatImage(2, 16, 8, 1)
	buf := new(bytes.Buffer)
	require.NoError(t, EncodeFloatImage(buf, img, FloatImageCompressionNone))

	decoded, err := DecodeFloatImage(buf)
	require.NoError(t, err)
	assert.Equal(t, img.Width, decoded.Width)
	assert.Equal(t, img.Height, decoded.Height)
	assert.Equal(t, img.Channels, decoded.Channels)
	assert.Equal(t, img.Pix, decoded.Pix)
}

func TestFloatImageRoundTripFixedPoint(t *testing.T) {
	img := randomFloatImage(3, 32, 32, 4)
	// a constant channel must survive without a range
	for i := 0; i < img.Count(); i++ {
		img.Pix[i*3+2] = 0.5
	}
	buf := new(bytes.Buffer)
	require.NoError(t, EncodeFloatImage(buf, img, FloatImageCompressionFixedPoint16Lz4))

	decoded, err := DecodeFloatImage(buf)
	require.NoError(t, err)
	require.Len(t, decoded.Pix, len(img.Pix))
	for i := range img.Pix {
		assert.InDelta(t, img.Pix[i], decoded.Pix[i], 4.0/0xffff)
	}
}

func TestDecodeFloatImageCorrupt(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, EncodeFloatImage(buf, NewFloatImage(nil, 1, 1, 1), FloatImageCompressionNone))
	data := buf.Bytes()
	data[0] ^= 0xff

	_, err := DecodeFloatImage(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrCorruptHeader)

	_, err = DecodeFloatImage(bytes.NewReader(data[:3]))
	assert.Error(t, err)
}

func TestDecodeFloatImageHugeHeader(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, EncodeFloatImage(buf, NewFloatImage(nil, 1, 1, 1), FloatImageCompressionNone))
	valid := buf.Bytes()

	tests := map[string]func(data []byte){
		"width":  func(data []byte) { binary.LittleEndian.PutUint32(data[8:], 2_000_000_000) },
		"height": func(data []byte) { binary.LittleEndian.PutUint32(data[12:], 0xffffffff) },
		"pixels": func(data []byte) {
			binary.LittleEndian.PutUint32(data[8:], MaxDimension)
			binary.LittleEndian.PutUint32(data[12:], MaxDimension)
		},
		"zero":     func(data []byte) { binary.LittleEndian.PutUint32(data[8:], 0) },
		"channels": func(data []byte) { data[16] = 0 },
	}
	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			data := bytes.Clone(valid)
			corrupt(data)
			_, err := DecodeFloatImage(bytes.NewReader(data))
			assert.ErrorIs(t, err, ErrCorruptHeader)
		})
	}
}

func TestCheckDimensions(t *testing.T) {
	assert.NoError(t, CheckDimensions(1, 1))
	assert.NoError(t, CheckDimensions(MaxDimension, MaxPixels/MaxDimension))
	assert.ErrorIs(t, CheckDimensions(0, 1), ErrCorruptHeader)
	assert.ErrorIs(t, CheckDimensions(1, -1), ErrCorruptHeader)
	assert.ErrorIs(t, CheckDimensions(MaxDimension+1, 1), ErrCorruptHeader)
	assert.ErrorIs(t, CheckDimensions(MaxDimension, MaxDimension), ErrCorruptHeader)
}

func TestRgbeExactValues(t *testing.T) {
	for _, v := range []float32{1, 0.5, 2, 128, 0.25} {
		r, g, b := RgbeToFloat(FloatToRgbe(v, v/2, 0))
		assert.Equal(t, v, r)
		assert.Equal(t, v/2, g)
		assert.Equal(t, float32(0), b)
	}
	assert.Equal(t, [4]byte{}, FloatToRgbe(0, 0, 0))
	assert.Equal(t, [4]byte{}, FloatToRgbe(-1, -2, -3))
}

func TestHdrRoundTrip(t *testing.T) {
	for _, rle := range []bool{false, true} {
		img := randomFloatImage(3, 64, 16, 10)
		// long runs exercise the run length encoder
		for x := 0; x < 32; x++ {
			copy(img.At(x, 3), []float32{1, 1, 1})
		}
		buf := new(bytes.Buffer)
		require.NoError(t, EncodeHdr(buf, img, rle))

		decoded, err := DecodeHdr(buf)
		require.NoError(t, err)
		assert.Equal(t, img.Width, decoded.Width)
		assert.Equal(t, img.Height, decoded.Height)
		for i := 0; i < img.Count(); i++ {
			px, dx := img.Pix[i*3:i*3+3], decoded.Pix[i*3:i*3+3]
			max := px[0]
			for _, v := range px {
				if v > max {
					max = v
				}
			}
			for c := 0; c < 3; c++ {
				assert.InDelta(t, px[c], dx[c], float64(max)/128, "rle=%v pixel %d", rle, i)
			}
		}
	}
}

func TestHdrRunLengthDecode(t *testing.T) {
	header := "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 8\n"
	scanline := []byte{2, 2, 0, 8}
	// red: a run of 8
	scanline = append(scanline, 128+8, 128)
	// green: 4 literals then a run of 4
	scanline = append(scanline, 4, 0, 64, 128, 255, 128+4, 0)
	// blue: a run of 8 zeros
	scanline = append(scanline, 128+8, 0)
	// exponent: a run of 8 with 2^1
	scanline = append(scanline, 128+8, 129)

	img, err := DecodeHdr(bytes.NewReader(append([]byte(header), scanline...)))
	require.NoError(t, err)
	require.Equal(t, 8, img.Width)
	require.Equal(t, 1, img.Height)
	for x := 0; x < 8; x++ {
		assert.Equal(t, float32(1), img.At(x, 0)[0])
		assert.Equal(t, float32(0), img.At(x, 0)[2])
	}
	assert.Equal(t, float32(0.5), img.At(1, 0)[1])
	assert.Equal(t, float32(1), img.At(2, 0)[1])
	assert.Equal(t, float32(0), img.At(7, 0)[1])
}

func TestHdrFlipsRows(t *testing.T) {
	img := NewFloatImage(nil, 3, 2, 2)
	// bottom left is bright
	copy(img.At(0, 0), []float32{1, 1, 1})
	buf := new(bytes.Buffer)
	require.NoError(t, EncodeHdr(buf, img, false))

	data := buf.Bytes()
	pixels := data[bytes.Index(data, []byte("+X 2\n"))+5:]
	// the file stores the top row first
	assert.Equal(t, []byte{0, 0, 0, 0}, pixels[0:4])
	assert.Equal(t, []byte{128, 128, 128, 129}, pixels[8:12])

	decoded, err := DecodeHdr(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1}, decoded.At(0, 0))
}

func TestDecodeHdrCorrupt(t *testing.T) {
	_, err := DecodeHdr(strings.NewReader("#?NOTHDR\n\n-Y 1 +X 1\n"))
	assert.ErrorIs(t, err, ErrCorruptHeader)

	_, err = DecodeHdr(strings.NewReader("#?RADIANCE\n\n+Y 1 +X 1\n"))
	assert.ErrorIs(t, err, ErrCorruptHeader)

	_, err = DecodeHdr(strings.NewReader("#?RADIANCE\n\n-Y 2 +X 2\n\x01\x01"))
	assert.Error(t, err)
}

func TestDecodeHdrHugeHeader(t *testing.T) {
	for _, res := range []string{"-Y 2000000000 +X 2000000000", "-Y 32768 +X 32768", "-Y 1 +X 99999999999", "-Y 0 +X 4"} {
		t.Run(res, func(t *testing.T) {
			var err error
			assert.NotPanics(t, func() {
				_, err = DecodeHdr(strings.NewReader("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n" + res + "\n"))
			})
			assert.ErrorIs(t, err, ErrCorruptHeader)
		})
	}
}

func TestDecodeHdrBadRuns(t *testing.T) {
	head := "#?RADIANCE\n\n-Y 1 +X 8\n\x02\x02\x00\x08"
	tests := map[string]string{
		"run":     head + "\x8a\x01",
		"literal": head + "\x00",
		"long":    head + "\x09",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeHdr(strings.NewReader(data))
			assert.ErrorIs(t, err, ErrCorruptHeader)
		})
	}
}

func TestToChannels(t *testing.T) {
	img := NewFloatImage([]float32{1, 2, 3, 4, 5, 6}, 3, 2, 1)
	rg := img.ToChannels(2)
	assert.Equal(t, []float32{1, 2, 4, 5}, rg.Pix)
	rgba := img.ToChannels(4, 0, 0, 0, 1)
	assert.Equal(t, []float32{1, 2, 3, 1, 4, 5, 6, 1}, rgba.Pix)
	padded := rg.ToChannels(3)
	assert.Equal(t, []float32{1, 2, 0, 4, 5, 0}, padded.Pix)
}

func TestFlipVertical(t *testing.T) {
	img := NewFloatImage([]float32{1, 2, 3, 4, 5, 6}, 1, 2, 3)
	img.FlipVertical()
	assert.Equal(t, []float32{5, 6, 3, 4, 1, 2}, img.Pix)
}

func TestDecodeTexture(t *testing.T) {
	src := goimg.NewNRGBA(goimg.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})
	src.Set(0, 1, color.NRGBA{B: 255, A: 255})
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, src))

	img, format, err := DecodeTexture(buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 4, img.Channels)
	// Go's top left is the bottom left row here
	assert.Equal(t, []uint8{255, 0, 0, 255}, img.Pix[img.Index(0, 1):img.Index(0, 1)+4])
	assert.Equal(t, []uint8{0, 0, 255, 255}, img.Pix[img.Index(0, 0):img.Index(0, 0)+4])

	_, _, err = DecodeTexture(strings.NewReader("not an image"))
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	img := NewFloatImage(nil, 2, 8, 4)
	for i := range img.Pix {
		img.Pix[i] = 1
	}
	rgba := Preview(img, 2.2, 1, 4)
	assert.Equal(t, 4, rgba.Rect.Dx())
	assert.Equal(t, 2, rgba.Rect.Dy())
	px := rgba.RGBAAt(1, 1)
	assert.GreaterOrEqual(t, px.R, uint8(254))
	assert.GreaterOrEqual(t, px.G, uint8(254))
	assert.Equal(t, uint8(0), px.B)
}
