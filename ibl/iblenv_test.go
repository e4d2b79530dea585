package ibl_test

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"advanced-ibl/ibl"
	"advanced-ibl/libio"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomEnv(size, levels int) *ibl.IblEnv {
	rng := rand.New(rand.NewSource(0))
	env := ibl.NewIblEnv(nil, size, levels)
	for i := range env.Data() {
		env.Data()[i] = rng.Float32() * 100
	}
	return env
}

// assertRgbeEqual allows the precision loss of the shared exponent
func assertRgbeEqual(t *testing.T, expected, actual []float32) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := 0; i < len(expected); i += 3 {
		peak := math32.Max(expected[i], math32.Max(expected[i+1], expected[i+2]))
		for c := 0; c < 3; c++ {
			assert.InDelta(t, expected[i+c], actual[i+c], float64(peak/100))
		}
	}
}

func TestIblEnvLayout(t *testing.T) {
	env := ibl.NewIblEnv(nil, 8, 4)
	assert.Len(t, env.Data(), ibl.CalcCubeMapPixels(8, 4)*3)
	assert.Equal(t, (6*64+6*16+6*4+6)*3, len(env.Data()))
	assert.Len(t, env.Level(1), 6*16*3)
	assert.Len(t, env.Face(2, ibl.CubeMapNegativeY), 4*3)

	env.Texel(1, ibl.CubeMapPositiveZ, 3, 2)[1] = 42
	face := env.Face(1, ibl.CubeMapPositiveZ)
	assert.Equal(t, float32(42), face[(2*4+3)*3+1])

	assert.Same(t, env, env.Truncate(4))
	truncated := env.Truncate(1)
	assert.Equal(t, 1, truncated.Levels)
	assert.Len(t, truncated.Data(), 6*64*3)
}

func TestMaxLevels(t *testing.T) {
	assert.Equal(t, 1, ibl.MaxLevels(1))
	assert.Equal(t, 8, ibl.MaxLevels(128))
	assert.Equal(t, 10, ibl.MaxLevels(512))
}

func TestIblEnvRoundTrip(t *testing.T) {
	tests := []struct {
		name        string
		opt         ibl.EncodeOption
		compression ibl.IblEnvCompression
	}{
		{"uncompressed", nil, ibl.IblEnvCompressionNone},
		{"fast", ibl.OptCompress(0), ibl.IblEnvCompressionLZ4Fast},
		{"level9", ibl.OptCompress(9), ibl.IblEnvCompressionLZ4},
	}

	env := randomEnv(16, 5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			require.NoError(t, ibl.EncodeIblEnv(buf, env, tt.opt))

			header := ibl.IblEnvHeader{}
			require.NoError(t, binary.Read(bytes.NewReader(buf.Bytes()), binary.LittleEndian, &header))
			assert.Equal(t, tt.compression, header.Compression)
			assert.Equal(t, ibl.IblEnvVersion1_002_000, header.Version)
			assert.Equal(t, uint32(5), header.Levels)

			decoded, err := ibl.DecodeIblEnv(buf)
			require.NoError(t, err)
			assert.Equal(t, env.BaseSize, decoded.BaseSize)
			assert.Equal(t, env.Levels, decoded.Levels)
			assertRgbeEqual(t, env.Data(), decoded.Data())
		})
	}
}

func TestDecodeIblEnvSingleLevelVersion(t *testing.T) {
	env := randomEnv(4, 1)
	buf := new(bytes.Buffer)
	bw := libio.NewBinaryWriter(buf)
	bw.WriteUInt32(ibl.MagicNumberIBLENV)
	bw.WriteUInt32(uint32(ibl.IblEnvVersion1_001_000))
	bw.WriteUInt32(uint32(ibl.IblEnvCompressionNone))
	bw.WriteUInt32(4)
	require.NoError(t, bw.Err)
	require.NoError(t, ibl.EncodeRgbe(buf, env.Data()))

	decoded, err := ibl.DecodeIblEnv(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.Levels)
	assertRgbeEqual(t, env.Data(), decoded.Data())
}

func TestDecodeIblEnvCorrupt(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, ibl.EncodeIblEnv(buf, randomEnv(4, 1)))
	valid := buf.Bytes()

	corrupt := func(offset int, value uint32) []byte {
		data := bytes.Clone(valid)
		binary.LittleEndian.PutUint32(data[offset:], value)
		return data
	}

	tests := map[string][]byte{
		"magic":       corrupt(0, 0xdeadbeef),
		"version":     corrupt(4, 999),
		"compression": corrupt(8, 7),
		"size":        corrupt(12, 0),
		"levels":      corrupt(16, 4),
		"huge size":   corrupt(12, 2_000_000_000),
		"max size":    corrupt(12, 1<<15),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ibl.DecodeIblEnv(bytes.NewReader(data))
			assert.ErrorIs(t, err, libio.ErrCorruptHeader)
		})
	}

	_, err := ibl.DecodeIblEnv(bytes.NewReader(valid[:len(valid)-4]))
	assert.Error(t, err)
}

func TestOptCompressNegativeDisables(t *testing.T) {
	assert.Nil(t, ibl.OptCompress(-1))
}

func TestEncodeRgbeRejectsPartialTriplets(t *testing.T) {
	assert.Error(t, ibl.EncodeRgbe(new(bytes.Buffer), []float32{1, 2}))
}
