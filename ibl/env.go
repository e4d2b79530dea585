package ibl

import (
	"log"
	"math/bits"
)

type CubeMapFace int

const (
	CubeMapPositiveX = CubeMapFace(iota)
	CubeMapNegativeX
	CubeMapPositiveY
	CubeMapNegativeY
	CubeMapPositiveZ
	CubeMapNegativeZ
)

var cubeMapFaceNames = [6]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}

func (face CubeMapFace) String() string {
	if face < 0 || face > 5 {
		return "invalid"
	}
	return cubeMapFaceNames[face]
}

// IblEnv is a cube map with a mip chain in main memory.
// Each level holds the six faces in GL order, each face holds RGB texels row by row.
// Row 0 of a face is at t = 0 in GL cube map coordinates.
type IblEnv struct {
	BaseSize int
	Levels   int
	data     []float32
}

// NewIblEnv wraps data, which must hold calcCubeMapPixels(baseSize, levels)*3 values.
// A nil data slice is allocated.
func NewIblEnv(data []float32, baseSize, levels int) *IblEnv {
	n := calcCubeMapPixels(baseSize, levels) * 3
	if data == nil {
		data = make([]float32, n)
	}
	if len(data) != n {
		log.Panicf("ibl env of size %d with %d levels needs %d values, got %d", baseSize, levels, n, len(data))
	}
	return &IblEnv{
		BaseSize: baseSize,
		Levels:   levels,
		data:     data,
	}
}

// MaxLevels returns the length of a full mip chain for size
func MaxLevels(size int) int {
	return bits.Len(uint(size))
}

func levelSize(base, level int) int {
	size := base >> level
	if size < 1 {
		return 1
	}
	return size
}

// calcCubeMapPixels returns the number of texels of all faces in levels mip levels
func calcCubeMapPixels(size, levels int) int {
	total := 0
	for l := 0; l < levels; l++ {
		s := levelSize(size, l)
		total += 6 * s * s
	}
	return total
}

// calcCubeMapOffset returns the texel range [start, end) of a level
func calcCubeMapOffset(size, level int) (start, end int) {
	start = calcCubeMapPixels(size, level)
	s := levelSize(size, level)
	return start, start + 6*s*s
}

func (env *IblEnv) Size(level int) int {
	return levelSize(env.BaseSize, level)
}

// Data returns all levels concatenated
func (env *IblEnv) Data() []float32 {
	return env.data
}

func (env *IblEnv) Level(level int) []float32 {
	start, end := calcCubeMapOffset(env.BaseSize, level)
	return env.data[start*3 : end*3 : end*3]
}

func (env *IblEnv) Face(level int, face CubeMapFace) []float32 {
	lvl := env.Level(level)
	size := env.Size(level)
	n := size * size * 3
	return lvl[int(face)*n : int(face+1)*n : int(face+1)*n]
}

// Texel returns the RGB value at x, y of a face. The slice aliases the data.
func (env *IblEnv) Texel(level int, face CubeMapFace, x, y int) []float32 {
	i := (x + y*env.Size(level)) * 3
	return env.Face(level, face)[i : i+3 : i+3]
}

// Truncate drops all levels past levels
func (env *IblEnv) Truncate(levels int) *IblEnv {
	if levels >= env.Levels {
		return env
	}
	n := calcCubeMapPixels(env.BaseSize, levels) * 3
	return NewIblEnv(env.data[:n:n], env.BaseSize, levels)
}
