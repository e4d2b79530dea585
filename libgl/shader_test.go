package libgl

import (
	"strings"
	"testing"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShaderSource = `#version 450 core
//meta:name prefilter
#define SAMPLE_COUNT 1024
// #define USE_LOD

void main() {}
`

func TestNewShaderParsesMeta(t *testing.T) {
	prog := NewShader(testShaderSource, gl.FRAGMENT_SHADER).(*program)
	assert.Equal(t, "prefilter", prog.Name())
	assert.Equal(t, gl.FRAGMENT_SHADER, prog.Stage())
	require.Len(t, prog.definitions, 2)
	assert.Equal(t, "1024", prog.definitions["sample_count"].value)
	assert.Equal(t, "false", prog.definitions["use_lod"].value)
}

func TestExpandDefaults(t *testing.T) {
	prog := NewShader(testShaderSource, gl.FRAGMENT_SHADER).(*program)
	source := prog.expand(nil)
	assert.Contains(t, source, "#define SAMPLE_COUNT 1024")
	assert.Contains(t, source, "// #define USE_LOD")
	assert.NotContains(t, source, "$def_")
}

func TestExpandOverrides(t *testing.T) {
	prog := NewShader(testShaderSource, gl.FRAGMENT_SHADER).(*program)
	source := prog.expand(map[string]string{
		"SAMPLE_COUNT": "64",
		"USE_LOD":      "true",
		"EXTRA":        "2",
	})
	assert.Contains(t, source, "#define SAMPLE_COUNT 64")
	assert.NotContains(t, source, "#define SAMPLE_COUNT 1024")
	assert.Contains(t, source, "\n#define USE_LOD")
	assert.NotContains(t, source, "// #define USE_LOD")
	// unknown definitions are inserted right after the version directive
	assert.True(t, strings.HasPrefix(source, "#version 450 core\n#define EXTRA 2"))
}

func TestStageOf(t *testing.T) {
	stage, bit, err := StageOf("shaders/irradiance.frag")
	require.NoError(t, err)
	assert.Equal(t, gl.FRAGMENT_SHADER, stage)
	assert.Equal(t, gl.FRAGMENT_SHADER_BIT, bit)

	_, _, err = StageOf("irradiance.glsl")
	assert.Error(t, err)
}

func TestErrorName(t *testing.T) {
	assert.Equal(t, "GL_INVALID_OPERATION", ErrorName(gl.INVALID_OPERATION))
	assert.Equal(t, "0x1234", ErrorName(0x1234))
}

func TestFormatDebugMessage(t *testing.T) {
	msg := FormatDebugMessage(gl.DEBUG_SOURCE_API, gl.DEBUG_TYPE_ERROR, 7, gl.DEBUG_SEVERITY_MEDIUM, "bad")
	assert.Equal(t, "[ERROR] ERROR #7 from GRAPHICS_LIBRARY: bad", msg)
}

func TestByteSize(t *testing.T) {
	assert.Equal(t, 12, byteSize(make([]float32, 3)))
	v := uint16(0)
	assert.Equal(t, 2, byteSize(&v))
}
