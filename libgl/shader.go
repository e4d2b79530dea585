package libgl

import (
	"fmt"
	"io/fs"
	"log"
	"path"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

var shaderMetaPattern = regexp.MustCompile(`(?m)^\/\/meta:(\w+)(.+)$`)
var shaderDefinePattern = regexp.MustCompile(`(?m)^\s*(\/\/)?\s*#define ([\w\d]+) ?(.*)$`)
var shaderVersionPattern = regexp.MustCompile(`(?m)^\s*#version.+$`)

type shaderPipeline struct {
	glId      uint32
	vertStage ShaderProgram
	geomStage ShaderProgram
	fragStage ShaderProgram
	compStage ShaderProgram
}

type UnboundShaderPipeline interface {
	LabeledGlObject
	Bind() BoundShaderPipeline
	Attach(program ShaderProgram, stages int)
	ReAttach(stages int)
	Get(stage int) ShaderProgram
	VertexStage() ShaderProgram
	FragmentStage() ShaderProgram
	Id() uint32
	// Delete deletes the pipeline and every attached program
	Delete()
}

type BoundShaderPipeline interface {
	UnboundShaderPipeline
}

func NewPipeline() UnboundShaderPipeline {
	var id uint32
	gl.CreateProgramPipelines(1, &id)
	return &shaderPipeline{
		glId: id,
	}
}

func (shaderPipeline *shaderPipeline) SetDebugLabel(label string) {
	setObjectLabel(gl.PROGRAM_PIPELINE, shaderPipeline.glId, label)
}

func (shaderPipeline *shaderPipeline) Attach(program ShaderProgram, stages int) {
	gl.UseProgramStages(shaderPipeline.glId, uint32(stages), program.Id())
	shaderPipeline.setStagesProgram(program, stages)
}

// ReAttach updates the given stages after their programs have been reloaded
func (shaderPipeline *shaderPipeline) ReAttach(stages int) {
	if stages&gl.VERTEX_SHADER_BIT != 0 && shaderPipeline.vertStage != nil {
		gl.UseProgramStages(shaderPipeline.glId, gl.VERTEX_SHADER_BIT, shaderPipeline.vertStage.Id())
	}
	if stages&gl.GEOMETRY_SHADER_BIT != 0 && shaderPipeline.geomStage != nil {
		gl.UseProgramStages(shaderPipeline.glId, gl.GEOMETRY_SHADER_BIT, shaderPipeline.geomStage.Id())
	}
	if stages&gl.FRAGMENT_SHADER_BIT != 0 && shaderPipeline.fragStage != nil {
		gl.UseProgramStages(shaderPipeline.glId, gl.FRAGMENT_SHADER_BIT, shaderPipeline.fragStage.Id())
	}
	if stages&gl.COMPUTE_SHADER_BIT != 0 && shaderPipeline.compStage != nil {
		gl.UseProgramStages(shaderPipeline.glId, gl.COMPUTE_SHADER_BIT, shaderPipeline.compStage.Id())
	}
}

func (shaderPipeline *shaderPipeline) setStagesProgram(program ShaderProgram, stages int) {
	if stages&gl.VERTEX_SHADER_BIT != 0 {
		shaderPipeline.vertStage = program
	}
	if stages&gl.GEOMETRY_SHADER_BIT != 0 {
		shaderPipeline.geomStage = program
	}
	if stages&gl.FRAGMENT_SHADER_BIT != 0 {
		shaderPipeline.fragStage = program
	}
	if stages&gl.COMPUTE_SHADER_BIT != 0 {
		shaderPipeline.compStage = program
	}
}

func (shaderPipeline *shaderPipeline) Get(stage int) ShaderProgram {
	switch stage {
	case gl.VERTEX_SHADER:
		return shaderPipeline.vertStage
	case gl.GEOMETRY_SHADER:
		return shaderPipeline.geomStage
	case gl.FRAGMENT_SHADER:
		return shaderPipeline.fragStage
	case gl.COMPUTE_SHADER:
		return shaderPipeline.compStage
	}
	log.Panicf("%d is not a valid shader stage\n", stage)
	return nil
}

func (shaderPipeline *shaderPipeline) VertexStage() ShaderProgram {
	return shaderPipeline.vertStage
}

func (shaderPipeline *shaderPipeline) FragmentStage() ShaderProgram {
	return shaderPipeline.fragStage
}

func (shaderPipeline *shaderPipeline) Bind() BoundShaderPipeline {
	State.BindProgramPipeline(shaderPipeline.glId)
	return BoundShaderPipeline(shaderPipeline)
}

func (shaderPipeline *shaderPipeline) Id() uint32 {
	return shaderPipeline.glId
}

func (shaderPipeline *shaderPipeline) Delete() {
	deleted := map[ShaderProgram]bool{}
	for _, prog := range []ShaderProgram{shaderPipeline.vertStage, shaderPipeline.geomStage, shaderPipeline.fragStage, shaderPipeline.compStage} {
		if prog != nil && !deleted[prog] {
			prog.Delete()
			deleted[prog] = true
		}
	}
	State.Forget(gl.PROGRAM_PIPELINE, shaderPipeline.glId)
	gl.DeleteProgramPipelines(1, &shaderPipeline.glId)
	shaderPipeline.glId = 0
}

type glslDef struct {
	marker  string
	name    string
	value   string
	boolean bool
}

type program struct {
	uniformLocations map[string]int32
	definitions      map[string]glslDef
	versionEnd       int
	glId             uint32
	name             string
	sourceTemplate   string
	sourceLive       string
	liveDefs         map[string]string
	stage            int
}

type ShaderProgram interface {
	Id() uint32
	Name() string
	Stage() int
	Compile() error
	CompileWith(defs map[string]string) error
	// Reload swaps in new source. On error the previous program stays active.
	Reload(source string) error
	Delete()
	GetUniformLocation(name string) int32
	SetUniform(name string, value any)
	SetUniformIndexed(name string, index int, value any)
	Source() string
}

// NewShader parses a separable program source.
// A `//meta:name <name>` line names the program in diagnostics.
// #define lines become template parameters for CompileWith.
func NewShader(source string, stage int) ShaderProgram {
	prog := &program{stage: stage}
	prog.parse(source)
	return prog
}

func (prog *program) parse(source string) {
	name := "untitled"

	metaMatches := shaderMetaPattern.FindAllStringSubmatch(source, -1)
	for _, match := range metaMatches {
		key, value := match[1], strings.TrimSpace(match[2])
		if strings.EqualFold(key, "name") {
			name = value
		}
	}

	defineMatches := shaderDefinePattern.FindAllStringSubmatch(source, -1)
	definitions := make(map[string]glslDef, len(defineMatches))
	defineMarkers := make(map[string]string, len(defineMatches))
	for i, match := range defineMatches {
		value := strings.TrimSpace(match[3])
		marker := fmt.Sprintf("$def_%v$", i)
		boolean := value == ""
		if boolean && match[1] == "//" {
			value = "false"
		}
		definitions[strings.ToLower(match[2])] = glslDef{
			marker:  marker,
			name:    match[2],
			value:   value,
			boolean: boolean,
		}
		defineMarkers[match[0]] = marker
	}
	source = shaderDefinePattern.ReplaceAllStringFunc(source, func(s string) string {
		return defineMarkers[s]
	})

	versionEnd := 0
	if loc := shaderVersionPattern.FindStringIndex(source); loc != nil {
		versionEnd = loc[1]
	}

	prog.name = name
	prog.definitions = definitions
	prog.sourceTemplate = source
	prog.versionEnd = versionEnd
}

func (prog *program) Name() string {
	return prog.name
}

func (prog *program) Stage() int {
	return prog.stage
}

func (prog *program) Compile() error {
	return prog.CompileWith(nil)
}

func (prog *program) expand(defs map[string]string) string {
	source := prog.sourceTemplate

	for n, v := range defs {
		k := strings.ToLower(n)
		if def, ok := prog.definitions[k]; ok {
			sub := fmt.Sprintf("#define %v %v", def.name, v)
			if def.boolean {
				sub = fmt.Sprintf("#define %v", def.name)
			}
			if def.boolean && v == "false" {
				source = strings.Replace(source, def.marker, "// "+sub, 1)
			} else {
				source = strings.Replace(source, def.marker, sub, 1)
			}
		} else {
			source = source[:prog.versionEnd] + fmt.Sprintf("\n#define %v %v", n, v) + source[prog.versionEnd:]
		}
	}

	for _, def := range prog.definitions {
		sub := fmt.Sprintf("#define %v %v", def.name, def.value)
		if def.boolean {
			sub = fmt.Sprintf("#define %v", def.name)
		}
		if def.boolean && def.value == "false" {
			source = strings.Replace(source, def.marker, "// "+sub, 1)
		} else {
			source = strings.Replace(source, def.marker, sub, 1)
		}
	}
	return source
}

func (prog *program) CompileWith(defs map[string]string) error {
	source := prog.expand(defs)

	cStrs, free := gl.Strs(source + "\x00")
	id := gl.CreateShaderProgramv(uint32(prog.stage), 1, cStrs)
	free()
	if id == 0 {
		return fmt.Errorf("failed to create %v shader program", prog.name)
	}

	var ok int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		infoLog := readProgramInfoLog(id)
		gl.DeleteProgram(id)
		return fmt.Errorf("failed to link %v shader, log: %v", prog.name, infoLog)
	}

	if prog.glId != 0 {
		gl.DeleteProgram(prog.glId)
	}
	prog.glId = id
	prog.sourceLive = source
	prog.liveDefs = defs
	prog.uniformLocations = map[string]int32{}

	return nil
}

func (prog *program) Reload(source string) error {
	next := &program{stage: prog.stage}
	next.parse(source)
	if err := next.CompileWith(prog.liveDefs); err != nil {
		return err
	}
	if prog.glId != 0 {
		gl.DeleteProgram(prog.glId)
	}
	*prog = *next
	return nil
}

func (prog *program) Source() string {
	return prog.sourceLive
}

func (prog *program) Id() uint32 {
	return prog.glId
}

func (prog *program) Delete() {
	gl.DeleteProgram(prog.glId)
	prog.glId = 0
}

func readProgramInfoLog(id uint32) string {
	var logLength int32
	gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}

	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (prog *program) GetUniformLocation(name string) int32 {
	if location, ok := prog.uniformLocations[name]; ok {
		return location
	}

	location := gl.GetUniformLocation(prog.glId, gl.Str(name+"\x00"))
	prog.uniformLocations[name] = location

	if location == -1 {
		log.Printf("%v shader: could not get location of %q\n", prog.name, name)
	}

	return location
}

func (prog *program) SetUniformIndexed(name string, index int, value any) {
	location := prog.GetUniformLocation(name)
	if location == -1 {
		return
	}
	setProgramUniformAny(prog.glId, location+int32(index), value)
}

func (prog *program) SetUniform(name string, value any) {
	location := prog.GetUniformLocation(name)
	if location == -1 {
		return
	}
	setProgramUniformAny(prog.glId, location, value)
}

func setProgramUniformAny(prog uint32, location int32, value any) {
	for refVal := reflect.ValueOf(value); refVal.Kind() == reflect.Ptr; refVal = reflect.ValueOf(value) {
		value = refVal.Elem().Interface()
	}

	switch v := value.(type) {
	case float64:
		gl.ProgramUniform1d(prog, location, v)
	case float32:
		gl.ProgramUniform1f(prog, location, v)
	case int:
		gl.ProgramUniform1i(prog, location, int32(v))
	case int32:
		gl.ProgramUniform1i(prog, location, v)
	case uint:
		gl.ProgramUniform1ui(prog, location, uint32(v))
	case uint32:
		gl.ProgramUniform1ui(prog, location, v)
	case bool:
		if v {
			gl.ProgramUniform1i(prog, location, 1)
		} else {
			gl.ProgramUniform1i(prog, location, 0)
		}
	case mgl32.Vec2:
		gl.ProgramUniform2f(prog, location, v.X(), v.Y())
	case mgl64.Vec2:
		gl.ProgramUniform2d(prog, location, v.X(), v.Y())
	case mgl32.Vec3:
		gl.ProgramUniform3f(prog, location, v.X(), v.Y(), v.Z())
	case mgl64.Vec3:
		gl.ProgramUniform3d(prog, location, v.X(), v.Y(), v.Z())
	case mgl32.Vec4:
		gl.ProgramUniform4f(prog, location, v.X(), v.Y(), v.Z(), v.W())
	case mgl32.Mat3:
		gl.ProgramUniformMatrix3fv(prog, location, 1, false, &v[0])
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(prog, location, 1, false, &v[0])
	case mgl64.Mat4:
		gl.ProgramUniformMatrix4dv(prog, location, 1, false, &v[0])
	default:
		reflectType := reflect.TypeOf(value)
		dataType := reflectType.String()
		log.Panicf("Unsupported type %v", dataType)
	}
}

// StageOf maps a shader file extension to its stage, e.g. GL_FRAGMENT_SHADER for ".frag"
func StageOf(name string) (stage int, bit int, err error) {
	switch path.Ext(name) {
	case ".vert":
		return gl.VERTEX_SHADER, gl.VERTEX_SHADER_BIT, nil
	case ".geom":
		return gl.GEOMETRY_SHADER, gl.GEOMETRY_SHADER_BIT, nil
	case ".frag":
		return gl.FRAGMENT_SHADER, gl.FRAGMENT_SHADER_BIT, nil
	case ".comp":
		return gl.COMPUTE_SHADER, gl.COMPUTE_SHADER_BIT, nil
	}
	return 0, 0, fmt.Errorf("unknown shader stage of %q", name)
}

// LoadShader reads and compiles a single program from fsys.
func LoadShader(fsys fs.FS, name string, defs map[string]string) (ShaderProgram, error) {
	stage, _, err := StageOf(name)
	if err != nil {
		return nil, err
	}
	source, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("could not read shader %q: %w", name, err)
	}
	prog := NewShader(string(source), stage)
	if err := prog.CompileWith(defs); err != nil {
		return nil, err
	}
	return prog, nil
}

// LoadPipeline compiles the named program files and attaches each to the stage given by its extension.
func LoadPipeline(fsys fs.FS, defs map[string]string, names ...string) (UnboundShaderPipeline, error) {
	var programs []ShaderProgram
	for _, name := range names {
		prog, err := LoadShader(fsys, name, defs)
		if err != nil {
			for _, p := range programs {
				p.Delete()
			}
			return nil, err
		}
		programs = append(programs, prog)
	}
	pipeline := NewPipeline()
	for i, prog := range programs {
		_, bit, _ := StageOf(names[i])
		pipeline.Attach(prog, bit)
	}
	pipeline.SetDebugLabel(strings.Join(names, "+"))
	return pipeline, nil
}
