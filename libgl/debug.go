package libgl

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type LabeledGlObject interface {
	SetDebugLabel(string)
}

func setObjectLabel(namespace, id uint32, label string) {
	if label == "" {
		return
	}
	bytes := []byte(label)
	gl.ObjectLabel(namespace, id, int32(len(bytes)), (*uint8)(unsafe.Pointer(&bytes[0])))
}

// PushDebugGroup annotates the following commands in debug output and frame captures.
// Every call must be matched by PopDebugGroup.
func PushDebugGroup(name string) {
	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 0, -1, gl.Str(name+"\x00"))
}

func PopDebugGroup() {
	gl.PopDebugGroup()
}

var errorNames = map[uint32]string{
	gl.INVALID_ENUM:                  "GL_INVALID_ENUM",
	gl.INVALID_VALUE:                 "GL_INVALID_VALUE",
	gl.INVALID_OPERATION:             "GL_INVALID_OPERATION",
	gl.STACK_OVERFLOW:                "GL_STACK_OVERFLOW",
	gl.STACK_UNDERFLOW:               "GL_STACK_UNDERFLOW",
	gl.OUT_OF_MEMORY:                 "GL_OUT_OF_MEMORY",
	gl.INVALID_FRAMEBUFFER_OPERATION: "GL_INVALID_FRAMEBUFFER_OPERATION",
	gl.CONTEXT_LOST:                  "GL_CONTEXT_LOST",
}

// ErrorName returns the enum name of a glGetError code.
func ErrorName(code uint32) string {
	if name, ok := errorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", code)
}

// CheckError drains the error flags of the context.
// It returns nil when no error was recorded, otherwise one error per code naming op.
func CheckError(op string) error {
	var errs []error
	// a lost context reports GL_CONTEXT_LOST forever
	for i := 0; i < 16; i++ {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		errs = append(errs, fmt.Errorf("%s: %s", op, ErrorName(code)))
		if code == gl.CONTEXT_LOST {
			break
		}
	}
	return errors.Join(errs...)
}

// EnableDebugOutput installs DebugCallback. The context should be created with the debug flag.
func EnableDebugOutput() {
	State.Enable(DebugOutput)
	State.Enable(DebugOutputSynchronous)
	groupStack := []string{"top"}
	gl.DebugMessageCallback(func(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
		if gltype == gl.DEBUG_TYPE_PUSH_GROUP {
			groupStack = append(groupStack, message)
			return
		} else if gltype == gl.DEBUG_TYPE_POP_GROUP {
			groupStack = groupStack[:len(groupStack)-1]
			return
		}
		DebugCallback(source, gltype, id, severity, message, groupStack)
	}, nil)
	disabledMessages := []uint32{131185}
	gl.DebugMessageControl(gl.DEBUG_SOURCE_API, gl.DEBUG_TYPE_OTHER, gl.DONT_CARE, int32(len(disabledMessages)), &disabledMessages[0], false)
	disabledMessages = []uint32{131222}
	gl.DebugMessageControl(gl.DEBUG_SOURCE_API, gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR, gl.DONT_CARE, int32(len(disabledMessages)), &disabledMessages[0], false)
}

// DebugCallback logs a debug message and panics on high severity
func DebugCallback(source, gltype, id, severity uint32, message string, groupStack []string) {
	msg := FormatDebugMessage(source, gltype, id, severity, message)
	if severity == gl.DEBUG_SEVERITY_HIGH {
		stack := strings.Join(groupStack, " > ")
		log.Panicf("%v\ndebug stack: %v", msg, stack)
	}
	log.Println(msg)
}

func FormatDebugMessage(source, gltype, id, severity uint32, message string) string {
	var (
		severityStr string
		typeStr     string
		sourceStr   string
	)
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		severityStr = "CRITICAL_ERROR"
	case gl.DEBUG_SEVERITY_MEDIUM:
		severityStr = "ERROR"
	case gl.DEBUG_SEVERITY_LOW:
		severityStr = "WARNING"
	case gl.DEBUG_SEVERITY_NOTIFICATION:
		severityStr = "INFO"
	}
	switch gltype {
	case gl.DEBUG_TYPE_ERROR:
		typeStr = "ERROR"
	case gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR:
		typeStr = "DEPRECATED_BEHAVIOR"
	case gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:
		typeStr = "UNDEFINED_BEHAVIOR"
	case gl.DEBUG_TYPE_PERFORMANCE:
		typeStr = "PERFORMANCE"
	case gl.DEBUG_TYPE_PORTABILITY:
		typeStr = "PORTABILITY"
	case gl.DEBUG_TYPE_OTHER:
		typeStr = "OTHER"
	case gl.DEBUG_TYPE_MARKER:
		typeStr = "MARKER"
	}
	switch source {
	case gl.DEBUG_SOURCE_API:
		sourceStr = "GRAPHICS_LIBRARY"
	case gl.DEBUG_SOURCE_SHADER_COMPILER:
		sourceStr = "SHADER_COMPILER"
	case gl.DEBUG_SOURCE_WINDOW_SYSTEM:
		sourceStr = "WINDOW_SYSTEM"
	case gl.DEBUG_SOURCE_THIRD_PARTY:
		sourceStr = "THIRD_PARTY"
	case gl.DEBUG_SOURCE_APPLICATION:
		sourceStr = "APPLICATION"
	case gl.DEBUG_SOURCE_OTHER:
		sourceStr = "OTHER"
	}
	return fmt.Sprintf("[%v] %v #%v from %v: %v", severityStr, typeStr, id, sourceStr, message)
}
