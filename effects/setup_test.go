package effects_test

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"testing"
	"unsafe"

	"advanced-ibl/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var onMain chan func()
var onMainDone chan struct{}

var glContext *glfw.Window

func TestMain(m *testing.M) {
	runtime.LockOSThread()

	if err := createContext(); err != nil {
		log.Printf("opengl tests will be skipped: %v", err)
	}

	onMain = make(chan func())
	onMainDone = make(chan struct{})

	go func() {
		os.Exit(m.Run())
	}()

	for fn := range onMain {
		fn()
		onMainDone <- struct{}{}
	}
}

func createContext() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	if err := glfw.Init(); err != nil {
		return err
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	ctx, err := glfw.CreateWindow(64, 64, "effects test", nil, nil)
	if err != nil {
		glfw.Terminate()
		return err
	}
	ctx.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		return glfw.GetProcAddress(name)
	})
	if err != nil {
		ctx.Destroy()
		glfw.Terminate()
		return err
	}

	libgl.Init()
	libgl.EnableDebugOutput()
	glContext = ctx
	return nil
}

func runOnMain(t *testing.T, fn func()) {
	t.Helper()
	if glContext == nil {
		t.Skip("no opengl context")
	}
	onMain <- fn
	<-onMainDone
}
