package ibl_test

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"testing"
	"unsafe"

	"advanced-ibl/ibl"
	"advanced-ibl/libgl"
	"advanced-ibl/libio"

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

// createContext opens a hidden 4.5 debug context. glfw panics on some platform errors.
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
	ctx, err := glfw.CreateWindow(64, 64, "ibl test", nil, nil)
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

// runOnMain executes fn on the thread owning the context, or skips the test without one
func runOnMain(t *testing.T, fn func()) {
	t.Helper()
	if glContext == nil {
		t.Skip("no opengl context")
	}
	onMain <- fn
	<-onMainDone
}

func constantEquirect(width, height int, value float32) *libio.FloatImage {
	img := libio.NewFloatImage(nil, 3, width, height)
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

func constantEnv(size, levels int, value float32) *ibl.IblEnv {
	env := ibl.NewIblEnv(nil, size, levels)
	for i := range env.Data() {
		env.Data()[i] = value
	}
	return env
}

// gradientEnv is smooth within each face and distinct between faces
func gradientEnv(size int) *ibl.IblEnv {
	env := ibl.NewIblEnv(nil, size, 1)
	for f := ibl.CubeMapPositiveX; f <= ibl.CubeMapNegativeZ; f++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				px := env.Texel(0, f, x, y)
				px[0] = float32(f+1) / 6
				px[1] = float32(x) / float32(size)
				px[2] = float32(y) / float32(size)
			}
		}
	}
	return env
}
