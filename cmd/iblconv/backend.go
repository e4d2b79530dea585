package main

import (
	"fmt"
	"unsafe"

	"advanced-ibl/ibl"
	"advanced-ibl/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var glWindow *glfw.Window

// initGl creates a hidden window once so the opengl back ends have a context
func initGl() (err error) {
	if glWindow != nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("could not create opengl context: %v", r)
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
	win, err := glfw.CreateWindow(16, 16, "iblconv", nil, nil)
	if err != nil {
		glfw.Terminate()
		return err
	}
	win.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		return glfw.GetProcAddress(name)
	})
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return err
	}
	libgl.Init()
	glWindow = win
	return nil
}

func releaseGl() {
	if glWindow == nil {
		return
	}
	glWindow.Destroy()
	glfw.Terminate()
	glWindow = nil
}

type releaser interface {
	Release()
}

type constructors[T releaser] struct {
	gl func() (T, error)
	cl func() (T, error)
	sw func() (T, error)
}

// openBackend creates the selected implementation.
// opengl and opencl fall back to software when they cannot be created.
func openBackend[T releaser](selected impl, ctors constructors[T]) (T, error) {
	var result T
	var err error

	switch selected {
	case implGl:
		if err = initGl(); err == nil {
			result, err = ctors.gl()
		}
		if err == nil {
			info("Using OpenGL implementation")
			return result, nil
		}
	case implCl:
		result, err = ctors.cl()
		if err == nil {
			info("Using OpenCL implementation")
			return result, nil
		}
	}
	if err != nil {
		softerr(err)
		info("Falling back to software implementation")
	}

	result, err = ctors.sw()
	if err != nil {
		var zero T
		return zero, err
	}
	info("Using software implementation")
	return result, nil
}

func info(msg string) {
	if !cargs.quiet {
		fmt.Println(msg)
	}
}

func openConverter(selected impl) (ibl.Converter, error) {
	return openBackend(selected, constructors[ibl.Converter]{
		gl: func() (ibl.Converter, error) { return ibl.NewGlConverter(nil) },
		cl: func() (ibl.Converter, error) { return ibl.NewClConverter(ibl.DeviceTypeGPU) },
		sw: func() (ibl.Converter, error) { return ibl.NewSwConverter(), nil },
	})
}

func openIrradianceConvolver(selected impl, step float32) (ibl.Convolver, error) {
	return openBackend(selected, constructors[ibl.Convolver]{
		gl: func() (ibl.Convolver, error) { return ibl.NewGlIrradianceConvolver(nil, step) },
		cl: func() (ibl.Convolver, error) { return ibl.NewClIrradianceConvolver(ibl.DeviceTypeGPU, step) },
		sw: func() (ibl.Convolver, error) { return ibl.NewSwIrradianceConvolver(step) },
	})
}

func openSpecularConvolver(selected impl, samples, levels int) (ibl.Convolver, error) {
	return openBackend(selected, constructors[ibl.Convolver]{
		gl: func() (ibl.Convolver, error) { return ibl.NewGlSpecularConvolver(nil, samples, levels) },
		cl: func() (ibl.Convolver, error) { return ibl.NewClSpecularConvolver(ibl.DeviceTypeGPU, samples, levels) },
		sw: func() (ibl.Convolver, error) { return ibl.NewSwSpecularConvolver(samples, levels) },
	})
}

func openBrdfIntegrator(selected impl, samples int) (ibl.BrdfIntegrator, error) {
	return openBackend(selected, constructors[ibl.BrdfIntegrator]{
		gl: func() (ibl.BrdfIntegrator, error) { return ibl.NewGlBrdfIntegrator(nil, samples) },
		cl: func() (ibl.BrdfIntegrator, error) { return ibl.NewClBrdfIntegrator(ibl.DeviceTypeGPU, samples) },
		sw: func() (ibl.BrdfIntegrator, error) { return ibl.NewSwBrdfIntegrator(samples) },
	})
}
