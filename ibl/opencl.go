package ibl

import (
	_ "embed"
	"fmt"
	"unsafe"

	"advanced-ibl/libio"

	"github.com/Qendolin/go-opencl/cl"
	"golang.org/x/exp/slices"
)

//go:embed kernels/shared.cl
var openclSharedSrc string

//go:embed kernels/convert.cl
var openclConvertSrc string

//go:embed kernels/convolve.cl
var openclConvolveSrc string

//go:embed kernels/brdf.cl
var openclBrdfSrc string

type DeviceType = cl.DeviceType

const (
	DeviceTypeCPU         = DeviceType(cl.DeviceTypeCPU)
	DeviceTypeGPU         = DeviceType(cl.DeviceTypeGPU)
	DeviceTypeAccelerator = DeviceType(cl.DeviceTypeAccelerator)
)

type clCore struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel
}

// newClCore picks the strongest device, preferring preferredDevice, and builds the kernel from programs
func newClCore(preferredDevice DeviceType, kernel string, programs ...string) (core *clCore, err error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, err
	}

	var devices []*cl.Device
	for _, p := range platforms {
		devs, err := p.GetDevices(cl.DeviceTypeAll)
		if err != nil {
			continue
		}
		devices = append(devices, devs...)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no opencl devices found")
	}

	slices.SortFunc(devices, func(a, b *cl.Device) int {
		if a.Type() == preferredDevice && b.Type() != preferredDevice {
			return -1
		}
		if a.Type() != preferredDevice && b.Type() == preferredDevice {
			return 1
		}

		aPower := a.MaxComputeUnits() * a.MaxClockFrequency()
		bPower := b.MaxComputeUnits() * b.MaxClockFrequency()

		// strongest first
		return bPower - aPower
	})

	device := devices[0]

	core = &clCore{}
	defer func() {
		if err != nil {
			core.Release()
		}
	}()

	core.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, err
	}

	core.queue, err = core.context.CreateCommandQueue(device, 0)
	if err != nil {
		return nil, err
	}

	core.program, err = core.context.CreateProgramWithSource(programs)
	if err != nil {
		return nil, err
	}
	err = core.program.BuildProgram(nil, "")
	if err != nil {
		return nil, fmt.Errorf("could not build opencl program: %w", err)
	}

	core.kernel, err = core.program.CreateKernel(kernel)
	if err != nil {
		return nil, err
	}

	return core, nil
}

func (core *clCore) Release() {
	if core.kernel != nil {
		core.kernel.Release()
	}
	if core.program != nil {
		core.program.Release()
	}
	if core.queue != nil {
		core.queue.Release()
	}
	if core.context != nil {
		core.context.Release()
	}
}

func (core *clCore) createCubeImage(size int) (*cl.MemObject, error) {
	return core.context.CreateImage(cl.MemWriteOnly, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRGBA,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:      cl.MemObjectTypeImage2DArray,
		Width:     size,
		Height:    size,
		ArraySize: 6,
	}, size*size*6*4*4, nil)
}

// uploadCube copies level 0 of env into a read only RGBA image array
func (core *clCore) uploadCube(env *IblEnv) (*cl.MemObject, error) {
	size := env.BaseSize
	rgbaData := expandRGBA(env.Level(0))

	return core.context.CreateImage(cl.MemReadOnly|cl.MemCopyHostPtr, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRGBA,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:      cl.MemObjectTypeImage2DArray,
		Width:     size,
		Height:    size,
		ArraySize: 6,
	}, size*size*6*4*4, unsafe.Pointer(&rgbaData[0]))
}

// runCube runs the kernel over the six faces of a size x size cube and reads the result into dst as RGB
func (core *clCore) runCube(dstImage *cl.MemObject, size int, dst []float32) error {
	err := core.kernel.SetArgBuffer(1, dstImage)
	if err != nil {
		return err
	}
	err = core.kernel.SetArgInt32(2, int32(size))
	if err != nil {
		return err
	}
	err = core.kernel.SetArgFloat32(3, 1.0/float32(size))
	if err != nil {
		return err
	}

	localWorkSize := []int{min(32, size), min(32, size), 1}
	globalWorkSize := []int{roundUpKernelSize(localWorkSize[0], size), roundUpKernelSize(localWorkSize[1], size), 6}

	_, err = core.queue.EnqueueNDRangeKernel(core.kernel, []int{0, 0, 0}, globalWorkSize, localWorkSize, nil)
	if err != nil {
		return err
	}

	result := make([]float32, size*size*6*4)
	_, err = core.queue.EnqueueReadImage(dstImage, true, [3]int{}, [3]int{size, size, 6}, 0, 0, unsafe.Pointer(&result[0]), nil)
	if err != nil {
		return err
	}

	compactRGB(result, dst)
	return nil
}

func expandRGBA(rgb []float32) []float32 {
	rgba := make([]float32, len(rgb)/3*4)
	for i := 0; i < len(rgb)/3; i++ {
		rgba[i*4+0] = rgb[i*3+0]
		rgba[i*4+1] = rgb[i*3+1]
		rgba[i*4+2] = rgb[i*3+2]
		rgba[i*4+3] = 1.0
	}
	return rgba
}

func compactRGB(rgba []float32, rgb []float32) {
	for i := 0; i < len(rgba)/4; i++ {
		rgb[i*3+0] = rgba[i*4+0]
		rgb[i*3+1] = rgba[i*4+1]
		rgb[i*3+2] = rgba[i*4+2]
	}
}

func roundUpKernelSize(groupSize, globalSize int) int {
	r := globalSize % groupSize
	if r == 0 {
		return globalSize
	}
	return globalSize + groupSize - r
}

type clConverter struct {
	*clCore
}

func NewClConverter(preferredDevice DeviceType) (Converter, error) {
	core, err := newClCore(preferredDevice, "project_equirect", openclSharedSrc, openclConvertSrc)
	if err != nil {
		return nil, err
	}
	return &clConverter{clCore: core}, nil
}

func (conv *clConverter) Convert(image *libio.FloatImage, size int) (*IblEnv, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	rgba := image.ToChannels(4, 0, 0, 0, 1)
	srcImage, err := conv.context.CreateImage(cl.MemReadOnly|cl.MemCopyHostPtr, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRGBA,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:   cl.MemObjectTypeImage2D,
		Width:  rgba.Width,
		Height: rgba.Height,
	}, rgba.Bytes(), rgba.Pointer())
	if err != nil {
		return nil, err
	}
	defer srcImage.Release()

	dstImage, err := conv.createCubeImage(size)
	if err != nil {
		return nil, err
	}
	defer dstImage.Release()

	err = conv.kernel.SetArgBuffer(0, srcImage)
	if err != nil {
		return nil, err
	}

	env := NewIblEnv(nil, size, 1)
	if err := conv.runCube(dstImage, size, env.Level(0)); err != nil {
		return nil, err
	}
	return env, nil
}

type clIrradianceConvolver struct {
	*clCore
	samples *cl.MemObject
}

func NewClIrradianceConvolver(preferredDevice DeviceType, step float32) (conv Convolver, err error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, step)
	}
	core, err := newClCore(preferredDevice, "convolve_irradiance", openclSharedSrc, openclConvolveSrc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			core.Release()
		}
	}()

	samples := generateIrradianceSamples(step)
	sampleBuf, err := core.context.CreateBuffer(cl.MemReadOnly|cl.MemCopyHostPtr, len(samples)*int(unsafe.Sizeof(samples[0])), unsafe.Pointer(&samples[0]))
	if err != nil {
		return nil, err
	}

	if err = core.kernel.SetArgBuffer(4, sampleBuf); err != nil {
		sampleBuf.Release()
		return nil, err
	}
	if err = core.kernel.SetArgInt32(5, int32(len(samples))); err != nil {
		sampleBuf.Release()
		return nil, err
	}

	return &clIrradianceConvolver{
		clCore:  core,
		samples: sampleBuf,
	}, nil
}

func (conv *clIrradianceConvolver) Convolve(env *IblEnv, size int) (*IblEnv, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	srcImage, err := conv.uploadCube(env)
	if err != nil {
		return nil, err
	}
	defer srcImage.Release()

	dstImage, err := conv.createCubeImage(size)
	if err != nil {
		return nil, err
	}
	defer dstImage.Release()

	err = conv.kernel.SetArgBuffer(0, srcImage)
	if err != nil {
		return nil, err
	}

	result := NewIblEnv(nil, size, 1)
	if err := conv.runCube(dstImage, size, result.Level(0)); err != nil {
		return nil, err
	}
	return result, nil
}

func (conv *clIrradianceConvolver) Release() {
	conv.samples.Release()
	conv.clCore.Release()
}

type clSpecularConvolver struct {
	*clCore
	samples      *cl.MemObject
	samplesIndex [][2]int
	levels       int
}

func NewClSpecularConvolver(preferredDevice DeviceType, count, levels int) (conv Convolver, err error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if levels < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevels, levels)
	}
	core, err := newClCore(preferredDevice, "convolve_specular", openclSharedSrc, openclConvolveSrc)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			core.Release()
		}
	}()

	samples := generateSpecularSamples(count, levels)

	// the levels share one contiguous array, see generateSpecularSamples
	sampleCount := 0
	samplesIndex := make([][2]int, levels)
	for lvl := 0; lvl < levels; lvl++ {
		samplesIndex[lvl] = [2]int{sampleCount, len(samples[lvl])}
		sampleCount += len(samples[lvl])
	}

	sampleBuf, err := core.context.CreateBuffer(cl.MemReadOnly|cl.MemCopyHostPtr, sampleCount*int(unsafe.Sizeof(samples[0][0])), unsafe.Pointer(&samples[0][0]))
	if err != nil {
		return nil, err
	}

	if err = core.kernel.SetArgBuffer(4, sampleBuf); err != nil {
		sampleBuf.Release()
		return nil, err
	}

	return &clSpecularConvolver{
		clCore:       core,
		samples:      sampleBuf,
		samplesIndex: samplesIndex,
		levels:       levels,
	}, nil
}

func (conv *clSpecularConvolver) Convolve(env *IblEnv, size int) (*IblEnv, error) {
	if err := validateLevels(size, conv.levels); err != nil {
		return nil, err
	}

	srcImage, err := conv.uploadCube(env)
	if err != nil {
		return nil, err
	}
	defer srcImage.Release()

	err = conv.kernel.SetArgBuffer(0, srcImage)
	if err != nil {
		return nil, err
	}

	result := NewIblEnv(nil, size, conv.levels)
	for lvl := 0; lvl < conv.levels; lvl++ {
		lvlSize := result.Size(lvl)
		err = conv.kernel.SetArgInt32(5, int32(conv.samplesIndex[lvl][0]))
		if err != nil {
			return nil, err
		}
		err = conv.kernel.SetArgInt32(6, int32(conv.samplesIndex[lvl][1]))
		if err != nil {
			return nil, err
		}

		dstImage, err := conv.createCubeImage(lvlSize)
		if err != nil {
			return nil, err
		}
		err = conv.runCube(dstImage, lvlSize, result.Level(lvl))
		dstImage.Release()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (conv *clSpecularConvolver) Release() {
	conv.samples.Release()
	conv.clCore.Release()
}

type clBrdfIntegrator struct {
	*clCore
	seq   *cl.MemObject
	count int
}

func NewClBrdfIntegrator(preferredDevice DeviceType, count int) (integrator BrdfIntegrator, err error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	core, err := newClCore(preferredDevice, "integrate_brdf", openclSharedSrc, openclBrdfSrc)
	if err != nil {
		return nil, err
	}

	seq := generateHammersleySequence(count)
	seqBuf, err := core.context.CreateBuffer(cl.MemReadOnly|cl.MemCopyHostPtr, len(seq)*int(unsafe.Sizeof(seq[0])), unsafe.Pointer(&seq[0]))
	if err != nil {
		core.Release()
		return nil, err
	}

	return &clBrdfIntegrator{
		clCore: core,
		seq:    seqBuf,
		count:  count,
	}, nil
}

func (integrator *clBrdfIntegrator) Integrate(size int) (*libio.FloatImage, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	dstImage, err := integrator.context.CreateImage(cl.MemWriteOnly, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRG,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:   cl.MemObjectTypeImage2D,
		Width:  size,
		Height: size,
	}, size*size*2*4, nil)
	if err != nil {
		return nil, err
	}
	defer dstImage.Release()

	kernel := integrator.kernel
	if err = kernel.SetArgBuffer(0, dstImage); err != nil {
		return nil, err
	}
	if err = kernel.SetArgInt32(1, int32(size)); err != nil {
		return nil, err
	}
	if err = kernel.SetArgFloat32(2, 1.0/float32(size)); err != nil {
		return nil, err
	}
	if err = kernel.SetArgBuffer(3, integrator.seq); err != nil {
		return nil, err
	}
	if err = kernel.SetArgInt32(4, int32(integrator.count)); err != nil {
		return nil, err
	}

	localWorkSize := []int{min(32, size), min(32, size), 1}
	globalWorkSize := []int{roundUpKernelSize(localWorkSize[0], size), roundUpKernelSize(localWorkSize[1], size), 1}

	_, err = integrator.queue.EnqueueNDRangeKernel(kernel, []int{0, 0, 0}, globalWorkSize, localWorkSize, nil)
	if err != nil {
		return nil, err
	}

	lut := libio.NewFloatImage(nil, 2, size, size)
	_, err = integrator.queue.EnqueueReadImage(dstImage, true, [3]int{}, [3]int{size, size, 1}, 0, 0, lut.Pointer(), nil)
	if err != nil {
		return nil, err
	}
	return lut, nil
}

func (integrator *clBrdfIntegrator) Release() {
	integrator.seq.Release()
	integrator.clCore.Release()
}
