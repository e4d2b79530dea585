package ibl

var (
	EquirectUV                 = equirectUV
	SampleBilinear             = sampleBilinear
	SampleCube                 = sampleCube
	IntegrateBrdf              = integrateBrdf
	GenerateHammersleySequence = generateHammersleySequence
	IrradianceGrid             = irradianceGrid
	CalcCubeMapPixels          = calcCubeMapPixels
)

// SpecularSampleRanges returns the offset and count of each level in the shared sample buffer
func SpecularSampleRanges(conv Convolver) [][2]int {
	return conv.(*clSpecularConvolver).samplesIndex
}
