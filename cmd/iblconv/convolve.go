package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"advanced-ibl/ibl"
)

type irradianceArgs struct {
	commonArgs
	sizeImplArgs
	step float64
}

func createIrradianceCommand() *command {
	args := irradianceArgs{
		commonArgs: commonArgs{
			ext:      ".iblenv",
			suffix:   "_irradiance",
			compress: 2,
		},
		sizeImplArgs: sizeImplArgs{
			impl: implGl,
			size: size{
				unit:  unitPixel,
				pixel: ibl.DefaultIrradianceSize,
			},
		},
		step: ibl.DefaultIrradianceStep,
	}

	flags := flag.NewFlagSet("irradiance", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeImplFlag(flags, &args.sizeImplArgs)

	flags.Float64Var(&args.step, "step", args.step, "angular step of the hemisphere integration in radians")

	return &command{
		Name: "irradiance",
		Help: "create diffuse irradiance maps from environments",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 || args.step <= 0 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			conv, err := openIrradianceConvolver(args.impl, float32(args.step))
			harderr(err)
			defer conv.Release()

			runConvolve("Convolved", args.sizeImplArgs, gatherInputFiles(self.Flags.Args()), conv)
		},
		Flags: flags,
	}
}

type specularArgs struct {
	commonArgs
	sizeImplArgs
	samples int
	levels  int
}

func createSpecularCommand() *command {
	args := specularArgs{
		commonArgs: commonArgs{
			ext:    ".iblenv",
			suffix: "_specular",
		},
		sizeImplArgs: sizeImplArgs{
			impl: implGl,
			size: size{
				unit:  unitPixel,
				pixel: ibl.DefaultPrefilterSize,
			},
		},
		samples: ibl.DefaultSampleCount,
		levels:  ibl.DefaultPrefilterLevels,
	}

	flags := flag.NewFlagSet("specular", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeImplFlag(flags, &args.sizeImplArgs)

	flags.IntVar(&args.samples, "samples", args.samples, "number of samples used for convolution")
	flags.IntVar(&args.levels, "levels", args.levels, "the number of roughness levels")

	return &command{
		Name: "specular",
		Help: "create prefiltered specular maps from environments",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			conv, err := openSpecularConvolver(args.impl, args.samples, args.levels)
			harderr(err)
			defer conv.Release()

			runConvolve("Prefiltered", args.sizeImplArgs, gatherInputFiles(self.Flags.Args()), conv)
		},
		Flags: flags,
	}
}

func runConvolve(verb string, args sizeImplArgs, inputFiles []string, conv ibl.Convolver) {
	ext := cargs.suffix + cargs.ext
	processFiles(verb, inputFiles, func(p string) error {
		return convolveFile(args, p, ext, conv)
	})
}

func loadIblEnv(p string) (*ibl.IblEnv, error) {
	inFile, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer close(inFile)

	return ibl.DecodeIblEnv(inFile)
}

func convolveFile(args sizeImplArgs, p string, ext string, conv ibl.Convolver) error {
	src, err := loadIblEnv(p)
	if err != nil {
		return err
	}

	size := args.size.Calc(src.BaseSize)
	if !cargs.quiet {
		fmt.Printf("Convolving to %dx%d cubemap ...\n", size, size)
	}

	iblEnv, err := conv.Convolve(src, size)
	if err != nil {
		return err
	}

	return writeOutput(outputName(p, ext), func(w io.Writer) error {
		return ibl.EncodeIblEnv(w, iblEnv, ibl.OptCompress(cargs.compress-1))
	})
}
