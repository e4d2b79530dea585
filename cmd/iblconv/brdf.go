package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"path/filepath"

	"advanced-ibl/ibl"
	"advanced-ibl/libio"
)

type brdfArgs struct {
	commonArgs
	sizeImplArgs
	samples int
	name    string
	preview bool
}

func createBrdfCommand() *command {
	args := brdfArgs{
		commonArgs: commonArgs{
			ext:      ".f32",
			compress: 1,
		},
		sizeImplArgs: sizeImplArgs{
			impl: implGl,
			size: size{
				unit:  unitPixel,
				pixel: ibl.DefaultBrdfSize,
			},
		},
		samples: ibl.DefaultSampleCount,
		name:    "brdf",
	}

	flags := flag.NewFlagSet("brdf", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeImplFlag(flags, &args.sizeImplArgs)

	flags.IntVar(&args.samples, "samples", args.samples, "number of samples per texel")
	flags.StringVar(&args.name, "name", args.name, "the result file name without extension")
	flags.BoolVar(&args.preview, "preview", args.preview, "also write a png preview")

	return &command{
		Name: "brdf",
		Help: "integrate the split sum brdf lookup table",
		Run: func(self *command) {
			if args.compress < 0 || args.compress > 10 || args.size.unit != unitPixel {
				printCommandUsage(self, "")
			}
			setCommonArgs(&args.commonArgs)

			harderr(runBrdf(args))
		},
		Flags: flags,
	}
}

func runBrdf(args brdfArgs) error {
	integrator, err := openBrdfIntegrator(args.impl, args.samples)
	if err != nil {
		return err
	}
	defer integrator.Release()

	size := args.size.Calc(0)
	if !cargs.quiet {
		fmt.Printf("Integrating %dx%d lookup table ...\n", size, size)
	}
	lut, err := integrator.Integrate(size)
	if err != nil {
		return err
	}

	compression := libio.FloatImageCompressionNone
	if cargs.compress > 0 {
		compression = libio.FloatImageCompressionFixedPoint16Lz4
	}
	name := filepath.Join(cargs.out, args.name+cargs.suffix+cargs.ext)
	err = writeOutput(name, func(w io.Writer) error {
		return libio.EncodeFloatImage(w, lut, compression)
	})
	if err != nil || !args.preview {
		return err
	}

	name = filepath.Join(cargs.out, args.name+cargs.suffix+".png")
	return writeOutput(name, func(w io.Writer) error {
		return png.Encode(w, libio.Preview(lut.ToChannels(3, 0), 1.0, 1.0, 0))
	})
}
