package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"advanced-ibl/ibl"
	"advanced-ibl/libio"
)

type convertArgs struct {
	commonArgs
	sizeImplArgs
}

func createConvertCommand() *command {

	args := convertArgs{
		commonArgs: commonArgs{
			ext: ".iblenv",
		},
		sizeImplArgs: sizeImplArgs{
			impl: implGl,
			size: size{
				unit:    unitPercent,
				percent: 25,
			},
		},
	}

	flags := flag.NewFlagSet("convert", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	registerSizeImplFlag(flags, &args.sizeImplArgs)

	return &command{
		Name: "convert",
		Help: "project radiance hdr images onto environment cube maps",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runConvert(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runConvert(args convertArgs, inputFiles []string) {
	conv, err := openConverter(args.impl)
	harderr(err)
	defer conv.Release()

	ext := cargs.suffix + cargs.ext
	processFiles("Converted", inputFiles, func(p string) error {
		return convertFile(args, p, ext, conv)
	})
}

func loadHdr(p string) (*libio.FloatImage, error) {
	inFile, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer close(inFile)

	hdr, err := libio.DecodeHdr(inFile)
	if err != nil {
		return nil, fmt.Errorf("could not load environment %q: %w", p, err)
	}
	if hdr.Width == 0 || hdr.Height == 0 {
		return nil, fmt.Errorf("image has zero size %dx%d", hdr.Width, hdr.Height)
	}
	return hdr, nil
}

func convertFile(args convertArgs, p string, ext string, conv ibl.Converter) error {
	hdr, err := loadHdr(p)
	if err != nil {
		return err
	}

	size := args.size.Calc(hdr.Width)
	if !cargs.quiet {
		fmt.Printf("Converting to %dx%d cubemap ...\n", size, size)
	}

	iblEnv, err := conv.Convert(hdr, size)
	if err != nil {
		return err
	}

	return writeOutput(outputName(p, ext), func(w io.Writer) error {
		return ibl.EncodeIblEnv(w, iblEnv, ibl.OptCompress(cargs.compress-1))
	})
}
