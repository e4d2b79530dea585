package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"advanced-ibl/ibl"
)

type cacheArgs struct {
	commonArgs
	impl impl
	cfg  ibl.PipelineConfig
	step float64
}

func createCacheCommand() *command {
	args := cacheArgs{
		commonArgs: commonArgs{
			compress: 2,
		},
		impl: implGl,
		cfg:  ibl.DefaultPipelineConfig(),
		step: ibl.DefaultIrradianceStep,
	}

	flags := flag.NewFlagSet("cache", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)
	flags.Var(&args.impl, "impl", "the implementation; opengl, opencl or software")
	flags.IntVar(&args.cfg.EnvironmentSize, "environment-size", args.cfg.EnvironmentSize, "face size of the environment cube map")
	flags.IntVar(&args.cfg.IrradianceSize, "irradiance-size", args.cfg.IrradianceSize, "face size of the irradiance cube map")
	flags.Float64Var(&args.step, "step", args.step, "angular step of the irradiance integration in radians")
	flags.IntVar(&args.cfg.PrefilterSize, "prefilter-size", args.cfg.PrefilterSize, "base face size of the prefiltered cube map")
	flags.IntVar(&args.cfg.PrefilterLevels, "levels", args.cfg.PrefilterLevels, "the number of roughness levels")
	flags.IntVar(&args.cfg.Samples, "samples", args.cfg.Samples, "number of samples used for convolution")
	flags.IntVar(&args.cfg.BrdfSize, "brdf-size", args.cfg.BrdfSize, "size of the brdf lookup table")

	return &command{
		Name: "cache",
		Help: "precompute every stage of an hdr image into a cache directory",
		Run: func(self *command) {
			args.cfg.IrradianceStep = float32(args.step)
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " file-glob...")
			}
			harderr(args.cfg.Validate())
			setCommonArgs(&args.commonArgs)

			backends, err := openBackends(args.impl, args.cfg)
			harderr(err)
			defer backends.Release()

			inputFiles := gatherInputFiles(self.Flags.Args())
			processFiles("Cached", inputFiles, func(p string) error {
				return cacheFile(args, p, backends, len(inputFiles) > 1)
			})
		},
		Flags: flags,
	}
}

func openBackends(selected impl, cfg ibl.PipelineConfig) (backends *ibl.Backends, err error) {
	backends = &ibl.Backends{}
	defer func() {
		if err != nil {
			backends.Release()
		}
	}()
	if backends.Converter, err = openConverter(selected); err != nil {
		return nil, err
	}
	if backends.Irradiance, err = openIrradianceConvolver(selected, cfg.IrradianceStep); err != nil {
		return nil, err
	}
	if backends.Specular, err = openSpecularConvolver(selected, cfg.Samples, cfg.PrefilterLevels); err != nil {
		return nil, err
	}
	if backends.Brdf, err = openBrdfIntegrator(selected, cfg.Samples); err != nil {
		return nil, err
	}
	return backends, nil
}

// cacheDir is the output directory itself, or a sub directory per input when there are several
func cacheDir(p string, perFile bool) string {
	if !perFile {
		return cargs.out
	}
	return filepath.Join(cargs.out, strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))+cargs.suffix)
}

func cacheFile(args cacheArgs, p string, backends *ibl.Backends, perFile bool) error {
	hdr, err := loadHdr(p)
	if err != nil {
		return err
	}

	pre, err := ibl.Precompute(hdr, args.cfg, backends)
	if err != nil {
		return err
	}

	dir := cacheDir(p, perFile)
	if !cargs.quiet {
		fmt.Printf("Writing cache %q ...\n", filepath.ToSlash(filepath.Clean(dir)))
	}
	return ibl.StoreCache(dir, pre, ibl.OptCompress(cargs.compress-1))
}
