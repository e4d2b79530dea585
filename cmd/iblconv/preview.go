package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"advanced-ibl/ibl"
	"advanced-ibl/libio"

	"github.com/chewxy/math32"
)

type previewArgs struct {
	commonArgs
	gamma    float64
	scale    float64
	width    int
	reinhard bool
}

func createPreviewCommand() *command {
	args := previewArgs{
		commonArgs: commonArgs{
			ext: ".png",
		},
		gamma: 2.2,
		scale: 1.0,
	}

	flags := flag.NewFlagSet("preview", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.Float64Var(&args.gamma, "gamma", args.gamma, "the display gamma")
	flags.Float64Var(&args.scale, "scale", args.scale, "linear scale applied before gamma")
	flags.IntVar(&args.width, "width", args.width, "resize the result to this width, 0 keeps the size")
	flags.BoolVar(&args.reinhard, "reinhard", args.reinhard, "apply reinhard tonemapping")

	return &command{
		Name: "preview",
		Help: "render .iblenv and .f32 files to png",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.gamma <= 0 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			processFiles("Previewed", gatherInputFiles(self.Flags.Args()), func(p string) error {
				return previewFile(args, p)
			})
		},
		Flags: flags,
	}
}

func previewFile(args previewArgs, p string) error {
	var images []*libio.FloatImage
	switch strings.ToLower(filepath.Ext(p)) {
	case ".iblenv":
		env, err := loadIblEnv(p)
		if err != nil {
			return err
		}
		for level := 0; level < env.Levels; level++ {
			images = append(images, faceStrip(env, level))
		}
	case ".f32":
		img, err := readFloatImage(p)
		if err != nil {
			return err
		}
		images = append(images, img.ToChannels(3, 0))
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(p))
	}

	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	for level, img := range images {
		if args.reinhard {
			reinhard(img)
		}
		name := base + cargs.suffix
		if len(images) > 1 {
			name += fmt.Sprintf("_%d", level)
		}
		name = filepath.Join(cargs.out, name+cargs.ext)
		rgba := libio.Preview(img, float32(args.gamma), float32(args.scale), args.width)
		err := writeOutput(name, func(w io.Writer) error {
			return png.Encode(w, rgba)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func readFloatImage(p string) (*libio.FloatImage, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer close(f)
	return libio.DecodeFloatImage(f)
}

// faceStrip lays the six faces of a level side by side in GL order
func faceStrip(env *ibl.IblEnv, level int) *libio.FloatImage {
	size := env.Size(level)
	width := size * 6
	pix := make([]float32, width*size*3)
	for face := ibl.CubeMapPositiveX; face <= ibl.CubeMapNegativeZ; face++ {
		src := env.Face(level, face)
		for y := 0; y < size; y++ {
			dst := (y*width + int(face)*size) * 3
			copy(pix[dst:dst+size*3], src[y*size*3:(y+1)*size*3])
		}
	}
	return libio.NewFloatImage(pix, 3, width, size)
}

func reinhard(img *libio.FloatImage) {
	for i, v := range img.Pix {
		v = math32.Max(0, v)
		img.Pix[i] = v / (v + 1)
	}
}
