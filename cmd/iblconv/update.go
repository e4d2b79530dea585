package main

import (
	"flag"
	"io"

	"advanced-ibl/ibl"
)

type updateArgs struct {
	commonArgs
}

func createUpdateCommand() *command {
	args := updateArgs{
		commonArgs: commonArgs{
			ext:      ".iblenv",
			suffix:   "_updated",
			compress: 2,
		},
	}

	flags := flag.NewFlagSet("update", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	return &command{
		Name: "update",
		Help: "rewrite ibl environment files in the latest version",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 || args.compress < 0 || args.compress > 10 {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			ext := cargs.suffix + cargs.ext
			processFiles("Updated", gatherInputFiles(self.Flags.Args()), func(p string) error {
				return updateFile(p, ext)
			})
		},
		Flags: flags,
	}
}

func updateFile(p, ext string) error {
	src, err := loadIblEnv(p)
	if err != nil {
		return err
	}

	return writeOutput(outputName(p, ext), func(w io.Writer) error {
		return ibl.EncodeIblEnv(w, src, ibl.OptCompress(cargs.compress-1))
	})
}
