package main

import (
	"embed"
	"flag"
	"log"
	"runtime"

	"advanced-ibl/config"
	"advanced-ibl/libutil"
)

//go:embed shaders/*
var embeddedShaders embed.FS

var guiShaders = libutil.MustSub(embeddedShaders, "shaders")

type arguments struct {
	Config                     string
	Shaders                    string
	Cache                      string
	EnableCompatibilityProfile bool
}

func main() {
	var args arguments
	flag.StringVar(&args.Config, "config", args.Config, "the scene configuration, defaults are used when empty")
	flag.StringVar(&args.Shaders, "shaders", args.Shaders, "a directory overriding the embedded shaders, changes are reloaded")
	flag.StringVar(&args.Cache, "cache", args.Cache, "a directory of precomputed environment maps, overrides the configuration")
	flag.BoolVar(&args.EnableCompatibilityProfile, "enable-compatibility-profile", args.EnableCompatibilityProfile, "request a compatibility instead of a core context")
	flag.Parse()

	runtime.LockOSThread()

	cfg := config.Default()
	if args.Config != "" {
		var err error
		cfg, err = config.Load(args.Config)
		check(err)
	}
	if args.Cache != "" {
		cfg.Cache = args.Cache
	}
	check(cfg.Validate())

	app, err := NewApp(cfg, args)
	check(err)
	defer app.Release()

	app.Run()
}

func check(err error) {
	if err != nil {
		log.Panic(err)
	}
}
