package libgl

import (
	"fmt"
	"io/fs"
	"path"
)

type libraryEntry struct {
	program  ShaderProgram
	pipeline UnboundShaderPipeline
	bit      int
}

// ShaderLibrary loads pipelines from one file system and remembers
// which programs came from which file, so they can be reloaded after an edit.
type ShaderLibrary struct {
	fsys    fs.FS
	entries map[string][]libraryEntry
}

func NewShaderLibrary(fsys fs.FS) *ShaderLibrary {
	return &ShaderLibrary{
		fsys:    fsys,
		entries: map[string][]libraryEntry{},
	}
}

func (lib *ShaderLibrary) FS() fs.FS {
	return lib.fsys
}

// Pipeline loads like LoadPipeline and records the programs
func (lib *ShaderLibrary) Pipeline(defs map[string]string, names ...string) (UnboundShaderPipeline, error) {
	pipeline, err := LoadPipeline(lib.fsys, defs, names...)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		stage, bit, _ := StageOf(name)
		lib.entries[name] = append(lib.entries[name], libraryEntry{
			program:  pipeline.Get(stage),
			pipeline: pipeline,
			bit:      bit,
		})
	}
	return pipeline, nil
}

// Has reports whether any pipeline uses the file
func (lib *ShaderLibrary) Has(name string) bool {
	return len(lib.entries[path.Clean(name)]) > 0
}

// Reload recompiles every program loaded from name.
// A program that fails to compile keeps its previous version.
func (lib *ShaderLibrary) Reload(name string) error {
	name = path.Clean(name)
	entries := lib.entries[name]
	if len(entries) == 0 {
		return nil
	}
	source, err := fs.ReadFile(lib.fsys, name)
	if err != nil {
		return fmt.Errorf("could not read shader %q: %w", name, err)
	}
	for _, e := range entries {
		if err := e.program.Reload(string(source)); err != nil {
			return err
		}
		e.pipeline.ReAttach(e.bit)
	}
	return nil
}

// Forget drops the records of a deleted pipeline
func (lib *ShaderLibrary) Forget(pipeline UnboundShaderPipeline) {
	for name, entries := range lib.entries {
		kept := entries[:0]
		for _, e := range entries {
			if e.pipeline != pipeline {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(lib.entries, name)
		} else {
			lib.entries[name] = kept
		}
	}
}
