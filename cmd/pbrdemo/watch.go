package main

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// shaderWatcher reports changed shader files in a directory by their slash separated name.
// Only file names are sent, recompilation stays on the main thread.
type shaderWatcher struct {
	dir     string
	watcher *fsnotify.Watcher
	changes chan string
	done    chan struct{}
}

func watchShaders(dir string) (*shaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	sw := &shaderWatcher{
		dir:     dir,
		watcher: watcher,
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}
	go sw.run()
	return sw, nil
}

func (sw *shaderWatcher) run() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name, err := filepath.Rel(sw.dir, event.Name)
			if err != nil {
				continue
			}
			select {
			case sw.changes <- filepath.ToSlash(name):
			case <-sw.done:
				return
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("shader watcher: %v", err)
		}
	}
}

// Changed returns the distinct names reported since the last call without blocking
func (sw *shaderWatcher) Changed() []string {
	var names []string
	seen := map[string]bool{}
	for {
		select {
		case name := <-sw.changes:
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		default:
			return names
		}
	}
}

func (sw *shaderWatcher) Close() error {
	close(sw.done)
	return sw.watcher.Close()
}
