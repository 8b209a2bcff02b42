package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchAndRebuild watches cfg.in's directory (not the file itself — editors
// commonly replace a file via rename-then-create rather than an in-place
// write, which a watch on the bare path would miss) and reruns runOnce every
// time cfg.in is written, created, or renamed into place.
func watchAndRebuild(cfg config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(cfg.in)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(cfg.in)

	fmt.Fprintf(os.Stderr, "orizon-dwarf-emit: watching %s for changes\n", cfg.in)

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != target {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if err := runOnce(cfg); err != nil {
				fmt.Fprintln(os.Stderr, "orizon-dwarf-emit: rebuild failed:", err)

				continue
			}

			fmt.Fprintf(os.Stderr, "orizon-dwarf-emit: rebuilt %s\n", cfg.out)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			fmt.Fprintln(os.Stderr, "orizon-dwarf-emit: watch error:", err)
		}
	}
}
