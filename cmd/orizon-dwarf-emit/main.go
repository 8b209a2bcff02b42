// Command orizon-dwarf-emit drives the internal/debug Emitter from a small
// textual declaration script, producing an ELF64 or Mach-O 64-bit object
// carrying only debug-information sections. It exists to exercise the
// incremental commit/free/commit-error-set/finalize sequence end to end
// without a full front end attached.
package main

import (
	"fmt"
	"os"

	"github.com/orizon-lang/orizon-debuginfo/internal/debug"
	"github.com/orizon-lang/orizon-debuginfo/internal/position"
)

func fatal(a ...any) {
	fmt.Fprintln(os.Stderr, a...)
	os.Exit(1)
}

type config struct {
	in           string
	out          string
	container    string
	ptrWidth     int
	rootFile     string
	compDir      string
	producer     string
	minOSVersion string
	watch        bool
}

func main() {
	cfg := parseFlags()

	if cfg.in == "" {
		fatal("--in is required")
	}

	if cfg.out == "" {
		fatal("--out is required")
	}

	if err := runOnce(cfg); err != nil {
		fatal("failed: ", err)
	}

	if cfg.watch {
		if err := watchAndRebuild(cfg); err != nil {
			fatal("watch failed: ", err)
		}
	}
}

// runOnce parses --in once and rebuilds --out from scratch against it. The
// Emitter is session-scoped to a single object file, so a rebuild always
// starts a fresh ObjectFile rather than reopening the previous one.
func runOnce(cfg config) error {
	f, err := os.Open(cfg.in)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.in, err)
	}
	defer f.Close()

	diag := position.NewDiagnostic()
	prog := parseScript(f, cfg.in, diag)

	if diag.HasErrors() {
		for _, e := range diag.Errors {
			fmt.Fprintln(os.Stderr, e.String())
		}

		return fmt.Errorf("%d error(s) in %s", diag.ErrorCount(), cfg.in)
	}

	target, containerKind, containerCfg, err := resolveContainer(cfg)
	if err != nil {
		return err
	}

	obj, err := debug.OpenObjectFile(containerKind, cfg.out, containerCfg)
	if err != nil {
		return fmt.Errorf("opening %s: %w", cfg.out, err)
	}

	emitter, err := debug.NewEmitter(obj, target, cfg.rootFile,
		debug.WithCompDir(cfg.compDir),
		debug.WithProducer(cfg.producer),
	)
	if err != nil {
		obj.Close()

		return fmt.Errorf("starting emitter session: %w", err)
	}

	if err := replay(emitter, prog); err != nil {
		obj.Close()

		return err
	}

	if err := obj.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", cfg.out, err)
	}

	return nil
}

// replay issues every op, in script order, then the terminal
// commit-error-set and finalize steps, matching the one-session-per-object
// lifecycle NewEmitter/CommitErrorSet/Finalize were designed around.
func replay(e *debug.Emitter, prog *program) error {
	for _, op := range prog.ops {
		switch {
		case op.commit != nil:
			if err := e.CommitDecl(*op.commit); err != nil {
				return fmt.Errorf("committing %s: %w", op.commit.Name, err)
			}
		case op.free != nil:
			if err := e.FreeDecl(op.free.kind, op.free.name); err != nil {
				return fmt.Errorf("freeing %s: %w", op.free.name, err)
			}
		}
	}

	if len(prog.errorSet.Members) > 0 {
		if err := e.CommitErrorSet(prog.errorSet); err != nil {
			return fmt.Errorf("committing error set: %w", err)
		}
	}

	if prog.textRange.set {
		if err := e.Finalize(prog.textRange.lowPC, prog.textRange.size); err != nil {
			return fmt.Errorf("finalizing aranges: %w", err)
		}
	}

	return nil
}

func resolveContainer(cfg config) (debug.Target, debug.Container, debug.ContainerConfig, error) {
	if cfg.ptrWidth != 4 && cfg.ptrWidth != 8 {
		return debug.Target{}, 0, debug.ContainerConfig{}, fmt.Errorf("unsupported --ptrwidth %d (must be 4 or 8)", cfg.ptrWidth)
	}

	switch cfg.container {
	case "elf":
		return debug.Target{PointerWidth: cfg.ptrWidth, Container: debug.ContainerELF},
			debug.ContainerELF,
			debug.ContainerConfig{ELFMachine: debug.ELFMachineX86_64},
			nil
	case "macho":
		return debug.Target{PointerWidth: cfg.ptrWidth, Container: debug.ContainerMachO},
			debug.ContainerMachO,
			debug.ContainerConfig{
				MachOCPUType:    debug.MachOCPUTypeX86_64,
				MachOCPUSubtype: debug.MachOCPUSubtypeX86_64,
				MachOMinOS:      cfg.minOSVersion,
			},
			nil
	default:
		return debug.Target{}, 0, debug.ContainerConfig{}, fmt.Errorf("unsupported --container %q (want elf|macho)", cfg.container)
	}
}
