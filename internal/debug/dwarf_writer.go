package debug

import (
	"fmt"

	orizonerrors "github.com/orizon-lang/orizon-debuginfo/internal/errors"
)

// Exported machine/CPU-type constants callers pass into ContainerConfig,
// re-exposing the container-specific values elf_object.go/macho_object.go
// otherwise keep private.
const (
	ELFMachineX86_64 = elfEMX86_64

	MachOCPUTypeX86_64    = machCPUTypeX86_64
	MachOCPUSubtypeX86_64 = machCPUSubtypeAll
)

// ContainerConfig carries the fields specific to whichever container format
// OpenObjectFile is asked to build. Exactly two container kinds are
// supported, ELF and Mach-O, so this is a closed pair of cases, not a
// plugin registry.
type ContainerConfig struct {
	// ELF.
	ELFMachine uint16

	// Mach-O.
	MachOCPUType    uint32
	MachOCPUSubtype uint32
	MachOMinOS      string // parsed via Masterminds/semver, e.g. "11.0.0".
}

// OpenObjectFile creates the ObjectFile collaborator for container at path,
// pre-registered with the four sections NewEmitter expects to already
// exist, plus .debug_str. This is the one place a caller (the CLI, or a compiler driver)
// picks a concrete container implementation instead of depending on
// ELF64Object/MachO64Object directly.
func OpenObjectFile(container Container, path string, cfg ContainerConfig) (ObjectFile, error) {
	switch container {
	case ContainerELF:
		return NewELF64Object(path, cfg.ELFMachine)
	case ContainerMachO:
		return NewMachO64Object(path, cfg.MachOCPUType, cfg.MachOCPUSubtype, cfg.MachOMinOS)
	default:
		return nil, orizonerrors.DebugInfoIO("open_object_file", fmt.Errorf("unsupported container %d", container))
	}
}
