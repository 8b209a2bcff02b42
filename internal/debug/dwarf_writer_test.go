package debug

import (
	"path/filepath"
	"testing"
)

func TestOpenObjectFileELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.o")

	obj, err := OpenObjectFile(ContainerELF, path, ContainerConfig{ELFMachine: ELFMachineX86_64})
	if err != nil {
		t.Fatalf("OpenObjectFile(ELF): %v", err)
	}
	defer obj.Close()

	if _, ok := obj.(*ELF64Object); !ok {
		t.Errorf("OpenObjectFile(ContainerELF) returned %T, want *ELF64Object", obj)
	}
}

func TestOpenObjectFileMachO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dylib")

	cfg := ContainerConfig{
		MachOCPUType:    MachOCPUTypeX86_64,
		MachOCPUSubtype: MachOCPUSubtypeX86_64,
		MachOMinOS:      "11.0.0",
	}

	obj, err := OpenObjectFile(ContainerMachO, path, cfg)
	if err != nil {
		t.Fatalf("OpenObjectFile(MachO): %v", err)
	}
	defer obj.Close()

	if _, ok := obj.(*MachO64Object); !ok {
		t.Errorf("OpenObjectFile(ContainerMachO) returned %T, want *MachO64Object", obj)
	}
}

func TestOpenObjectFileUnknownContainerErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")

	_, err := OpenObjectFile(Container(99), path, ContainerConfig{})
	if err == nil {
		t.Fatal("OpenObjectFile accepted an unknown container kind")
	}
}
