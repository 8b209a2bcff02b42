// Package debug implements an incremental DWARF v4 debug-information
// emitter for a self-hosted compiler's linker backend. Declarations are
// committed and freed one at a time as the front end produces them; the
// emitter mutates the .debug_info, .debug_line, .debug_abbrev and
// .debug_aranges sections of a live ELF64 or Mach-O 64-bit object file in
// place, growing and relocating sections through the ObjectFile
// collaborator (objectfile.go) as needed rather than serializing a whole
// compilation unit's debug info in one pass. The .debug_str contents are
// built in memory and handed to the caller by Emitter.StrTabBytes; the
// emitter does not write that section itself.
//
// NewEmitter opens a session against an already-open ObjectFile and a
// Target describing the ABI; InitDecl reserves stable atom ids for a
// declaration before its layout is known, CommitDecl (re)writes a
// declaration's DIE and, for functions, its line-program prologue,
// FreeDecl reclaims a removed declaration's space, CommitErrorSet
// materializes the whole-program error-set enumeration once every
// translation unit has reported its errors, and Finalize writes
// .debug_aranges once the text section's final address range is known.
package debug
