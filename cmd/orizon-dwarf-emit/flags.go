package main

import "flag"

func parseFlags() config {
	var cfg config

	flag.StringVar(&cfg.in, "in", "", "declaration script to read")
	flag.StringVar(&cfg.out, "out", "", "object file to write")
	flag.StringVar(&cfg.container, "container", "elf", "output container (elf|macho)")
	flag.IntVar(&cfg.ptrWidth, "ptrwidth", 8, "target pointer width in bytes (4|8)")
	flag.StringVar(&cfg.rootFile, "rootfile", "main.oriz", "source file named in the compile-unit header")
	flag.StringVar(&cfg.compDir, "compdir", ".", "DW_AT_comp_dir value")
	flag.StringVar(&cfg.producer, "producer", "orizon-debuginfo", "DW_AT_producer value")
	flag.StringVar(&cfg.minOSVersion, "min-os-version", "11.0.0", "Mach-O LC_VERSION_MIN_MACOSX version (macho only)")
	flag.BoolVar(&cfg.watch, "watch", false, "after the first build, rebuild --out whenever --in changes")
	flag.Parse()

	return cfg
}
