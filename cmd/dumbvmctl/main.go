// Command dumbvmctl boots the simulated physical RAM, bootstraps the
// frame allocator, builds a process address space, and drives it
// through a TLB miss, printing the diagnostics spec.md §6 describes
// along the way. It exists to give the packages under src/ a runnable
// demonstration the way a real kernel's boot sequence would.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"config"
	"diag"
	"mem"
	"ramprobe"
	"vm"
)

func main() {
	confPath := flag.String("conf", "", "path to a dumbvm boot config file (ramlo=, ramhi=, version=)")
	memmapPath := flag.String("memmap", "", "optional path to write a PNG memory-map render")
	flag.Parse()

	boot := config.Boot{LoPaddr: 0x00200000, HiPaddr: 0x00a00000, Version: "v0.1.0"}
	if *confPath != "" {
		b, err := config.Load(*confPath)
		if err != nil {
			log.Fatalf("dumbvmctl: %v", err)
		}
		boot = b
	}
	fmt.Printf("dumbvm %s booting with RAM [0x%08x, 0x%08x)\n", boot.Version, boot.LoPaddr, boot.HiPaddr)

	ramprobe.Init(boot.LoPaddr, boot.HiPaddr)
	mem.Bootstrap()

	as := vm.Create()
	if err := vm.DefineRegion(as, vm.UserBase, 0x2000, true, true, true); err != 0 {
		log.Fatalf("dumbvmctl: DefineRegion: %v", err)
	}
	if err := vm.DefineRegion(as, vm.UserBase+0x10000, 0x1000, true, true, true); err != 0 {
		log.Fatalf("dumbvmctl: DefineRegion: %v", err)
	}
	if err := vm.PrepareLoad(as); err != 0 {
		log.Fatalf("dumbvmctl: PrepareLoad: %v", err)
	}
	if _, err := vm.DefineStack(as); err != 0 {
		log.Fatalf("dumbvmctl: DefineStack: %v", err)
	}
	vm.SetCurrent(as)
	vm.Activate(as)

	if err := vm.Fault(vm.Read, vm.UserBase+0x10); err != 0 {
		log.Fatalf("dumbvmctl: Fault: %v", err)
	}
	fmt.Println("resolved a simulated TLB miss in region 1")

	blocks := mem.Snapshot()
	diag.DumpTable(os.Stdout, blocks)

	if *memmapPath != "" {
		if err := diag.RenderMemoryMap(blocks, *memmapPath); err != nil {
			log.Fatalf("dumbvmctl: RenderMemoryMap: %v", err)
		}
		fmt.Printf("wrote memory map to %s\n", *memmapPath)
	}
}
