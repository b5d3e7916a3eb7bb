// Package config loads the boot parameters a real kernel would get
// from its bootloader: the simulated RAM range package ramprobe
// bootstraps from, and a kernel build-version string. It is read from
// a small key=value file so the bounds can be adjusted without
// recompiling, and it can be watched for changes with fsnotify so a
// long-running demo picks up edits live.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/mod/semver"

	"mem"
)

// Boot holds the parsed boot-time configuration (SPEC_FULL.md §4.5).
type Boot struct {
	LoPaddr mem.Paddr
	HiPaddr mem.Paddr
	Version string
}

// Load parses a key=value boot file with ramlo, ramhi and version
// keys. Hex or decimal values are both accepted for ramlo/ramhi.
func Load(path string) (Boot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Boot{}, err
	}
	defer f.Close()

	var b Boot
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return Boot{}, fmt.Errorf("config: malformed line %q", line)
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		switch k {
		case "ramlo":
			n, err := strconv.ParseUint(v, 0, 32)
			if err != nil {
				return Boot{}, fmt.Errorf("config: ramlo: %w", err)
			}
			b.LoPaddr = mem.Paddr(n)
		case "ramhi":
			n, err := strconv.ParseUint(v, 0, 32)
			if err != nil {
				return Boot{}, fmt.Errorf("config: ramhi: %w", err)
			}
			b.HiPaddr = mem.Paddr(n)
		case "version":
			if !semver.IsValid(v) {
				return Boot{}, fmt.Errorf("config: version %q is not valid semver", v)
			}
			b.Version = v
		default:
			return Boot{}, fmt.Errorf("config: unknown key %q", k)
		}
	}
	if err := sc.Err(); err != nil {
		return Boot{}, err
	}
	if b.LoPaddr == 0 || b.HiPaddr == 0 {
		return Boot{}, fmt.Errorf("config: ramlo and ramhi are required")
	}
	return b, nil
}

// Watch re-parses path on every write and calls onChange with the
// newly parsed Boot. A parse failure is logged and otherwise ignored,
// so an in-progress edit never tears down the last-known-good
// configuration.
func Watch(path string, onChange func(Boot)) (close func() error, err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				b, err := Load(path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "config: reload %s: %v\n", path, err)
					continue
				}
				onChange(b)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w.Close, nil
}
