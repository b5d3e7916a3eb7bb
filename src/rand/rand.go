// Package rand is the random-byte device consumed by stack-base
// randomization (spec.md §4.2 define_stack). The real kernel opens
// "random:" through its VFS and issues a blocking VOP_READ; this
// hosted port opens /dev/urandom directly through
// golang.org/x/sys/unix rather than os.Open, since the device really
// is accessed through raw syscalls in the system this core is part
// of, and the handle is a process-wide singleton opened once, exactly
// as spec.md §9 describes.
package rand

import (
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	mu   sync.Mutex
	fd   int = -1
	opened bool
)

func ensureOpen() error {
	mu.Lock()
	defer mu.Unlock()
	if opened {
		return nil
	}
	f, err := unix.Open("/dev/urandom", unix.O_RDONLY, 0)
	if err != nil {
		return err
	}
	fd = f
	opened = true
	return nil
}

// Read4 reads exactly 4 bytes from the random device and returns them
// as an unsigned 32-bit integer in host order, matching the source's
// convention of reading straight into a u32 with no endian
// conversion (spec.md §9).
func Read4() (uint32, error) {
	if err := ensureOpen(); err != nil {
		return 0, err
	}
	var buf [4]byte
	got := 0
	for got < 4 {
		mu.Lock()
		n, err := unix.Read(fd, buf[got:])
		mu.Unlock()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		got += n
	}
	return binary.NativeEndian.Uint32(buf[:]), nil
}

// Close releases the device handle. Present for test teardown; the
// real kernel never closes its random device.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if opened {
		unix.Close(fd)
		opened = false
		fd = -1
	}
}
