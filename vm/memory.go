package vm

import "github.com/pkg/errors"

// MemSize is the VM's flat linear address space: 1 MiB (§3).
const MemSize = 1 << 20

var errSegv = errors.New("segmentation fault")

// Memory is the VM's byte-addressable address space. Loads/stores
// wider than a byte are little-endian (§3).
type Memory [MemSize]byte

func (m *Memory) bounds(addr uint32, width int) error {
	if addr >= MemSize || uint64(addr)+uint64(width) > MemSize {
		return errors.Wrapf(errSegv, "address 0x%X width %d", addr, width)
	}
	return nil
}

func (m *Memory) ReadByte(addr uint32) (byte, error) {
	if err := m.bounds(addr, 1); err != nil {
		return 0, err
	}
	return m[addr], nil
}

func (m *Memory) WriteByte(addr uint32, v byte) error {
	if err := m.bounds(addr, 1); err != nil {
		return err
	}
	m[addr] = v
	return nil
}

func (m *Memory) Read32(addr uint32) (uint32, error) {
	if err := m.bounds(addr, 4); err != nil {
		return 0, err
	}
	return uint32(m[addr]) | uint32(m[addr+1])<<8 | uint32(m[addr+2])<<16 | uint32(m[addr+3])<<24, nil
}

func (m *Memory) Write32(addr uint32, v uint32) error {
	if err := m.bounds(addr, 4); err != nil {
		return err
	}
	m[addr] = byte(v)
	m[addr+1] = byte(v >> 8)
	m[addr+2] = byte(v >> 16)
	m[addr+3] = byte(v >> 24)
	return nil
}

// ReadBytes returns a copy of n bytes starting at addr, used by the
// base+offset PRINT/PRINTLN/RUN syscalls to read a raw UTF-8 payload
// (§4.8).
func (m *Memory) ReadBytes(addr uint32, n uint32) ([]byte, error) {
	if err := m.bounds(addr, int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m[int(addr):int(addr)+int(n)])
	return out, nil
}

// LoadImage copies a program image into memory starting at loadAddr,
// per §3 ("program image is loaded starting at address 1").
func (m *Memory) LoadImage(loadAddr uint32, image []byte) error {
	if err := m.bounds(loadAddr, len(image)); err != nil {
		return err
	}
	copy(m[loadAddr:], image)
	return nil
}
