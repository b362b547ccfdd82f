package mem

// DefaultChunkSize provides a default for Cells.ChunkSize.
const DefaultChunkSize = 256

// Cells implements a contiguous integer memory that grows on demand.
// Cells past the highest store read as 0.
type Cells struct {
	// ChunkSize rounds up every growth of the underlying buffer.
	ChunkSize int

	// Limit specifies a cell count, past which any store or load should
	// result in an error; 0 means unlimited.
	Limit int

	cells []int
}

// Size returns the number of cells allocated so far.
func (m *Cells) Size() int { return len(m.cells) }

// Load returns a single value from the given address.
func (m *Cells) Load(addr int) (int, error) {
	if err := checkRange(m.Limit, addr, addr+1, "load"); err != nil {
		return 0, err
	}
	if addr < len(m.cells) {
		return m.cells[addr], nil
	}
	return 0, nil
}

// LoadInto reads len(buf) integers from memory starting at addr, zeroing any
// part of buf beyond the allocated cells.
func (m *Cells) LoadInto(addr int, buf []int) error {
	if len(buf) == 0 {
		return nil
	}
	if err := checkRange(m.Limit, addr, addr+len(buf), "load"); err != nil {
		return err
	}
	n := 0
	if addr < len(m.cells) {
		n = copy(buf, m.cells[addr:])
	}
	for i := range buf[n:] {
		buf[n+i] = 0
	}
	return nil
}

// Stor stores any values at addr, growing memory if necessary.
// Returns an error if Limit would be exceeded; no partial store is done.
func (m *Cells) Stor(addr int, values ...int) error {
	if len(values) == 0 {
		return nil
	}
	end := addr + len(values)
	if err := checkRange(m.Limit, addr, end, "stor"); err != nil {
		return err
	}
	m.grow(end)
	copy(m.cells[addr:], values)
	return nil
}

// Move copies n cells from src to dst; the ranges may overlap.
func (m *Cells) Move(dst, src, n int) error {
	if n <= 0 {
		return nil
	}
	if err := checkRange(m.Limit, src, src+n, "move"); err != nil {
		return err
	}
	if err := checkRange(m.Limit, dst, dst+n, "move"); err != nil {
		return err
	}
	m.grow(dst + n)
	m.grow(src + n)
	copy(m.cells[dst:dst+n], m.cells[src:src+n])
	return nil
}

func (m *Cells) grow(size int) {
	if size <= len(m.cells) {
		return
	}
	chunkSize := m.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	size = (size + chunkSize - 1) / chunkSize * chunkSize
	if m.Limit != 0 && size > m.Limit {
		size = m.Limit
	}
	m.cells = append(m.cells, make([]int, size-len(m.cells))...)
}
