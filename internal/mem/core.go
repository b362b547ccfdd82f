package mem

import "fmt"

// LimitError indicates that a memory operation, like load or store, exceeded a limit.
type LimitError struct {
	Addr int
	Op   string
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("memory limit exceeded by %v @%v", lim.Op, lim.Addr)
}

// AddrError indicates a memory operation on a negative address.
type AddrError struct {
	Addr int
	Op   string
}

func (ae AddrError) Error() string {
	return fmt.Sprintf("invalid %v address %v", ae.Op, ae.Addr)
}

func checkRange(limit, addr, end int, op string) error {
	if addr < 0 {
		return AddrError{addr, op}
	}
	if limit != 0 && end > limit {
		return LimitError{end, op}
	}
	return nil
}
