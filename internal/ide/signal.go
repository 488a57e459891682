package ide

// TreeSignal carries "the project tree changed" from the executor to the
// interactive loop. Notify never blocks; repeated notices before the loop
// takes one collapse into a single refresh.
type TreeSignal struct {
	ch chan struct{}
}

func NewTreeSignal() *TreeSignal {
	return &TreeSignal{ch: make(chan struct{}, 1)}
}

func (s *TreeSignal) Notify() {
	if s == nil {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Take reports whether a notice was pending and clears it.
func (s *TreeSignal) Take() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
