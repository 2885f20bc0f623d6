package thunk

import (
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// A mixed workload of concurrent Force/Peek over a population of cells.
// Should pass under `-race` without detector reports, and every cell's
// computation must run at most once.
func TestRace_MixedForcePeek(t *testing.T) {
	const cells = 512
	var calls [cells]int64

	ths := make([]*AtomicThunk[int], cells)
	for i := range ths {
		i := i
		ths[i] = NewAtomic(func() (int, error) {
			atomic.AddInt64(&calls[i], 1)
			return i, nil
		})
	}

	workers := 4 * runtime.GOMAXPROCS(0)
	deadline := time.Now().Add(time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				i := r.Intn(cells)
				switch r.Intn(10) {
				case 0, 1, 2: // ~30% — Peek
					if v, ok := ths[i].Peek(); ok && v != i {
						t.Errorf("cell %d: Peek saw %d", i, v)
						return
					}
				default: // ~70% — Force
					v, err := ths[i].Force()
					if err != nil || v != i {
						t.Errorf("cell %d: Force saw (%d,%v)", i, v, err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()

	for i := range calls {
		if n := atomic.LoadInt64(&calls[i]); n > 1 {
			t.Fatalf("cell %d evaluated %d times", i, n)
		}
	}
}

// Clones of one AtomicShared handle churn across goroutines while the cell
// is forced; refcounting and forcing must stay race-free.
func TestRace_SharedClones(t *testing.T) {
	var calls int64
	root := ShareAtomic(func() ([]byte, error) {
		atomic.AddInt64(&calls, 1)
		return []byte("payload"), nil
	})

	workers := 2 * runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 1_000; i++ {
				h := root.Clone()
				if v, err := h.Force(); err != nil || string(v) != "payload" {
					t.Errorf("Force: got (%q,%v)", v, err)
					h.Release()
					return
				}
				h.Release()
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt64(&calls); n != 1 {
		t.Fatalf("computation ran %d times, want 1", n)
	}
	if root.Refs() != 1 {
		t.Fatalf("Refs = %d after churn, want 1", root.Refs())
	}
}
