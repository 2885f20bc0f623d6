package thunk

import (
	"testing"

	"github.com/pkg/errors"
)

// Memoization: N forces yield the same value N times and the computation
// runs exactly once.
func TestThunk_MemoizesValue(t *testing.T) {
	t.Parallel()

	calls := 0
	th := New(func() (int, error) {
		calls++
		return 42, nil
	})

	for i := 0; i < 5; i++ {
		v, err := th.Force()
		if err != nil {
			t.Fatalf("Force #%d: %v", i, err)
		}
		if v != 42 {
			t.Fatalf("Force #%d: want 42, got %d", i, v)
		}
	}
	if calls != 1 {
		t.Fatalf("computation ran %d times, want 1", calls)
	}
}

// A Computed cell is already forced: Peek sees the value and no
// computation exists to run.
func TestThunk_Computed(t *testing.T) {
	t.Parallel()

	th := Computed("ready")
	if v, ok := th.Peek(); !ok || v != "ready" {
		t.Fatalf("Peek: want (ready,true), got (%q,%v)", v, ok)
	}
	if v, err := th.Force(); err != nil || v != "ready" {
		t.Fatalf("Force: want ready, got (%q,%v)", v, err)
	}
}

// Peek on a deferred cell must not invoke the computation; after Force it
// returns the cached value.
func TestThunk_PeekDoesNotForce(t *testing.T) {
	t.Parallel()

	calls := 0
	th := New(func() (int, error) {
		calls++
		return 7, nil
	})

	if _, ok := th.Peek(); ok {
		t.Fatal("Peek on deferred cell must report no value")
	}
	if calls != 0 {
		t.Fatalf("Peek invoked the computation %d times", calls)
	}

	if _, err := th.Force(); err != nil {
		t.Fatal(err)
	}
	if v, ok := th.Peek(); !ok || v != 7 {
		t.Fatalf("Peek after Force: want (7,true), got (%d,%v)", v, ok)
	}
}

// A failed computation is terminal: the error is memoized and the
// computation is never re-invoked.
func TestThunk_ErrorMemoized(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	calls := 0
	th := New(func() (int, error) {
		calls++
		return 0, boom
	})

	_, err1 := th.Force()
	_, err2 := th.Force()
	if !errors.Is(err1, boom) || !errors.Is(err2, boom) {
		t.Fatalf("want boom twice, got %v / %v", err1, err2)
	}
	if err1 != err2 {
		t.Fatalf("errors must be identical, got %v / %v", err1, err2)
	}
	if calls != 1 {
		t.Fatalf("failed computation re-invoked: %d calls", calls)
	}
	if th.st != stateFailed {
		t.Fatalf("state = %d, want stateFailed", th.st)
	}
}

// A panicking computation poisons the cell: the panic reaches the forcing
// caller once, later forces return *PoisonError deterministically.
func TestThunk_PanicPoisons(t *testing.T) {
	t.Parallel()

	th := New(func() (int, error) {
		panic("kaboom")
	})

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Errorf("first Force: want panic kaboom, got %v", r)
			}
		}()
		_, _ = th.Force()
		t.Error("first Force must panic")
	}()

	if th.st != statePoisoned {
		t.Fatalf("state = %d, want statePoisoned", th.st)
	}

	_, err := th.Force()
	var pe *PoisonError
	if !errors.As(err, &pe) {
		t.Fatalf("second Force: want *PoisonError, got %v", err)
	}
	if pe.Cause != "kaboom" {
		t.Fatalf("PoisonError.Cause = %v, want kaboom", pe.Cause)
	}
}

// ForceMut exposes the cache for in-place mutation; later forces see the
// mutated value.
func TestThunk_ForceMutMutatesCache(t *testing.T) {
	t.Parallel()

	th := New(func() ([]int, error) { return []int{1, 2}, nil })

	p, err := th.ForceMut()
	if err != nil {
		t.Fatal(err)
	}
	*p = append(*p, 3)

	v, _ := th.Force()
	if len(v) != 3 || v[2] != 3 {
		t.Fatalf("mutation lost: %v", v)
	}
}

// Unwrap consumes the cell; any later use panics.
func TestThunk_UnwrapConsumes(t *testing.T) {
	t.Parallel()

	th := New(func() (string, error) { return "v", nil })
	v, err := th.Unwrap()
	if err != nil || v != "v" {
		t.Fatalf("Unwrap: got (%q,%v)", v, err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Force after Unwrap must panic")
		}
	}()
	_, _ = th.Force()
}

// Unwrap of a failed cell reports the failure and leaves the cell readable
// (the terminal failed state stays observable).
func TestThunk_UnwrapFailedCell(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	th := New(func() (int, error) { return 0, boom })

	if _, err := th.Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("Unwrap: want boom, got %v", err)
	}
	// Still deterministic afterwards.
	if _, err := th.Force(); !errors.Is(err, boom) {
		t.Fatalf("Force after failed Unwrap: want boom, got %v", err)
	}
}

// A computation that forces its own cell is a bug; it must fail loudly,
// not recurse or fabricate a value.
func TestThunk_ReentrantForcePanics(t *testing.T) {
	t.Parallel()

	var th *Thunk[int]
	th = New(func() (int, error) {
		_, _ = th.Force()
		return 0, nil
	})

	defer func() {
		if recover() == nil {
			t.Error("re-entrant Force must panic")
		}
	}()
	_, _ = th.Force()
}

func TestThunk_NilComputationPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("New(nil) must panic")
		}
	}()
	_ = New[int](nil)
}
