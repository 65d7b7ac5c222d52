package picker

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/hazyhaar/adswap/catalog"
)

// scripted returns the given indices in order, repeating the last one.
type scripted struct {
	seq   []int
	calls int
}

func (s *scripted) IntN(n int) int {
	i := s.seq[min(s.calls, len(s.seq)-1)]
	s.calls++
	return i % n
}

func testCatalog(t *testing.T, refs ...string) *catalog.Catalog {
	t.Helper()
	items := make([]catalog.Item, len(refs))
	for i, r := range refs {
		items[i] = catalog.Item{Text: "text " + r, Ref: r}
	}
	c, err := catalog.New(items)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func TestPick_Sticky(t *testing.T) {
	p := New(catalog.Default(), nil)
	first := p.Pick()
	for i := 0; i < 50; i++ {
		if got := p.Pick(); got != first {
			t.Fatalf("Pick #%d: got %p, want %p", i+2, got, first)
		}
	}
	if p.State().History.Len() != 1 {
		t.Errorf("history len: got %d, want 1", p.State().History.Len())
	}
	if p.State().Current() != first {
		t.Error("State.Current does not match first pick")
	}
}

func TestPick_AvoidsRecent(t *testing.T) {
	c := testCatalog(t, "A", "B", "C")
	st := NewState()
	st.History.Push("A")
	st.History.Push("B")

	rng := &scripted{seq: []int{0, 1, 0, 2}}
	got := New(c, st, WithRand(rng)).Pick()
	if got.Ref != "C" {
		t.Fatalf("Pick: got %q, want C", got.Ref)
	}
	if rng.calls != 4 {
		t.Errorf("attempts: got %d, want 4", rng.calls)
	}
	if refs := st.History.Refs(); fmt.Sprint(refs) != "[A B C]" {
		t.Errorf("history: got %v", refs)
	}
}

func TestPick_AvoidsRecentRandom(t *testing.T) {
	c := testCatalog(t, "A", "B", "C")
	misses := 0
	for seed := uint64(0); seed < 200; seed++ {
		st := NewState()
		st.History.Push("A")
		st.History.Push("B")
		p := New(c, st, WithRand(rand.New(rand.NewPCG(seed, seed+1))))
		if p.Pick().Ref != "C" {
			misses++
		}
	}
	// (2/3)^10 per run: a handful of misses in 200 runs is the ceiling.
	if misses > 20 {
		t.Errorf("non-repeat search missed %d/200 times", misses)
	}
}

func TestPick_SingleItemFallsBack(t *testing.T) {
	c := testCatalog(t, "only")
	st := NewState()
	st.History.Push("only")

	rng := &scripted{seq: []int{0}}
	got := New(c, st, WithRand(rng)).Pick()
	if got.Ref != "only" {
		t.Fatalf("Pick: got %q", got.Ref)
	}
	if rng.calls != MaxAttempts {
		t.Errorf("attempts: got %d, want %d", rng.calls, MaxAttempts)
	}
	if st.History.Len() != 2 {
		t.Errorf("history len: got %d, want 2", st.History.Len())
	}
}

func TestPick_FreshStatePerPage(t *testing.T) {
	c := testCatalog(t, "A", "B")
	a := New(c, NewState(), WithRand(&scripted{seq: []int{0}})).Pick()
	b := New(c, NewState(), WithRand(&scripted{seq: []int{1}})).Pick()
	if a.Ref != "A" || b.Ref != "B" {
		t.Errorf("got %q and %q", a.Ref, b.Ref)
	}
}

func TestHistory_Bounded(t *testing.T) {
	var h History
	for i := 0; i < 100; i++ {
		h.Push(fmt.Sprintf("r%d", i))
		if h.Len() > HistoryLimit {
			t.Fatalf("len %d exceeds limit after %d pushes", h.Len(), i+1)
		}
	}
	refs := h.Refs()
	if refs[0] != "r85" || refs[len(refs)-1] != "r99" {
		t.Errorf("window: got %s..%s, want r85..r99", refs[0], refs[len(refs)-1])
	}
	if h.Contains("r84") {
		t.Error("evicted ref still present")
	}
}
