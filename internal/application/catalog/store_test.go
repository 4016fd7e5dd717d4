package catalog

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
)

type listResult struct {
	items []productdom.Product
	err   error
}

// scriptedRepo answers List from a queue; each call may be gated so tests can
// control completion order.
type scriptedRepo struct {
	productdom.Repository

	mu      sync.Mutex
	results []listResult
	gates   []chan struct{}
	calls   int
}

func (r *scriptedRepo) List(ctx context.Context) ([]productdom.Product, error) {
	r.mu.Lock()
	i := r.calls
	r.calls++
	var gate chan struct{}
	if i < len(r.gates) {
		gate = r.gates[i]
	}
	res := r.results[min(i, len(r.results)-1)]
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return res.items, res.err
}

func prod(id string, price int64, active bool, name, desc string) productdom.Product {
	p := productdom.Product{ID: id, Name: name, Price: decimal.NewFromInt(price), IsActive: active}
	if desc != "" {
		p.Description = &desc
	}
	return p
}

func ids(seq func(func(productdom.Product) bool)) []string {
	var out []string
	for p := range seq {
		out = append(out, p.ID)
	}
	return out
}

func TestVisibleProductsFiltersInactive(t *testing.T) {
	repo := &scriptedRepo{results: []listResult{{items: []productdom.Product{
		prod("1", 50, true, "1 Month", ""),
		prod("2", 120, false, "3 Months", ""),
	}}}}
	s := NewStore(repo)
	if !s.Loading() {
		t.Fatalf("store must start loading")
	}

	s.Refresh(context.Background())

	if s.Loading() {
		t.Fatalf("loading should be false after refresh")
	}
	if got := ids(s.VisibleProducts()); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("visible = %v", got)
	}
	if got := len(s.Products()); got != 2 {
		t.Fatalf("Products() len = %d, want 2", got)
	}
}

func TestRefreshFailureKeepsPreviousList(t *testing.T) {
	repo := &scriptedRepo{results: []listResult{
		{items: []productdom.Product{prod("1", 50, true, "a", "")}},
		{err: errors.New("quota exceeded")},
	}}
	s := NewStore(repo)
	ctx := context.Background()

	s.Refresh(ctx)
	s.Refresh(ctx)

	if got := ids(s.VisibleProducts()); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("visible after failed refresh = %v", got)
	}
	if s.Loading() {
		t.Fatalf("loading must be cleared on failure too")
	}
}

func TestReadyOnlyAfterAppliedRefresh(t *testing.T) {
	repo := &scriptedRepo{results: []listResult{
		{err: errors.New("unavailable")},
		{err: errors.New("unavailable")},
		{items: []productdom.Product{prod("1", 50, true, "a", "")}},
	}}
	s := NewStore(repo)
	ctx := context.Background()

	s.Refresh(ctx)
	if s.Ready() {
		t.Fatalf("failed first load must not mark the store ready")
	}

	retryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	s.RetryUntilReady(retryCtx, time.Millisecond)

	if !s.Ready() {
		t.Fatalf("store should be ready after retries")
	}
	if got := ids(s.VisibleProducts()); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("visible = %v", got)
	}
	repo.mu.Lock()
	calls := repo.calls
	repo.mu.Unlock()
	if calls != 3 {
		t.Fatalf("List calls = %d, want 3", calls)
	}
}

func TestRetryUntilReadyStopsOnCancel(t *testing.T) {
	repo := &scriptedRepo{results: []listResult{{err: errors.New("unavailable")}}}
	s := NewStore(repo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.RetryUntilReady(ctx, time.Hour)
	if s.Ready() {
		t.Fatalf("store must not be ready")
	}
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	slow := make(chan struct{})
	repo := &scriptedRepo{
		results: []listResult{
			{items: []productdom.Product{prod("old", 1, true, "old", "")}},
			{items: []productdom.Product{prod("new", 2, true, "new", "")}},
		},
		gates: []chan struct{}{slow, nil},
	}
	s := NewStore(repo)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		s.Refresh(ctx)
		close(done)
	}()

	// wait until the first List call is parked on its gate
	for {
		repo.mu.Lock()
		n := repo.calls
		repo.mu.Unlock()
		if n == 1 {
			break
		}
		runtime.Gosched()
	}

	s.Refresh(ctx)
	if !s.Loading() {
		t.Fatalf("loading must stay true while the slow refresh runs")
	}
	close(slow)
	<-done

	if got := ids(s.VisibleProducts()); !slices.Equal(got, []string{"new"}) {
		t.Fatalf("visible = %v, stale response overwrote newer state", got)
	}
	if s.Loading() {
		t.Fatalf("loading should be false once all refreshes finished")
	}
}

func TestSearch(t *testing.T) {
	repo := &scriptedRepo{results: []listResult{{items: []productdom.Product{
		prod("1", 50, true, "1 Month Subscription", "Perfect for trying out"),
		prod("2", 120, true, "3 Months Subscription", "Best value"),
		prod("3", 200, false, "Hidden Month", ""),
	}}}}
	s := NewStore(repo)
	s.Refresh(context.Background())

	cases := []struct {
		term string
		want []string
	}{
		{"", []string{"1", "2"}},
		{"   ", []string{"1", "2"}},
		{"MONTH", []string{"1", "2"}},
		{"best", []string{"2"}},
		{"hidden", nil},
		{"yearly", nil},
	}
	for _, tc := range cases {
		if got := ids(s.Search(tc.term)); !slices.Equal(got, tc.want) {
			t.Errorf("Search(%q) = %v, want %v", tc.term, got, tc.want)
		}
	}
}

func TestVisibleProductsIsRecomputedPerIteration(t *testing.T) {
	repo := &scriptedRepo{results: []listResult{
		{items: []productdom.Product{prod("1", 50, true, "a", "")}},
		{items: []productdom.Product{prod("1", 50, false, "a", ""), prod("2", 70, true, "b", "")}},
	}}
	s := NewStore(repo)
	ctx := context.Background()
	s.Refresh(ctx)

	seq := s.VisibleProducts()
	if got := ids(seq); !slices.Equal(got, []string{"1"}) {
		t.Fatalf("first = %v", got)
	}
	s.Refresh(ctx)
	if got := ids(seq); !slices.Equal(got, []string{"2"}) {
		t.Fatalf("same sequence after refresh = %v", got)
	}
}

func TestSignalTriggersRefreshAndOnChange(t *testing.T) {
	repo := &scriptedRepo{results: []listResult{{items: []productdom.Product{prod("1", 50, true, "a", "")}}}}
	s := NewStore(repo)
	sig := NewSignal()
	unbind := s.Bind(sig)

	changes := 0
	off := s.OnChange(func() { changes++ })

	if err := sig.Notify(context.Background()); err != nil {
		t.Fatal(err)
	}
	if changes != 1 {
		t.Fatalf("changes = %d, want 1", changes)
	}
	if _, ok := s.Get("1"); !ok {
		t.Fatalf("product 1 should be loaded")
	}

	off()
	unbind()
	_ = sig.Notify(context.Background())
	if changes != 1 {
		t.Fatalf("listener fired after unsubscribe")
	}
	if repo.calls != 1 {
		t.Fatalf("List calls = %d, want 1 after unbind", repo.calls)
	}
}

type fakeRelay struct {
	n   int
	err error
}

func (r *fakeRelay) Publish(context.Context) error {
	r.n++
	return r.err
}

func TestSignalRelay(t *testing.T) {
	sig := NewSignal()
	local := 0
	sig.Subscribe(func(context.Context) { local++ })

	relay := &fakeRelay{err: errors.New("redis down")}
	sig.SetRelay(relay)

	if err := sig.Notify(context.Background()); err == nil {
		t.Fatalf("relay error should be returned")
	}
	if local != 1 || relay.n != 1 {
		t.Fatalf("local=%d relay=%d", local, relay.n)
	}

	sig.Deliver(context.Background())
	if local != 2 || relay.n != 1 {
		t.Fatalf("Deliver must not relay: local=%d relay=%d", local, relay.n)
	}
}
