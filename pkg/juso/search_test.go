package juso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/NERVsystems/postcodemcp/pkg/cache"
	"github.com/NERVsystems/postcodemcp/pkg/postcode"
	"github.com/NERVsystems/postcodemcp/pkg/testutil"
)

func newTestSearch(t *testing.T, pageSize int) (*SearchProvider, *testutil.FakeJuso, *cache.TTLCache) {
	t.Helper()
	fake := testutil.NewFakeJuso(t)
	c := cache.NewTTLCache(100, time.Minute)
	p := NewSearchProvider(newTestClient(), c, SearchOptions{
		APIURL:     fake.SearchURL(),
		ConfirmKey: "test-key",
		PageSize:   pageSize,
		FirstSort:  "none",
		AddInfo:    "Y",
	}, testutil.DiscardLogger())
	return p, fake, c
}

func items(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = testutil.JusoItem(fmt.Sprintf("Seoul Gangnam Teheran-ro %d", 100+i), fmt.Sprintf("06%03d", i))
	}
	return out
}

func TestSearch_ValidCandidates(t *testing.T) {
	p, fake, _ := newTestSearch(t, 10)
	fake.SetSearchItems("Suwon City Hall", map[string]any{
		"roadAddr": "Gyeonggi Suwon Paldal Hyowon-ro 241",
		"zipNo":    "16508",
		"bdNm":     nil,
	})

	got, err := p.Search(context.Background(), "  Suwon   City Hall ", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].PostalCode != "16508" || got[0].RoadAddress != "Gyeonggi Suwon Paldal Hyowon-ro 241" {
		t.Errorf("candidate = %+v", got[0])
	}

	q := fake.LastQuery(testutil.SearchPath)
	if q.Get("keyword") != "Suwon City Hall" {
		t.Errorf("keyword sent = %q, want normalized query", q.Get("keyword"))
	}
	for param, want := range map[string]string{
		"confmKey":     "test-key",
		"currentPage":  "1",
		"countPerPage": "10",
		"resultType":   "json",
		"firstSort":    "none",
		"addInfoYn":    "Y",
	} {
		if q.Get(param) != want {
			t.Errorf("%s = %q, want %q", param, q.Get(param), want)
		}
	}
}

func TestSearch_SkipsIncompleteItems(t *testing.T) {
	p, fake, _ := newTestSearch(t, 10)
	fake.SetSearchItems("Teheran-ro",
		testutil.JusoItem("Seoul Gangnam Teheran-ro 142", "06236"),
		map[string]any{"roadAddr": "", "zipNo": "06000"},
		map[string]any{"roadAddr": "Seoul Gangnam Teheran-ro 152"},
		testutil.JusoItem("Seoul Gangnam Teheran-ro 521", "062-36"),
	)

	got, err := p.Search(context.Background(), "Teheran-ro", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	for _, c := range got {
		if c.RoadAddress == "" {
			t.Error("candidate with empty road address survived")
		}
		if !postcode.IsPostcode5(c.PostalCode) {
			t.Errorf("postal code %q is not 5 digits", c.PostalCode)
		}
	}
}

func TestSearch_CapsAtPageSize(t *testing.T) {
	tests := []struct {
		name       string
		pageSize   int
		maxResults int
		want       int
	}{
		{name: "below page size", pageSize: 10, maxResults: 3, want: 3},
		{name: "above page size", pageSize: 4, maxResults: 20, want: 4},
		{name: "unset uses page size", pageSize: 5, maxResults: 0, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, fake, _ := newTestSearch(t, tt.pageSize)
			fake.SetSearchItems("Gangnam", items(30)...)

			got, err := p.Search(context.Background(), "Gangnam", tt.maxResults)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d candidates, want %d", len(got), tt.want)
			}
			if fake.Calls(testutil.SearchPath) != 1 {
				t.Errorf("upstream calls = %d, want 1", fake.Calls(testutil.SearchPath))
			}
		})
	}
}

func TestSearch_PaginatesPastSkippedItems(t *testing.T) {
	p, fake, _ := newTestSearch(t, 3)
	all := append([]map[string]any{{"roadAddr": "broken"}}, items(4)...)
	fake.SetSearchItems("Gangnam", all...)

	got, err := p.Search(context.Background(), "Gangnam", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	if fake.Calls(testutil.SearchPath) != 2 {
		t.Errorf("upstream calls = %d, want 2", fake.Calls(testutil.SearchPath))
	}
	if got[2].RoadAddress != "Seoul Gangnam Teheran-ro 102" {
		t.Errorf("third candidate = %q, want the first item of page 2", got[2].RoadAddress)
	}
}

func TestSearch_StopsAtTotalCount(t *testing.T) {
	p, fake, _ := newTestSearch(t, 2)
	fake.SetSearchItems("Gangnam",
		map[string]any{"roadAddr": "broken"},
		map[string]any{"roadAddr": "broken"},
		testutil.JusoItem("Seoul Gangnam Teheran-ro 142", "06236"),
	)
	fake.SetSearchTotal("Gangnam", 2)

	got, err := p.Search(context.Background(), "Gangnam", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}
	if fake.Calls(testutil.SearchPath) != 1 {
		t.Errorf("upstream calls = %d, want 1", fake.Calls(testutil.SearchPath))
	}
}

func TestSearch_CachesResults(t *testing.T) {
	p, fake, _ := newTestSearch(t, 10)
	fake.SetSearchItems("Suwon City Hall", testutil.JusoItem("Gyeonggi Suwon Paldal Hyowon-ro 241", "16508"))

	first, err := p.Search(context.Background(), "Suwon City Hall", 5)
	if err != nil {
		t.Fatalf("first Search() error = %v", err)
	}
	second, err := p.Search(context.Background(), "Suwon City Hall", 5)
	if err != nil {
		t.Fatalf("second Search() error = %v", err)
	}

	if fake.Calls(testutil.SearchPath) != 1 {
		t.Errorf("upstream calls = %d, want 1", fake.Calls(testutil.SearchPath))
	}
	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}

	// Callers get copies; mutating one must not alter the cache.
	second[0].RoadAddress = "mutated"
	third, _ := p.Search(context.Background(), "Suwon City Hall", 5)
	if third[0].RoadAddress == "mutated" {
		t.Error("cached slice was shared with a caller")
	}

	// A different cap is a different cache key.
	if _, err := p.Search(context.Background(), "Suwon City Hall", 3); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if fake.Calls(testutil.SearchPath) != 2 {
		t.Errorf("upstream calls = %d, want 2", fake.Calls(testutil.SearchPath))
	}
}

func TestSearch_EmptyResultsNotCached(t *testing.T) {
	p, fake, c := newTestSearch(t, 10)

	for i := 0; i < 2; i++ {
		got, err := p.Search(context.Background(), "xyzzy-nonexistent", 5)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d candidates, want 0", len(got))
		}
	}

	if fake.Calls(testutil.SearchPath) != 2 {
		t.Errorf("upstream calls = %d, want 2", fake.Calls(testutil.SearchPath))
	}
	if c.Count() != 0 {
		t.Errorf("cache holds %d entries, want 0", c.Count())
	}
}

func TestSearch_NonListCacheValue(t *testing.T) {
	p, fake, c := newTestSearch(t, 10)
	c.Set("juso:Suwon:5:none", "not a list")

	got, err := p.Search(context.Background(), "Suwon", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty result", got)
	}
	if fake.Calls(testutil.SearchPath) != 0 {
		t.Errorf("upstream calls = %d, want 0", fake.Calls(testutil.SearchPath))
	}
}

func TestSearch_UpstreamErrorCode(t *testing.T) {
	p, fake, c := newTestSearch(t, 10)
	fake.SetErrorCode(testutil.SearchPath, "E0001", "approval key is not valid")

	got, err := p.Search(context.Background(), "Suwon", 5)
	if got != nil {
		t.Errorf("got %v, want no partial results", got)
	}

	var ue *postcode.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *postcode.UpstreamError", err)
	}
	if ue.Code != "E0001" || ue.Message != "approval key is not valid" {
		t.Errorf("UpstreamError = %+v", ue)
	}
	if c.Count() != 0 {
		t.Error("failed search should not be cached")
	}
}

func TestSearch_TransportError(t *testing.T) {
	p, fake, _ := newTestSearch(t, 10)
	fake.SetStatus(testutil.SearchPath, 503)

	_, err := p.Search(context.Background(), "Suwon", 5)
	if !postcode.IsUpstream(err) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
}

func TestSearch_EmptyKeyword(t *testing.T) {
	p, fake, _ := newTestSearch(t, 10)

	for _, kw := range []string{"", "   ", "\t\n"} {
		_, err := p.Search(context.Background(), kw, 5)
		if !postcode.IsValidation(err) {
			t.Errorf("Search(%q) error = %v, want ValidationError", kw, err)
		}
	}
	if fake.Calls(testutil.SearchPath) != 0 {
		t.Error("empty keyword should not reach upstream")
	}
}

func TestSearch_ConcurrentCallers(t *testing.T) {
	p, fake, _ := newTestSearch(t, 10)
	fake.SetSearchItems("Suwon", items(3)...)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Search(context.Background(), "Suwon", 5)
			if err != nil {
				errs <- err
				return
			}
			if len(got) != 3 {
				errs <- fmt.Errorf("got %d candidates, want 3", len(got))
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if n := fake.Calls(testutil.SearchPath); n < 1 || n > 8 {
		t.Errorf("upstream calls = %d, want between 1 and 8", n)
	}
	if p.PageSize() != 10 {
		t.Errorf("PageSize() = %d, want 10", p.PageSize())
	}
}

func TestSearch_CancelledCallerDoesNotAbortOthers(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": map[string]any{
				"common": map[string]any{"errorCode": "0", "errorMessage": "OK", "totalCount": "1"},
				"juso":   []any{testutil.JusoItem("Gyeonggi Suwon Paldal Hyowon-ro 241", "16508")},
			},
		})
	}))
	t.Cleanup(upstream.Close)
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	p := NewSearchProvider(newTestClient(), cache.NewTTLCache(100, time.Minute), SearchOptions{
		APIURL:     upstream.URL,
		ConfirmKey: "test-key",
		PageSize:   10,
	}, testutil.DiscardLogger())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := p.Search(ctxA, "Suwon", 5)
		errA <- err
	}()
	<-entered

	type result struct {
		got []postcode.AddressCandidate
		err error
	}
	resB := make(chan result, 1)
	go func() {
		got, err := p.Search(context.Background(), "Suwon", 5)
		resB <- result{got, err}
	}()

	time.Sleep(50 * time.Millisecond)
	cancelA()

	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	unblock()

	select {
	case r := <-resB:
		if r.err != nil {
			t.Fatalf("uncancelled caller error = %v", r.err)
		}
		if len(r.got) != 1 || r.got[0].PostalCode != "16508" {
			t.Errorf("uncancelled caller got %+v", r.got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("uncancelled caller did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
}
