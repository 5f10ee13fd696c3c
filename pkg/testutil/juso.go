package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
)

// Paths served by FakeJuso.
const (
	SearchPath  = "/addrlink/addrLinkApi.do"
	DetailPath  = "/addrlink/addrDetailApi.do"
	EnglishPath = "/addrlink/addrEngApi.do"
)

// FakeJuso is a scripted stand-in for the Juso address API. It pages search
// results by currentPage/countPerPage, counts calls per path and records the
// last query string it received on each path.
type FakeJuso struct {
	*httptest.Server

	mu             sync.Mutex
	calls          map[string]int
	lastQuery      map[string]url.Values
	searchItems    map[string][]map[string]any
	searchTotals   map[string]int
	englishItems   map[string][]map[string]any
	detailItems    []map[string]any
	errorCode      map[string][2]string
	statusOverride map[string]int
	rawOverride    map[string]string
}

// NewFakeJuso starts a fake upstream that is closed when the test ends.
func NewFakeJuso(t testing.TB) *FakeJuso {
	t.Helper()

	f := &FakeJuso{
		calls:          make(map[string]int),
		lastQuery:      make(map[string]url.Values),
		searchItems:    make(map[string][]map[string]any),
		searchTotals:   make(map[string]int),
		englishItems:   make(map[string][]map[string]any),
		errorCode:      make(map[string][2]string),
		statusOverride: make(map[string]int),
		rawOverride:    make(map[string]string),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// SearchURL returns the search endpoint URL.
func (f *FakeJuso) SearchURL() string { return f.URL + SearchPath }

// DetailURL returns the detail endpoint URL.
func (f *FakeJuso) DetailURL() string { return f.URL + DetailPath }

// EnglishURL returns the English endpoint URL.
func (f *FakeJuso) EnglishURL() string { return f.URL + EnglishPath }

// SetSearchItems scripts the full result list for a search keyword.
func (f *FakeJuso) SetSearchItems(keyword string, items ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchItems[keyword] = items
}

// SetSearchTotal overrides the totalCount reported for a keyword.
func (f *FakeJuso) SetSearchTotal(keyword string, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchTotals[keyword] = total
}

// SetEnglishItems scripts the English results for a keyword.
func (f *FakeJuso) SetEnglishItems(keyword string, items ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.englishItems[keyword] = items
}

// SetDetailItems scripts the detail results returned for any request.
func (f *FakeJuso) SetDetailItems(items ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailItems = items
}

// SetErrorCode makes every response on path carry a non-zero errorCode.
func (f *FakeJuso) SetErrorCode(path, code, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorCode[path] = [2]string{code, message}
}

// SetStatus makes every response on path use the given HTTP status.
func (f *FakeJuso) SetStatus(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusOverride[path] = status
}

// SetRawBody makes every response on path return body verbatim.
func (f *FakeJuso) SetRawBody(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rawOverride[path] = body
}

// Calls returns how many requests reached path.
func (f *FakeJuso) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// LastQuery returns the query parameters of the most recent request on path.
func (f *FakeJuso) LastQuery(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery[path]
}

func (f *FakeJuso) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	q := r.URL.Query()
	f.calls[path]++
	f.lastQuery[path] = q

	if status, ok := f.statusOverride[path]; ok {
		w.WriteHeader(status)
		return
	}
	if body, ok := f.rawOverride[path]; ok {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
		return
	}
	if ec, ok := f.errorCode[path]; ok {
		writeJusoPayload(w, ec[0], ec[1], 0, []map[string]any{})
		return
	}

	switch path {
	case SearchPath:
		keyword := q.Get("keyword")
		all := f.searchItems[keyword]
		total, ok := f.searchTotals[keyword]
		if !ok {
			total = len(all)
		}
		writeJusoPayload(w, "0", "OK", total, page(all, q))
	case EnglishPath:
		all := f.englishItems[q.Get("keyword")]
		writeJusoPayload(w, "0", "OK", len(all), page(all, q))
	case DetailPath:
		writeJusoPayload(w, "0", "OK", len(f.detailItems), f.detailItems)
	default:
		http.NotFound(w, r)
	}
}

func page(all []map[string]any, q url.Values) []map[string]any {
	current, err := strconv.Atoi(q.Get("currentPage"))
	if err != nil || current < 1 {
		current = 1
	}
	size, err := strconv.Atoi(q.Get("countPerPage"))
	if err != nil || size < 1 {
		size = 10
	}

	start := (current - 1) * size
	if start >= len(all) {
		return []map[string]any{}
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func writeJusoPayload(w http.ResponseWriter, code, message string, total int, items []map[string]any) {
	if items == nil {
		items = []map[string]any{}
	}
	payload := map[string]any{
		"results": map[string]any{
			"common": map[string]any{
				"errorCode":    code,
				"errorMessage": message,
				"totalCount":   strconv.Itoa(total),
			},
			"juso": items,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// JusoItem builds a search result item carrying every detail-lookup key.
func JusoItem(roadAddr, zipNo string) map[string]any {
	return map[string]any{
		"roadAddr":  roadAddr,
		"jibunAddr": roadAddr + " (lot)",
		"zipNo":     zipNo,
		"bdNm":      nil,
		"admCd":     "4111514100",
		"rnMgtSn":   "411153193001",
		"udrtYn":    "0",
		"buldMnnm":  "241",
		"buldSlno":  "0",
		"bdMgtSn":   "4111514100102410000000001",
	}
}
