package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"suumo-checker/internal/fetcher"
	"suumo-checker/internal/models"
	"suumo-checker/internal/ratelimit"
	"suumo-checker/internal/scheduler"
	"suumo-checker/internal/search"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePipeline struct {
	mu      sync.Mutex
	checked []string
}

func (p *fakePipeline) Check(ctx context.Context, url string) *models.CheckResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checked = append(p.checked, url)
	return &models.CheckResult{URL: url, Status: models.StatusNotFound}
}

func (p *fakePipeline) CheckAll(ctx context.Context, targets []models.Target) []*models.CheckResult {
	results := make([]*models.CheckResult, 0, len(targets))
	for i, t := range targets {
		r := p.Check(ctx, t.URL)
		if i == 0 {
			r.Status = models.StatusExtractionFailed
		}
		results = append(results, r)
	}
	return results
}

type resolver map[string]models.StationCodePair

func (r resolver) Lookup(line, station string) (models.StationCodePair, bool) {
	p, ok := r[line+"/"+station]
	return p, ok
}

func newRouter(p Pipeline, limiter *ratelimit.RateLimiter) *gin.Engine {
	builder := search.NewQueryBuilder(resolver{"山手線/東京": {LineCode: "0005", StationCode: "00027460"}}, "https://suumo.jp", "tokyo")
	h := NewCheckHandler(p, builder, 2)

	r := gin.New()
	r.POST("/api/check", RateLimit(limiter), h.Check)
	r.POST("/api/check/batch", RateLimit(limiter), h.CheckBatch)
	r.POST("/api/query", h.BuildQuery)
	r.GET("/api/buckets", h.Buckets)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheck(t *testing.T) {
	p := &fakePipeline{}
	r := newRouter(p, ratelimit.NewRateLimiter(10, 100, 1000, true))

	w := do(r, http.MethodPost, "/api/check", `{"url":"https://suumo.jp/chintai/jnc_000012345678/"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body)
	}
	var got models.CheckResult
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusNotFound {
		t.Errorf("result status: got %s", got.Status)
	}

	for _, body := range []string{`{}`, `{"url":"ftp://example.com/x"}`, `{"url":"not a url"}`} {
		if w := do(r, http.MethodPost, "/api/check", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", body, w.Code)
		}
	}
	if len(p.checked) != 1 {
		t.Errorf("pipeline calls: got %d, want 1", len(p.checked))
	}
}

func TestCheckBatch(t *testing.T) {
	r := newRouter(&fakePipeline{}, ratelimit.NewRateLimiter(10, 100, 1000, true))

	w := do(r, http.MethodPost, "/api/check/batch", `{"urls":["https://suumo.jp/a","https://suumo.jp/b"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Total  int `json:"total"`
		Failed int `json:"failed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || resp.Failed != 1 {
		t.Errorf("response: %+v", resp)
	}

	w = do(r, http.MethodPost, "/api/check/batch", `{"urls":["https://suumo.jp/a","https://suumo.jp/b","https://suumo.jp/c"]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("oversized batch: got %d", w.Code)
	}
	w = do(r, http.MethodPost, "/api/check/batch", `{"urls":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty batch: got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(&fakePipeline{}, ratelimit.NewRateLimiter(1, 100, 1000, true))

	body := `{"url":"https://suumo.jp/chintai/jnc_000012345678/"}`
	if w := do(r, http.MethodPost, "/api/check", body); w.Code != http.StatusOK {
		t.Fatalf("first: got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/check", body); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second: got %d, want 429", w.Code)
	}
}

func TestBuildQuery(t *testing.T) {
	r := newRouter(&fakePipeline{}, ratelimit.NewRateLimiter(10, 100, 1000, false))

	body := `{"stations":[{"line":"山手線","station":"東京","walk_minutes":10}],"price":9.9,"area":27.49,"age":10}`
	w := do(r, http.MethodPost, "/api/query", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body)
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := "https://suumo.jp/chintai/tokyo/ek_27460/?chinryomin=9.5&chinryomax=10&fr_senyumenmin=25&fr_senyumenmax=30&cn=10&et=10"
	if resp.URL != want {
		t.Errorf("url:\n got %s\nwant %s", resp.URL, want)
	}

	if w := do(r, http.MethodPost, "/api/query", `{"stations":[]}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("no stations: got %d", w.Code)
	}
	unknown := `{"stations":[{"line":"架空線","station":"どこか","walk_minutes":3}]}`
	if w := do(r, http.MethodPost, "/api/query", unknown); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("unresolved station: got %d", w.Code)
	}
}

func TestBuckets(t *testing.T) {
	r := newRouter(&fakePipeline{}, ratelimit.NewRateLimiter(10, 100, 1000, false))

	w := do(r, http.MethodGet, "/api/buckets?price=9.9&area=27.49&age=11&walk=21", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Price models.BucketRange `json:"price"`
		Area  models.BucketRange `json:"area"`
		Age   *int               `json:"age"`
		Walk  *int               `json:"walk"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Price.Lower == nil || *resp.Price.Lower != 9.5 || resp.Price.Upper == nil || *resp.Price.Upper != 10 {
		t.Errorf("price: %+v", resp.Price)
	}
	if resp.Area.Lower == nil || *resp.Area.Lower != 25 || resp.Area.Upper == nil || *resp.Area.Upper != 30 {
		t.Errorf("area: %+v", resp.Area)
	}
	if resp.Age == nil || *resp.Age != 15 {
		t.Errorf("age: %v", resp.Age)
	}
	if resp.Walk != nil {
		t.Errorf("walk: got %v, want null", *resp.Walk)
	}

	if w := do(r, http.MethodGet, "/api/buckets?price=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad price: got %d", w.Code)
	}
}

type fakeRunner struct {
	done chan struct{}
}

func (f *fakeRunner) RunNow(ctx context.Context) (*scheduler.BatchSummary, error) {
	close(f.done)
	return &scheduler.BatchSummary{}, nil
}

func TestAdminHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	csv := "物件名,部屋番号,URL,検索URL,06-01 09:00,06-02 09:00\n" +
		"メゾン東京,101,https://suumo.jp/a,,⭕️,❌\n" +
		"コーポ丸の内,202,https://suumo.jp/b,,,\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{done: make(chan struct{})}
	limiter := ratelimit.NewRateLimiter(10, 100, 1000, true)
	portal := fetcher.Options{
		Limiter: ratelimit.NewPortalLimiter(0, 0),
		Breaker: fetcher.NewCircuitBreaker(3, time.Minute),
	}
	h := NewAdminHandler(runner, path, limiter, portal)

	r := gin.New()
	r.GET("/report", h.GetReport)
	r.GET("/changes", h.GetChanges)
	r.POST("/run", h.TriggerRun)
	r.GET("/stats", h.GetRateLimitStats)

	w := do(r, http.MethodGet, "/changes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("changes: got %d", w.Code)
	}
	var changes struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &changes); err != nil {
		t.Fatal(err)
	}
	if changes.Count != 1 {
		t.Errorf("change count: got %d", changes.Count)
	}

	if w := do(r, http.MethodGet, "/report", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "メゾン東京") {
		t.Errorf("report: got %d %s", w.Code, w.Body)
	}

	if w := do(r, http.MethodPost, "/run", ""); w.Code != http.StatusAccepted {
		t.Errorf("run: got %d", w.Code)
	}
	<-runner.done

	w = do(r, http.MethodGet, "/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: got %d", w.Code)
	}
	for _, key := range []string{`"api"`, `"portal_pacer"`, `"portal_breaker"`} {
		if !strings.Contains(w.Body.String(), key) {
			t.Errorf("stats missing %s: %s", key, w.Body)
		}
	}
}

func TestTriggerRunWithoutRunner(t *testing.T) {
	h := NewAdminHandler(nil, "report.csv", nil, fetcher.Options{})
	r := gin.New()
	r.POST("/run", h.TriggerRun)
	if w := do(r, http.MethodPost, "/run", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d, want 503", w.Code)
	}
}
