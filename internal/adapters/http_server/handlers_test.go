package httpserver_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"rentfinder/internal/adapters/memory"
	server "rentfinder/internal/adapters/http_server"
	"rentfinder/internal/app"
	"rentfinder/internal/catalog"
	"rentfinder/internal/domain"
)

const placeholder = "/static/placeholder.svg"

func newTestServer(t *testing.T, opts server.Options) (*httptest.Server, *app.ImageStatus) {
	t.Helper()
	images := app.NewImageStatus(placeholder)
	q := app.NewSearchService(catalog.New(catalog.Sample(8)), memory.New(), 30*time.Minute)
	srv := server.New(opts)
	srv.MountHandlers(&server.Handlers{S: q, Images: images, SessionTTL: 30 * time.Minute})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, images
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

var cardRe = regexp.MustCompile(`data-listing-id="(\d+)"`)

func getPage(t *testing.T, c *http.Client, u string) (string, []int64) {
	t.Helper()
	res, err := c.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", u, res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	body := string(b)
	ids := []int64{}
	for _, m := range cardRe.FindAllStringSubmatch(body, -1) {
		id, _ := strconv.ParseInt(m[1], 10, 64)
		ids = append(ids, id)
	}
	return body, ids
}

func TestPage_SearchRestoreReset(t *testing.T) {
	ts, _ := newTestServer(t, server.Options{})
	c := newClient(t)

	body, ids := getPage(t, c, ts.URL+"/")
	if !reflect.DeepEqual(ids, []int64{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("initial page: %v", ids)
	}
	for _, want := range []string{"Top listings", "Contact Owner", "Book Visit", "List for free", "Post Property", "Sector 14 Noida", "8k / month"} {
		if !strings.Contains(body, want) {
			t.Fatalf("page is missing %q", want)
		}
	}

	_, ids = getPage(t, c, ts.URL+"/?q=noida")
	if !reflect.DeepEqual(ids, []int64{3, 7}) {
		t.Fatalf("noida: %v", ids)
	}

	// a plain reload keeps the session's view
	_, ids = getPage(t, c, ts.URL+"/")
	if !reflect.DeepEqual(ids, []int64{3, 7}) {
		t.Fatalf("reload: %v", ids)
	}

	// another visitor is unaffected
	_, ids = getPage(t, newClient(t), ts.URL+"/")
	if len(ids) != 8 {
		t.Fatalf("other session: %v", ids)
	}

	_, ids = getPage(t, c, ts.URL+"/?q=")
	if len(ids) != 8 {
		t.Fatalf("reset: %v", ids)
	}

	body, ids = getPage(t, c, ts.URL+"/?q=xyz123")
	if len(ids) != 0 || !strings.Contains(body, `No listings match "xyz123"`) {
		t.Fatalf("no-match page: ids=%v", ids)
	}

	_, ids = getPage(t, c, ts.URL+"/?q="+url.QueryEscape("Apartment 2"))
	if !reflect.DeepEqual(ids, []int64{2}) {
		t.Fatalf("Apartment 2: %v", ids)
	}
}

func TestPage_EscapesQuery(t *testing.T) {
	ts, _ := newTestServer(t, server.Options{})
	body, _ := getPage(t, newClient(t), ts.URL+"/?q="+url.QueryEscape(`<script>alert(1)</script>`))
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Fatalf("query was not escaped")
	}
}

func TestPage_BrokenImageUsesPlaceholder(t *testing.T) {
	ts, images := newTestServer(t, server.Options{})
	images.MarkBroken(2)

	body, _ := getPage(t, newClient(t), ts.URL+"/?q="+url.QueryEscape("Apartment 2"))
	if !strings.Contains(body, `src="/static/placeholder.svg"`) {
		t.Fatalf("expected placeholder src for broken image")
	}
	if strings.Contains(body, "seed/prop2/") {
		t.Fatalf("broken image url should not be rendered")
	}

	res, err := http.Get(ts.URL + placeholder)
	if err != nil {
		t.Fatalf("GET placeholder: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("placeholder status %d", res.StatusCode)
	}
}

func TestListingsAPI_FilterAndETag(t *testing.T) {
	ts, _ := newTestServer(t, server.Options{})

	res, err := http.Get(ts.URL + "/v1/listings?q=NOIDA")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var page domain.ListingsPage
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 8 || page.Query != "NOIDA" || len(page.Items) != 2 || page.Items[0].ID != 3 || page.Items[1].ID != 7 {
		t.Fatalf("unexpected page: %+v", page)
	}

	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/listings?q=NOIDA", nil)
	req.Header.Set("If-None-Match", etag)
	res2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET (conditional): %v", err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", res2.StatusCode)
	}
}

func TestListingsAPI_NoMatchIsEmptyArray(t *testing.T) {
	ts, _ := newTestServer(t, server.Options{})
	res, err := http.Get(ts.URL + "/v1/listings?q=xyz123")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), `"items":[]`) {
		t.Fatalf("expected empty items array, got %s", b)
	}
}

func TestListingsAPI_CORS(t *testing.T) {
	ts, _ := newTestServer(t, server.Options{})
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/listings", nil)
	req.Header.Set("Origin", "http://example.com")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestListingsAPI_CORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, server.Options{})
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/v1/listings", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "If-None-Match")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		t.Fatalf("preflight status = %d", res.StatusCode)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := res.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, "GET") {
		t.Fatalf("Access-Control-Allow-Methods = %q", got)
	}
	if got := strings.ToLower(res.Header.Get("Access-Control-Allow-Headers")); !strings.Contains(got, "if-none-match") {
		t.Fatalf("Access-Control-Allow-Headers = %q", got)
	}
}

func TestRateLimit_Returns429(t *testing.T) {
	ts, _ := newTestServer(t, server.Options{SearchRPS: 0.001, SearchBurst: 1})

	res, err := http.Get(ts.URL + "/v1/listings")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("first request: %d", res.StatusCode)
	}

	res, err = http.Get(ts.URL + "/v1/listings")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type %q", ct)
	}

	// health checks are not limited
	res, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %d", res.StatusCode)
	}
}

func TestSessionCookieIssuedOnce(t *testing.T) {
	ts, _ := newTestServer(t, server.Options{})
	c := newClient(t)

	res, err := c.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if len(res.Cookies()) != 1 || res.Cookies()[0].Name != "rf_sid" || !res.Cookies()[0].HttpOnly {
		t.Fatalf("expected one rf_sid cookie, got %v", res.Cookies())
	}

	res, err = c.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if len(res.Cookies()) != 0 {
		t.Fatalf("cookie should not be reissued: %v", res.Cookies())
	}
}
