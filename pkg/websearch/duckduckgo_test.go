package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

const resultsPage = `
<div class="results">
  <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.seriouseats.com%2Fpad-thai&amp;rut=abc">Pad Thai</a>
  <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.pinterest.com%2Fpin%2F123&amp;rut=def">Pin</a>
  <a rel="nofollow" class="result__a" href="https://www.bonappetit.com/recipe/pad-thai">Direct</a>
  <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.seriouseats.com%2Fpad-thai&amp;rut=dup">Duplicate</a>
  <a class="other-link" href="https://example.com/ignore">nav</a>
</div>`

func TestSearchParsesAndFilters(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	urls, err := c.Search(context.Background(), "pad thai", 5)
	if err != nil {
		t.Fatal(err)
	}

	if gotQuery != "pad thai recipe" {
		t.Errorf("query = %q, want recipe appended", gotQuery)
	}
	want := []string{
		"https://www.seriouseats.com/pad-thai",
		"https://www.bonappetit.com/recipe/pad-thai",
	}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v", urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`
			<a class="result__a" href="https://a.example.com/r1">1</a>
			<a class="result__a" href="https://b.example.com/r2">2</a>
			<a class="result__a" href="https://c.example.com/r3">3</a>`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	urls, err := c.Search(context.Background(), "soup recipe", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(urls) != 2 {
		t.Errorf("urls = %v, want 2", urls)
	}
}

func TestSearchErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	if _, err := c.Search(context.Background(), "soup", 5); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestUnwrapRedirect(t *testing.T) {
	target := "https://www.seriouseats.com/best-chili"
	wrapped := "//duckduckgo.com/l/?uddg=" + url.QueryEscape(target) + "&rut=xyz"

	if got := unwrapRedirect(wrapped); got != target {
		t.Errorf("got %q, want %q", got, target)
	}
	if got := unwrapRedirect("https://example.com/direct"); got != "https://example.com/direct" {
		t.Errorf("direct link mangled: %q", got)
	}
	if got := unwrapRedirect("javascript:alert(1)"); got != "" {
		t.Errorf("non-http scheme should be dropped, got %q", got)
	}
	if got := unwrapRedirect("//duckduckgo.com/l/?rut=no-target"); got != "" {
		t.Errorf("missing uddg should be dropped, got %q", got)
	}
}

func TestAllowedURL(t *testing.T) {
	cases := map[string]bool{
		"https://www.seriouseats.com/pad-thai": true,
		"https://www.pinterest.com/pin/1":      false,
		"https://m.youtube.com/watch?v=1":      false,
		"ftp://files.example.com/recipe":       false,
		"not a url at all ://":                 false,
	}
	for u, want := range cases {
		if got := allowedURL(u); got != want {
			t.Errorf("allowedURL(%q) = %v, want %v", u, got, want)
		}
	}
}
