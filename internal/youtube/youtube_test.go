package youtube

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
)

func TestVideoID(t *testing.T) {
	cases := []struct {
		url, want string
	}{
		{"https://youtu.be/abc123", "abc123"},
		{"https://youtu.be/abc123/", "abc123"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"youtube.com/watch?v=noscheme1", "noscheme1"},
		{"youtu.be/short1", "short1"},
		{"https://www.youtube.com/watch", ""},
		{"https://youtu.be/", ""},
		{"https://example.com/watch?v=abc", ""},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := VideoID(c.url); got != c.want {
			t.Errorf("VideoID(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestExtractObject(t *testing.T) {
	s := `var ytInitialPlayerResponse = {"a": {"b": "va}ue"}, "c": [1, 2]};</script>`
	got := extractObject(s)
	want := `{"a": {"b": "va}ue"}, "c": [1, 2]}`
	if got != want {
		t.Errorf("extractObject = %q, want %q", got, want)
	}
	if extractObject("no braces here") != "" {
		t.Error("expected empty result without an object")
	}
	if extractObject(`{"unterminated": "x`) != "" {
		t.Error("expected empty result for unbalanced object")
	}
}

func TestJoinTimedText(t *testing.T) {
	xmlBody := `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="1.5">Hello there,</text>
  <text start="1.5" dur="2.0">welcome to the launch &amp; demo.</text>
  <text start="3.5" dur="1.0">   </text>
</transcript>`
	got, err := joinTimedText([]byte(xmlBody))
	if err != nil {
		t.Fatalf("joinTimedText: %v", err)
	}
	want := "Hello there, welcome to the launch & demo."
	if got != want {
		t.Errorf("joinTimedText = %q, want %q", got, want)
	}
}

type stubTransport struct {
	fn func(*http.Request) *http.Response
}

func (s stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return s.fn(req), nil
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

const watchPage = `<html><head><script>var x = 1;</script>
<script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"https://yt.local/timedtext?v=abc123","languageCode":"en"}]}}};</script>
</head><body></body></html>`

const timedPage = `<transcript><text start="0" dur="1">First snippet.</text><text start="1" dur="1">Second snippet.</text></transcript>`

func TestFetcherTranscript(t *testing.T) {
	f := &Fetcher{
		HTTPClient: &http.Client{Transport: stubTransport{fn: func(req *http.Request) *http.Response {
			switch {
			case strings.Contains(req.URL.Host, "youtube.com"):
				if got := req.URL.Query().Get("v"); got != "abc123" {
					t.Errorf("watch request for video %q, want abc123", got)
				}
				return respond(200, watchPage)
			case req.URL.Host == "yt.local":
				return respond(200, timedPage)
			default:
				t.Errorf("unexpected request to %s", req.URL)
				return respond(404, "")
			}
		}}},
	}
	got, err := f.Transcript(context.Background(), "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if got != "First snippet. Second snippet." {
		t.Errorf("Transcript = %q", got)
	}
}

func TestFetcherNoVideoID(t *testing.T) {
	f := &Fetcher{}
	if _, err := f.Transcript(context.Background(), "https://example.com/post"); err != ErrNoVideoID {
		t.Errorf("expected ErrNoVideoID, got %v", err)
	}
}

func TestFetcherNoCaptions(t *testing.T) {
	f := &Fetcher{
		HTTPClient: &http.Client{Transport: stubTransport{fn: func(req *http.Request) *http.Response {
			return respond(200, `<html><script>var ytInitialPlayerResponse = {"captions":{}};</script></html>`)
		}}},
	}
	if _, err := f.Transcript(context.Background(), "https://youtu.be/abc123"); err != ErrNoCaptions {
		t.Errorf("expected ErrNoCaptions, got %v", err)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, err := OpenCache(ctx, filepath.Join(t.TempDir(), "transcripts.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	if _, ok, err := cache.Get(ctx, "abc123"); err != nil || ok {
		t.Fatalf("Get on empty cache = (%v, %v)", ok, err)
	}
	if err := cache.Put(ctx, "abc123", "hello world"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	text, ok, err := cache.Get(ctx, "abc123")
	if err != nil || !ok {
		t.Fatalf("Get after Put = (%v, %v)", ok, err)
	}
	if text != "hello world" {
		t.Errorf("cached transcript = %q", text)
	}
}

func TestFetcherUsesCache(t *testing.T) {
	ctx := context.Background()
	cache, err := OpenCache(ctx, filepath.Join(t.TempDir(), "transcripts.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()
	if err := cache.Put(ctx, "abc123", "cached text"); err != nil {
		t.Fatal(err)
	}

	f := &Fetcher{
		Cache: cache,
		HTTPClient: &http.Client{Transport: stubTransport{fn: func(req *http.Request) *http.Response {
			t.Errorf("unexpected network request to %s", req.URL)
			return respond(500, "")
		}}},
	}
	got, err := f.Transcript(ctx, "https://youtu.be/abc123")
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if got != "cached text" {
		t.Errorf("Transcript = %q, want cached text", got)
	}
}
