package tagging

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeFetcher struct {
	text  string
	err   error
	calls int
}

func (f *fakeFetcher) Transcript(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestContentPrefersExistingContent(t *testing.T) {
	fetcher := &fakeFetcher{text: "should not be used"}
	s := &Selector{Transcripts: fetcher}
	got := s.Content(context.Background(), Record{
		URL:     "https://www.youtube.com/watch?v=abc",
		Content: "  written mention text  ",
		Title:   "ignored",
	})
	if got != "written mention text" {
		t.Errorf("Content = %q", got)
	}
	if fetcher.calls != 0 {
		t.Error("transcript fetched despite non-empty content")
	}
}

func TestContentVideoTitleAndTranscript(t *testing.T) {
	transcript := strings.Repeat("x", 600)
	s := &Selector{
		Transcripts:        &fakeFetcher{text: transcript},
		MaxTranscriptChars: 500,
	}
	got := s.Content(context.Background(), Record{
		URL:   "https://www.youtube.com/watch?v=abc",
		Title: "Launch Event",
	})
	want := "Launch Event\n" + transcript[:500]
	if got != want {
		t.Errorf("Content = %d chars, want %d; head %q", len(got), len(want), got[:20])
	}
}

func TestContentTranscriptFailureDegrades(t *testing.T) {
	s := &Selector{Transcripts: &fakeFetcher{err: errors.New("no captions")}}
	got := s.Content(context.Background(), Record{
		URL:   "https://www.youtube.com/watch?v=abc",
		Title: "Launch Event",
	})
	if got != "Launch Event" {
		t.Errorf("Content = %q, want title only", got)
	}
}

func TestContentVideoBothEmpty(t *testing.T) {
	s := &Selector{Transcripts: &fakeFetcher{text: ""}}
	got := s.Content(context.Background(), Record{URL: "https://www.youtube.com/watch?v=abc"})
	if got != "" {
		t.Errorf("Content = %q, want empty", got)
	}
}

func TestContentKeywordCaseInsensitive(t *testing.T) {
	s := &Selector{
		Transcripts:  &fakeFetcher{text: "spoken words"},
		VideoKeyword: "YouTube",
	}
	got := s.Content(context.Background(), Record{
		URL:   "https://www.YOUTUBE.com/watch?v=abc",
		Title: "Launch Event",
	})
	if got != "Launch Event\nspoken words" {
		t.Errorf("Content = %q, want title plus transcript", got)
	}
}

func TestContentNonVideoEmpty(t *testing.T) {
	s := &Selector{Transcripts: &fakeFetcher{text: "nope"}}
	got := s.Content(context.Background(), Record{URL: "https://example.com/article"})
	if got != "" {
		t.Errorf("Content = %q, want empty", got)
	}
}
