package tagging

import (
	"context"
	"log"
	"strings"
)

// TranscriptFetcher retrieves a video transcript for a mention URL.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, url string) (string, error)
}

// Selector decides, per record, what text is submitted for
// classification.
type Selector struct {
	// Transcripts is consulted for video mentions without content.
	// May be nil, in which case only the title is used.
	Transcripts TranscriptFetcher

	// MaxTranscriptChars caps the transcript portion. Defaults to 500.
	MaxTranscriptChars int

	// VideoKeyword identifies the supported video platform by
	// case-insensitive substring match on the URL. Defaults to
	// "youtube".
	VideoKeyword string
}

// Content returns the text to classify for one record. Non-empty
// content wins regardless of source type. Video mentions without
// content fall back to title plus a truncated transcript; transcript
// failures degrade to an empty transcript part, never an error.
func (s *Selector) Content(ctx context.Context, rec Record) string {
	content := strings.TrimSpace(rec.Content)
	keyword := s.VideoKeyword
	if keyword == "" {
		keyword = "youtube"
	}
	isVideo := strings.Contains(strings.ToLower(rec.URL), strings.ToLower(keyword))

	if !isVideo || content != "" {
		return content
	}

	title := strings.TrimSpace(rec.Title)
	transcript := ""
	if s.Transcripts != nil {
		text, err := s.Transcripts.Transcript(ctx, rec.URL)
		if err != nil {
			log.Printf("transcript fetch failed (%s): %v", rec.URL, err)
		} else {
			transcript = text
		}
	}
	limit := s.MaxTranscriptChars
	if limit <= 0 {
		limit = 500
	}
	if runes := []rune(transcript); len(runes) > limit {
		transcript = string(runes[:limit])
	}

	parts := make([]string, 0, 2)
	if title != "" {
		parts = append(parts, title)
	}
	if transcript != "" {
		parts = append(parts, transcript)
	}
	return strings.Join(parts, "\n")
}
