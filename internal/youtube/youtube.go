// Package youtube retrieves video transcripts for mention URLs whose
// content column is empty. Retrieval is best effort: every failure maps
// to an error the caller degrades to "no transcript text".
package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ErrNoVideoID means the URL did not carry a recognizable video id.
var ErrNoVideoID = errors.New("no video id in url")

// ErrNoCaptions means the watch page exposes no caption track.
var ErrNoCaptions = errors.New("no caption track available")

const watchURL = "https://www.youtube.com/watch?v=%s"

// VideoID extracts the platform video id from a URL. Two shapes are
// accepted: the short-link path segment (youtu.be/<id>) and the
// query-parameter form (youtube.com/watch?v=<id>). Scheme-less URLs
// are parsed as https. Returns "" when no id can be extracted.
func VideoID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if strings.Contains(host, "youtu.be") {
		return strings.Trim(u.Path, "/")
	}
	if strings.Contains(host, "youtube.com") {
		return u.Query().Get("v")
	}
	return ""
}

// Fetcher downloads transcripts from the public watch page: it locates
// the player response JSON embedded in a script tag, follows the first
// caption track and concatenates the timedtext snippets in order.
type Fetcher struct {
	HTTPClient *http.Client
	Cache      *Cache
}

func (f *Fetcher) httpClient() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return &http.Client{Timeout: 20 * time.Second}
}

// Transcript fetches the transcript for a video URL. The cache, when
// configured, is consulted first and updated on success.
func (f *Fetcher) Transcript(ctx context.Context, rawURL string) (string, error) {
	id := VideoID(rawURL)
	if id == "" {
		return "", ErrNoVideoID
	}
	if f.Cache != nil {
		if text, ok, err := f.Cache.Get(ctx, id); err == nil && ok {
			return text, nil
		}
	}

	page, err := f.get(ctx, fmt.Sprintf(watchURL, url.QueryEscape(id)))
	if err != nil {
		return "", fmt.Errorf("fetch watch page: %w", err)
	}
	trackURL, err := captionTrackURL(page)
	if err != nil {
		return "", err
	}
	timed, err := f.get(ctx, trackURL)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	text, err := joinTimedText(timed)
	if err != nil {
		return "", err
	}

	if f.Cache != nil {
		if err := f.Cache.Put(ctx, id, text); err != nil {
			return text, nil
		}
	}
	return text, nil
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en")
	resp, err := f.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

type playerResponse struct {
	Captions struct {
		Renderer struct {
			Tracks []struct {
				BaseURL      string `json:"baseUrl"`
				LanguageCode string `json:"languageCode"`
			} `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// captionTrackURL walks the watch page for the script tag assigning
// ytInitialPlayerResponse and pulls the first caption track URL out of
// the embedded JSON.
func captionTrackURL(page []byte) (string, error) {
	doc, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return "", fmt.Errorf("parse watch page: %w", err)
	}

	const marker = "ytInitialPlayerResponse"
	var script string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if script != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			if text := n.FirstChild.Data; strings.Contains(text, marker) {
				script = text
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if script == "" {
		return "", ErrNoCaptions
	}

	raw := extractObject(script[strings.Index(script, marker):])
	if raw == "" {
		return "", ErrNoCaptions
	}
	var pr playerResponse
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return "", fmt.Errorf("parse player response: %w", err)
	}
	tracks := pr.Captions.Renderer.Tracks
	if len(tracks) == 0 || tracks[0].BaseURL == "" {
		return "", ErrNoCaptions
	}
	return tracks[0].BaseURL, nil
}

// extractObject returns the first balanced {...} object in s, honoring
// string literals and escapes.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func joinTimedText(data []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext: %w", err)
	}
	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		if s := strings.TrimSpace(t.Value); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}
