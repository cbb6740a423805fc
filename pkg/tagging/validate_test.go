package tagging

import "testing"

func TestValidatorFormat(t *testing.T) {
	v := NewValidator([]string{"automotive", "lubricants"}, "Brenntag")

	got := v.Format([]any{"Automotive", "banana", "Lubricants", "automotive"})
	want := "Brenntag/automotive,Brenntag/lubricants"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestValidatorOrderIndependent(t *testing.T) {
	v := NewValidator([]string{"automotive", "lubricants", "event"}, "Brenntag")
	perms := [][]any{
		{"event", "automotive", "lubricants"},
		{"lubricants", "event", "automotive"},
		{"AUTOMOTIVE", "Lubricants ", " event", "event", 42, nil},
	}
	want := v.Format(perms[0])
	for _, p := range perms[1:] {
		if got := v.Format(p); got != want {
			t.Errorf("Format(%v) = %q, want %q", p, got, want)
		}
	}
}

func TestValidatorIdempotent(t *testing.T) {
	v := NewValidator([]string{"podcast"}, "Brenntag")
	first := v.Format([]any{"Podcast", "podcast"})
	if first != "Brenntag/podcast" {
		t.Fatalf("Format = %q", first)
	}
	if again := v.Format([]any{"Podcast", "podcast"}); again != first {
		t.Errorf("second Format = %q, want %q", again, first)
	}
}

func TestValidatorDiscardsNonStrings(t *testing.T) {
	v := NewValidator([]string{"safety"}, "Brenntag")
	got := v.Format([]any{3.14, true, map[string]any{"safety": 1}, "safety"})
	if got != "Brenntag/safety" {
		t.Errorf("Format = %q, want %q", got, "Brenntag/safety")
	}
}

func TestValidatorEmptyResult(t *testing.T) {
	v := NewValidator([]string{"safety"}, "Brenntag")
	if got := v.Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
	if got := v.Format([]any{"banana", "apple"}); got != "" {
		t.Errorf("Format with no allowed labels = %q, want empty", got)
	}
}
