package classify

import (
	"errors"
	"testing"
)

func TestNewSuggesterNeedsTwoSections(t *testing.T) {
	cached := map[string]string{
		"freight charges": "194C",
		"misc expenses":   "NA",
	}
	if _, err := NewSuggester(cached); !errors.Is(err, ErrTooFewSections) {
		t.Errorf("err = %v, want ErrTooFewSections", err)
	}
}

func TestSuggestRejectsWithoutClearWinner(t *testing.T) {
	cached := map[string]string{
		"freight charges":   "194C",
		"professional fees": "194J",
	}
	s, err := NewSuggester(cached)
	if err != nil {
		t.Fatal(err)
	}
	// A name sharing no vocabulary with the training set scores every class
	// alike, so no suggestion comes back.
	if section, ok := s.Suggest("Electricity Deposit"); ok {
		t.Errorf("expected no suggestion, got %q", section)
	}
	if _, ok := s.Suggest(""); ok {
		t.Error("empty name should never suggest")
	}
}
