package tokenizer_test

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"wikimap/internal/tokenizer"
)

// runeCounter is a deterministic Counter used in place of a real encoding.
type runeCounter struct{}

func (runeCounter) Name() string { return "rune-counter" }

func (runeCounter) CountString(text string) (int, error) {
	return utf8.RuneCountInString(text), nil
}

func TestCountBytes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name            string
		data            []byte
		expectedTokens  int
		expectedCounted bool
	}{
		{name: "empty input counts as zero", data: nil, expectedTokens: 0, expectedCounted: true},
		{name: "plain text", data: []byte("hello"), expectedTokens: 5, expectedCounted: true},
		{name: "binary data is skipped", data: []byte{0x00, 0x01, 0x02}, expectedCounted: false},
		{name: "invalid utf8 is skipped", data: []byte{0xff, 0xfe}, expectedCounted: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			result, err := tokenizer.CountBytes(runeCounter{}, testCase.data)
			if err != nil {
				t.Fatalf("count: %v", err)
			}
			if result.Counted != testCase.expectedCounted {
				t.Fatalf("counted: got %v, want %v", result.Counted, testCase.expectedCounted)
			}
			if result.Counted && result.Tokens != testCase.expectedTokens {
				t.Fatalf("tokens: got %d, want %d", result.Tokens, testCase.expectedTokens)
			}
		})
	}
}

func TestCountBytesRequiresCounter(t *testing.T) {
	t.Parallel()

	if _, err := tokenizer.CountBytes(nil, []byte("text")); err == nil {
		t.Fatalf("expected error for nil counter")
	}
}

func TestCountFile(t *testing.T) {
	t.Parallel()

	directory := t.TempDir()
	filePath := filepath.Join(directory, "sample.txt")
	if err := os.WriteFile(filePath, []byte("count me"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	result, err := tokenizer.CountFile(runeCounter{}, filePath)
	if err != nil {
		t.Fatalf("count file: %v", err)
	}
	if !result.Counted || result.Tokens != len("count me") {
		t.Fatalf("result: got %+v", result)
	}

	if _, err := tokenizer.CountFile(runeCounter{}, filepath.Join(directory, "absent.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
