package token

import (
	"reflect"
	"testing"
)

func TestTokenizeWords(t *testing.T) {
	got := Tokenize("ls -la /tmp")
	want := []Token{
		{Kind: Word, Word: "ls"},
		{Kind: Word, Word: "-la"},
		{Kind: Word, Word: "/tmp"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %+v, want %+v", got, want)
	}
}

func TestTokenizeOperators(t *testing.T) {
	got := Tokenize("cat < in.txt > out.txt")
	want := []Token{
		{Kind: Word, Word: "cat"},
		{Kind: Input},
		{Kind: Word, Word: "in.txt"},
		{Kind: Output},
		{Kind: Word, Word: "out.txt"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %+v, want %+v", got, want)
	}
}

func TestTokenizePipeAndBackground(t *testing.T) {
	got := Tokenize("sort | uniq &")
	want := []Token{
		{Kind: Word, Word: "sort"},
		{Kind: Pipe},
		{Kind: Word, Word: "uniq"},
		{Kind: Background},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %+v, want %+v", got, want)
	}
}

func TestTokenizeAppend(t *testing.T) {
	got := Tokenize("echo hi >> log.txt")
	if len(got) != 4 || got[2].Kind != Append {
		t.Errorf("Tokenize = %+v, want an Append token at index 2", got)
	}
}

func TestWordsFiltersOperators(t *testing.T) {
	tokens := Tokenize("grep foo < in.txt")
	got := Words(tokens)
	want := []string{"grep", "foo", "in.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words = %v, want %v", got, want)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Tokenize("   "); len(got) != 0 {
		t.Errorf("Tokenize(whitespace) = %+v, want empty", got)
	}
}
