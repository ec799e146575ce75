package redirect

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/edirooss/gosh/internal/token"
)

func TestExtractNoRedirections(t *testing.T) {
	tokens := []token.Token{{Kind: token.Word, Word: "ls"}, {Kind: token.Word, Word: "-la"}}
	res, err := Extract(tokens)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(res.Argv) != 2 || res.Input != nil || res.Output != nil {
		t.Errorf("Extract result = %+v, want untouched argv and no descriptors", res)
	}
}

func TestExtractDanglingOperator(t *testing.T) {
	tokens := []token.Token{{Kind: token.Word, Word: "cat"}, {Kind: token.Output}}
	_, err := Extract(tokens)
	if !errors.Is(err, ErrDanglingRedirect) {
		t.Errorf("Extract error = %v, want ErrDanglingRedirect", err)
	}
}

func TestExtractOpensOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	tokens := []token.Token{
		{Kind: token.Word, Word: "echo"},
		{Kind: token.Word, Word: "hi"},
		{Kind: token.Output},
		{Kind: token.Word, Word: path},
	}
	res, err := Extract(tokens)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	defer res.Output.Close()

	if res.Output == nil {
		t.Fatal("Extract did not open an output descriptor")
	}
	if got := token.Words(res.Argv); len(got) != 2 || got[0] != "echo" || got[1] != "hi" {
		t.Errorf("Extract argv = %v, want [echo hi]", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file was not created: %v", err)
	}
}

func TestExtractRepeatedOutputClosesPrior(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")

	tokens := []token.Token{
		{Kind: token.Word, Word: "echo"},
		{Kind: token.Output},
		{Kind: token.Word, Word: first},
		{Kind: token.Output},
		{Kind: token.Word, Word: second},
	}
	res, err := Extract(tokens)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	defer res.Output.Close()

	if res.Output.Name() != second {
		t.Errorf("Extract kept descriptor for %q, want %q", res.Output.Name(), second)
	}
}

func TestExtractInputNotFoundIsNonFatal(t *testing.T) {
	tokens := []token.Token{
		{Kind: token.Word, Word: "cat"},
		{Kind: token.Input},
		{Kind: token.Word, Word: "/nonexistent/path/for/gosh/tests"},
	}
	res, err := Extract(tokens)
	if err != nil {
		t.Fatalf("Extract should tolerate an open failure, got error: %v", err)
	}
	if res.Input != nil {
		t.Errorf("Extract.Input = %v, want nil after a failed open", res.Input)
	}
}
