// Package redirect implements the redirection extractor: it walks a
// pipeline stage's token run, consumes <file / >file / >>file triples, and
// returns the compacted argv plus whichever descriptors were opened.
// Grounded on original_source/shell.c:do_redir.
package redirect

import (
	"errors"
	"fmt"
	"os"

	"github.com/edirooss/gosh/internal/token"
)

// ErrDanglingRedirect is returned for a trailing redirection operator with
// no following path token. original_source/shell.c:do_redir is undefined
// here (it increments past the end of the token array); spec.md §9 resolves
// this ambiguity by requiring a syntax error instead.
var ErrDanglingRedirect = errors.New("redirect: missing path after operator")

const (
	readOnly      = os.O_RDONLY
	writeTruncate = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	writeAppend   = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	createMode    = 0644
)

// Result holds the compacted argv (redirection tokens and their paths
// removed) and the descriptors opened for this stage, if any.
type Result struct {
	Argv   []token.Token
	Input  *os.File
	Output *os.File
}

// Extract scans tokens left to right, opening files for <, >, and >>
// operators, and packs the remaining tokens to the front in order. On a
// repeated redirection of the same side, the earlier descriptor is closed
// before the later one is opened. Open failures are printed to stderr here
// and otherwise ignored — the descriptor stays unset and the stage inherits
// the parent's stream — so they never abort the pipeline; only a dangling
// trailing operator is a hard error.
func Extract(tokens []token.Token) (Result, error) {
	res := Result{Argv: make([]token.Token, 0, len(tokens))}

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]

		switch t.Kind {
		case token.Input, token.Output, token.Append:
			if i+1 >= len(tokens) || tokens[i+1].Kind != token.Word {
				return Result{}, fmt.Errorf("%w", ErrDanglingRedirect)
			}
			path := tokens[i+1].Word
			i++ // consume the path token

			if err := openRedirect(&res, t.Kind, path); err != nil {
				fmt.Fprintf(os.Stderr, "shell: open failed '%s': %s\n", path, err)
			}

		default:
			res.Argv = append(res.Argv, t)
		}
	}

	return res, nil
}

func openRedirect(res *Result, kind token.Kind, path string) error {
	switch kind {
	case token.Input:
		f, err := os.OpenFile(path, readOnly, 0)
		if err != nil {
			return err
		}
		if res.Input != nil {
			res.Input.Close()
		}
		res.Input = f

	case token.Output:
		f, err := os.OpenFile(path, writeTruncate, createMode)
		if err != nil {
			return err
		}
		if res.Output != nil {
			res.Output.Close()
		}
		res.Output = f

	case token.Append:
		f, err := os.OpenFile(path, writeAppend, createMode)
		if err != nil {
			return err
		}
		if res.Output != nil {
			res.Output.Close()
		}
		res.Output = f
	}
	return nil
}
