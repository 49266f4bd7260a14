package rdapbootstrap

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// TokenChecker reports whether a bearer token is on the allow-list.
type TokenChecker interface {
	Valid(token string) bool
}

// TokenSet is an immutable allow-list of bearer tokens.
type TokenSet map[string]struct{}

func (s TokenSet) Valid(token string) bool {
	if token == "" {
		return false
	}
	_, ok := s[token]
	return ok
}

// ParseTokens reads one token per line. Blank lines and lines starting
// with '#' are ignored.
func ParseTokens(r io.Reader) (TokenSet, error) {
	set := TokenSet{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// LoadTokens reads a token file.
func LoadTokens(path string) (TokenSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTokens(f)
}

// TokenSource is a TokenChecker backed by a file that can be re-read while
// requests are being served.
type TokenSource struct {
	path string
	cur  atomic.Pointer[TokenSet]
}

// NewTokenSource loads path once. Reload picks up later edits.
func NewTokenSource(path string) (*TokenSource, error) {
	s := &TokenSource{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the token set. On error the previous set stays active.
func (s *TokenSource) Reload() error {
	set, err := LoadTokens(s.path)
	if err != nil {
		return err
	}
	s.cur.Store(&set)
	return nil
}

func (s *TokenSource) Len() int {
	if p := s.cur.Load(); p != nil {
		return len(*p)
	}
	return 0
}

func (s *TokenSource) Valid(token string) bool {
	p := s.cur.Load()
	return p != nil && p.Valid(token)
}
