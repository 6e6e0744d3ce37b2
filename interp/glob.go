package interp

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tv-labs/bash/pattern"
)

func matchExtglob(glob, name string) (bool, error) {
	return pattern.Match(glob, name, true)
}

// Glob implements expand.Env's pathname-expansion hook using
// path/filepath's glob matcher against the session's working
// directory, with an extglob-aware pre-check for patterns the stdlib
// matcher can't parse (the extglob path falls back to a plain
// directory walk filtered through pattern.Match, done in globExtglob).
func (s *Session) Glob(pat string) ([]string, error) {
	if strings.ContainsAny(pat, "@!+*?") && s.OptionOn("extglob") && hasExtglobGroup(pat) {
		return s.globExtglob(pat)
	}
	full := pat
	if !filepath.IsAbs(pat) {
		full = filepath.Join(s.Dir, pat)
	}
	matches, err := filepath.Glob(full)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(pat) {
		for i, m := range matches {
			rel, err := filepath.Rel(s.Dir, m)
			if err == nil {
				matches[i] = rel
			}
		}
	}
	if !s.OptionOn("dotglob") {
		matches = filterDotfiles(matches)
	}
	sort.Strings(matches)
	return matches, nil
}

func hasExtglobGroup(pat string) bool {
	for i := 0; i+1 < len(pat); i++ {
		switch pat[i] {
		case '@', '!', '+', '*', '?':
			if pat[i+1] == '(' {
				return true
			}
		}
	}
	return false
}

func filterDotfiles(matches []string) []string {
	out := matches[:0]
	for _, m := range matches {
		base := filepath.Base(m)
		if strings.HasPrefix(base, ".") {
			continue
		}
		out = append(out, m)
	}
	return out
}

// globExtglob walks the directory containing pat's last path element
// and filters entries through pattern.Match, since filepath.Glob has no
// notion of extglob groups.
func (s *Session) globExtglob(pat string) ([]string, error) {
	dir, base := filepath.Split(pat)
	searchDir := s.Dir
	if dir != "" {
		searchDir = filepath.Join(s.Dir, dir)
	}
	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil, nil
	}
	var out []string
	for _, e := range entries {
		ok, _ := matchExtglob(base, e.Name())
		if ok {
			out = append(out, dir+e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
