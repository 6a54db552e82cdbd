package sqlstore

import "strings"

// globMatch reports whether key matches pattern with SCAN MATCH semantics:
// '*' matches any run of bytes including '/', '?' matches one byte, '[...]'
// is a class with optional '^' negation and 'a-z' ranges, '\' escapes.
// An unterminated class matches nothing.
func globMatch(pattern, key string) bool {
	for pattern != "" {
		switch pattern[0] {
		case '*':
			pattern = strings.TrimLeft(pattern, "*")
			if pattern == "" {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if globMatch(pattern, key[i:]) {
					return true
				}
			}
			return false
		case '?':
			if key == "" {
				return false
			}
		case '[':
			if key == "" {
				return false
			}
			rest, ok := matchClass(pattern[1:], key[0])
			if !ok {
				return false
			}
			pattern, key = rest, key[1:]
			continue
		case '\\':
			if len(pattern) > 1 {
				pattern = pattern[1:]
			}
			fallthrough
		default:
			if key == "" || key[0] != pattern[0] {
				return false
			}
		}
		pattern, key = pattern[1:], key[1:]
	}
	return key == ""
}

// matchClass matches b against the class body p (after '[') and returns the
// pattern following the closing ']'.
func matchClass(p string, b byte) (string, bool) {
	negate := false
	if p != "" && p[0] == '^' {
		negate, p = true, p[1:]
	}
	matched := false
	for {
		switch {
		case p == "":
			return "", false
		case p[0] == ']':
			return p[1:], matched != negate
		case p[0] == '\\' && len(p) > 1:
			matched = matched || p[1] == b
			p = p[2:]
		case len(p) > 2 && p[1] == '-' && p[2] != ']':
			lo, hi := p[0], p[2]
			if lo > hi {
				lo, hi = hi, lo
			}
			matched = matched || (b >= lo && b <= hi)
			p = p[3:]
		default:
			matched = matched || p[0] == b
			p = p[1:]
		}
	}
}
