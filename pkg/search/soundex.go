package search

import "strings"

var soundexCodes = map[byte]byte{
	'b': '1', 'f': '1', 'p': '1', 'v': '1',
	'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
	'd': '3', 't': '3',
	'l': '4',
	'm': '5', 'n': '5',
	'r': '6',
}

// soundex returns the 4-character American Soundex code of a name, matching
// the basic form MySQL's SOUNDEX() produces for ASCII input. Empty input
// yields "".
func soundex(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var first byte
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'a' && c <= 'z' {
			first = c
			name = name[i:]
			break
		}
	}
	if first == 0 {
		return ""
	}

	code := []byte{first - 'a' + 'A'}
	prev := soundexCodes[first]
	for i := 1; i < len(name) && len(code) < 4; i++ {
		c := name[i]
		if c < 'a' || c > 'z' {
			prev = 0
			continue
		}
		d, ok := soundexCodes[c]
		if !ok {
			// Vowels and h/w/y reset or pass through the run.
			if c != 'h' && c != 'w' {
				prev = 0
			}
			continue
		}
		if d != prev {
			code = append(code, d)
		}
		prev = d
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}
