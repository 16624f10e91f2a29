package hotkey

import "strconv"

// buildKeymap adds the letters, digits and F1-F24 to named. A letter's code
// is its lowercase ASCII value plus letterShift.
func buildKeymap(named map[string][]uint16, letterShift int, digit0, f1 uint16) map[string][]uint16 {
	m := make(map[string][]uint16, len(named)+60)
	for k, v := range named {
		m[k] = v
	}
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = []uint16{uint16(int(c) + letterShift)}
	}
	for d := uint16(0); d <= 9; d++ {
		m[strconv.Itoa(int(d))] = []uint16{digit0 + d}
	}
	for n := uint16(1); n <= 24; n++ {
		m["f"+strconv.Itoa(int(n))] = []uint16{f1 + n - 1}
	}
	return m
}
