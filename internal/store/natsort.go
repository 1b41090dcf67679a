package store

import "sort"

// natCompare orders strings naturally: runs of digits compare by numeric
// value, everything else byte-wise with case folded, so "img2" sorts
// before "img10".
func natCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			// Compare whole digit runs numerically. Leading zeros make
			// the runs unequal lengths without changing the value, so
			// skip them before comparing lengths.
			si, sj := i, j
			for si < len(a) && a[si] == '0' {
				si++
			}
			for sj < len(b) && b[sj] == '0' {
				sj++
			}
			ei, ej := si, sj
			for ei < len(a) && isDigit(a[ei]) {
				ei++
			}
			for ej < len(b) && isDigit(b[ej]) {
				ej++
			}
			if li, lj := ei-si, ej-sj; li != lj {
				if li < lj {
					return -1
				}
				return 1
			}
			for k := 0; k < ei-si; k++ {
				if a[si+k] != b[sj+k] {
					if a[si+k] < b[sj+k] {
						return -1
					}
					return 1
				}
			}
			i, j = ei, ej
			continue
		}
		fa, fb := foldByte(ca), foldByte(cb)
		if fa != fb {
			if fa < fb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	default:
		return 0
	}
}

// natSort sorts names in place in natural order.
func natSort(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return natCompare(names[i], names[j]) < 0
	})
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func foldByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
