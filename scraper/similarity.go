package scraper

// Ratio returns a normalized similarity score in [0,1] between two strings:
// 2*M/T, where M is the total size of the longest matching blocks found
// recursively and T the combined length. Identical strings score 1.0,
// strings sharing no characters score 0.0, and the measure is symmetric.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	m := &matcher{a: ra, b: rb, b2j: make(map[rune][]int, len(rb))}
	for j, r := range rb {
		m.b2j[r] = append(m.b2j[r], j)
	}

	matched := m.matchSize(0, len(ra), 0, len(rb))
	return 2 * float64(matched) / float64(len(ra)+len(rb))
}

type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

// matchSize sums the sizes of all matching blocks inside the given window by
// locating the longest match and recursing on both sides of it.
func (m *matcher) matchSize(alo, ahi, blo, bhi int) int {
	i, j, size := m.longestMatch(alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	return size +
		m.matchSize(alo, i, blo, j) +
		m.matchSize(i+size, ahi, j+size, bhi)
}

// longestMatch finds the longest block of equal runes within
// a[alo:ahi] and b[blo:bhi], preferring the earliest occurrence on ties.
func (m *matcher) longestMatch(alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}

	return besti, bestj, bestsize
}
