package findings

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

func genericIndicators(m *Match) []Indicator {
	var out []Indicator

	switch {
	case m.Prev == m.Next && isQuote(m.Prev):
		out = append(out, Indicator{"Quoted match", "Generic", 0.5})
	case m.Prev == m.Next:
		out = append(out, Indicator{"Segmented match", "Generic", 0.25})
	case m.Prev == '>' && m.Next == '<':
		out = append(out, Indicator{"Entity match", "Generic", 0.5})
	case isLineEdge(m.Prev, ',', '\n') && isLineEdge(m.Next, ',', '\r', '\n'):
		out = append(out, Indicator{"Isolated match", "Generic", 0.25})
	default:
		out = append(out, Indicator{"Partial match", "Generic", -0.25})
	}

	if len(m.Data) > 0 {
		ratio := float64(LongestSequence(m.Data)) / float64(len(m.Data))
		if ratio > 0.25 {
			out = append(out, Indicator{"Predictable sequence", "Generic", -0.5 * ratio})
		}
	}
	return out
}

func isQuote(b int) bool {
	return b == '\'' || b == '"' || b == '`'
}

func isLineEdge(b int, edges ...byte) bool {
	if b < 0 {
		return true
	}
	for _, e := range edges {
		if b == int(e) {
			return true
		}
	}
	return false
}

// ShannonEntropy returns the entropy of data in bits per byte.
func ShannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}

	n := float64(len(data))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// LongestSequence returns the length of the longest run of steps between
// adjacent bytes that differ by at most one, which catches both repetitions
// and counting sequences such as "abcd" or "4321".
func LongestSequence(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	longest, current := 0, 0
	last := int(data[0])
	for _, b := range data[1:] {
		diff := int(b) - last
		if diff >= -1 && diff <= 1 {
			current++
		} else {
			longest = max(longest, current)
			current = 0
		}
		last = int(b)
	}
	return max(longest, current)
}

// AverageByte returns the mean byte value of data.
func AverageByte(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum int
	for _, b := range data {
		sum += int(b)
	}
	return float64(sum) / float64(len(data))
}

// isUpper reports whether data has at least one letter and no lowercase ones.
func isUpper(data []byte) bool {
	cased := false
	for _, r := range string(data) {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func isLower(data []byte) bool {
	cased := false
	for _, r := range string(data) {
		if unicode.IsUpper(r) {
			return false
		}
		if unicode.IsLower(r) {
			cased = true
		}
	}
	return cased
}

func isDigits(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, b := range data {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

var (
	vowels     = []string{"a", "e", "i", "o", "u", "y"}
	consonants = []string{
		"b", "bl", "br", "c", "ch", "cr", "chr", "cl", "ck", "d", "dr", "f",
		"fl", "g", "gl", "gr", "h", "j", "k", "l", "ll", "m", "n", "p", "ph",
		"pl", "pr", "q", "r", "s", "sc", "sch", "sh", "sl", "sp", "st", "t",
		"th", "thr", "tr", "v", "w", "wr", "x", "y", "z",
	}

	pronounceable = func() *regexp.Regexp {
		v := "(?:" + strings.Join(vowels, "|") + ")"
		c := "(?:" + strings.Join(consonants, "|") + ")"
		return regexp.MustCompile("(?i)^" + c + "?" + c + "?(?:" + v + "+" + c + c + "?)*" + v + "*$")
	}()

	alnumWords     = regexp.MustCompile(`(?i)[a-z0-9]+`)
	camelWords     = regexp.MustCompile(`[A-Z]?[a-z]*`)
	hexOnly        = regexp.MustCompile(`(?i)^[a-f0-9]+$`)
	uuidShape      = regexp.MustCompile(`(?i)^[a-z0-9]{8}-(?:[0-9a-z]{4}-){3}[0-9a-z]{12}$`)
	digitBytes     = regexp.MustCompile(`[0-9]`)
	letterBytes    = regexp.MustCompile(`(?i)[a-z\-_]`)
	alphabetRun    = []byte("ABCDEF")
	fullAlphabet   = []byte("GHIJKLMNOPQRSTUVWXYZ")
	numberRun      = []byte("1234567890")
	hashLineWords  = []string{"HASH", "SHA", "MD5"}
	secretKeywords = []string{"SECRET", "KEY", "API", "TOKEN", "PASSWORD", "CREDENTIAL"}
)

// pronounceableWords counts pronounceable and unpronounceable words in data.
// Short camel-case fragments count against pronounceability when strictShort is set.
func pronounceableWords(data []byte, strictShort bool) (yes, no int) {
	if strictShort {
		for _, w := range alnumWords.FindAll(data, -1) {
			if pronounceable.Match(w) {
				yes++
			} else {
				no++
			}
		}
	}
	for _, w := range camelWords.FindAll(data, -1) {
		if len(w) <= 3 {
			if strictShort {
				no++
			}
			continue
		}
		if pronounceable.Match(w) {
			yes++
		} else {
			no++
		}
	}
	return yes, no
}
