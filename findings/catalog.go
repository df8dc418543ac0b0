package findings

import (
	"bytes"
	"encoding/base64"
	"math"
)

// Builtin returns the default catalog.
func Builtin() Catalog {
	return Catalog{
		amazonToken(),
		googleToken(),
		uuidFinding(),
		jwtFinding(),
		hexToken(),
		base64Finding(),
		entropyToken(),
	}
}

func amazonToken() Finding {
	return Finding{
		Name:        "AmazonToken",
		Description: "AWS access key id. A leaked key lets an attacker act on the owning account until it is rotated.",
		Expressions: []Expression{
			{Source: `ASIA[A-Z0-9]{16,128}`, Weight: 1.5},
			{Source: `AKIA[A-Z0-9]{16,128}`, Weight: 1.5},
		},
		Extra: func(m *Match) []Indicator {
			var out []Indicator
			if len(m.Data) == 20 {
				out = append(out, Indicator{"Default token size", "AmazonToken", 0.25})
			}
			if isUpper(m.Data) {
				out = append(out, Indicator{"All uppercase", "AmazonToken", 0.25})
			}
			return out
		},
	}
}

func googleToken() Finding {
	return Finding{
		Name:        "GoogleToken",
		Description: "Google API key. Keys are often unrestricted and billable to the owning project.",
		Expressions: []Expression{
			{Source: `AIza[A-Za-z0-9\-_]{35}`, Weight: 1.75},
		},
	}
}

// Mean byte values of lowercase and uppercase hex alphabets.
const (
	lowerHexAverage = 70.125
	upperHexAverage = 58.125
)

func uuidFinding() Finding {
	return Finding{
		Name:        "UUID",
		Description: "UUID. Frequently used as an API key, client secret or unguessable resource id.",
		Expressions: []Expression{
			{Source: `(?i)[a-z0-9]{8}-(?:[0-9a-z]{4}-){3}[0-9a-z]{12}`, Weight: 1.5},
		},
		Extra: func(m *Match) []Indicator {
			var out []Indicator

			avg := AverageByte(bytes.ReplaceAll(m.Data, []byte("-"), nil))
			distance := math.Min(math.Abs(avg-lowerHexAverage), math.Abs(avg-upperHexAverage))
			if distance <= 10 {
				out = append(out, Indicator{"Similar byte average", "UUID", 0.25 * (1 - distance/10)})
			} else {
				out = append(out, Indicator{"Distant byte average", "UUID", -0.25})
			}

			if len(m.Data) > 14 && bytes.IndexByte([]byte("1345"), m.Data[14]) >= 0 {
				out = append(out, Indicator{"Known version", "UUID", 0.25})
			} else {
				out = append(out, Indicator{"Unknown version", "UUID", -0.25})
			}
			return out
		},
	}
}

func jwtFinding() Finding {
	return Finding{
		Name:        "JWT",
		Description: "JSON Web Token. A valid token grants whatever its claims allow until it expires.",
		Expressions: []Expression{
			{Source: `(?i)[a-z0-9\-_]{8,}\.[a-z0-9\-_]{8,}\.([a-z0-9\-_]*)`, Weight: 1.5},
		},
		Extra: func(m *Match) []Indicator {
			if len(m.Groups) > 0 && len(m.Groups[0]) == 0 {
				return []Indicator{{"Missing signature", "JWT", -0.5}}
			}
			return nil
		},
	}
}

func hexToken() Finding {
	return Finding{
		Name:        "HexToken",
		Description: "Hex-encoded token. Often a raw API secret, signing key or session id.",
		Expressions: []Expression{
			{Source: `(?i)[a-f0-9]{8,128}`, Weight: 0.75},
		},
		Extra: weighHex,
	}
}

func weighHex(m *Match) []Indicator {
	var out []Indicator
	data := m.Data

	if m.lineMentions(hashLineWords...) {
		out = append(out, Indicator{"Potential hash", "HexToken", -0.25})
	}
	if bytes.Contains(bytes.ToUpper(data), alphabetRun) || bytes.Contains(data, numberRun) {
		out = append(out, Indicator{"Contains alphabet sequence", "HexToken", -0.25})
	}
	if m.Prev == '#' {
		out = append(out, Indicator{"Similar to hex code", "HexToken", -0.125})
	}

	// Random hex sits close to the 4 bit maximum
	distance := math.Abs(3.7 - ShannonEntropy(data))
	if distance < 0.5 {
		out = append(out, Indicator{"Similar Shannon entropy", "HexToken", 0.125 - 0.125*distance})
	} else {
		out = append(out, Indicator{"Dissimilar Shannon entropy", "HexToken", -0.125 * distance})
	}

	if isUpper(data) || isLower(data) {
		out = append(out, Indicator{"Single case", "HexToken", 0.125})
	} else {
		out = append(out, Indicator{"Mixed case", "HexToken", -0.125})
	}

	if isDigits(data) {
		out = append(out, Indicator{"All numbers", "HexToken", -0.5})
	}

	avg := AverageByte(data)
	upper, lower := math.Abs(avg-upperHexAverage), math.Abs(avg-lowerHexAverage)
	switch {
	case upper <= 10:
		out = append(out, Indicator{"Similar uppercase byte average", "HexToken", 0.125 * (1 - upper/10)})
	case lower <= 10:
		out = append(out, Indicator{"Similar lowercase byte average", "HexToken", 0.125 * (1 - lower/25)})
	default:
		out = append(out, Indicator{"Dissimilar byte average", "HexToken", -0.125})
	}

	switch n := len(data); {
	case n < 16:
		out = append(out, Indicator{"Reasonable length", "HexToken", 0.125})
	case n > 32:
		out = append(out, Indicator{"Unreasonable length", "HexToken", -0.25})
	}
	return out
}

func base64Finding() Finding {
	return Finding{
		Name:        "Base64",
		Description: "Base64 blob. May wrap credentials, private keys or serialized tokens.",
		Expressions: []Expression{
			{Source: `(?i)[a-z0-9\+/]{8,}`, Weight: 0.25},
			{Source: `(?i)[a-z0-9\+/]{8,}={1,2}`, Weight: 0.75},
		},
		Extra: weighBase64,
		Reject: func(m *Match) bool {
			return hexOnly.Match(m.Data) || looksLikePath(m.Data)
		},
	}
}

func weighBase64(m *Match) []Indicator {
	var out []Indicator
	data := m.Data

	if avg := AverageByte(data); avg >= 65 && avg <= 95 {
		out = append(out, Indicator{"Similar byte average", "Base64", 0.125})
	} else {
		out = append(out, Indicator{"Distant byte average", "Base64", -0.5})
	}

	if m.lineMentions(hashLineWords...) {
		out = append(out, Indicator{"Potential hash", "Base64", -0.25})
	}

	if yes, no := pronounceableWords(data, true); yes > no {
		out = append(out, Indicator{"Pronounceable words", "Base64", -0.25})
	} else {
		out = append(out, Indicator{"Unpronounceable words", "Base64", 0.25})
	}

	if _, err := base64.StdEncoding.DecodeString(padBase64(data)); err != nil {
		out = append(out, Indicator{"Failed to decode with padding", "Base64", -0.125})
	}
	if _, err := base64.StdEncoding.Strict().DecodeString(string(data)); err != nil {
		out = append(out, Indicator{"Failed to decode without padding", "Base64", -0.125})
	}

	if isUpper(data) || isLower(data) {
		out = append(out, Indicator{"Single case letters", "Base64", -0.5})
	} else {
		out = append(out, Indicator{"Mixed case letters", "Base64", 0.125})
	}

	if bytes.HasSuffix(data, []byte("=")) {
		out = append(out, Indicator{`Ends with "="`, "Base64", 0.125})
	} else {
		out = append(out, Indicator{`Does not end with "="`, "Base64", -0.125})
	}

	if bytes.ContainsAny(data, "+/") {
		out = append(out, Indicator{`Contains "+" or "/"`, "Base64", 0.125})
	} else {
		out = append(out, Indicator{`Does not contain "+" or "/"`, "Base64", -0.125})
	}

	out = append(out, alphabetIndicators(data)...)

	if ShannonEntropy(data) > 3.75 {
		out = append(out, Indicator{"High Shannon entropy", "Base64", 0.125})
	} else {
		out = append(out, Indicator{"Low Shannon entropy", "Base64", -0.125})
	}
	return out
}

// padBase64 re-pads data to a multiple of four.
func padBase64(data []byte) string {
	s := string(bytes.TrimRight(data, "="))
	if rem := len(s) % 4; rem != 0 {
		for i := rem; i < 4; i++ {
			s += "="
		}
	}
	return s
}

// looksLikePath matches slash-separated lowercase words such as "usr/local/bin".
func looksLikePath(data []byte) bool {
	if bytes.Count(data, []byte("/")) < 2 {
		return false
	}
	for _, seg := range bytes.Split(data, []byte("/")) {
		if len(seg) > 0 && !isLower(seg) {
			return false
		}
		if bytes.ContainsAny(seg, "0123456789+") {
			return false
		}
	}
	return true
}

func alphabetIndicators(data []byte) []Indicator {
	upper := bytes.ToUpper(data)
	if !bytes.Contains(upper, alphabetRun) {
		return nil
	}
	value := -0.25
	if bytes.Contains(upper, fullAlphabet) {
		value = -0.5
	}
	return []Indicator{{"Contains alphabet sequence", "Generic", value}}
}

var commonWords = map[string]bool{
	"TLS": true, "ECDHE": true, "PSK": true, "CHACHA20": true, "POLY1305": true,
	"SHA256": true, "GCM": true, "SHA384": true, "AES": true, "CBC": true,
	"DHE": true, "RSA": true, "DH": true, "DSS": true, "ECDSA": true,
}

func entropyToken() Finding {
	return Finding{
		Name:        "EntropyToken",
		Description: "High-entropy token. Generic secrets such as API keys and passwords rarely follow a known format.",
		Expressions: []Expression{
			{Source: `(?i)[a-z0-9\-_]{24,}`, Weight: 0.25},
		},
		Extra: weighEntropy,
		Reject: func(m *Match) bool {
			// Reported as HexToken or UUID instead
			return hexOnly.Match(m.Data) || uuidShape.Match(m.Data)
		},
	}
}

func weighEntropy(m *Match) []Indicator {
	var out []Indicator
	data := m.Data

	line := bytes.ToUpper(m.LinePrefix)
	for _, kw := range secretKeywords {
		i := bytes.LastIndex(line, []byte(kw))
		if i < 0 {
			continue
		}
		if len(line)-(i+len(kw)) < 32 {
			out = append(out, Indicator{"Additional indicator " + kw, "EntropyToken", 0.5})
		}
	}

	out = append(out, alphabetIndicators(data)...)

	words, common := 0, 0
	for _, w := range alnumWords.FindAll(data, -1) {
		words++
		if commonWords[string(bytes.ToUpper(w))] {
			common++
		}
	}
	if words > 0 && float64(common)/float64(words) > 0.5 {
		out = append(out, Indicator{"Mostly common words", "EntropyToken", -0.5})
	}

	if yes, no := pronounceableWords(data, false); yes > no {
		out = append(out, Indicator{"Pronounceable words", "EntropyToken", -0.25})
	} else {
		out = append(out, Indicator{"Unpronounceable words", "EntropyToken", 0.25})
	}

	numbers := len(digitBytes.FindAll(data, -1))
	letters := len(letterBytes.FindAll(data, -1))
	switch {
	case numbers == 0 || letters == 0:
		out = append(out, Indicator{"Only letters or numbers", "EntropyToken", -0.25})
	case float64(numbers)/float64(letters) < 0.1:
		out = append(out, Indicator{"Low number-to-letter ratio", "EntropyToken", -0.25})
	default:
		out = append(out, Indicator{"Mixed numbers and letters", "EntropyToken", 0.5})
	}

	if entropy := ShannonEntropy(data); entropy > 4 {
		out = append(out, Indicator{"High Shannon entropy", "EntropyToken", 0.375 * (entropy / 4)})
	} else {
		out = append(out, Indicator{"Low Shannon entropy", "EntropyToken", -0.25})
	}

	if len(data)%8 == 0 {
		out = append(out, Indicator{"Multiple of 8", "EntropyToken", 0.25})
	}
	return out
}
