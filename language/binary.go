package language

import "bytes"

// SniffLen is how many leading bytes IsBinaryContent inspects.
const SniffLen = 512

// IsBinaryContent reports whether data looks binary: a NUL byte within the
// first SniffLen bytes.
func IsBinaryContent(data []byte) bool {
	if len(data) > SniffLen {
		data = data[:SniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
