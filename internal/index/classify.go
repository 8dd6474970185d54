// Package index implements the directory walker, content classifier,
// and incremental reconciler, grounded on the teacher's
// internal/indexing pipeline and original_source's indexer/{walker,
// incremental}.rs and utils/{mime,encoding}.rs.
package index

import (
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/surgebase/porter2"
)

const sampleWindow = 8192

// isLikelyText applies original_source's null-byte/control-char ratio
// heuristic over an 8KB sample.
func isLikelyText(sample []byte) bool {
	if len(sample) == 0 {
		return true
	}
	n := len(sample)
	if n > sampleWindow {
		n = sampleWindow
		sample = sample[:n]
	}
	var control int
	for _, b := range sample {
		if b == 0 {
			return false
		}
		if b < 0x09 || (b > 0x0D && b < 0x20) {
			control++
		}
	}
	return float64(control)/float64(n) < 0.3
}

// mimeFromExtension classifies a coarse MIME category from extension,
// reimplemented without mime_guess per DESIGN.md (no pack dependency
// covers this narrowly).
func mimeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case "go", "rs", "py", "js", "ts", "java", "c", "cpp", "h", "hpp", "rb", "sh":
		return "text/x-source"
	case "md", "txt", "rst":
		return "text/plain"
	case "json", "yaml", "yml", "toml", "kdl", "xml":
		return "text/x-config"
	case "png", "jpg", "jpeg", "gif", "bmp", "webp":
		return "image/*"
	case "pdf":
		return "application/pdf"
	case "zip", "tar", "gz", "7z":
		return "application/x-archive"
	default:
		return ""
	}
}

// tokenize normalizes sample text into the bounded ContentTokens set:
// lowercase, split on non-alphanumeric, drop tokens of length 1 or
// over 64, optionally stemmed with porter2.
func tokenize(text string, stem bool) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		t := cur.String()
		cur.Reset()
		if len(t) < 2 || len(t) > 64 {
			return
		}
		if stem {
			t = porter2.Stem(t)
		}
		tokens = append(tokens, t)
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// fastDigest hashes a capped byte window with xxhash, the teacher's
// "fast fingerprint" idiom (FastHash) rather than original_source's
// SHA-256 full-content hash; see DESIGN.md.
func fastDigest(sample []byte) string {
	if len(sample) > sampleWindow {
		sample = sample[:sampleWindow]
	}
	return xxhashHex(sample)
}

func xxhashHex(b []byte) string {
	h := xxhash.Sum64(b)
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexDigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
