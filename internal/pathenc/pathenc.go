// Package pathenc implements the host's lossy directory-name encoding
// for project paths (spec §4.1). Encoding replaces path separators,
// colons, spaces, and hyphens with a single "-"; decoding is
// best-effort only since the original character set cannot be
// recovered from the collapsed form.
package pathenc

import (
	"regexp"
	"strings"

	"github.com/memory-nexus/memory-nexus/internal/errs"
)

// driveLetterRe matches a leading "X--" drive-letter encoding
// (case-insensitive), e.g. "C--Users-..." -> "C:\Users\...".
var driveLetterRe = regexp.MustCompile(`^([A-Za-z])--`)

// lossyChars are the characters the host encoding collapses to "-".
const lossyChars = `\/: -`

// Encode converts a decoded filesystem path into the host's encoded
// directory-name form. Deterministic, but lossy: separators, colons,
// spaces, and hyphens all collapse to the same "-" character, so
// Decode(Encode(p)) is generally not equal to p.
func Encode(decoded string) (string, error) {
	if decoded == "" {
		return "", errs.ErrInvalidPath
	}
	var b strings.Builder
	b.Grow(len(decoded))
	for _, r := range decoded {
		if strings.ContainsRune(lossyChars, r) {
			b.WriteByte('-')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// DecodeBestEffort converts an encoded directory name back into an
// advisory filesystem path. A leading "X--" is treated as a
// drive-letter pattern ("C--" -> "C:\"); every remaining "-" becomes a
// path separator. The result is a best-effort reconstruction only:
// the original spaces, colons, and hyphens cannot be distinguished
// from each other once encoded, so callers must treat the decoded
// path as display-only, never as an equality key.
func DecodeBestEffort(encoded string) (string, error) {
	if encoded == "" {
		return "", errs.ErrInvalidPath
	}

	rest := encoded
	sep := "/"
	var b strings.Builder
	if m := driveLetterRe.FindStringSubmatch(encoded); m != nil {
		b.WriteString(strings.ToUpper(m[1]))
		b.WriteString(`:\`)
		rest = encoded[len(m[0]):]
		sep = `\`
	}

	rest = strings.ReplaceAll(rest, "-", sep)
	b.WriteString(rest)
	return b.String(), nil
}

// ProjectName returns the last non-empty path segment of a decoded
// path, suitable for grouping sessions by project. Returns
// errs.ErrInvalidPath if no non-empty segment exists.
func ProjectName(decoded string) (string, error) {
	trimmed := strings.TrimRight(decoded, `/\`)
	if trimmed == "" {
		return "", errs.ErrInvalidPath
	}
	segments := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i], nil
		}
	}
	return "", errs.ErrInvalidPath
}
