package parser

import (
	"regexp"
	"strings"
)

var (
	fencePattern        = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	commentLinePattern  = regexp.MustCompile(`(?m)^\s*(//|#).*$`)
	foreignLiterals     = strings.NewReplacer("True", "true", "False", "false", "None", "null", "NaN", "null", "undefined", "null")
	bareKeyPattern      = regexp.MustCompile(`([,{]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	singleQuotedPattern = regexp.MustCompile(`'([^'\\]*)'`)
	trailingCommaPat    = regexp.MustCompile(`,(\s*[}\]])`)
)

// Repair applies a best-effort syntax cleanup so that almost-JSON from
// a language model survives decoding. It is lossy by design and only
// safe to run on text that will be re-validated afterwards.
func Repair(s string) string {
	s = fencePattern.ReplaceAllString(s, "")
	s = commentLinePattern.ReplaceAllString(s, "")
	s = foreignLiterals.Replace(s)
	s = singleQuotedPattern.ReplaceAllString(s, `"$1"`)
	s = bareKeyPattern.ReplaceAllString(s, `$1"$2":`)
	s = trailingCommaPat.ReplaceAllString(s, "$1")
	s = stripControlChars(s)
	return strings.TrimSpace(s)
}

// stripControlChars removes control characters that break the decoder,
// keeping newlines and tabs.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
