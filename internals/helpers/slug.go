package helper

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify mengubah teks bebas jadi slug [a-z0-9-], hilangkan diakritik,
// kompres "-", trim ujung, enforce maxLen (default 100 jika <=0), fallback "item".
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 100
	}
	s = strings.ToLower(strings.TrimSpace(s))

	// é → e
	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > maxLen {
		rs := []rune(s)
		s = strings.Trim(string(rs[:maxLen]), "-")
	}
	if s == "" {
		s = "item"
	}
	return s
}

// CodeFrom: versi uppercase dari Slugify, dipakai untuk nomor dokumen.
// "Mid Term – Ganjil" → "MID-TERM-GANJIL"
func CodeFrom(s string, maxLen int) string {
	return strings.ToUpper(Slugify(s, maxLen))
}

// SafeFilename: nama file unduhan yang aman untuk header Content-Disposition.
func SafeFilename(base, ext string) string {
	return Slugify(base, 80) + "." + strings.TrimPrefix(ext, ".")
}
