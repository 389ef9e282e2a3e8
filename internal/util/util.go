// Package util provides content hashing, text normalization and front matter
// parsing shared by the server and the publishing client.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"

	"github.com/mmarkdown/mmark/v2/mast"
)

type ExtendedTitleData struct {
	*mast.TitleData
	Consumed int
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// CharCount is the length used for every content cap: characters, not bytes.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// NormalizeContent unifies line endings to \n and drops control characters
// other than newline and tab.
func NormalizeContent(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		// C0, DEL and C1 controls.
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// GetFrontMatter extracts the Mmark %%% TOML block at the start of md.
func GetFrontMatter(md []byte) (*ExtendedTitleData, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	delimiter := []byte("%%%")

	if len(md) < 2*len(delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	first := bytes.Index(md[:len(delimiter)+1], delimiter)
	if first == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	second := bytes.Index(md[first+len(delimiter):], delimiter)
	if second == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	end := second + 2*len(delimiter) + 1
	if end > len(md) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	frontMatter := md[len(delimiter) : end-len(delimiter)-1]
	info := &ExtendedTitleData{
		TitleData: &mast.TitleData{},
	}

	if _, err := toml.Decode(string(frontMatter), info); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	info.Consumed = end

	return info, nil
}

// FrontMatterTitle returns the front matter title of md, or "" when there is
// none.
func FrontMatterTitle(md string) string {
	info, err := GetFrontMatter([]byte(md))
	if err != nil || info == nil {
		return ""
	}
	return strings.TrimSpace(info.Title)
}

// StripFrontMatter returns md without its leading front matter block. md is
// returned unchanged when it has none.
func StripFrontMatter(md []byte) []byte {
	info, err := GetFrontMatter(md)
	if err != nil || info == nil {
		return md
	}
	rest := bytes.TrimLeft(markdown.NormalizeNewlines(md), "\n \t\r")
	return rest[info.Consumed:]
}
