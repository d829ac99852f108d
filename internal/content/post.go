// Package content loads MDX blog posts from disk and renders the feeds
// derived from them.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	defaultAuthor   = "Eren Dikmen"
	defaultCategory = "uncategorized"
	wordsPerMinute  = 200
	excerptLength   = 150
	englishSuffix   = "-en"
	fileExt         = ".mdx"
)

// Post is a parsed MDX file.
type Post struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Author      string    `json:"author"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	ReadingTime int       `json:"readingTime"`
	Excerpt     string    `json:"excerpt"`
	Featured    bool      `json:"featured"`
	Language    string    `json:"language"`
	Content     string    `json:"content,omitempty"`
	Published   time.Time `json:"-"`
}

// Summary returns a copy of p without its body.
func (p Post) Summary() Post {
	p.Content = ""
	return p
}

// Heading is a table of contents entry.
type Heading struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

type frontmatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Date        string   `yaml:"date"`
	Author      string   `yaml:"author"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags"`
	Featured    bool     `yaml:"featured"`
	Language    string   `yaml:"language"`
}

var errNoFrontmatter = errors.New("missing frontmatter")

// splitFrontmatter separates the YAML block between the leading "---"
// lines from the body.
func splitFrontmatter(src []byte) ([]byte, []byte, error) {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(src, []byte("---\n")) {
		return nil, src, errNoFrontmatter
	}
	rest := src[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, src, errNoFrontmatter
	}
	meta := rest[:end]
	body := rest[end+len("\n---"):]
	// Drop the remainder of the closing delimiter line.
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = nil
	}
	return meta, body, nil
}

// Parse builds a Post from the raw contents of slug's MDX file. Files
// without frontmatter are accepted with default metadata.
func Parse(slug string, src []byte) (*Post, error) {
	meta, body, err := splitFrontmatter(src)

	var fm frontmatter
	if err == nil {
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return nil, fmt.Errorf("parse frontmatter of %s: %w", slug, err)
		}
	}

	content := string(body)
	post := &Post{
		Slug:        slug,
		Title:       fm.Title,
		Description: fm.Description,
		Date:        fm.Date,
		Author:      fm.Author,
		Category:    fm.Category,
		Tags:        fm.Tags,
		Featured:    fm.Featured,
		Language:    fm.Language,
		Content:     content,
		ReadingTime: ReadingTime(content),
	}
	if post.Author == "" {
		post.Author = defaultAuthor
	}
	if post.Category == "" {
		post.Category = defaultCategory
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Language == "" {
		post.Language = "tr"
	}
	post.Excerpt = post.Description
	if post.Excerpt == "" {
		post.Excerpt = Excerpt(content)
	}
	post.Published = parseDate(post.Date)

	return post, nil
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ReadingTime estimates minutes to read at 200 words per minute.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

var (
	markdownMarkers = regexp.MustCompile("[#*`\\[\\]]")
	trailingWord    = regexp.MustCompile(`\s+\S*$`)
)

// Excerpt returns up to 150 characters of content without markdown
// markers, cut at a word boundary.
func Excerpt(content string) string {
	plain := strings.TrimSpace(markdownMarkers.ReplaceAllString(content, ""))
	plain = strings.Join(strings.Fields(plain), " ")
	if utf8.RuneCountInString(plain) <= excerptLength {
		return plain
	}
	cut := string([]rune(plain)[:excerptLength])
	return trailingWord.ReplaceAllString(cut, "") + "..."
}

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// TableOfContents lists the markdown headings of content, skipping fenced
// code blocks.
func TableOfContents(content string) []Heading {
	var (
		out     = []Heading{}
		inFence bool
	)
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[2])
		out = append(out, Heading{ID: Slugify(title), Title: title, Level: len(m[1])})
	}
	return out
}
