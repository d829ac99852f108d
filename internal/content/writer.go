package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NewPost is the input for creating a post. The English fields are
// optional; an English file is written only when both its title and
// content are present.
type NewPost struct {
	Title     string
	TitleEN   string
	Excerpt   string
	ExcerptEN string
	Content   string
	ContentEN string
	Category  string
	Tags      string // comma separated
	Author    string
	Featured  bool
	DefaultBy string // used when Author is empty
}

// Created reports the files written by Create.
type Created struct {
	Slug   string  `json:"slug"`
	FileTR string  `json:"tr"`
	FileEN *string `json:"en"`
}

// Create writes the MDX file(s) for p and invalidates the cache.
func (s *Store) Create(ctx context.Context, p NewPost) (*Created, error) {
	slug := postSlug(p.Title)
	if slug == "" {
		return nil, fmt.Errorf("title %q produces an empty slug", p.Title)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}

	author := p.Author
	if author == "" {
		author = p.DefaultBy
	}
	if author == "" {
		author = "Admin"
	}
	category := p.Category
	if category == "" {
		category = "general"
	}
	date := s.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	tags := splitTags(p.Tags)

	trFile := slug + fileExt
	tr, err := render(frontmatter{
		Title:       p.Title,
		Description: p.Excerpt,
		Date:        date,
		Author:      author,
		Category:    category,
		Tags:        tags,
		Featured:    p.Featured,
		Language:    "tr",
	}, p.Content)
	if err != nil {
		return nil, err
	}
	if err := writeNew(filepath.Join(s.dir, trFile), tr); err != nil {
		return nil, err
	}

	created := &Created{Slug: slug, FileTR: trFile}

	if p.TitleEN != "" && p.ContentEN != "" {
		enFile := slug + englishSuffix + fileExt
		en, err := render(frontmatter{
			Title:       p.TitleEN,
			Description: p.ExcerptEN,
			Date:        date,
			Author:      author,
			Category:    category,
			Tags:        tags,
			Featured:    p.Featured,
			Language:    "en",
		}, p.ContentEN)
		if err != nil {
			return nil, err
		}
		if err := writeNew(filepath.Join(s.dir, enFile), en); err != nil {
			if rmErr := os.Remove(filepath.Join(s.dir, trFile)); rmErr != nil {
				slog.WarnContext(ctx, "Failed to remove post after English write failed", "file", trFile, "error", rmErr)
			}
			return nil, err
		}
		created.FileEN = &enFile
	}

	s.Invalidate()
	slog.InfoContext(ctx, "Post created", "slug", slug, "english", created.FileEN != nil)
	return created, nil
}

// postSlug slugifies title and drops any trailing "-en", which is reserved
// for English variants.
func postSlug(title string) string {
	slug := Slugify(title)
	for {
		base, ok := strings.CutSuffix(slug, englishSuffix)
		if !ok {
			return slug
		}
		slug = strings.TrimRight(base, "-")
	}
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func render(fm frontmatter, body string) ([]byte, error) {
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n")
	buf.WriteString(strings.TrimSpace(body))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
