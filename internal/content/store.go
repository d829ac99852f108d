package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound = errors.New("post not found")
	ErrExists   = errors.New("post already exists")
)

type snapshot struct {
	posts   []Post
	bySlug  map[string]int
	english map[string]Post
}

// Store serves posts from a directory of MDX files. Parsed posts are cached
// for ttl; concurrent reloads share one directory scan.
type Store struct {
	dir   string
	ttl   time.Duration
	clock clockwork.Clock

	mu       sync.RWMutex
	snap     *snapshot
	loadedAt time.Time

	group singleflight.Group
}

func NewStore(dir string, ttl time.Duration, clock clockwork.Clock) *Store {
	return &Store{dir: dir, ttl: ttl, clock: clock}
}

// Dir returns the directory posts are read from.
func (s *Store) Dir() string {
	return s.dir
}

// Invalidate drops the cache so the next read rescans the directory.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}

func (s *Store) snapshot(ctx context.Context) (*snapshot, error) {
	s.mu.RLock()
	snap, loadedAt := s.snap, s.loadedAt
	s.mu.RUnlock()

	if snap != nil && s.clock.Since(loadedAt) < s.ttl {
		return snap, nil
	}

	v, err, _ := s.group.Do("load", func() (interface{}, error) {
		loaded, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.snap, s.loadedAt = loaded, s.clock.Now()
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*snapshot), nil
}

func (s *Store) load(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{bySlug: map[string]int{}, english: map[string]Post{}}

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		slug := strings.TrimSuffix(name, fileExt)

		src, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		post, err := Parse(slug, src)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unparsable post", "file", name, "error", err)
			continue
		}

		if base, ok := strings.CutSuffix(slug, englishSuffix); ok {
			post.Slug = base
			post.Language = "en"
			snap.english[base] = *post
			continue
		}
		snap.posts = append(snap.posts, *post)
	}

	sort.SliceStable(snap.posts, func(i, j int) bool {
		a, b := snap.posts[i], snap.posts[j]
		if !a.Published.Equal(b.Published) {
			return a.Published.After(b.Published)
		}
		return a.Slug < b.Slug
	})
	for i, p := range snap.posts {
		snap.bySlug[p.Slug] = i
	}

	return snap, nil
}

// All returns every Turkish post, newest first.
func (s *Store) All(ctx context.Context) ([]Post, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Post, len(snap.posts))
	copy(out, snap.posts)
	return out, nil
}

// BySlug returns the Turkish post stored as slug.mdx.
func (s *Store) BySlug(ctx context.Context, slug string) (*Post, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	i, ok := snap.bySlug[slug]
	if !ok {
		return nil, ErrNotFound
	}
	p := snap.posts[i]
	return &p, nil
}

// Exists reports whether slug names a published post.
func (s *Store) Exists(ctx context.Context, slug string) (bool, error) {
	_, err := s.BySlug(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// English returns the hand-written English variant of slug, if present.
func (s *Store) English(ctx context.Context, slug string) (*Post, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := snap.english[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// Filter narrows a post listing. Zero values match everything.
type Filter struct {
	Category string
	Tag      string
	Query    string
	Featured bool
	Limit    int
}

// Find returns posts matching f, newest first.
func (s *Store) Find(ctx context.Context, f Filter) ([]Post, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := []Post{}
	for _, p := range snap.posts {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Tag != "" && !hasTag(p.Tags, f.Tag) {
			continue
		}
		if f.Featured && !p.Featured {
			continue
		}
		if query != "" && !matches(p, query) {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// Recent returns the n newest posts.
func (s *Store) Recent(ctx context.Context, n int) ([]Post, error) {
	return s.Find(ctx, Filter{Limit: n})
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func matches(p Post, query string) bool {
	if strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.Content), query) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), query) {
			return true
		}
	}
	return false
}

// TagCount is a tag and how many posts carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Tags returns every tag used by a post, most used first.
func (s *Store) Tags(ctx context.Context) ([]TagCount, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, p := range snap.posts {
		for _, t := range p.Tags {
			counts[t]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

// CategoryCounts returns the fixed categories with their post counts.
func (s *Store) CategoryCounts(ctx context.Context) ([]Category, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := Categories()
	for i := range out {
		for _, p := range snap.posts {
			if p.Category == out[i].ID {
				out[i].Count++
			}
		}
	}
	return out, nil
}
