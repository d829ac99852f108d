package content

import (
	"encoding/xml"
	"strings"
	"time"
)

const feedSize = 20

// Site describes the blog for feeds.
type Site struct {
	URL         string
	Name        string
	Description string
	Email       string
	Author      string
}

func (s Site) url(path string) string {
	return strings.TrimRight(s.URL, "/") + path
}

type rss struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate,omitempty"`
	Author      string   `xml:"author,omitempty"`
	Categories  []string `xml:"category"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// RSS renders an RSS 2.0 feed of the newest posts.
func RSS(site Site, posts []Post, now time.Time) ([]byte, error) {
	if len(posts) > feedSize {
		posts = posts[:feedSize]
	}

	channel := rssChannel{
		Title:         site.Name,
		Link:          site.URL,
		Description:   site.Description,
		Language:      "tr-TR",
		LastBuildDate: now.UTC().Format(time.RFC1123Z),
		AtomLink:      atomLink{Href: site.url("/feed.xml"), Rel: "self", Type: "application/rss+xml"},
		Items:         make([]rssItem, 0, len(posts)),
	}

	for _, p := range posts {
		link := site.url("/blog/" + p.Slug)
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        rssGUID{Value: link, IsPermaLink: true},
			Description: p.Excerpt,
			Categories:  append([]string{CategoryName(p.Category)}, p.Tags...),
		}
		if !p.Published.IsZero() {
			item.PubDate = p.Published.UTC().Format(time.RFC1123Z)
		}
		if site.Email != "" {
			item.Author = site.Email + " (" + p.Author + ")"
		}
		channel.Items = append(channel.Items, item)
	}

	return marshalXML(rss{Version: "2.0", Atom: "http://www.w3.org/2005/Atom", Channel: channel})
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap renders the sitemap for the static pages, every post and every
// category page.
func Sitemap(site Site, posts []Post, now time.Time) ([]byte, error) {
	today := now.UTC().Format("2006-01-02")
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	static := []struct {
		path, freq, priority string
	}{
		{"", "daily", "1.0"},
		{"/blog", "daily", "0.9"},
		{"/categories", "weekly", "0.8"},
		{"/about", "monthly", "0.5"},
		{"/contact", "monthly", "0.5"},
	}
	for _, s := range static {
		set.URLs = append(set.URLs, sitemapURL{Loc: site.url(s.path), LastMod: today, ChangeFreq: s.freq, Priority: s.priority})
	}

	for _, p := range posts {
		u := sitemapURL{Loc: site.url("/blog/" + p.Slug), ChangeFreq: "monthly", Priority: "0.7"}
		if !p.Published.IsZero() {
			u.LastMod = p.Published.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}

	for _, c := range categories {
		set.URLs = append(set.URLs, sitemapURL{Loc: site.url("/categories/" + c.ID), LastMod: today, ChangeFreq: "weekly", Priority: "0.6"})
	}

	return marshalXML(set)
}

func marshalXML(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
