package translate

import (
	"context"
	"regexp"
	"strings"
)

// Part is a run of markdown. Only Text is sent for translation, and only
// when Translate is set; Prefix and Suffix are kept verbatim.
type Part struct {
	Prefix    string
	Text      string
	Suffix    string
	Translate bool
}

func (p Part) String() string {
	return p.Prefix + p.Text + p.Suffix
}

var (
	headingPrefix = regexp.MustCompile(`^#{1,6}\s+`)
	thematicBreak = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
	imageLine     = regexp.MustCompile(`^!\[.*\]\(.*\)`)
	linkReference = regexp.MustCompile(`^\[[^\]]+\]:`)
)

// Split breaks markdown into parts. Paragraphs and heading text are
// translatable. Frontmatter, fenced code, tables, images, link
// references, MDX/HTML lines, rules and blank lines are kept verbatim.
// Joining the String of every part reproduces content exactly.
func Split(content string) []Part {
	var (
		parts       []Part
		para        strings.Builder
		fence       string
		frontmatter bool
	)

	flush := func() {
		if para.Len() == 0 {
			return
		}
		text := para.String()
		body := strings.TrimRight(text, "\n")
		parts = append(parts, Part{Text: body, Suffix: text[len(body):], Translate: true})
		para.Reset()
	}
	keep := func(line string) {
		flush()
		if n := len(parts); n > 0 && !parts[n-1].Translate {
			parts[n-1].Text += line
			return
		}
		parts = append(parts, Part{Text: line})
	}

	for i, line := range strings.SplitAfter(content, "\n") {
		if line == "" {
			continue
		}
		trimmed := strings.TrimSpace(line)

		switch {
		case fence != "":
			keep(line)
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
		case frontmatter:
			keep(line)
			if trimmed == "---" {
				frontmatter = false
			}
		case i == 0 && trimmed == "---":
			keep(line)
			frontmatter = true
		case strings.HasPrefix(trimmed, "```"), strings.HasPrefix(trimmed, "~~~"):
			keep(line)
			fence = trimmed[:3]
		case trimmed == "",
			thematicBreak.MatchString(trimmed),
			strings.HasPrefix(trimmed, "|"),
			strings.HasPrefix(trimmed, "<"),
			strings.HasPrefix(trimmed, "import "),
			strings.HasPrefix(trimmed, "export "),
			imageLine.MatchString(trimmed),
			linkReference.MatchString(trimmed):
			keep(line)
		case headingPrefix.MatchString(trimmed):
			body := strings.TrimRight(line, "\n")
			prefix := headingPrefix.FindString(body)
			if prefix == "" || prefix == body {
				keep(line)
				continue
			}
			flush()
			parts = append(parts, Part{Prefix: prefix, Text: body[len(prefix):], Suffix: line[len(body):], Translate: true})
		default:
			para.WriteString(line)
		}
	}
	flush()

	return parts
}

// Markdown translates the prose of content and leaves its structure
// intact. All translatable parts go out in one batch. On ErrFallback the
// returned content is the original.
func Markdown(ctx context.Context, t Translator, content, to, from string) (string, error) {
	parts := Split(content)

	var (
		texts []string
		index []int
	)
	for i, p := range parts {
		if p.Translate && strings.TrimSpace(p.Text) != "" {
			texts = append(texts, p.Text)
			index = append(index, i)
		}
	}
	if len(texts) == 0 {
		return content, nil
	}

	translated, err := t.Translate(ctx, texts, to, from)
	if err != nil {
		return content, err
	}
	for i, j := range index {
		parts[j].Text = translated[i]
	}

	var b strings.Builder
	b.Grow(len(content))
	for _, p := range parts {
		b.WriteString(p.String())
	}
	return b.String(), nil
}
