package backlog

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Document is a parsed backlog.md: YAML frontmatter declaring section
// headings, followed by one markdown section per heading, each holding a
// list of "- WU-<n>: <title>" entries.
type Document struct {
	Frontmatter string
	Sections    []Section
}

// Section is one "## Heading" block and its entry lines.
type Section struct {
	Heading string
	Entries []string // each like "- WU-12: Add retry backoff"
}

var headingPattern = regexp.MustCompile(`^## (.+)$`)
var entryIDPattern = regexp.MustCompile(`^-\s*(WU-\d+):`)

// Parse splits raw backlog.md content into frontmatter and sections.
func Parse(raw string) Document {
	var doc Document
	lines := strings.Split(raw, "\n")

	i := 0
	if i < len(lines) && strings.TrimSpace(lines[i]) == "---" {
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "---" {
				end = j
				break
			}
		}
		if end != -1 {
			doc.Frontmatter = strings.Join(lines[i:end+1], "\n")
			i = end + 1
		}
	}

	var current *Section
	for ; i < len(lines); i++ {
		line := lines[i]
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			doc.Sections = append(doc.Sections, Section{Heading: m[1]})
			current = &doc.Sections[len(doc.Sections)-1]
			continue
		}
		trimmed := strings.TrimSpace(line)
		if current != nil && trimmed != "" {
			current.Entries = append(current.Entries, line)
		}
	}
	return doc
}

// Render reconstitutes backlog.md text from a Document.
func (d Document) Render() string {
	var b strings.Builder
	if d.Frontmatter != "" {
		b.WriteString(d.Frontmatter)
		b.WriteString("\n\n")
	}
	for _, s := range d.Sections {
		fmt.Fprintf(&b, "## %s\n", s.Heading)
		for _, e := range s.Entries {
			b.WriteString(e)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// MoveEntry removes wuID's entry from every section and appends it (with
// title) to the section matching toHeading, implementing the "remove from
// in-progress, add to done" step of §4.8.
func (d *Document) MoveEntry(wuID, title, toHeading string) {
	var entry string
	for i := range d.Sections {
		kept := d.Sections[i].Entries[:0]
		for _, e := range d.Sections[i].Entries {
			if m := entryIDPattern.FindStringSubmatch(e); m != nil && m[1] == wuID {
				entry = e
				continue
			}
			kept = append(kept, e)
		}
		d.Sections[i].Entries = kept
	}
	if entry == "" {
		entry = fmt.Sprintf("- %s: %s", wuID, title)
	}
	for i := range d.Sections {
		if d.Sections[i].Heading == toHeading {
			d.Sections[i].Entries = append(d.Sections[i].Entries, entry)
			return
		}
	}
	d.Sections = append(d.Sections, Section{Heading: toHeading, Entries: []string{entry}})
}

// LoadDocument reads and parses backlog.md at path.
func LoadDocument(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, nil
		}
		return Document{}, err
	}
	return Parse(string(raw)), nil
}

// SaveDocument renders and writes a Document back to path.
func SaveDocument(path string, d Document) error {
	return os.WriteFile(path, []byte(d.Render()), 0o644)
}
