// Package skill loads skill documents: directories holding a
// SKILL.md file whose YAML frontmatter names and describes the
// skill.
package skill

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// FileName is the skill document inside each skill directory.
const FileName = "SKILL.md"

// ErrNotFound is returned when a skill directory has no SKILL.md.
var ErrNotFound = errors.New("skill not found")

// Skill is one loaded skill document.
type Skill struct {
	Name        string
	Description string
	Directory   string
	// Raw is the whole file, frontmatter included. It is what text
	// suites inject as context.
	Raw string
	// Body is the markdown after the frontmatter.
	Body string
}

// Loader reads skills from <dir>/<name>/SKILL.md.
type Loader struct {
	dir string
}

// NewLoader returns a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the skills directory.
func (l *Loader) Dir() string { return l.dir }

// Load reads one skill. A missing file yields ErrNotFound.
func (l *Loader) Load(name string) (*Skill, error) {
	skillDir := filepath.Join(l.dir, name)
	content, err := os.ReadFile(filepath.Join(skillDir, FileName))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	s, err := Parse(content)
	if err != nil {
		return nil, errors.Wrapf(err, "skill %s", name)
	}
	if s.Name == "" {
		s.Name = name
	}
	s.Directory = skillDir
	return s, nil
}

// List returns the names of every directory under the skills
// directory that holds a SKILL.md, sorted.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read skills directory %s", l.dir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.dir, e.Name(), FileName)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Parse reads frontmatter and body from a SKILL.md document.
// Documents without frontmatter are accepted with empty metadata.
func Parse(content []byte) (*Skill, error) {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	s := &Skill{Raw: string(content), Body: body(string(content))}
	metaData, err := meta.TryGet(pctx)
	if err != nil {
		return nil, errors.Wrap(err, "invalid frontmatter")
	}
	s.Name, _ = metaData["name"].(string)
	description, _ := metaData["description"].(string)
	s.Description = strings.TrimSpace(description)
	return s, nil
}

func body(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}
	return content
}
