package certificates

import (
	"embed"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultTemplateID = "classic"

//go:embed templates/*.yaml
var embeddedTemplates embed.FS

type Template struct {
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	Colors TemplateColors `yaml:"colors"`
	Labels TemplateLabels `yaml:"labels"`
	Months []string       `yaml:"months"`
}

type TemplateColors struct {
	Background string `yaml:"background"`
	Border     string `yaml:"border"`
	Accent     string `yaml:"accent"`
	Text       string `yaml:"text"`
	Muted      string `yaml:"muted"`
}

type TemplateLabels struct {
	Title       string `yaml:"title"`
	PresentedTo string `yaml:"presented_to"`
	Completed   string `yaml:"completed"`
	Instructor  string `yaml:"instructor"`
	IssueDate   string `yaml:"issue_date"`
	Verify      string `yaml:"verify"`
	Hash        string `yaml:"hash"`
}

// TemplateRegistry is read-only after LoadTemplates and safe to share.
type TemplateRegistry struct {
	templates map[string]Template
}

// LoadTemplates reads the embedded templates, then every *.yaml/*.yml in dir
// (which may be empty). A file in dir replaces an embedded template with the
// same id. Fields a template leaves out are taken from the default template.
func LoadTemplates(dir string) (*TemplateRegistry, error) {
	reg := &TemplateRegistry{templates: map[string]Template{}}

	entries, err := embeddedTemplates.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}
	var raw [][]byte
	var sources []string
	for _, e := range entries {
		b, err := embeddedTemplates.ReadFile("templates/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded template %s: %w", e.Name(), err)
		}
		raw = append(raw, b)
		sources = append(sources, "embedded:"+e.Name())
	}

	if dir = strings.TrimSpace(dir); dir != "" {
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read templates dir %s: %w", dir, err)
		}
		for _, f := range files {
			ext := strings.ToLower(filepath.Ext(f.Name()))
			if f.IsDir() || (ext != ".yaml" && ext != ".yml") {
				continue
			}
			path := filepath.Join(dir, f.Name())
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read template %s: %w", path, err)
			}
			raw = append(raw, b)
			sources = append(sources, path)
		}
	}

	for i, b := range raw {
		var t Template
		if err := yaml.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", sources[i], err)
		}
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return nil, fmt.Errorf("template %s: id is required", sources[i])
		}
		reg.templates[t.ID] = t
	}

	base, ok := reg.templates[DefaultTemplateID]
	if !ok {
		return nil, fmt.Errorf("default template %q missing", DefaultTemplateID)
	}
	if err := base.validate(); err != nil {
		return nil, fmt.Errorf("template %s: %w", base.ID, err)
	}
	for id, t := range reg.templates {
		if id == DefaultTemplateID {
			continue
		}
		t = t.inherit(base)
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("template %s: %w", id, err)
		}
		reg.templates[id] = t
	}
	return reg, nil
}

// Resolve returns the template for id, or the default template when id is
// empty or unknown. The returned id is the one actually used.
func (r *TemplateRegistry) Resolve(id string) (Template, string) {
	if t, ok := r.templates[strings.TrimSpace(id)]; ok {
		return t, t.ID
	}
	t := r.templates[DefaultTemplateID]
	return t, t.ID
}

func (r *TemplateRegistry) IDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (t Template) inherit(base Template) Template {
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	t.Name = pick(t.Name, t.ID)
	t.Colors.Background = pick(t.Colors.Background, base.Colors.Background)
	t.Colors.Border = pick(t.Colors.Border, base.Colors.Border)
	t.Colors.Accent = pick(t.Colors.Accent, base.Colors.Accent)
	t.Colors.Text = pick(t.Colors.Text, base.Colors.Text)
	t.Colors.Muted = pick(t.Colors.Muted, base.Colors.Muted)
	t.Labels.Title = pick(t.Labels.Title, base.Labels.Title)
	t.Labels.PresentedTo = pick(t.Labels.PresentedTo, base.Labels.PresentedTo)
	t.Labels.Completed = pick(t.Labels.Completed, base.Labels.Completed)
	t.Labels.Instructor = pick(t.Labels.Instructor, base.Labels.Instructor)
	t.Labels.IssueDate = pick(t.Labels.IssueDate, base.Labels.IssueDate)
	t.Labels.Verify = pick(t.Labels.Verify, base.Labels.Verify)
	t.Labels.Hash = pick(t.Labels.Hash, base.Labels.Hash)
	if len(t.Months) == 0 {
		t.Months = base.Months
	}
	return t
}

func (t Template) validate() error {
	for name, hex := range map[string]string{
		"background": t.Colors.Background,
		"border":     t.Colors.Border,
		"accent":     t.Colors.Accent,
		"text":       t.Colors.Text,
		"muted":      t.Colors.Muted,
	} {
		if _, err := parseHexColor(hex); err != nil {
			return fmt.Errorf("colors.%s: %w", name, err)
		}
	}
	if len(t.Months) != 12 {
		return fmt.Errorf("months: want 12 names, got %d", len(t.Months))
	}
	if strings.TrimSpace(t.Labels.Title) == "" {
		return fmt.Errorf("labels.title is required")
	}
	return nil
}

// FormatDate renders "4 de mayo de 2026" using the template's month names.
func (t Template) FormatDate(year int, month int, day int) string {
	name := strconv.Itoa(month)
	if month >= 1 && month <= len(t.Months) {
		name = t.Months[month-1]
	}
	return fmt.Sprintf("%d de %s de %d", day, name, year)
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
