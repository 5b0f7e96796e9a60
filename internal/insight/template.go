package insight

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a custom review prompt, loaded from a markdown file with
// optional YAML frontmatter. The body becomes the system prompt; the
// frontmatter can carry metadata and override the system prompt inline.
type Template struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	SystemTemplate string `yaml:"system_template"`

	// Source is the path the template was loaded from, for error messages.
	Source string `yaml:"-"`
}

// LoadTemplate parses a prompt template from raw bytes.
func LoadTemplate(source string, data []byte) (*Template, error) {
	tpl, body, err := parseFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", source, err)
	}

	if strings.TrimSpace(tpl.SystemTemplate) == "" {
		tpl.SystemTemplate = strings.TrimSpace(body)
	}
	if strings.TrimSpace(tpl.SystemTemplate) == "" {
		return nil, fmt.Errorf("prompt template %s has no system prompt", source)
	}

	tpl.Source = source
	return tpl, nil
}

// LoadTemplateFile reads and parses a prompt template from disk.
func LoadTemplateFile(path string) (*Template, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- template path is user-provided
	if err != nil {
		return nil, fmt.Errorf("read prompt template %s: %w", path, err)
	}
	return LoadTemplate(path, data)
}

func parseFrontmatter(data []byte) (*Template, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, "", fmt.Errorf("empty template")
	}

	lines := bufio.NewScanner(bytes.NewReader(trimmed))
	lines.Split(bufio.ScanLines)

	var (
		frontmatter []string
		body        []string
		inFront     bool
		headerSeen  bool
	)

	for lines.Scan() {
		line := lines.Text()
		switch {
		case !headerSeen && strings.TrimSpace(line) == "---":
			headerSeen = true
			inFront = true
		case headerSeen && inFront && strings.TrimSpace(line) == "---":
			inFront = false
		default:
			if inFront {
				frontmatter = append(frontmatter, line)
			} else {
				body = append(body, line)
			}
		}
	}
	if err := lines.Err(); err != nil {
		return nil, "", err
	}

	var tpl Template
	if headerSeen {
		if err := yaml.Unmarshal([]byte(strings.Join(frontmatter, "\n")), &tpl); err != nil {
			return nil, "", fmt.Errorf("invalid frontmatter: %w", err)
		}
	}

	return &tpl, strings.Join(body, "\n"), nil
}
