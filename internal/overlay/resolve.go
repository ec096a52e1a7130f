package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff"}

// Ref names a template source: an image file or a directory of images,
// with an optional name and threshold override.
type Ref struct {
	Path      string
	Name      string
	Threshold float64
}

// ParseRef parses a command-line template argument of the form PATH or
// PATH@THRESHOLD.
func ParseRef(arg string) (Ref, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Ref{}, fmt.Errorf("template reference is empty")
	}
	idx := strings.LastIndex(arg, "@")
	if idx <= 0 {
		return Ref{Path: arg}, nil
	}
	value, err := strconv.ParseFloat(arg[idx+1:], 64)
	if err != nil {
		// Paths may legitimately contain '@'.
		return Ref{Path: arg}, nil
	}
	if value <= 0 || value > 1 {
		return Ref{}, fmt.Errorf("template %s: threshold %v outside (0, 1]", arg[:idx], value)
	}
	return Ref{Path: arg[:idx], Threshold: value}, nil
}

// Resolve loads every template named by refs. Directories expand to their
// image files, non-recursively and sorted by name. Names must be unique;
// clashing file stems get a numeric suffix.
func Resolve(refs []Ref, defaultThreshold float64, opts StampOptions) ([]*Template, error) {
	var templates []*Template
	names := make(map[string]int)
	for _, ref := range refs {
		paths, err := expand(ref.Path)
		if err != nil {
			return nil, err
		}
		threshold := ref.Threshold
		if threshold == 0 {
			threshold = defaultThreshold
		}
		for _, path := range paths {
			tpl, err := Load(path, threshold, opts)
			if err != nil {
				return nil, err
			}
			if ref.Name != "" && len(paths) == 1 {
				tpl.Name = ref.Name
			}
			tpl.Name = uniqueName(names, tpl.Name)
			templates = append(templates, tpl)
		}
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}
	return templates, nil
}

// LoadDir loads every image file directly inside dir.
func LoadDir(dir string, threshold float64, opts StampOptions) ([]*Template, error) {
	return Resolve([]Ref{{Path: dir, Threshold: threshold}}, threshold, opts)
}

// DisplayName turns a template name such as "corner_logo" into "Corner Logo".
func DisplayName(name string) string {
	spaced := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)
	return cases.Title(language.Und).String(strings.Join(strings.Fields(spaced), " "))
}

// IsImageFile reports whether path has a supported image extension.
func IsImageFile(path string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(path)))
}

func expand(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read template dir %s: %w", path, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(path, entry.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("template dir %s: %w", path, ErrNoTemplates)
	}
	return paths, nil
}

func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	if seen[name] == 1 {
		return name
	}
	for {
		candidate := fmt.Sprintf("%s-%d", name, seen[name])
		if _, taken := seen[candidate]; !taken {
			seen[candidate] = 1
			return candidate
		}
		seen[name]++
	}
}
