package capture

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/root4loot/goutils/fileutil"
)

// Target is a URL to capture and the name its files are stored under.
type Target struct {
	URL  string `yaml:"url" json:"url"`
	Name string `yaml:"name" json:"name"`
}

// NewTarget names a URL after its slug.
func NewTarget(url string) Target {
	return Target{URL: url, Name: Slugify(url)}
}

// ResolveTargets builds the capture list: explicit URLs first, then the
// lines of urlsFile (if any), and the defaults only if both gave nothing.
func ResolveTargets(explicit []Target, urlsFile string, defaults []Target) ([]Target, error) {
	targets := append([]Target(nil), explicit...)

	if urlsFile != "" {
		fileTargets, err := ReadTargetsFile(urlsFile)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fileTargets...)
	}

	if len(targets) == 0 {
		targets = append(targets, defaults...)
	}

	return targets, nil
}

// ReadTargetsFile reads one URL per line. Blank lines and lines starting
// with # are skipped.
func ReadTargetsFile(path string) ([]Target, error) {
	resolved := AbsPath(path)

	lines, err := fileutil.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrURLsFileNotFound, resolved)
		}
		return nil, fmt.Errorf("error reading URLs file %s: %w", resolved, err)
	}

	var targets []Target
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, NewTarget(line))
	}

	return targets, nil
}
