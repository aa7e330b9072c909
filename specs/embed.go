package specs

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed *.yaml
var SpecsFS embed.FS

// DefaultScene is the name of the scene spec shipped with the binary.
const DefaultScene = "scene.yaml"

// Load returns the named spec, preferring a copy on disk under specs/ so
// edits show up without a rebuild.
func Load(name string) ([]byte, error) {
	clean := cleanSpecPath(name)
	if data, err := os.ReadFile(DiskPath(clean)); err == nil {
		return data, nil
	}
	return SpecsFS.ReadFile(clean)
}

// ModTime reports the on-disk modification time of the named spec.
func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(DiskPath(cleanSpecPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// DiskPath returns where the named spec lives on disk.
func DiskPath(name string) string {
	return filepath.Join("specs", filepath.FromSlash(cleanSpecPath(name)))
}

func cleanSpecPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "specs/"); ok {
		s = after
	}
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return s
}
