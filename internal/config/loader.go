package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapload.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapload.yml"

// LoadFile loads a pipeline from a YAML file and applies defaults. It does
// not consult the environment or flags; the CLI loader layers those on top.
func LoadFile(path string) (*Pipeline, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var p Pipeline
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	ApplyDefaults(&p)
	return &p, nil
}

// FindConfigFile returns the config file in dir, or "" when there is none.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ResolvePaths makes the data directory and renames path absolute relative
// to root. Absolute paths are kept.
func (p *Pipeline) ResolvePaths(root string) {
	p.DataDir = resolve(p.DataDir, root)
	p.Renames = resolve(p.Renames, root)
}

// SourcePath returns the path of a source file inside the data directory.
func (p *Pipeline) SourcePath(s Source) string {
	return resolve(s.File, p.DataDir)
}

func resolve(path, base string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
