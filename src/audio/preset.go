package audio

import (
	"os"
	"sort"
	"strings"
)

// ----- Presets ----- //

// presetManager loads parameter snapshots from JSON files in a directory.
type presetManager struct {
	dir string
}

func newPresetManager(dir string) *presetManager {
	return &presetManager{
		dir: dir,
	}
}

func (pm *presetManager) getList() []string {
	entries, err := os.ReadDir(pm.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names
}

func (pm *presetManager) applyToParams(name string, target *params) error {
	path := pm.dir + "/" + name + ".json"
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	target.applyJSON(bytes)
	return nil
}
