package config

// Dataset describes one crawl and the dump it is enriched from.
// This lets a user keep several crawls in one configuration file and pick
// one with --dataset.
type Dataset struct {
	// HTMLDir is the directory holding the crawled setlist pages.
	HTMLDir string `yaml:"htmlDir,omitempty"`

	// Dump is the path of the encyclopedia XML dump.
	Dump string `yaml:"dump,omitempty"`

	// Workers overrides the number of resolver workers.
	// If zero, the global value is used.
	Workers int `yaml:"workers,omitempty"`

	// LoadConcurrency overrides the number of concurrent HTML parses.
	LoadConcurrency int `yaml:"loadConcurrency,omitempty"`

	// DBDir overrides the database directory.
	DBDir string `yaml:"dbDir,omitempty"`
}

// File represents the structure of the .wikienrich configuration file.
type File struct {
	// Datasets maps dataset names to their settings.
	Datasets map[string]Dataset `yaml:"datasets,omitempty"`

	// Defaults contains settings applied to every run unless the selected
	// dataset overrides them.
	Defaults Dataset `yaml:"defaults,omitempty"`
}

// GetDataset returns the settings for a named dataset merged with the
// defaults. An unknown name yields the defaults.
func (f *File) GetDataset(name string) Dataset {
	if ds, ok := f.Datasets[name]; ok {
		return MergeDataset(f.Defaults, ds)
	}
	return f.Defaults
}

// DatasetNames returns the names of the configured datasets.
func (f *File) DatasetNames() []string {
	names := make([]string, 0, len(f.Datasets))
	for name := range f.Datasets {
		names = append(names, name)
	}
	return names
}

// MergeDataset returns defaults overridden by the non-zero values of override.
func MergeDataset(defaults, override Dataset) Dataset {
	result := defaults

	if override.HTMLDir != "" {
		result.HTMLDir = override.HTMLDir
	}
	if override.Dump != "" {
		result.Dump = override.Dump
	}
	if override.Workers > 0 {
		result.Workers = override.Workers
	}
	if override.LoadConcurrency > 0 {
		result.LoadConcurrency = override.LoadConcurrency
	}
	if override.DBDir != "" {
		result.DBDir = override.DBDir
	}

	return result
}
