package meta

import (
	"os"
	"regexp"

	"github.com/gsmcwhirter/go-util/v7/deferutil"
	"github.com/gsmcwhirter/go-util/v7/errors"
	"gopkg.in/yaml.v3"
)

// Detector flags a named boolean signal when any of its patterns matches
// the lower-cased save text.
type Detector struct {
	Key      string
	Patterns []*regexp.Regexp
}

// DetectorTable is an ordered set of boolean detectors. Tables are built
// once at startup and never mutated afterwards.
type DetectorTable []Detector

var defaultTable = mustTable(map[string][]string{
	"bio_ascension":          {`ap_engineered_evolution`, `ap_evolutionary_mastery`},
	"machine_age_virtuality": {`virtuality`, `machine_age`},
	"shattered_ring_origin":  {`origin_shattered_ring`},
})

// DefaultDetectors returns the built-in ascension/origin detector table.
func DefaultDetectors() DetectorTable {
	return defaultTable
}

func mustTable(specs map[string][]string) DetectorTable {
	table := make(DetectorTable, 0, len(specs))
	for key, pats := range specs {
		d := Detector{Key: key, Patterns: make([]*regexp.Regexp, len(pats))}
		for i, p := range pats {
			d.Patterns[i] = regexp.MustCompile(p)
		}
		table = append(table, d)
	}

	return table
}

type detectorFile struct {
	Detectors []detectorSpec `yaml:"detectors"`
}

type detectorSpec struct {
	Key      string   `yaml:"key"`
	Patterns []string `yaml:"patterns"`
}

// LoadDetectors reads a detector table override from a yaml file.
func LoadDetectors(path string) (DetectorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open detector file", "path", path)
	}
	defer deferutil.CheckDefer(f.Close)

	contents := detectorFile{}

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&contents); err != nil {
		return nil, errors.Wrap(err, "could not yaml decode detector file", "path", path)
	}

	table := make(DetectorTable, 0, len(contents.Detectors))
	for _, spec := range contents.Detectors {
		if spec.Key == "" {
			return nil, errors.New("detector with empty key")
		}

		d := Detector{Key: spec.Key, Patterns: make([]*regexp.Regexp, len(spec.Patterns))}
		for i, p := range spec.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, errors.Wrap(err, "could not compile detector pattern", "key", spec.Key, "pattern", p)
			}
			d.Patterns[i] = re
		}

		table = append(table, d)
	}

	return table, nil
}
