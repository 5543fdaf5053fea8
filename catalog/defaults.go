package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"studynotes/models"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type defaultsFile struct {
	Subjects models.CategorizedSubjects `yaml:"subjects"`
	Cards    []models.Card              `yaml:"cards"`
}

var defaults = mustParseDefaults(defaultsYAML)

func mustParseDefaults(data []byte) defaultsFile {
	var d defaultsFile
	if err := yaml.Unmarshal(data, &d); err != nil {
		panic(fmt.Sprintf("catalog: bad defaults.yaml: %v", err))
	}
	return d
}

// DefaultSubjects returns the flat list and buckets used when nothing is stored.
func DefaultSubjects() ([]string, models.CategorizedSubjects) {
	d := defaults.Subjects
	cats := models.CategorizedSubjects{
		Theory:    append([]string{}, d.Theory...),
		Practical: append([]string{}, d.Practical...),
		Extra:     append([]string{}, d.Extra...),
	}
	flat := make([]string, 0, len(cats.Theory)+len(cats.Practical)+len(cats.Extra))
	flat = append(flat, cats.Theory...)
	flat = append(flat, cats.Practical...)
	flat = append(flat, cats.Extra...)
	return flat, cats
}

// DefaultCards returns the homepage tiles used when nothing is stored.
func DefaultCards() []models.Card {
	return append([]models.Card{}, defaults.Cards...)
}
