// Package catalog owns the subject list and the homepage cards.
//
// Subjects are persisted twice, as a flat slug list and as per-category
// buckets. Both are always written together from one normalized list so
// every slug sits in exactly one bucket.
package catalog

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"studynotes/models"
	"studynotes/store"
)

var (
	ErrSubjectNameRequired = errors.New("Please enter a subject name")
	ErrSubjectExists       = errors.New("Subject already exists")
	ErrSubjectNameEmpty    = errors.New("Subject name cannot be empty")
	ErrSubjectNameTaken    = errors.New("A subject with this name already exists")
	ErrSubjectNotFound     = errors.New("Subject not found.")
	ErrInvalidCategory     = errors.New("Category must be theory, practical or extra.")
)

// Subject is one slug and the bucket it belongs to.
type Subject struct {
	Slug     string
	Category models.Category
}

func (s Subject) Name() string { return DisplayName(s.Slug) }
func (s Subject) URL() string  { return SubjectURL(s.Slug, s.Category) }

type Catalog struct {
	store *store.Store
	cards *store.Collection[models.Card]
}

func New(s *store.Store) *Catalog {
	return &Catalog{
		store: s,
		cards: store.NewCollection[models.Card](s, models.KeyCards, DefaultCards),
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// Slugify lowercases name and joins whitespace runs with "-".
func Slugify(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// DisplayName turns "oop-practical" into "Oop practical".
func DisplayName(slug string) string {
	if slug == "" {
		return ""
	}
	name := strings.ReplaceAll(slug, "-", " ")
	return strings.ToUpper(name[:1]) + name[1:]
}

// SubjectURL is the page of slug: practical and extra subjects live under
// /practical-notes, theory under /subjects.
func SubjectURL(slug string, category models.Category) string {
	if category == models.CategoryPractical || category == models.CategoryExtra {
		return "/practical-notes/" + slug
	}
	return "/subjects/" + slug
}

// Normalize merges a flat list and buckets into one list. The flat list
// decides membership and order; a slug in several buckets keeps the first
// (theory, practical, extra); a slug in none is theory.
func Normalize(flat []string, cats models.CategorizedSubjects) []Subject {
	bucket := map[string]models.Category{}
	for _, pair := range []struct {
		cat   models.Category
		slugs []string
	}{
		{models.CategoryTheory, cats.Theory},
		{models.CategoryPractical, cats.Practical},
		{models.CategoryExtra, cats.Extra},
	} {
		for _, slug := range pair.slugs {
			if _, seen := bucket[slug]; !seen {
				bucket[slug] = pair.cat
			}
		}
	}

	seen := map[string]bool{}
	out := make([]Subject, 0, len(flat))
	for _, slug := range flat {
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		cat, ok := bucket[slug]
		if !ok {
			cat = models.CategoryTheory
		}
		out = append(out, Subject{Slug: slug, Category: cat})
	}
	return out
}

// Split is the inverse of Normalize.
func Split(subjects []Subject) ([]string, models.CategorizedSubjects) {
	flat := make([]string, 0, len(subjects))
	cats := models.CategorizedSubjects{Theory: []string{}, Practical: []string{}, Extra: []string{}}
	for _, s := range subjects {
		flat = append(flat, s.Slug)
		switch s.Category {
		case models.CategoryPractical:
			cats.Practical = append(cats.Practical, s.Slug)
		case models.CategoryExtra:
			cats.Extra = append(cats.Extra, s.Slug)
		default:
			cats.Theory = append(cats.Theory, s.Slug)
		}
	}
	return flat, cats
}

func loadSubjects(tx *store.Tx) ([]Subject, error) {
	defFlat, defCats := DefaultSubjects()
	flat, err := store.Load(tx, models.KeySubjects, defFlat)
	if err != nil {
		return nil, err
	}
	cats, err := store.Load(tx, models.KeyCategorizedSubjects, defCats)
	if err != nil {
		return nil, err
	}
	return Normalize(flat, cats), nil
}

func saveSubjects(tx *store.Tx, subjects []Subject) error {
	flat, cats := Split(subjects)
	if err := store.Save(tx, models.KeySubjects, flat); err != nil {
		return err
	}
	return store.Save(tx, models.KeyCategorizedSubjects, cats)
}

func (c *Catalog) mutateSubjects(ctx context.Context, fn func([]Subject) ([]Subject, error)) error {
	return c.store.Atomic(ctx, func(tx *store.Tx) error {
		current, err := loadSubjects(tx)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		return saveSubjects(tx, next)
	})
}

// Subjects returns every subject in flat-list order.
func (c *Catalog) Subjects(ctx context.Context) ([]Subject, error) {
	var out []Subject
	err := c.store.Atomic(ctx, func(tx *store.Tx) error {
		s, err := loadSubjects(tx)
		out = s
		return err
	})
	return out, err
}

// Get returns the subject with slug.
func (c *Catalog) Get(ctx context.Context, slug string) (Subject, bool, error) {
	subjects, err := c.Subjects(ctx)
	if err != nil {
		return Subject{}, false, err
	}
	for _, s := range subjects {
		if s.Slug == slug {
			return s, true, nil
		}
	}
	return Subject{}, false, nil
}

func hasSlug(subjects []Subject, slug string) bool {
	for _, s := range subjects {
		if strings.EqualFold(s.Slug, slug) {
			return true
		}
	}
	return false
}

func parseCategory(category string) (models.Category, error) {
	if category == "" {
		return models.CategoryTheory, nil
	}
	cat, ok := models.ParseCategory(category)
	if !ok {
		return "", ErrInvalidCategory
	}
	return cat, nil
}

// AddSubject appends a new subject and returns its slug.
func (c *Catalog) AddSubject(ctx context.Context, name, category string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrSubjectNameRequired
	}
	cat, err := parseCategory(category)
	if err != nil {
		return "", err
	}
	slug := Slugify(name)

	err = c.mutateSubjects(ctx, func(subjects []Subject) ([]Subject, error) {
		if hasSlug(subjects, slug) {
			return nil, ErrSubjectExists
		}
		return append(subjects, Subject{Slug: slug, Category: cat}), nil
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("subject", slug).Str("category", string(cat)).Msg("subject added")
	return slug, nil
}

// RenameSubject replaces original with newName in place and moves it to
// category. An empty category keeps the current bucket. Notes keep their
// old subject value.
func (c *Catalog) RenameSubject(ctx context.Context, original, newName, category string) (string, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return "", ErrSubjectNameEmpty
	}
	var cat models.Category
	if category != "" {
		var err error
		if cat, err = parseCategory(category); err != nil {
			return "", err
		}
	}
	slug := Slugify(newName)

	err := c.mutateSubjects(ctx, func(subjects []Subject) ([]Subject, error) {
		idx := -1
		for i, s := range subjects {
			if s.Slug == original {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, ErrSubjectNotFound
		}
		if !strings.EqualFold(slug, original) && hasSlug(subjects, slug) {
			return nil, ErrSubjectNameTaken
		}
		if cat == "" {
			cat = subjects[idx].Category
		}
		subjects[idx] = Subject{Slug: slug, Category: cat}
		return subjects, nil
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("from", original).Str("to", slug).Str("category", string(cat)).Msg("subject renamed")
	return slug, nil
}

// DeleteSubject removes slug from the catalog. Folders and notes are kept.
func (c *Catalog) DeleteSubject(ctx context.Context, slug string) error {
	return c.mutateSubjects(ctx, func(subjects []Subject) ([]Subject, error) {
		kept := subjects[:0]
		found := false
		for _, s := range subjects {
			if s.Slug == slug {
				found = true
				continue
			}
			kept = append(kept, s)
		}
		if !found {
			return nil, ErrSubjectNotFound
		}
		return kept, nil
	})
}

// Seed writes the default catalog for every key that is still missing and
// reports which keys it wrote.
func (c *Catalog) Seed(ctx context.Context) ([]string, error) {
	var written []string
	err := c.store.Atomic(ctx, func(tx *store.Tx) error {
		written = nil
		flat, cats := DefaultSubjects()
		for _, item := range []struct {
			key   string
			value any
		}{
			{models.KeySubjects, flat},
			{models.KeyCategorizedSubjects, cats},
			{models.KeyCards, DefaultCards()},
		} {
			ok, err := store.Exists(tx, item.key)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			if err := store.Save(tx, item.key, item.value); err != nil {
				return err
			}
			written = append(written, item.key)
		}
		return nil
	})
	return written, err
}
