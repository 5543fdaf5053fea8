package catalog

import (
	"context"
	"errors"
	"strings"

	"studynotes/models"
)

var (
	ErrCardTitleRequired = errors.New("Please enter a card title")
	ErrCardURLRequired   = errors.New("Please enter a card URL")
	ErrCardNotFound      = errors.New("Card not found.")
)

// CardGroup is one homepage grid.
type CardGroup struct {
	Category models.Category
	Cards    []models.Card
}

func (c *Catalog) Cards(ctx context.Context) ([]models.Card, error) {
	return c.cards.All(ctx)
}

// CardGroups splits cards into the three grids, in category order.
func CardGroups(cards []models.Card) []CardGroup {
	groups := make([]CardGroup, len(models.Categories))
	for i, cat := range models.Categories {
		groups[i] = CardGroup{Category: cat, Cards: []models.Card{}}
	}
	for _, card := range cards {
		for i := range groups {
			if groups[i].Category == card.Category {
				groups[i].Cards = append(groups[i].Cards, card)
			}
		}
	}
	return groups
}

func validateCard(title, url, category string) (string, string, models.Category, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" {
		return "", "", "", ErrCardTitleRequired
	}
	if url == "" {
		return "", "", "", ErrCardURLRequired
	}
	cat, ok := models.ParseCategory(strings.TrimSpace(category))
	if !ok {
		return "", "", "", ErrInvalidCategory
	}
	return title, url, cat, nil
}

// AddCard appends a card with id max+1.
func (c *Catalog) AddCard(ctx context.Context, title, url, category string) (models.Card, error) {
	title, url, cat, err := validateCard(title, url, category)
	if err != nil {
		return models.Card{}, err
	}

	card := models.Card{Title: title, URL: url, Category: cat}
	err = c.cards.Mutate(ctx, func(cards []models.Card) ([]models.Card, error) {
		var maxID int64
		for _, existing := range cards {
			if existing.ID > maxID {
				maxID = existing.ID
			}
		}
		card.ID = maxID + 1
		return append(cards, card), nil
	})
	return card, err
}

// EditCard replaces every field of card id.
func (c *Catalog) EditCard(ctx context.Context, id int64, title, url, category string) error {
	title, url, cat, err := validateCard(title, url, category)
	if err != nil {
		return err
	}

	n, err := c.cards.Put(ctx, func(card models.Card) bool { return card.ID == id }, func(card *models.Card) {
		card.Title = title
		card.URL = url
		card.Category = cat
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (c *Catalog) DeleteCard(ctx context.Context, id int64) error {
	n, err := c.cards.Remove(ctx, func(card models.Card) bool { return card.ID == id })
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (c *Catalog) Card(ctx context.Context, id int64) (models.Card, bool, error) {
	return c.cards.Find(ctx, func(card models.Card) bool { return card.ID == id })
}
