// Package gallery keeps a project's media list in display order and maintains the
// single featured item.
package gallery

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-site-backend/models"
)

var (
	ErrIndexOutOfRange = errors.New("gallery index out of range")
	ErrItemNotFound    = errors.New("gallery item not found")
)

// Gallery is an ordered list of media. After every mutation Items[i].Order == i.
type Gallery struct {
	Items []models.GalleryImage
}

// New copies items and renumbers them in the order given.
func New(items []models.GalleryImage) *Gallery {
	g := &Gallery{Items: append([]models.GalleryImage(nil), items...)}
	g.renumber()
	return g
}

// Append adds items at the end. The first item ever added to an empty gallery
// becomes featured.
func (g *Gallery) Append(items ...models.GalleryImage) {
	for _, item := range items {
		item.Order = len(g.Items)
		item.IsFeatured = len(g.Items) == 0
		g.Items = append(g.Items, item)
	}
}

// Move takes the item at from out of the list and inserts it at to.
func (g *Gallery) Move(from, to int) error {
	n := len(g.Items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d in %d items", ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}

	item := g.Items[from]
	rest := append(g.Items[:from:from], g.Items[from+1:]...)
	g.Items = append(rest[:to:to], append([]models.GalleryImage{item}, rest[to:]...)...)
	g.renumber()
	return nil
}

// Remove deletes the item with id and returns it. When the removed item was
// featured, the new first item takes over.
func (g *Gallery) Remove(id uuid.UUID) (models.GalleryImage, error) {
	i := g.indexOf(id)
	if i < 0 {
		return models.GalleryImage{}, ErrItemNotFound
	}

	removed := g.Items[i]
	g.Items = append(g.Items[:i:i], g.Items[i+1:]...)
	if removed.IsFeatured && len(g.Items) > 0 {
		g.setFeaturedAt(0)
	}
	g.renumber()
	return removed, nil
}

// SetFeatured marks the item with id as the only featured one and returns its URL,
// which becomes the project thumbnail.
func (g *Gallery) SetFeatured(id uuid.UUID) (string, error) {
	i := g.indexOf(id)
	if i < 0 {
		return "", ErrItemNotFound
	}
	g.setFeaturedAt(i)
	return g.Items[i].URL, nil
}

// Featured returns the featured item, if there is one.
func (g *Gallery) Featured() (models.GalleryImage, bool) {
	for _, item := range g.Items {
		if item.IsFeatured {
			return item, true
		}
	}
	return models.GalleryImage{}, false
}

func (g *Gallery) setFeaturedAt(index int) {
	for i := range g.Items {
		g.Items[i].IsFeatured = i == index
	}
}

func (g *Gallery) indexOf(id uuid.UUID) int {
	for i, item := range g.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (g *Gallery) renumber() {
	for i := range g.Items {
		g.Items[i].Order = i
	}
}
