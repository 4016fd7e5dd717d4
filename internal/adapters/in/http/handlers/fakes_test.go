package handlers

import (
	"iter"
	"strings"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
)

type staticCatalog []productdom.Product

func (s staticCatalog) Loading() bool { return false }

func (s staticCatalog) Ready() bool { return true }

func (s staticCatalog) Get(id string) (productdom.Product, bool) {
	for _, p := range s {
		if p.ID == id {
			return p, true
		}
	}
	return productdom.Product{}, false
}

func (s staticCatalog) Search(term string) iter.Seq[productdom.Product] {
	t := strings.ToLower(strings.TrimSpace(term))
	return func(yield func(productdom.Product) bool) {
		for _, p := range s {
			if p.IsActive && p.Matches(t) && !yield(p) {
				return
			}
		}
	}
}
