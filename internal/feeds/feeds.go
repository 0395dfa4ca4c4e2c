// Package feeds models the product event queues served by the cloud feeds mock.
package feeds

import (
	"sort"
	"sync"
)

// Product is one ATOM-style feed. Events are append-only.
type Product struct {
	Title string
	Href  string

	mu     sync.RWMutex
	events []string
}

// NewProduct creates an empty product queue.
func NewProduct(title, href string) *Product {
	return &Product{Title: title, Href: href}
}

// Post appends an event to the end of the queue.
func (p *Product) Post(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
}

// Events returns a snapshot of the queue.
func (p *Product) Events() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]string{}, p.events...)
}

// Feeds is the set of registered products, keyed by href.
type Feeds struct {
	mu       sync.RWMutex
	products map[string]*Product
}

// New creates an empty product set.
func New() *Feeds {
	return &Feeds{products: make(map[string]*Product)}
}

// RegisterProduct adds a product. Registering an href twice keeps the first product.
func (f *Feeds) RegisterProduct(title, href string) *Product {
	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.products[href]; ok {
		return p
	}
	p := NewProduct(title, href)
	f.products[href] = p
	return p
}

// ProductByHref looks a product up.
func (f *Feeds) ProductByHref(href string) (*Product, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.products[href]
	return p, ok
}

// Products returns a copy of the href -> product map.
func (f *Feeds) Products() map[string]*Product {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]*Product, len(f.products))
	for href, p := range f.products {
		out[href] = p
	}
	return out
}

// Collection is the collection part of a product description.
type Collection struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// ProductDescription is the JSON description of one product.
type ProductDescription struct {
	Title      string     `json:"title"`
	Collection Collection `json:"collection"`
}

// RenderProduct describes a single product.
func RenderProduct(p *Product) ProductDescription {
	return ProductDescription{
		Title:      p.Title,
		Collection: Collection{Href: p.Href, Title: p.Title},
	}
}

// WorkspaceItem is one product in a product listing.
type WorkspaceItem struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// ProductList is the JSON document listing every product.
type ProductList struct {
	Service struct {
		Workspace []WorkspaceItem `json:"workspace"`
	} `json:"service"`
}

// RenderProductList lists products sorted by href.
func RenderProductList(products map[string]*Product) ProductList {
	var list ProductList
	list.Service.Workspace = make([]WorkspaceItem, 0, len(products))
	for _, p := range products {
		list.Service.Workspace = append(list.Service.Workspace, WorkspaceItem{Href: p.Href, Title: p.Title})
	}
	sort.Slice(list.Service.Workspace, func(i, j int) bool {
		return list.Service.Workspace[i].Href < list.Service.Workspace[j].Href
	})
	return list
}
