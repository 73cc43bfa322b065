// pkg/catalog/catalog.go
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

//go:embed products.json
var defaultCatalog []byte

var now = time.Now

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects entries without an id or name and duplicate ids.
func (c *Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.Products))
	for i, p := range c.Products {
		if strings.TrimSpace(p.ProductID) == "" {
			return fmt.Errorf("product %d: product_id is required", i)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("product %s: name is required", p.ProductID)
		}
		if _, dup := seen[p.ProductID]; dup {
			return fmt.Errorf("duplicate product_id %s", p.ProductID)
		}
		seen[p.ProductID] = struct{}{}
	}
	return nil
}

// Matches reports whether keyword occurs in the product's name, category or keywords.
func (p Product) Matches(keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return false
	}
	if strings.Contains(strings.ToLower(p.Name), keyword) || strings.Contains(strings.ToLower(p.Category), keyword) {
		return true
	}
	for _, k := range p.Keywords {
		k = strings.ToLower(k)
		if k == "" {
			continue
		}
		if strings.Contains(k, keyword) || strings.Contains(keyword, k) {
			return true
		}
	}
	return false
}

// Add appends p and rejects ids already present.
func (c *Catalog) Add(p Product) error {
	if strings.TrimSpace(p.ProductID) == "" || strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product_id and name are required")
	}
	if _, ok := c.Find(p.ProductID); ok {
		return fmt.Errorf("product with ID %s already exists", p.ProductID)
	}
	c.Products = append(c.Products, p)
	c.touch()
	return nil
}

// Find returns the product with the given id.
func (c *Catalog) Find(id string) (Product, bool) {
	for _, p := range c.Products {
		if p.ProductID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Update sets one field of a product from its string form.
func (c *Catalog) Update(id, field, value string) error {
	for i := range c.Products {
		if c.Products[i].ProductID != id {
			continue
		}
		p := &c.Products[i]
		switch field {
		case "name":
			if strings.TrimSpace(value) == "" {
				return fmt.Errorf("name must not be empty")
			}
			p.Name = value
		case "category":
			p.Category = value
		case "description":
			p.Description = value
		case "keywords":
			p.Keywords = splitKeywords(value)
		case "price":
			price, err := strconv.Atoi(value)
			if err != nil || price < 0 {
				return fmt.Errorf("invalid price value: %q", value)
			}
			p.Price = price
		case "link":
			p.Link = value
		case "image_url":
			p.ImageURL = value
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		c.touch()
		return nil
	}
	return fmt.Errorf("product with ID %s not found", id)
}

// Remove deletes the product with the given id.
func (c *Catalog) Remove(id string) error {
	for i := range c.Products {
		if c.Products[i].ProductID == id {
			c.Products = append(c.Products[:i], c.Products[i+1:]...)
			c.touch()
			return nil
		}
	}
	return fmt.Errorf("product with ID %s not found", id)
}

func (c *Catalog) touch() {
	c.LastUpdated = now().UTC().Format(time.RFC3339)
}

// Save writes the catalog as indented JSON, creating the directory.
func Save(c *Catalog, path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

func splitKeywords(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
