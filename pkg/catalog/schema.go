// pkg/catalog/schema.go
package catalog

type Catalog struct {
	Version     string    `json:"version"`
	LastUpdated string    `json:"lastUpdated"`
	Products    []Product `json:"products"`
}

// Product is a seed entry of the mock backend's product catalog.
type Product struct {
	ProductID   string   `json:"product_id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords"`
	Price       int      `json:"price"`
	Link        string   `json:"link"`
	ImageURL    string   `json:"image_url"`
}
