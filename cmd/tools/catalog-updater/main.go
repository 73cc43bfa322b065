// cmd/tools/catalog-updater/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/database"
	"shopping-assistant/internal/mockserver"
	"shopping-assistant/pkg/catalog"
)

const defaultPath = "pkg/catalog/products.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	removeCmd := flag.NewFlagSet("remove", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)

	var catalogPath string
	for _, fs := range []*flag.FlagSet{addCmd, updateCmd, removeCmd, validateCmd, seedCmd} {
		fs.StringVar(&catalogPath, "path", defaultPath, "Path to catalog file")
	}

	// Add command flags
	idAdd := addCmd.String("id", "", "Product ID (e.g., p-1006)")
	name := addCmd.String("name", "", "Product name")
	category := addCmd.String("category", "", "Category (e.g., 패션)")
	description := addCmd.String("description", "", "Description")
	keywords := addCmd.String("keywords", "", "Comma separated search keywords")
	price := addCmd.Int("price", 0, "Price in won")
	link := addCmd.String("link", "", "Product page URL")
	imageURL := addCmd.String("image", "", "Image URL")

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Product ID to update")
	field := updateCmd.String("field", "", "Field to update (name, price, keywords, etc.)")
	value := updateCmd.String("value", "", "New value for the field")

	idRemove := removeCmd.String("id", "", "Product ID to remove")

	esURL := seedCmd.String("es", "http://localhost:9200", "Elasticsearch address")
	index := seedCmd.String("index", "products", "Index to seed")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *name == "" || *category == "" {
			fmt.Println("Error: id, name, and category are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		product := catalog.Product{
			ProductID:   *idAdd,
			Name:        *name,
			Category:    *category,
			Description: *description,
			Price:       *price,
			Link:        *link,
			ImageURL:    *imageURL,
		}
		if product.Link == "" {
			product.Link = "https://shop.example.com/products/" + *idAdd
		}
		err := edit(catalogPath, func(c *catalog.Catalog) error {
			if err := c.Add(product); err != nil {
				return err
			}
			if *keywords != "" {
				return c.Update(product.ProductID, "keywords", *keywords)
			}
			return nil
		})
		exitOnError("adding product", err)
		fmt.Printf("Added product: %s\n", *idAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" {
			fmt.Println("Error: id and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err := edit(catalogPath, func(c *catalog.Catalog) error {
			return c.Update(*idUpdate, *field, *value)
		})
		exitOnError("updating product", err)
		fmt.Printf("Updated product %s, field %s to %s\n", *idUpdate, *field, *value)

	case "remove":
		removeCmd.Parse(os.Args[2:])
		if *idRemove == "" {
			fmt.Println("Error: id is required for remove.")
			removeCmd.Usage()
			os.Exit(1)
		}
		err := edit(catalogPath, func(c *catalog.Catalog) error {
			return c.Remove(*idRemove)
		})
		exitOnError("removing product", err)
		fmt.Printf("Removed product: %s\n", *idRemove)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		c, err := catalog.LoadCatalog(catalogPath)
		if err == nil && len(c.Products) == 0 {
			err = fmt.Errorf("catalog contains no products")
		}
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed. Found %d products.\n", len(c.Products))

	case "seed":
		seedCmd.Parse(os.Args[2:])
		exitOnError("seeding index", seed(catalogPath, *esURL, *index))
		fmt.Printf("Seeded index %s from %s\n", *index, catalogPath)

	case "help":
		fallthrough
	default:
		help()
	}
}

// edit loads the catalog, applies fn and writes it back.
func edit(path string, fn func(*catalog.Catalog) error) error {
	c, err := catalog.LoadCatalog(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		c = &catalog.Catalog{Version: "1.0.0"}
	}
	if err := fn(c); err != nil {
		return err
	}
	return catalog.Save(c, path)
}

func seed(path, esURL, index string) error {
	c, err := catalog.LoadCatalog(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	es, err := database.NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{esURL}, Index: index})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := es.Ping(ctx); err != nil {
		return err
	}
	return mockserver.NewElasticsearchCatalog(es).Seed(ctx, c.Products)
}

func exitOnError(action string, err error) {
	if err != nil {
		fmt.Printf("Error %s: %v\n", action, err)
		os.Exit(1)
	}
}

func help() {
	fmt.Println(`
Usage: catalog-updater <command> [flags]

Commands:
  add      Add a product to the catalog
  update   Update one field of a product
  remove   Remove a product
  validate Validate the catalog file
  seed     Index the catalog into Elasticsearch
  help     Show this help message

Examples:
  catalog-updater add -id p-1006 -name "리넨 바지" -category 패션 -price 45000 -keywords "여름,바지"
  catalog-updater update -id p-1006 -field price -value 42000
  catalog-updater validate -path pkg/catalog/products.json
  catalog-updater seed -es http://localhost:9200 -index products

Use 'catalog-updater <command> -h' for more information about a command.`)
}
