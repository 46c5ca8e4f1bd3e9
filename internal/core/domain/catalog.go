package domain

import "strings"

// Product is a catalog entry. The catalog is static reference data used by
// the manager inventory views; the order path never consults it.
type Product struct {
	ID       string
	Name     string
	Category string
	Price    int
}

var productCatalog = map[string]Product{
	"apple":     {Name: "Red Apple", Category: "Fruits", Price: 120},
	"milk":      {Name: "Fresh Milk", Category: "Dairy", Price: 65},
	"bread":     {Name: "Wheat Bread", Category: "Bakery", Price: 45},
	"eggs":      {Name: "Farm Eggs (12)", Category: "Dairy", Price: 85},
	"chips":     {Name: "Potato Chips", Category: "Snacks", Price: 35},
	"coke":      {Name: "Cola Can", Category: "Beverages", Price: 40},
	"banana":    {Name: "Bananas", Category: "Fruits", Price: 60},
	"cheese":    {Name: "Cheese Slice", Category: "Dairy", Price: 150},
	"juice":     {Name: "Orange Juice", Category: "Beverages", Price: 95},
	"butter":    {Name: "Butter", Category: "Dairy", Price: 55},
	"rice":      {Name: "Basmati Rice", Category: "Grains", Price: 180},
	"pasta":     {Name: "Pasta", Category: "Grains", Price: 75},
	"chicken":   {Name: "Chicken Breast", Category: "Meat", Price: 320},
	"fish":      {Name: "Fresh Fish", Category: "Meat", Price: 280},
	"tomato":    {Name: "Tomatoes", Category: "Vegetables", Price: 40},
	"potato":    {Name: "Potatoes", Category: "Vegetables", Price: 30},
	"onion":     {Name: "Onions", Category: "Vegetables", Price: 35},
	"coffee":    {Name: "Coffee Beans", Category: "Beverages", Price: 450},
	"tea":       {Name: "Green Tea", Category: "Beverages", Price: 120},
	"chocolate": {Name: "Chocolate Bar", Category: "Snacks", Price: 80},
}

// CatalogProduct returns the catalog entry for id, falling back to a generic
// entry for ids the catalog does not know.
func CatalogProduct(id string) Product {
	if p, ok := productCatalog[id]; ok {
		p.ID = id
		return p
	}
	return Product{
		ID:       id,
		Name:     titleCase(id),
		Category: "General",
		Price:    100,
	}
}

func titleCase(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
