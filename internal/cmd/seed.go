package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shopwala/shopwala-golang/internal/database"
	"github.com/shopwala/shopwala-golang/internal/handlers"
	"github.com/shopwala/shopwala-golang/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample locations, categories and products",
	Long: `Seed an empty database with the Karachi location tree and a small
sample catalog. Does nothing when locations already exist.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type seedLocation struct {
	name     string
	lat, lng string
	children []seedLocation
}

var seedLocations = seedLocation{
	name: "Pakistan", lat: "30.3753", lng: "69.3451",
	children: []seedLocation{{
		name: "Sindh", lat: "25.8943", lng: "68.5247",
		children: []seedLocation{{
			name: "Karachi", lat: "24.8607", lng: "67.0011",
			children: []seedLocation{
				{name: "Gulshan-e-Iqbal", lat: "24.9180", lng: "67.0971", children: []seedLocation{
					{name: "Block 1", lat: "24.9200", lng: "67.0900"},
					{name: "Block 2", lat: "24.9215", lng: "67.0920"},
					{name: "Block 3", lat: "24.9220", lng: "67.0940"},
				}},
				{name: "North Nazimabad", lat: "24.9400", lng: "67.0450"},
				{name: "Clifton", lat: "24.8138", lng: "67.0295"},
				{name: "DHA", lat: "24.8047", lng: "67.0652"},
			},
		}},
	}},
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := zap.L()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return err
	}

	app := handlers.New(db, handlers.Deps{DeliveryCities: cfg.Checkout.DeliveryCities})

	roots, err := app.Locations.Roots(ctx)
	if err != nil {
		return err
	}
	if len(roots) > 0 {
		log.Info("database already seeded, skipping")
		return nil
	}

	byName := make(map[string]int64)
	if err := seedLocationTree(ctx, app.Locations, seedLocations, nil, 0, byName); err != nil {
		return err
	}

	if err := seedCatalog(ctx, app, byName); err != nil {
		return err
	}
	log.Info("seed complete", zap.Int("locations", len(byName)))
	return nil
}

func seedLocationTree(ctx context.Context, locations *service.LocationService, node seedLocation, parentID *int64, order int, byName map[string]int64) error {
	lat := decimal.RequireFromString(node.lat)
	lng := decimal.RequireFromString(node.lng)
	loc, err := locations.Create(ctx, service.LocationInput{
		Name:         node.name,
		ParentID:     parentID,
		Latitude:     &lat,
		Longitude:    &lng,
		DisplayOrder: order,
	})
	if err != nil {
		return fmt.Errorf("seed location %s: %w", node.name, err)
	}
	byName[node.name] = loc.ID

	for i, child := range node.children {
		if err := seedLocationTree(ctx, locations, child, &loc.ID, i, byName); err != nil {
			return err
		}
	}
	return nil
}

func seedCatalog(ctx context.Context, app *handlers.Handlers, locations map[string]int64) error {
	electronics, err := app.Categories.Create(ctx, service.CategoryInput{Name: "Electronics"})
	if err != nil {
		return err
	}
	phones, err := app.Categories.Create(ctx, service.CategoryInput{Name: "Mobile Phones", ParentID: &electronics.ID})
	if err != nil {
		return err
	}
	fashion, err := app.Categories.Create(ctx, service.CategoryInput{Name: "Fashion"})
	if err != nil {
		return err
	}

	clifton := locations["Clifton"]
	gulshan := locations["Gulshan-e-Iqbal"]
	discount := decimal.RequireFromString("52999")

	products := []service.ProductInput{
		{
			Name:          "Galaxy A15",
			SKU:           "PHN-A15-128",
			CategoryID:    phones.ID,
			LocationID:    &clifton,
			PurchasePrice: decimal.RequireFromString("45000"),
			SalePrice:     decimal.RequireFromString("55999"),
			DiscountPrice: &discount,
			Stock:         25,
			ImageURLs:     []string{"/images/products/galaxy-a15.jpg"},
			Specifications: []service.SpecificationDTO{
				{Key: "Storage", Value: "128 GB"},
				{Key: "RAM", Value: "6 GB"},
			},
			Variants: []service.VariantInput{
				{Combination: `{"Color":"Black"}`, Stock: 10},
				{Combination: `{"Color":"Blue"}`, Stock: 5},
			},
		},
		{
			Name:          "Wireless Earbuds",
			SKU:           "AUD-EB-01",
			CategoryID:    electronics.ID,
			LocationID:    &gulshan,
			PurchasePrice: decimal.RequireFromString("2500"),
			SalePrice:     decimal.RequireFromString("3999"),
			Stock:         60,
		},
		{
			Name:          "Lawn Kurta",
			SKU:           "FSH-KRT-LWN",
			CategoryID:    fashion.ID,
			PurchasePrice: decimal.RequireFromString("1200"),
			SalePrice:     decimal.RequireFromString("2499"),
			Stock:         40,
		},
	}
	for _, in := range products {
		if _, err := app.Products.Create(ctx, in); err != nil {
			return fmt.Errorf("seed product %s: %w", in.SKU, err)
		}
	}
	return nil
}
