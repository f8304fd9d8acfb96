package repository

import (
	"context"
	"fmt"
	"time"

	"leasing-backend/internal/catalog"
	"leasing-backend/internal/pricing"

	"github.com/shopspring/decimal"
)

// DemoSuppliers are the supplier keys used by the demo catalog.
var DemoSuppliers = []string{"babacar-fils", "senegal-auto", "sonacos", "afrique-materiel", "dakar-equipement"}

func demoItem(supplier, ref, description, category string, price int64) catalog.Item {
	return catalog.Item{
		Supplier:         supplier,
		Reference:        ref,
		Description:      description,
		Category:         category,
		UnitPriceExclTax: decimal.NewFromInt(price),
	}
}

func DemoCatalog() []catalog.Item {
	return []catalog.Item{
		demoItem("babacar-fils", "VEH001", "Véhicule utilitaire Renault Master", "Véhicule", 15000000),
		demoItem("babacar-fils", "VEH002", "Camion Isuzu NPR", "Véhicule", 25000000),
		demoItem("babacar-fils", "EQUIP001", "Groupe électrogène 100KVA", "Équipement", 8000000),
		demoItem("sonacos", "MACH001", "Machine de transformation", "Machine", 45000000),
		demoItem("sonacos", "MACH002", "Équipement de conditionnement", "Machine", 30000000),
		demoItem("senegal-auto", "AUTO001", "Berline Toyota Corolla", "Véhicule", 12000000),
		demoItem("senegal-auto", "AUTO002", "Pick-up Toyota Hilux", "Véhicule", 18000000),
		demoItem("dakar-equipement", "BTP001", "Pelleteuse CAT 320", "BTP", 75000000),
		demoItem("dakar-equipement", "BTP002", "Compacteur Dynapac", "BTP", 35000000),
		demoItem("afrique-materiel", "IND001", "Four industriel", "Industriel", 50000000),
		demoItem("afrique-materiel", "IND002", "Convoyeur automatique", "Industriel", 20000000),
	}
}

// DemoConventions places the demo conventions in the year of now.
func DemoConventions(now time.Time) []pricing.Convention {
	y := now.Year()
	start := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y, time.December, 31, 23, 59, 59, 0, time.UTC)
	return []pricing.Convention{
		{
			ID:          "conv-vehicules-pro",
			Name:        "Véhicules Professionnels",
			Description: "Convention dédiée aux véhicules utilitaires et professionnels",
			Suppliers:   []string{"babacar-fils", "senegal-auto"},
			Schedule:    pricing.RateSchedule{Rate: 6.5, Margin: 2.8, ResidualValue: 1.8},
			StartDate:   start,
			EndDate:     &end,
			Active:      true,
		},
		{
			ID:          "conv-equipement-industriel",
			Name:        "Équipement Industriel",
			Description: "Convention pour les machines et équipements industriels",
			Suppliers:   []string{"sonacos", "afrique-materiel"},
			Schedule:    pricing.RateSchedule{Rate: 6.0, Margin: 2.5, ResidualValue: 2.0},
			StartDate:   start,
			Active:      true,
		},
	}
}

// DemoCampaigns places the demo campaigns in the year of now.
func DemoCampaigns(now time.Time) []pricing.Campaign {
	y := now.Year()
	return []pricing.Campaign{
		{
			ID:          "camp-ete",
			Name:        fmt.Sprintf("Campagne Été %d", y),
			Description: "Offre spéciale véhicules avec taux exceptionnel",
			Kind:        pricing.CampaignKindSupplier,
			Suppliers:   []string{"babacar-fils", "senegal-auto"},
			Schedule:    pricing.RateSchedule{Rate: 4.5, Margin: 2.0, ResidualValue: 1.0},
			StartDate:   time.Date(y, time.June, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(y, time.August, 31, 23, 59, 59, 0, time.UTC),
			Active:      true,
			Priority:    true,
		},
		{
			ID:          "camp-equipement-industriel",
			Name:        fmt.Sprintf("Industrialisation %d", y),
			Description: "Campagne banque pour l'équipement industriel",
			Kind:        pricing.CampaignKindBank,
			Schedule:    pricing.RateSchedule{Rate: 5.0, Margin: 2.2, ResidualValue: 1.5},
			StartDate:   time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(y, time.December, 31, 23, 59, 59, 0, time.UTC),
			Active:      true,
			Priority:    true,
		},
	}
}

type seedTarget interface {
	RateAdmin
	CatalogStore
}

// SeedDemo loads the demo catalog, conventions and campaigns. Existing
// records with the same ids are overwritten.
func SeedDemo(ctx context.Context, s seedTarget, now time.Time) error {
	if _, err := s.UpsertItems(ctx, DemoCatalog()); err != nil {
		return err
	}
	for _, c := range DemoConventions(now) {
		if err := s.SaveConvention(ctx, c); err != nil {
			return fmt.Errorf("seed convention %s: %w", c.ID, err)
		}
	}
	for _, c := range DemoCampaigns(now) {
		if err := s.SaveCampaign(ctx, c); err != nil {
			return fmt.Errorf("seed campaign %s: %w", c.ID, err)
		}
	}
	return nil
}
