package server

import (
	"leasing-backend/internal/admin"
	"leasing-backend/internal/audit"
	"leasing-backend/internal/catalog"
	"leasing-backend/internal/proposal"
	"leasing-backend/internal/simulator"

	"github.com/gofiber/fiber/v2"
)

func registerRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Catalog
	api.Get("/catalog/suppliers", catalog.ListSuppliersHandler(d.Store))
	api.Get("/catalog/suppliers/:supplier/items", catalog.ListItemsHandler(d.Store))
	api.Get("/catalog/suppliers/:supplier/categories", catalog.ListCategoriesHandler(d.Store))
	api.Get("/catalog/suppliers/:supplier/descriptions", catalog.ListDescriptionsHandler(d.Store))

	// Barèmes (read side used by the proposal form)
	ad := admin.Deps{Rates: d.Store, Now: d.Now}
	if d.Audit != nil {
		ad.Audit = d.Audit
	}
	api.Get("/bareme/standard", admin.GetStandardScheduleHandler(ad))
	api.Get("/conventions", admin.ListConventionsHandler(ad))
	api.Get("/conventions/:id", admin.GetConventionHandler(ad))
	api.Get("/campaigns", admin.ListCampaignsHandler(ad))
	api.Get("/campaigns/applicable", admin.ApplicableCampaignsHandler(ad))
	api.Get("/campaigns/:id", admin.GetCampaignHandler(ad))

	// Proposals
	svc := proposal.NewService(proposal.Config{
		Rates:          d.Store,
		Catalog:        d.Store,
		Proposals:      d.Store,
		DefaultPeriods: d.Config.DefaultTermPeriods,
		Now:            d.Now,
	})
	pr := api.Group("/proposals")
	pr.Get("/products", proposal.ProductsHandler())
	pr.Get("/summary", proposal.SummaryHandler(svc))
	pr.Get("/eligible-suppliers", proposal.EligibleSuppliersHandler(svc))
	pr.Post("/preview", proposal.PreviewHandler(svc))
	pr.Post("/items/:action", proposal.LineItemsHandler(d.Store))
	pr.Post("/drafts", proposal.SaveDraftHandler(svc))
	pr.Post("/submit", proposal.SubmitHandler(svc))
	pr.Get("/", proposal.ListHandler(svc))
	pr.Get("/:id", proposal.GetHandler(svc))

	// Simulator
	api.Get("/simulator/amortization", simulator.AmortizationHandler(d.Store, d.Config.DefaultTermPeriods))
	api.Get("/simulator/amortization/export", simulator.ExportXLSXHandler(d.Store, d.Config.DefaultTermPeriods))

	// Administration
	adm := api.Group("/admin")
	adm.Put("/bareme/standard", admin.UpdateStandardScheduleHandler(ad))

	adm.Post("/conventions", admin.CreateConventionHandler(ad))
	adm.Put("/conventions/:id", admin.UpdateConventionHandler(ad))
	adm.Delete("/conventions/:id", admin.DeleteConventionHandler(ad))

	adm.Post("/campaigns", admin.CreateCampaignHandler(ad))
	adm.Put("/campaigns/:id", admin.UpdateCampaignHandler(ad))
	adm.Delete("/campaigns/:id", admin.DeleteCampaignHandler(ad))

	adm.Post("/catalog/import", catalog.ImportXLSXHandler(d.Store))
	adm.Get("/catalog/export", catalog.ExportXLSXHandler(d.Store.AllItems))

	if d.Audit != nil {
		adm.Get("/audit-logs", audit.ListAuditLogsHandler(d.Audit))
		adm.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler(d.Audit))
	}
}
