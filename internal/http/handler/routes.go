package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"maktaba/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, call the service, translate errors.
func RegisterRoutes(app *fiber.App, db *sql.DB,
	catalogSvc service.CatalogService,
	circSvc service.CirculationService,
	pubSvc service.PublicationService,
) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/books", AddBook(catalogSvc))
	app.Get("/books", ListBooks(catalogSvc))
	app.Get("/books/:id", GetBook(catalogSvc))
	app.Put("/books/:id", UpdateBook(catalogSvc))
	app.Delete("/books/:id", DeleteBook(catalogSvc))

	app.Post("/students", RegisterStudent(catalogSvc))
	app.Get("/students", ListStudents(catalogSvc))
	app.Get("/students/:id", GetStudent(catalogSvc))
	app.Put("/students/:id", UpdateStudent(catalogSvc))
	app.Delete("/students/:id", DeleteStudent(catalogSvc))

	app.Post("/loans", IssueLoan(circSvc))
	app.Get("/loans", ListLoans(circSvc))
	app.Get("/loans/:id", GetLoan(circSvc))
	app.Post("/loans/:id/return", ReturnLoan(circSvc))
	app.Post("/loans/:id/lost", ReportLost(circSvc))
	app.Post("/loans/:id/payments", PayFine(circSvc))
	app.Get("/circulation/eligibility", CheckEligibility(circSvc))

	app.Post("/publications", UploadPublication(pubSvc))
	app.Get("/publications", ListPublications(pubSvc))
	app.Get("/publications/:id", GetPublication(pubSvc))
	app.Put("/publications/:id", UpdatePublication(pubSvc))
	app.Get("/publications/:id/download", DownloadPublication(pubSvc))
	app.Delete("/publications/:id", DeletePublication(pubSvc))
}
