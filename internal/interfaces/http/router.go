package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fiscal-ao/internal/application/auth"
	"github.com/jhoicas/fiscal-ao/internal/application/fiscal"
	"github.com/jhoicas/fiscal-ao/internal/application/masterdata"
	"github.com/jhoicas/fiscal-ao/pkg/jwt"
	"github.com/jhoicas/fiscal-ao/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	KeyManager *fiscal.KeyManager
	SeriesUC   *fiscal.SeriesUseCase
	DocumentUC *fiscal.DocumentUseCase
	ExportUC   *fiscal.ExportUseCase
	CompanyUC  *masterdata.CompanyUseCase
	CustomerUC *masterdata.CustomerUseCase
	ProductUC  *masterdata.ProductUseCase
	JWTSecret  string
	Logger     *logger.Logger
}

// Router registra las rutas de la API. Salvo el login, todas requieren Bearer Token; el tenant
// sale del token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, log)
	api.Group("/auth").Post("/login", authHandler.Login)

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	admin := RequireRole(jwt.RoleAdmin)
	emitters := RequireRole(jwt.RoleAdmin, jwt.RoleOperador)
	readers := RequireRole(jwt.RoleAdmin, jwt.RoleOperador, jwt.RoleAuditor)
	auditors := RequireRole(jwt.RoleAdmin, jwt.RoleAuditor)

	users := protected.Group("/users")
	users.Post("/", admin, authHandler.CreateUser)
	users.Get("/", admin, authHandler.ListUsers)

	// Datos maestros
	company := protected.Group("/company")
	companyHandler := NewCompanyHandler(deps.CompanyUC, log)
	company.Get("/", readers, companyHandler.Get)
	company.Put("/", admin, companyHandler.Save)

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC, log)
	customers.Post("/", emitters, customerHandler.Create)
	customers.Get("/", readers, customerHandler.List)

	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, log)
	products.Post("/", admin, productHandler.Create)
	products.Get("/", readers, productHandler.List)

	// Llaves de firma
	keys := protected.Group("/keys")
	keysHandler := NewKeysHandler(deps.KeyManager, log)
	keys.Post("/", admin, keysHandler.Generate)
	keys.Get("/public", readers, keysHandler.PublicKey)

	// Series fiscales
	series := protected.Group("/series")
	seriesHandler := NewSeriesHandler(deps.SeriesUC, deps.DocumentUC, log)
	series.Post("/", admin, seriesHandler.Create)
	series.Get("/", readers, seriesHandler.List)
	series.Get("/:code/verify", auditors, seriesHandler.VerifyChain)

	// Documentos
	documents := protected.Group("/documents")
	documentHandler := NewDocumentHandler(deps.DocumentUC, log)
	documents.Post("/", emitters, documentHandler.Emit)
	documents.Get("/:id", readers, documentHandler.GetByID)
	documents.Post("/:id/cancel", admin, documentHandler.Cancel)

	// SAF-T
	saft := protected.Group("/saft")
	saftHandler := NewSaftHandler(deps.ExportUC, log)
	saft.Get("/", auditors, saftHandler.Export)
	saft.Post("/validate", auditors, saftHandler.Validate)
}
