package handlers

import (
	"tailtown/internal/middleware"
	"tailtown/internal/models"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every handler set mounted by Register. Groups left nil are not mounted.
type Handlers struct {
	Health        *HealthHandlers
	Auth          *AuthHandlers
	Tenants       *TenantHandlers
	Customers     *CustomerHandlers
	Pets          *PetHandlers
	Staff         *StaffHandlers
	Products      *ProductHandlers
	Announcements *AnnouncementHandlers
	Resources     *ResourceHandlers
	Services      *ServiceHandlers
	Reservations  *ReservationHandlers
	Availability  *AvailabilityHandlers
	Pricing       *PricingHandlers
	Invoices      *InvoiceHandlers
	Imports       *ImportHandlers
	Reports       *ReportHandlers
	Jobs          *JobHandlers
}

// RouteOptions carries the middleware shared across route groups.
type RouteOptions struct {
	Tenants     *middleware.TenantMiddleware
	RateLimiter *middleware.RateLimiter
	Tokens      middleware.TokenValidator
	JWKS        *keyfunc.JWKS
	Versions    *middleware.VersionMiddleware
	AdminAPIKey string

	ServeCustomers    bool
	ServeReservations bool
}

// Register mounts the routes on e.
//
// /api requests resolve the tenant first, then authenticate; a token issued for a
// different tenant is rejected. /api/auth only needs the tenant.
func Register(e *echo.Echo, h *Handlers, opts RouteOptions) {
	if h.Health != nil {
		e.GET("/health", h.Health.HealthCheck)
		e.GET("/health/ready", h.Health.ReadinessCheck)
		e.GET("/health/live", h.Health.LivenessCheck)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	admin := e.Group("/admin", middleware.RequireAdminKey(opts.AdminAPIKey), middleware.AuditWrites())
	if h.Tenants != nil {
		admin.GET("/tenants", h.Tenants.ListTenants)
		admin.POST("/tenants", h.Tenants.CreateTenant)
		admin.GET("/tenants/:id", h.Tenants.GetTenant)
		admin.PUT("/tenants/:id", h.Tenants.UpdateTenant)
		admin.DELETE("/tenants/:id", h.Tenants.DeleteTenant)
	}
	if h.Jobs != nil {
		admin.GET("/jobs", h.Jobs.ListJobs)
		admin.POST("/jobs/:name", h.Jobs.RunJob)
	}

	var base []echo.MiddlewareFunc
	if opts.Versions != nil {
		base = append(base, opts.Versions.VersionHeader(opts.Versions.Current()))
	}
	base = append(base, opts.Tenants.Resolve())
	if opts.RateLimiter != nil {
		base = append(base, opts.RateLimiter.Middleware())
	}

	auth := e.Group("/api/auth", base...)
	if h.Auth != nil {
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
	}

	api := e.Group("/api", base...)
	api.Use(
		middleware.JWT(opts.Tokens, opts.JWKS),
		middleware.RequireTenantClaim(),
		middleware.AuditWrites(),
	)
	if h.Auth != nil {
		api.GET("/auth/me", h.Auth.Me)
	}

	manager := middleware.RequireRole(models.RoleManager)
	adminRole := middleware.RequireRole(models.RoleAdmin)

	if opts.ServeCustomers {
		registerCustomerRoutes(api, h, manager, adminRole)
	}
	if opts.ServeReservations {
		registerReservationRoutes(api, h, manager)
	}
}

func registerCustomerRoutes(api *echo.Group, h *Handlers, manager, adminRole echo.MiddlewareFunc) {
	if h.Tenants != nil {
		api.GET("/tenant", h.Tenants.GetCurrentTenant)
		api.GET("/tenant/settings", h.Tenants.GetSettings)
		api.PUT("/tenant/settings", h.Tenants.UpdateSettings, adminRole)
	}

	if h.Customers != nil {
		api.GET("/customers", h.Customers.ListCustomers)
		api.POST("/customers", h.Customers.CreateCustomer)
		api.GET("/customers/:id", h.Customers.GetCustomer)
		api.PUT("/customers/:id", h.Customers.UpdateCustomer)
		api.DELETE("/customers/:id", h.Customers.DeleteCustomer, manager)
	}

	if h.Pets != nil {
		api.GET("/pets", h.Pets.ListPets)
		api.POST("/pets", h.Pets.CreatePet)
		api.GET("/pets/:id", h.Pets.GetPet)
		api.PUT("/pets/:id", h.Pets.UpdatePet)
		api.DELETE("/pets/:id", h.Pets.DeletePet, manager)
		api.POST("/pets/:id/photo", h.Pets.UploadPhoto)
	}

	if h.Staff != nil {
		api.GET("/staff", h.Staff.ListStaff, manager)
		api.POST("/staff", h.Staff.CreateStaff, adminRole)
		api.GET("/staff/:id", h.Staff.GetStaff, manager)
		api.PUT("/staff/:id", h.Staff.UpdateStaff, adminRole)
		api.PUT("/staff/:id/password", h.Staff.ChangePassword, adminRole)
		api.DELETE("/staff/:id", h.Staff.DeleteStaff, adminRole)
	}

	if h.Products != nil {
		api.GET("/products", h.Products.ListProducts)
		api.POST("/products", h.Products.CreateProduct, manager)
		api.GET("/products/:id", h.Products.GetProduct)
		api.PUT("/products/:id", h.Products.UpdateProduct, manager)
		api.DELETE("/products/:id", h.Products.DeleteProduct, manager)
		api.POST("/products/:id/stock", h.Products.AdjustStock)
	}

	if h.Announcements != nil {
		api.GET("/announcements", h.Announcements.ListAnnouncements)
		api.GET("/announcements/active", h.Announcements.ListActiveAnnouncements)
		api.POST("/announcements", h.Announcements.CreateAnnouncement, manager)
		api.GET("/announcements/:id", h.Announcements.GetAnnouncement)
		api.PUT("/announcements/:id", h.Announcements.UpdateAnnouncement, manager)
		api.DELETE("/announcements/:id", h.Announcements.DeleteAnnouncement, manager)
	}
}

func registerReservationRoutes(api *echo.Group, h *Handlers, manager echo.MiddlewareFunc) {
	if h.Resources != nil {
		api.GET("/resources", h.Resources.ListResources)
		api.POST("/resources", h.Resources.CreateResource, manager)
		api.GET("/resources/:id", h.Resources.GetResource)
		api.PUT("/resources/:id", h.Resources.UpdateResource, manager)
		api.DELETE("/resources/:id", h.Resources.DeleteResource, manager)
	}

	if h.Services != nil {
		api.GET("/services", h.Services.ListServices)
		api.POST("/services", h.Services.CreateService, manager)
		api.GET("/services/:id", h.Services.GetService)
		api.PUT("/services/:id", h.Services.UpdateService, manager)
		api.DELETE("/services/:id", h.Services.DeleteService, manager)
	}

	if h.Reservations != nil {
		api.GET("/reservations", h.Reservations.ListReservations)
		api.POST("/reservations", h.Reservations.CreateReservation)
		api.GET("/reservations/:id", h.Reservations.GetReservation)
		api.PUT("/reservations/:id", h.Reservations.UpdateReservation)
		api.POST("/reservations/:id/confirm", h.Reservations.ConfirmReservation)
		api.POST("/reservations/:id/check-in", h.Reservations.CheckIn)
		api.POST("/reservations/:id/check-out", h.Reservations.CheckOut)
		api.POST("/reservations/:id/complete", h.Reservations.CompleteReservation)
		api.POST("/reservations/:id/cancel", h.Reservations.CancelReservation)
	}

	if h.Availability != nil {
		api.GET("/availability", h.Availability.CheckAvailability)
		api.GET("/availability/conflicts", h.Availability.ListConflicts)
		api.GET("/availability/alternatives", h.Availability.ListAlternatives)
	}

	if h.Pricing != nil {
		api.GET("/pricing-rules", h.Pricing.ListPricingRules)
		api.POST("/pricing-rules", h.Pricing.CreatePricingRule, manager)
		api.GET("/pricing-rules/:id", h.Pricing.GetPricingRule)
		api.PUT("/pricing-rules/:id", h.Pricing.UpdatePricingRule, manager)
		api.DELETE("/pricing-rules/:id", h.Pricing.DeletePricingRule, manager)

		api.GET("/deposit-rules", h.Pricing.ListDepositRules)
		api.POST("/deposit-rules", h.Pricing.CreateDepositRule, manager)
		api.POST("/deposit-rules/evaluate", h.Pricing.EvaluateDeposit)
		api.GET("/deposit-rules/validate", h.Pricing.ValidateRules, manager)
		api.GET("/deposit-rules/:id", h.Pricing.GetDepositRule)
		api.PUT("/deposit-rules/:id", h.Pricing.UpdateDepositRule, manager)
		api.DELETE("/deposit-rules/:id", h.Pricing.DeleteDepositRule, manager)

		api.POST("/pricing/quote", h.Pricing.QuoteStay)
	}

	if h.Invoices != nil {
		api.GET("/invoices", h.Invoices.ListInvoices)
		api.POST("/invoices/from-reservation/:id", h.Invoices.CreateFromReservation)
		api.GET("/invoices/:id", h.Invoices.GetInvoice)
		api.PUT("/invoices/:id", h.Invoices.UpdateInvoice)
		api.POST("/invoices/:id/finalize", h.Invoices.FinalizeInvoice)
		api.POST("/invoices/:id/void", h.Invoices.VoidInvoice, manager)
		api.GET("/invoices/:id/payments", h.Invoices.ListPayments)
		api.POST("/invoices/:id/payments", h.Invoices.RecordPayment)
		api.POST("/invoices/:id/refunds", h.Invoices.RefundPayment, manager)
		api.GET("/invoices/:id/pdf", h.Invoices.GetInvoicePDF)
	}

	if h.Imports != nil {
		api.GET("/imports/template", h.Imports.Template)
		api.POST("/imports/reservations", h.Imports.UploadImport, manager)
		api.GET("/imports/:id", h.Imports.GetImport)
	}

	if h.Reports != nil {
		api.GET("/reports/kennel-distribution", h.Reports.KennelDistribution, manager)
		api.GET("/reports/import-summary", h.Reports.ImportSummary, manager)
		api.GET("/reports/occupancy", h.Reports.Occupancy)
	}
}
