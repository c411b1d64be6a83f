package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/commercia/access-management/internal/auth"
	"github.com/commercia/access-management/internal/customer"
	"github.com/commercia/access-management/internal/navigation"
	"github.com/commercia/access-management/internal/rbac"
	"github.com/commercia/access-management/internal/transport/middleware"
	"github.com/commercia/access-management/internal/transport/swagger"
	"github.com/commercia/access-management/internal/user"
	"github.com/go-chi/chi"
)

// Handlers bundles the per-domain handlers the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Customer   *customer.Handler
	Role       *rbac.Handler
	Navigation *navigation.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI document and Swagger UI live outside the API prefix.
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/", h.User.ListUsers)
				ur.Post("/", h.User.CreateUser)
				ur.Get("/me", h.User.GetMe)
				ur.Patch("/me", h.User.UpdateMe)
				ur.Post("/me/password", h.User.ChangePassword)
				ur.Get("/me/permissions", h.User.GetMyPermissions)
				ur.Get("/me/menu", h.User.GetMyMenu)
				ur.Get("/{id}", h.User.GetUser)
				ur.Patch("/{id}", h.User.UpdateUser)
				ur.Delete("/{id}", h.User.DeleteUser)
				ur.Get("/{id}/assignments", h.Role.ListUserAssignments)
			})

			pr.Route("/customers", func(cr chi.Router) {
				cr.Get("/", h.Customer.ListCustomers)
				cr.Post("/", h.Customer.CreateCustomer)
				cr.Get("/me", h.Customer.GetMyCustomer)
				cr.Get("/{id}", h.Customer.GetCustomer)
				cr.Patch("/{id}", h.Customer.UpdateCustomer)
				cr.Delete("/{id}", h.Customer.DeleteCustomer)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.Get("/", h.Role.ListRoles)
				rr.Post("/", h.Role.CreateRole)
				rr.Get("/{id}", h.Role.GetRole)
				rr.Patch("/{id}", h.Role.UpdateRole)
				rr.Delete("/{id}", h.Role.DeleteRole)
				rr.Get("/{id}/users", h.Role.GetRoleUsers)
			})

			pr.Route("/assignments", func(ar chi.Router) {
				ar.Post("/", h.Role.GrantRole)
				ar.Delete("/{id}", h.Role.RevokeRole)
			})

			pr.Route("/categories", func(nr chi.Router) {
				nr.Get("/", h.Navigation.ListCategories)
				nr.Post("/", h.Navigation.CreateCategory)
				nr.Get("/{id}", h.Navigation.GetCategory)
				nr.Patch("/{id}", h.Navigation.UpdateCategory)
				nr.Delete("/{id}", h.Navigation.DeleteCategory)
			})

			pr.Route("/functions", func(fr chi.Router) {
				fr.Get("/", h.Navigation.ListFunctions)
				fr.Post("/", h.Navigation.CreateFunction)
				fr.Get("/tree", h.Navigation.FunctionTree)
				fr.Get("/{id}", h.Navigation.GetFunction)
				fr.Patch("/{id}", h.Navigation.UpdateFunction)
				fr.Delete("/{id}", h.Navigation.DeleteFunction)
			})

			pr.Post("/navigation/reorder", h.Navigation.Reorder)
		})
	})
}
