package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-service/internal/api/http/handlers"
	"github.com/spec-kit/team-service/internal/auth"
	"github.com/spec-kit/team-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Teams          *handlers.TeamsHandler
	Membership     *handlers.MembershipHandler
	Users          *handlers.UsersHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
	AuthRateLimit  fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/signup", cfg.AuthRateLimit, cfg.Auth.Signup)
	authGroup.Post("/login", cfg.AuthRateLimit, cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)
	authGroup.Get("/session", cfg.AuthMiddleware.Handle, cfg.Auth.Session)

	teams := app.Group("/teams", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	// static segments before :id
	teams.Get("/requests", cfg.Membership.ListMyRequests)
	teams.Get("/invites", cfg.Membership.ListMyInvites)
	teams.Put("/requests/:id", cfg.Membership.ResolveRequest)
	teams.Put("/invites/:id", cfg.Membership.ResolveInvite)
	teams.Post("/roles/assign", cfg.Teams.AssignRole)
	teams.Post("/roles/unassign", cfg.Teams.UnassignRole)

	teams.Get("/", cfg.Teams.ListTeams)
	teams.Post("/", cfg.Teams.CreateTeam)
	teams.Get("/:id", cfg.Teams.GetTeam)
	teams.Get("/:id/requests", cfg.Membership.ListTeamRequests)
	teams.Post("/:id/requests", cfg.Membership.CreateRequest)
	teams.Get("/:id/invites", cfg.Membership.ListTeamInvites)
	teams.Post("/:id/invites", cfg.Membership.CreateInvite)
	teams.Get("/:id/roles", cfg.Teams.ListRoles)
	teams.Post("/:id/roles", cfg.Teams.CreateRole)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	adminRoles := auth.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleSuperAdmin)
	writeRoles := auth.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin)
	superOnly := auth.RequireRole(domain.RoleSuperAdmin)

	users.Get("/all", superOnly, cfg.Users.ListAll)
	users.Get("/", adminRoles, cfg.Users.List)
	users.Post("/", writeRoles, cfg.Users.Create)
	users.Get("/:id", adminRoles, cfg.Users.Get)
	users.Put("/:id/admin", superOnly, cfg.Users.AdminUpdate)
	users.Put("/:id", writeRoles, cfg.Users.Update)
	users.Delete("/:id", writeRoles, cfg.Users.Delete)

	app.Get("/audit-logs", cfg.AuthMiddleware.Handle, writeRoles, cfg.Audit.List)
}
