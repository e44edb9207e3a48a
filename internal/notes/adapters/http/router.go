// Package http содержит маршрутизацию и сборку HTTP сервера.
package http

import (
	"github.com/gofiber/fiber/v3"

	"zametki/internal/notes/adapters/http/auth"
	"zametki/internal/notes/adapters/http/middleware"
	"zametki/internal/notes/adapters/http/notes"
	"zametki/internal/notes/app"
	"zametki/internal/notes/ports/services"
)

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(fiberApp *fiber.App, noteUseCase *app.NoteUseCase, authUseCase *app.AuthUseCase, tokenService services.TokenService) {
	authHandler := auth.NewHandler(authUseCase)
	notesHandler := notes.NewHandler(noteUseCase)

	// Middleware для всех запросов.
	fiberApp.Use(middleware.NewLoggerMiddleware())
	fiberApp.Use(middleware.NewRecoveryMiddleware())

	// API версии 1.
	apiV1 := fiberApp.Group("/api/v1")

	// Auth routes (публичные).
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshTokens)
	authRoutes.Post("/logout", authHandler.Logout)

	// Защищенные маршруты.
	userRoutes := apiV1.Group("/user")
	userRoutes.Use(middleware.NewAuthMiddleware(tokenService))
	userRoutes.Get("/profile", authHandler.GetProfile)

	noteRoutes := apiV1.Group("/notes")
	noteRoutes.Use(middleware.NewAuthMiddleware(tokenService))
	noteRoutes.Post("/", notesHandler.CreateNote)
	noteRoutes.Get("/", notesHandler.ListNotes)
	noteRoutes.Get("/search", notesHandler.SearchNotes)
	noteRoutes.Get("/:note_id", notesHandler.GetNote)
	noteRoutes.Put("/:note_id", notesHandler.UpdateNote)
	noteRoutes.Delete("/:note_id", notesHandler.DeleteNote)
	noteRoutes.Get("/:note_id/versions", notesHandler.GetVersions)
	noteRoutes.Post("/:note_id/revert", notesHandler.RevertNote)
	noteRoutes.Post("/:note_id/share", notesHandler.ShareNote)

	// Обработчик для несуществующих маршрутов.
	fiberApp.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}
