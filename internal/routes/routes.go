package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	codec *services.TokenCodec,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Get("/vk/login", authHandler.VKLogin)
	auth.Get("/vk/callback", authHandler.VKCallback)
	auth.Post("/email/send-code", authHandler.SendCode)
	auth.Post("/email/verify-code", authHandler.VerifyCode)
	auth.Post("/email/register", authHandler.Register)

	// JWT goes on each route so public routes never see it
	protected := middleware.JWTProtected(codec)
	api.Get("/profile", protected, profileHandler.GetProfile)
	api.Put("/profile", protected, profileHandler.UpdateProfile)
	api.Get("/premium", protected, profileHandler.PremiumStatus)
	api.Post("/premium", protected, profileHandler.ActivatePremium)
	api.Get("/statistics", protected, profileHandler.Statistics)
	api.Post("/statistics", protected, profileHandler.RecordAction)
}
