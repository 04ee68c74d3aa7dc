package routes

import (
	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/Hakheem/TibaPoint-sub001/internal/api/handlers"
	"github.com/Hakheem/TibaPoint-sub001/internal/middleware"
	"github.com/Hakheem/TibaPoint-sub001/pkg/jwt"
	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App                 *fiber.App
	UserHandler         handlers.UserHandler
	CreditHandler       handlers.CreditHandler
	PlanHandler         handlers.PlanHandler
	BookingHandler      handlers.BookingHandler
	PaymentHandler      handlers.PaymentHandler
	NotificationHandler handlers.NotificationHandler
	Middleware          middleware.Middleware
	JWTService          jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Credits()
	c.Plans()
	c.Slots()
	c.Appointments()
	c.Notifications()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
	}
}

func (c *Config) Credits() {
	credits := c.App.Group("/api/v1/credits",
		c.Middleware.AuthMiddleware(c.JWTService),
		c.Middleware.RequireRole(entities.RolePatient))
	{
		credits.Get("/balance", c.CreditHandler.GetBalance)
		credits.Get("/history", c.CreditHandler.GetHistory)
		credits.Get("/check", c.CreditHandler.CheckCredits)
	}
}

func (c *Config) Plans() {
	plans := c.App.Group("/api/v1/plans", c.Middleware.AuthMiddleware(c.JWTService))
	{
		plans.Get("", c.PlanHandler.GetPlans)
		plans.Get("/active", c.Middleware.RequireRole(entities.RolePatient), c.PlanHandler.GetActivePackage)
		plans.Get("/mine", c.Middleware.RequireRole(entities.RolePatient), c.PlanHandler.GetMyPackages)
		plans.Post("/purchase", c.Middleware.RequireRole(entities.RolePatient), c.PlanHandler.Purchase)
		plans.Post("/upgrade", c.Middleware.RequireRole(entities.RolePatient), c.PlanHandler.Upgrade)
	}
}

func (c *Config) Slots() {
	slots := c.App.Group("/api/v1/slots", c.Middleware.AuthMiddleware(c.JWTService))
	{
		slots.Post("", c.Middleware.RequireRole(entities.RoleDoctor), c.BookingHandler.CreateSlots)
		slots.Get("/mine", c.Middleware.RequireRole(entities.RoleDoctor), c.BookingHandler.GetMySlots)
		slots.Get("/doctor/:doctor_id", c.BookingHandler.GetDoctorSlots)
	}
}

func (c *Config) Appointments() {
	appointments := c.App.Group("/api/v1/appointments", c.Middleware.AuthMiddleware(c.JWTService))
	{
		appointments.Post("", c.Middleware.RequireRole(entities.RolePatient), c.BookingHandler.Book)
		appointments.Get("/mine", c.Middleware.RequireRole(entities.RolePatient), c.BookingHandler.GetPatientAppointments)
		appointments.Get("/schedule", c.Middleware.RequireRole(entities.RoleDoctor), c.BookingHandler.GetDoctorAppointments)

		appointments.Patch("/:id/reschedule", c.Middleware.RequireRole(entities.RolePatient), c.BookingHandler.Reschedule)
		appointments.Patch("/:id/cancel", c.BookingHandler.Cancel)

		// Lifecycle transitions belong to the doctor side.
		appointments.Patch("/:id/confirm", c.Middleware.RequireRole(entities.RoleDoctor), c.BookingHandler.Confirm)
		appointments.Patch("/:id/start", c.Middleware.RequireRole(entities.RoleDoctor), c.BookingHandler.StartSession)
		appointments.Patch("/:id/complete", c.Middleware.RequireRole(entities.RoleDoctor), c.BookingHandler.Complete)
		appointments.Patch("/:id/no-show", c.Middleware.RequireRole(entities.RoleDoctor), c.BookingHandler.MarkNoShow)
	}
}

func (c *Config) Notifications() {
	notifications := c.App.Group("/api/v1/notifications", c.Middleware.AuthMiddleware(c.JWTService))
	{
		notifications.Get("", c.NotificationHandler.GetMyNotifications)
		notifications.Patch("/:id/read", c.NotificationHandler.MarkAsRead)
	}
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Post("/webhook/midtrans", c.PaymentHandler.MidtransWebhookHandler)
}
