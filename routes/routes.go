package routes

import (
	"github.com/Dosada05/sports-sessions/handlers"
	"github.com/Dosada05/sports-sessions/middleware"
	"github.com/Dosada05/sports-sessions/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes собирает дерево маршрутов. Аутентификация и ролевые проверки
// навешиваются здесь, до обработчиков; проверка владения при отмене сессии
// остаётся в сервисе.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	sportHandler *handlers.SportHandler,
	sessionHandler *handlers.SessionHandler,
	reportHandler *handlers.ReportHandler,
	liveHandler *handlers.LiveHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	router.Post("/auth/signup", authHandler.SignUp)
	router.Post("/auth/signin", authHandler.SignIn)
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/auth/me", authHandler.Me)
	})

	router.Route("/sports", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", sportHandler.GetAllSports)
		r.Get("/{sportID}", sportHandler.GetSportByID)

		// Управление каталогом — только для администраторов.
		r.Group(func(r chi.Router) {
			r.Use(adminOnly)

			r.Post("/", sportHandler.CreateSport)
			r.Put("/{sportID}", sportHandler.UpdateSport)
			r.Post("/{sportID}/logo", sportHandler.UploadSportLogo)
		})
	})

	router.Route("/sessions", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", sessionHandler.ListSessions)
		r.Post("/", sessionHandler.CreateSession)
		r.Post("/{sessionID}/join", sessionHandler.JoinSession)
		r.Put("/{sessionID}/cancel", sessionHandler.CancelSession)
	})

	router.Route("/reports", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)

		r.Get("/sessions", reportHandler.SessionsInWindow)
		r.Get("/sports/popularity", reportHandler.SportPopularity)
	})

	router.Get("/ws/sessions", liveHandler.ServeSessionsFeed)
}
