package server

import (
	"github.com/Agnijit02/OnTwoWheelz/internal/adventure"
	"github.com/Agnijit02/OnTwoWheelz/internal/auth"
	"github.com/Agnijit02/OnTwoWheelz/internal/chat"
	"github.com/Agnijit02/OnTwoWheelz/internal/config"
	"github.com/Agnijit02/OnTwoWheelz/internal/feed"
	"github.com/Agnijit02/OnTwoWheelz/internal/garage"
	"github.com/Agnijit02/OnTwoWheelz/internal/media"
	"github.com/Agnijit02/OnTwoWheelz/internal/notification"
	"github.com/Agnijit02/OnTwoWheelz/internal/profile"
	"github.com/Agnijit02/OnTwoWheelz/internal/social"
	"github.com/Agnijit02/OnTwoWheelz/internal/trip"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
	Chat  *chat.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 64 << 20,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
		Chat:  chat.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Static("/files", s.Cfg.StorageDir)

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	notificationSvc := notification.NewService(s.DB)
	tripSvc := trip.NewService(s.DB)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.Cfg.GoogleClientID, s.DB))
	profile.RegisterRoutes(s.App.Group("/profiles"), profile.NewService(s.DB), jwtMiddleware)
	garage.RegisterRoutes(s.App.Group("/bikes"), garage.NewService(s.DB), jwtMiddleware)
	adventure.RegisterRoutes(s.App.Group("/adventures"), adventure.NewService(s.DB), jwtMiddleware)
	feed.RegisterRoutes(s.App.Group("/feed"), feed.NewService(s.DB), jwtMiddleware)
	social.RegisterRoutes(s.App.Group("/social"), social.NewService(s.DB, notificationSvc), jwtMiddleware)
	trip.RegisterRoutes(s.App.Group("/trips"), tripSvc, jwtMiddleware)
	chat.RegisterRoutes(s.App.Group("/chat"), chat.NewService(s.DB, s.Chat, tripSvc), s.Chat, jwtMiddleware)
	media.RegisterRoutes(s.App.Group("/media"), media.NewService(s.DB, s.Cfg.StorageDir, s.Cfg.StorageBaseURL), jwtMiddleware)
	notification.RegisterRoutes(s.App.Group("/notifications"), notificationSvc, jwtMiddleware)
}
