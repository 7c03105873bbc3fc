package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/robfig/cron"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/api/handlers"
	"github.com/beardedvibes/beardedvibes/internal/api/middleware"
	job "github.com/beardedvibes/beardedvibes/internal/jobs"
	"github.com/beardedvibes/beardedvibes/internal/queue"
	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/internal/repository/postgres"
	"github.com/beardedvibes/beardedvibes/internal/repository/sqlite"
	"github.com/beardedvibes/beardedvibes/internal/service"
	"github.com/beardedvibes/beardedvibes/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	store, db, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to set up database: %v", err)
	}
	defer closeDB(db)

	st, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Failed to set up storage: %v", err)
	}

	// The expiry queue needs redis; without it stale drafts are still
	// swept by the retention cron.
	var client *asynq.Client
	if cfg.RedisURI != "" {
		client = asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisURI})
		defer client.Close()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Service-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authService := service.NewAuthService(*cfg, store.Users)
	postService := service.NewPostService(store.Posts, st)
	socialService := service.NewSocialService(store.Posts, store.Likes, store.Comments,
		store.History, store.Watchlist, store.Follows, store.Users)
	userService := service.NewUserService(store.Users, store.Posts, store.Follows, st)
	adminService := service.NewAdminService(store.Users, userService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, store.Users)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Use(authMiddleware.OptionalAuth())

	auth := handlers.NewAuthHandler(*cfg, authService)
	api.Get("/auth/discord", auth.DiscordLogin)
	api.Get("/auth/discord/callback", auth.DiscordCallback)
	api.Get("/auth/google", auth.GoogleLogin)
	api.Get("/auth/google/callback", auth.GoogleCallback)

	post := handlers.NewPostHandler(*cfg, postService, authService, client)
	social := handlers.NewSocialHandler(socialService)
	user := handlers.NewUserHandler(*cfg, userService, socialService)

	api.Get("/posts", post.ListPosts)
	api.Get("/post/:id", post.GetPost)
	// Edit, publish and remove authorize inside the service: owner session,
	// admin, or draft edit token. The token has to work without a session.
	api.Patch("/post/:id", post.UpdatePost)
	api.Post("/post/:id/publish", post.PublishPost)
	api.Delete("/post/:id", post.RemovePost)
	api.Get("/post/:id/comments", social.ListComments)
	api.Get("/user/:id", user.Profile)
	api.Get("/user/:id/posts", post.ListByUser)
	api.Get("/user/:id/followers", user.Followers)
	api.Get("/user/:id/following", user.Following)

	api.Post("/ingest", authMiddleware.RequireServiceKey(), post.IngestPost)

	authed := api.Group("", authMiddleware.RequireUser())
	authed.Get("/auth/me", auth.Me)
	authed.Post("/auth/logout", auth.Logout)

	authed.Post("/posts", post.CreatePost)
	authed.Get("/posts/mine", post.ListMine)
	authed.Get("/posts/liked", post.ListLiked)
	authed.Get("/posts/watchlist", post.ListWatchlist)
	authed.Get("/posts/history", post.ListHistory)
	authed.Get("/posts/following", post.ListFollowing)

	authed.Post("/post/:id/like", social.ToggleLike)
	authed.Post("/post/:id/watchlist", social.ToggleWatchlist)
	authed.Post("/post/:id/view", social.RecordView)
	authed.Post("/post/:id/comments", social.AddComment)
	authed.Delete("/comment/:id", social.RemoveComment)

	authed.Post("/user/:id/follow", user.ToggleFollow)
	authed.Post("/user/name", user.UpdateName)
	authed.Post("/user/avatar", user.UpdateAvatar)
	authed.Delete("/user", user.RemoveAccount)

	adminH := handlers.NewAdminHandler(adminService, postService)
	admin := authed.Group("/admin", authMiddleware.RequireAdmin())
	admin.Get("/users", adminH.ListUsers)
	admin.Post("/user/:id/flags", adminH.SetUserFlags)
	admin.Delete("/user/:id", adminH.RemoveUser)
	admin.Get("/posts", adminH.ListPosts)
	admin.Delete("/post/:id", adminH.RemovePost)

	// Edit links sent by the bot address drafts by path; the page reads the
	// id and token back out of its own URL.
	app.Get("/edit/:id", func(c *fiber.Ctx) error {
		return c.SendFile(filepath.Join(cfg.PublicDir, "edit.html"))
	})

	if ds, ok := st.(*storage.DiskStorage); ok {
		app.Static("/media", ds.Dir())
	}
	app.Static("/", cfg.PublicDir)

	// cron jobs
	retentionJob := job.NewRetentionJob(store.History, store.Posts, st, cfg.HistoryDays, cfg.DraftTTLHours)

	c := cron.New()
	c.AddFunc("@daily", retentionJob.Run)
	c.Start()

	if cfg.RedisURI != "" {
		queueW := queue.NewQueue(store.Posts, st)

		go func() {
			server := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisURI}, asynq.Config{
				Concurrency: 10,
			})

			mux := asynq.NewServeMux()
			mux.HandleFunc(queue.TaskTypeDraftExpire, queueW.HandleDraftExpireTask)

			log.Println("Starting the Asynq server...")
			if err := server.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:" + cfg.Port)

	gracefulShutdown(app, db)
}

func openStore(cfg *config.Config) (*repository.Store, *sql.DB, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.DBURI)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(context.Background(), db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewStore(db), db, nil
	case "", "sqlite":
		db, err := sqlite.Open(cfg.DBURI)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(context.Background(), db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewStore(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
