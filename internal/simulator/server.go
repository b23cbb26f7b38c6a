package simulator

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/zyncrender/max-plugin/internal/config"
)

// Server assembles the simulator: Redis-backed store and task queue when
// Redis is reachable, in-memory store with goroutine dispatch otherwise.
type Server struct {
	cfg         *config.Config
	app         *fiber.App
	worker      *RenderWorker
	asynqServer *asynq.Server
	asynqClient *asynq.Client
}

// NewServer wires the simulator from configuration. Missing backing
// services degrade with a log line instead of failing startup.
func NewServer(cfg *config.Config) *Server {
	// Redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: Redis not available: %v", err)
			redisClient.Close()
			redisClient = nil
		}
	}

	var store Store
	if redisClient != nil {
		store = NewRedisStore(redisClient)
	} else {
		log.Println("Info: Redis not configured, using in-memory job store")
		store = NewMemoryStore()
	}

	// Submission archive (optional - falls back to a local directory)
	var archive Archive
	remoteArchive := false
	if cfg.Archive.AccessKeyID != "" && cfg.Archive.SecretAccessKey != "" {
		s3Archive, err := NewS3Archive(&cfg.Archive)
		if err != nil {
			log.Printf("Warning: submission archive not initialized: %v", err)
		} else {
			archive = s3Archive
			remoteArchive = true
		}
	}
	if archive == nil {
		dir := cfg.Archive.LocalDir
		if dir == "" {
			dir = filepath.Join(os.TempDir(), "zync-sim-archive")
		}
		log.Printf("Info: object storage not configured, archiving submissions to %s", dir)
		archive = NewLocalArchive(dir)
	}

	frameDelay := time.Duration(cfg.Sim.FrameDelayMs) * time.Millisecond
	if frameDelay <= 0 {
		frameDelay = 50 * time.Millisecond
	}
	worker := NewRenderWorker(store, frameDelay)

	var dispatcher Dispatcher
	var asynqClient *asynq.Client
	var asynqServer *asynq.Server
	if redisClient != nil {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		asynqClient = asynq.NewClient(redisOpt)
		dispatcher = NewAsynqDispatcher(asynqClient)
		asynqServer = asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				renderQueue: 10,
			},
			LogLevel: asynqLogLevel(cfg.Sim.LogLevel),
		})
	} else {
		dispatcher = NewInlineDispatcher(worker)
	}

	service := NewJobService(store, archive, dispatcher)
	validate := validator.New()
	h := NewHandler(service, validate, cfg.Sim.JWTSecret, time.Duration(cfg.Sim.TokenTTL)*time.Hour)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Sim.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"redis":   redisClient != nil,
				"queue":   asynqServer != nil,
				"archive": remoteArchive,
				"auth":    cfg.Sim.JWTSecret != "",
			},
		})
	})

	// Login issues tokens, everything below /api/v1 requires one
	app.Post("/api/v1/auth/login", h.Login)

	api := app.Group("/api/v1", SessionAuth(cfg.Sim.JWTSecret))
	api.Post("/auth/logout", h.Logout)
	api.Get("/account", h.Account)
	api.Get("/projects", h.Projects)
	api.Get("/instance-types", h.InstanceTypes)

	jobs := api.Group("/jobs")
	if redisClient != nil {
		rateLimiter := NewRateLimiter(redisClient)
		jobs.Post("/", rateLimiter.SubmitLimit(cfg.RateLimit.SubmitsPerHour), h.SubmitJob)
	} else {
		jobs.Post("/", h.SubmitJob)
	}
	jobs.Get("/:jobId", h.JobStatus)
	jobs.Post("/:jobId/cancel", h.CancelJob)

	return &Server{
		cfg:         cfg,
		app:         app,
		worker:      worker,
		asynqServer: asynqServer,
		asynqClient: asynqClient,
	}
}

// App exposes the fiber app so tests can drive it without listening.
func (s *Server) App() *fiber.App { return s.app }

// Run starts the task worker and serves the API until interrupted.
func (s *Server) Run() error {
	if s.asynqServer != nil {
		go s.runWorkerServer()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if s.asynqServer != nil {
			s.asynqServer.Shutdown()
		}
		if s.asynqClient != nil {
			s.asynqClient.Close()
		}
		if err := s.app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := ":" + s.cfg.Sim.Port
	log.Printf("Zync simulator starting on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) runWorkerServer() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeRender, s.worker.ProcessTask)
	if err := s.asynqServer.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func asynqLogLevel(level string) asynq.LogLevel {
	logLevel := asynq.InfoLevel
	if strings.EqualFold(level, "debug") {
		logLevel = asynq.DebugLevel
	} else if strings.EqualFold(level, "warn") {
		logLevel = asynq.WarnLevel
	} else if strings.EqualFold(level, "error") {
		logLevel = asynq.ErrorLevel
	}
	return logLevel
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
