package main

import (
	"fmt"
	"os"

	"github.com/sakshampandey1901/Cite/internal/annotate/classifier"
	"github.com/sakshampandey1901/Cite/internal/annotate/scorer"
	"github.com/sakshampandey1901/Cite/internal/annotate/segmenter"
	"github.com/sakshampandey1901/Cite/internal/annotate/token"
	"github.com/sakshampandey1901/Cite/internal/db"
	"github.com/sakshampandey1901/Cite/internal/guidance"
	"github.com/sakshampandey1901/Cite/internal/handlers"
	"github.com/sakshampandey1901/Cite/internal/middleware"
	"github.com/sakshampandey1901/Cite/internal/platform/embedding"
	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/platform/groq"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/platform/pinecone"
	"github.com/sakshampandey1901/Cite/internal/prompt"
	"github.com/sakshampandey1901/Cite/internal/repos"
	"github.com/sakshampandey1901/Cite/internal/retrieval"
	"github.com/sakshampandey1901/Cite/internal/server"
	"github.com/sakshampandey1901/Cite/internal/services"
)

func main() {
	// Logger
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("postgres migration failed", "error", err)
	}
	pg := postgresService.DB()

	// Redis (rate limiting only; the API runs without it)
	var rateLimiter *middleware.RateLimiter
	if rdb, err := db.NewRedisClient(log); err != nil {
		log.Warn("redis init failed, rate limiting disabled", "error", err)
	} else {
		rateLimiter = middleware.NewRateLimiter(log, rdb, middleware.RateLimitConfigFromEnv())
	}

	// Repos
	docRepo := repos.NewDocumentRepo(pg, log)
	chunkRepo := repos.NewChunkRepo(pg, log)
	labelRepo := repos.NewChunkLabelRepo(pg, log)

	// Annotation pipeline
	tok := token.NewWordTokenizer()
	seg := segmenter.New(tok)

	rules := classifier.DefaultRules()
	if path := envutil.String("CLASSIFIER_RULES_PATH", ""); path != "" {
		loaded, err := classifier.LoadRules(path)
		if err != nil {
			log.Fatal("failed to load classifier rules", "path", path, "error", err)
		}
		rules = loaded
	}
	cls := classifier.New(rules, classifier.NewHeuristicTagExtractor(), tok, classifier.ConfigFromEnv())
	score := scorer.New(scorer.ConfigFromEnv())

	// External clients
	pineconeClient, err := pinecone.New(log, pinecone.ConfigFromEnv())
	if err != nil {
		log.Fatal("pinecone init failed", "error", err)
	}
	store, err := pinecone.NewVectorStore(log, pineconeClient, pinecone.StoreConfigFromEnv())
	if err != nil {
		log.Fatal("vector store init failed", "error", err)
	}
	embedder, err := embedding.New(log, embedding.ConfigFromEnv())
	if err != nil {
		log.Fatal("embedding client init failed", "error", err)
	}
	completer, err := groq.New(log, groq.ConfigFromEnv())
	if err != nil {
		log.Fatal("groq init failed", "error", err)
	}

	// Services
	ingestion := services.NewIngestionService(
		log,
		services.IngestionConfigFromEnv(),
		docRepo,
		chunkRepo,
		labelRepo,
		seg,
		cls,
		score,
		embedder,
		store,
	)

	filter := retrieval.NewFilter(log)
	assembler := prompt.NewAssembler(log)
	validator := guidance.NewValidator(log, completer, guidance.ConfigFromEnv())

	assist := services.NewAssistService(
		log,
		services.AssistConfigFromEnv(),
		chunkRepo,
		labelRepo,
		embedder,
		store,
		filter,
		assembler,
		completer,
		validator,
	)

	// Middleware
	authMiddleware, err := middleware.NewAuthMiddleware(log, middleware.AuthConfigFromEnv())
	if err != nil {
		log.Fatal("auth middleware init failed", "error", err)
	}

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:  authMiddleware,
		RateLimiter:     rateLimiter,
		DocumentHandler: handlers.NewDocumentHandler(log, ingestion),
		LabelHandler:    handlers.NewLabelHandler(log, labelRepo, docRepo),
		AssistHandler:   handlers.NewAssistHandler(log, assist),
	})

	addr := envutil.String("HTTP_ADDR", ":8080")
	log.Info("starting server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("server exited", "error", err)
	}
}
