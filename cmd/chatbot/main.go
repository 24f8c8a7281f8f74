package main

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/pritam-ray/Personalized-chatbot/internal/accounts"
	"github.com/pritam-ray/Personalized-chatbot/internal/chat"
	"github.com/pritam-ray/Personalized-chatbot/internal/config"
	"github.com/pritam-ray/Personalized-chatbot/internal/scrape"
	"github.com/pritam-ray/Personalized-chatbot/internal/websearch"
	"github.com/pritam-ray/Personalized-chatbot/pkg/auth"
	pkgconfig "github.com/pritam-ray/Personalized-chatbot/pkg/config"
	"github.com/pritam-ray/Personalized-chatbot/pkg/email"
	"github.com/pritam-ray/Personalized-chatbot/pkg/llm"
	"github.com/pritam-ray/Personalized-chatbot/pkg/logging"
	"github.com/pritam-ray/Personalized-chatbot/pkg/search"
	"github.com/pritam-ray/Personalized-chatbot/pkg/server"
)

const serviceName = "chatbot"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	pkgconfig.LoadEnv(logger)
	cfg := config.LoadConfig()

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()
	// modernc's driver serializes writes itself, but a single connection
	// avoids SQLITE_BUSY under concurrent request handlers.
	db.SetMaxOpenConns(1)

	userStore, err := accounts.NewStore(db)
	if err != nil {
		logger.WithError(err).Fatal("Failed to init user store")
	}
	conversationStore, err := chat.NewConversationStore(db)
	if err != nil {
		logger.WithError(err).Fatal("Failed to init conversation store")
	}

	model, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		logger.WithError(err).Fatal("Failed to init language model provider")
	}

	searcher := search.NewProvider(search.Config{APIKey: cfg.BingSearchAPIKey}, logger)

	extractor := scrape.NewExtractor(logger)
	extractor.SetMaxLength(cfg.ScrapeMaxLength)

	engine := websearch.NewService(searcher, extractor, model, logger)

	mailer := email.NewSender(cfg.Email)

	router := server.SetupRouter(logger, serviceName, cfg.FrontendURL)

	jwtSecret := []byte(cfg.JWTSecret)
	accountHandler := accounts.NewHandler(userStore, mailer, jwtSecret, cfg.FrontendURL, logger)
	chatHandler := chat.NewHandler(engine, conversationStore, logger)

	public := router.Group("/api")
	accountHandler.RegisterPublicRoutes(public)

	protected := router.Group("/api")
	protected.Use(auth.JWTAuthMiddleware(jwtSecret))
	accountHandler.RegisterProtectedRoutes(protected)
	chatHandler.RegisterRoutes(protected)

	serverCfg := server.DefaultConfig(serviceName, cfg.Port)
	serverCfg.ReadTimeout = cfg.ReadTimeout
	serverCfg.WriteTimeout = cfg.WriteTimeout

	if err := server.Start(serverCfg, router, logger); err != nil {
		logger.WithError(err).Fatal("Server shutdown failed")
	}
}
