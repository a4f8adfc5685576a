package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/avoronin/cvmatch/internal/ai"
	"github.com/avoronin/cvmatch/internal/ai/gemini"
	"github.com/avoronin/cvmatch/internal/cache"
	"github.com/avoronin/cvmatch/internal/embedding"
	"github.com/avoronin/cvmatch/internal/jobboard"
	"github.com/avoronin/cvmatch/internal/logger"
	"github.com/avoronin/cvmatch/internal/matching"
	"github.com/avoronin/cvmatch/internal/resume"
	"github.com/avoronin/cvmatch/internal/secrets"
	"github.com/avoronin/cvmatch/internal/server"
	"github.com/avoronin/cvmatch/internal/title"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultAddress       = ":8080"
	defaultQueryCacheTTL = 30 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cvmatch HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	// Optional .env for local development; config and real env win.
	_ = godotenv.Load()

	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting cvmatch", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Database == nil || config.Database.URL == "" {
		logger.Fatal("database url is required",
			zap.String("hint", "set database.url in the configuration file or the DATABASE_URL environment variable"),
		)
	}

	if config.Bridge == nil || config.Bridge.URL == "" {
		logger.Fatal("job board bridge url is required under bridge.url")
	}

	store, err := resume.NewPostgres(ctx, config.Database.URL, logger)
	if err != nil {
		logger.Fatal("connecting to postgres", zap.Error(err))
	}
	defer store.Close()

	embedder, generator, err := buildAIClients(ctx, config, logger)
	if err != nil {
		logger.Fatal("building ai clients", zap.Error(err))
	}

	var queryCache title.Cache
	if config.Redis != nil && config.Redis.URL != "" {
		ttl := defaultQueryCacheTTL
		if config.Redis.TTLMinutes > 0 {
			ttl = time.Duration(config.Redis.TTLMinutes) * time.Minute
		}

		redisCache, err := cache.NewRedis(ctx, config.Redis.URL, ttl, logger)
		if err != nil {
			logger.Warn("query cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			queryCache = redisCache
			logger.Info("query cache enabled", zap.Duration("ttl", ttl))
		}
	}

	extractor := title.NewExtractor(generator, queryCache, logger)

	var boards []string
	if config.Search != nil {
		boards = config.Search.Boards
	}
	searcher := jobboard.New(config.Bridge.URL, boards, logger)

	pipeline := matching.NewPipeline(store, extractor, searcher, matching.NewRanker(embedder, logger), logger)

	if config.Sweeper != nil && config.Sweeper.Enabled {
		sweeper := resume.NewSweeper(store, embedder, config.Sweeper.Schedule, logger)
		if err := sweeper.Start(); err != nil {
			logger.Fatal("starting embedding sweeper", zap.Error(err))
		}
		defer sweeper.Stop()
	}

	address := defaultAddress
	if config.Server != nil && config.Server.Address != "" {
		address = config.Server.Address
	}

	srv := server.New(address, pipeline, searcher, logger)

	logger.Info("serving http api", zap.String("address", address))

	if err := srv.Run(); err != nil {
		logger.Fatal("http server stopped", zap.Error(err))
	}
}

func buildAIClients(ctx context.Context, config *Config, logger *zap.Logger) (embedding.Embedder, ai.Generator, error) {
	if config.AI == nil || config.AI.Cohere == nil || config.AI.Gemini == nil {
		return nil, nil, fmt.Errorf("ai.cohere and ai.gemini configuration sections are required")
	}

	cohereKey, err := secrets.Load(secrets.Source{
		Name: "cohere api key",
		File: config.AI.Cohere.APIKeyFile,
		Env:  "COHERE_API_KEY",
	})
	if err != nil {
		return nil, nil, err
	}

	geminiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: config.AI.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, nil, err
	}

	embedder := embedding.NewCohere(cohereKey, config.AI.Cohere.Model, logger)

	generator, err := gemini.NewClient(ctx, geminiKey, config.AI.Gemini.Model)
	if err != nil {
		return nil, nil, err
	}

	return embedder, generator, nil
}
