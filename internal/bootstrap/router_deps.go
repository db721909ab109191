package bootstrap

import (
	"context"
	"strings"
	"time"

	"router_server/adapter/out/messaging"
	"router_server/adapter/out/mongodb"
	"router_server/adapter/out/persistence"
	"router_server/config"
	"router_server/core/agent"
	"router_server/core/agent/llm"
	"router_server/core/port/out"
	"router_server/core/service/classification"
	"router_server/core/service/extraction"
	"router_server/core/service/learning"
	"router_server/core/service/routing"
	"router_server/infra/database"
	"router_server/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Outbound adapters
	PatternStore    out.PatternStore
	EventLog        out.RoutingEventLog
	MessageProducer out.MessageProducer

	// Core services
	Extractor *extraction.Extractor
	Snapshots *classification.SnapshotHolder
	Fallback  *classification.FallbackClassifier
	Semantic  *classification.SemanticAdapter
	LLMClient *llm.Client
	Engine    *routing.Engine
	Learner   *learning.Learner

	Orchestrator *agent.Orchestrator
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Database (pgxpool)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Database (sqlx for adapters that need it)
	sqlxURL := cfg.DatabaseURL
	if strings.Contains(sqlxURL, "?") {
		sqlxURL += "&default_query_exec_mode=simple_protocol"
	} else {
		sqlxURL += "?default_query_exec_mode=simple_protocol"
	}
	sqlDB, err := sqlx.Connect("pgx", sqlxURL)
	if err != nil {
		logger.Error("sqlx connection failed: %v", err)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)

		deps.SQLDB = sqlDB
		cleanups = append(cleanups, func() { sqlDB.Close() })
	}

	// Redis
	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn("Redis connection failed: %v", err)
	} else {
		deps.Redis = redisClient
		cleanups = append(cleanups, func() { redisClient.Close() })
	}

	// MongoDB (routing audit log)
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL, cfg.MongoDBName)
		if err != nil {
			logger.Warn("MongoDB connection failed: %v", err)
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})

			eventAdapter := mongodb.NewEventAdapter(mongoClient.Database(cfg.MongoDBName), cfg.AuditTTL)
			if err := eventAdapter.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("Failed to ensure routing event indexes: %v", err)
			}
			deps.EventLog = eventAdapter
		}
	}

	// Message Producer (Redis Streams)
	if deps.Redis != nil {
		deps.MessageProducer = messaging.NewRedisProducer(deps.Redis)
	}

	// Pattern store
	if deps.SQLDB != nil {
		deps.PatternStore = persistence.NewPatternAdapter(deps.SQLDB)
	} else {
		logger.Warn("SQLDB is nil, learned patterns will NOT be persisted!")
	}

	// Core services
	deps.Extractor = extraction.NewExtractor()
	deps.Snapshots = classification.NewSnapshotHolder(nil)
	deps.Fallback = classification.NewFallbackClassifier(deps.Extractor, deps.Snapshots)
	deps.Engine = routing.NewEngine(deps.Snapshots, deps.MessageProducer)

	// LLM Client with config
	if cfg.OpenAIAPIKey != "" {
		deps.LLMClient = llm.NewClientWithConfig(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		deps.Semantic = classification.NewSemanticAdapter(deps.LLMClient, cfg.LLMTimeout)
	} else {
		logger.Warn("OPENAI_API_KEY not set, running on fallback classification only")
	}

	// Learning loop
	if deps.PatternStore != nil {
		deps.Learner = learning.NewLearner(deps.PatternStore, deps.EventLog, deps.Snapshots, cfg.LearnRefreshEvery)

		// Load the persisted patterns into the first snapshot.
		if err := deps.Learner.Refresh(context.Background()); err != nil {
			logger.Warn("Initial pattern snapshot load failed: %v", err)
		}
	}

	// When a producer is available the learning loop feeds off the decision
	// stream instead of in-process calls, so each decision is learned once.
	orchLearner := deps.Learner
	if deps.MessageProducer != nil {
		orchLearner = nil
	}

	deps.Orchestrator = agent.NewOrchestrator(
		deps.Semantic,
		deps.Fallback,
		deps.Engine,
		orchLearner,
		deps.EventLog,
	)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return deps, cleanup, nil
}

func (d *Dependencies) HealthCheck(ctx context.Context) error {
	if err := d.DB.Ping(ctx); err != nil {
		return err
	}

	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}

	return nil
}
