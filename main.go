package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/harish-arikkara/learning-platform/internal/cache"
	"github.com/harish-arikkara/learning-platform/internal/config"
	"github.com/harish-arikkara/learning-platform/internal/database"
	"github.com/harish-arikkara/learning-platform/internal/llm"
	"github.com/harish-arikkara/learning-platform/internal/mentor"
	"github.com/harish-arikkara/learning-platform/internal/router"
	"github.com/harish-arikkara/learning-platform/internal/speech"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// ensure basic directories exist
	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	if err := ensureDir(filepath.Dir(cfg.Log.File)); err != nil {
		log.Fatalf("create log dir: %v", err)
	}

	// init database
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	// run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// LLM backend
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("init llm client: %v", err)
	}
	log.Printf("llm client ready (model=%s)", llmClient.Model())

	// summary cache: in-memory by default, Redis when configured
	summaries, err := newSummaryCache(cfg.Cache)
	if err != nil {
		log.Fatalf("init cache: %v", err)
	}
	defer summaries.Close()

	// mentor engine
	prompts := mentor.LoadPrompts(cfg.App.PromptsFile)
	engine := mentor.NewEngine(llmClient, prompts, summaries,
		time.Duration(cfg.Cache.SummaryTTLHours)*time.Hour)

	// optional speech synthesis
	tts := speech.NewClient(cfg.Speech)
	if tts == nil {
		log.Printf("speech synthesis disabled (no api key)")
	}

	// setup router
	r := router.SetupRouter(cfg, db, engine, tts)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func newSummaryCache(cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Backend == "redis" {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return cache.NewMemoryCache(), nil
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
