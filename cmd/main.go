package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/openclaw/openclaw/pkg/accounting"
	"github.com/openclaw/openclaw/pkg/analytics"
	"github.com/openclaw/openclaw/pkg/api"
	"github.com/openclaw/openclaw/pkg/cache"
	"github.com/openclaw/openclaw/pkg/config"
	"github.com/openclaw/openclaw/pkg/detectors"
	"github.com/openclaw/openclaw/pkg/events"
	"github.com/openclaw/openclaw/pkg/faq"
	"github.com/openclaw/openclaw/pkg/llm"
	"github.com/openclaw/openclaw/pkg/observability"
	"github.com/openclaw/openclaw/pkg/persona"
	"github.com/openclaw/openclaw/pkg/rag"
	"github.com/openclaw/openclaw/pkg/rules"
	"github.com/openclaw/openclaw/pkg/triage"
)

func main() {
	// Parse command-line flags
	var (
		configPath  = flag.String("config", "config/config.yaml", "Path to the configuration file")
		metricsPort = flag.Int("metrics-port", 0, "Port for Prometheus metrics (0 uses the config value)")
		apiPort     = flag.Int("api-port", 8080, "Port for the admin API server")
		enableAPI   = flag.Bool("enable-api", true, "Enable admin API server")
		tenantID    = flag.String("tenant", "local", "Tenant ID for the interactive console")
	)
	flag.Parse()

	// Initialize logging (zap) from environment.
	if _, err := observability.InitLoggerFromEnv(); err != nil {
		// Fallback to stderr since logger initialization failed
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
	}

	// Check if config file exists
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		observability.Fatalf("Config file not found: %s", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		observability.Fatalf("Failed to load config: %v", err)
	}

	port := cfg.Metrics.Port
	if *metricsPort > 0 {
		port = *metricsPort
	}

	// Start metrics server
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf(":%d", port)
		observability.Infof("Starting metrics server on %s", metricsAddr)
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			observability.Errorf("Metrics server error: %v", err)
		}
	}()

	ctx := context.Background()

	client := llm.NewClient(llm.ClientOptions{
		Endpoint:       cfg.Models.Endpoint,
		CheapModel:     cfg.Models.CheapModel,
		ExpensiveModel: cfg.Models.ExpensiveModel,
		Timeout:        cfg.Models.TimeoutDuration(),
	})

	responseCache := buildCache(ctx, cfg)
	knowledge := buildKnowledge(ctx, cfg)

	bank := detectors.NewBank()
	tracker := accounting.NewTracker()
	stats := analytics.NewSystem()
	bus := events.NewBus(256)
	defer bus.Close()

	bus.Subscribe(func(e events.Event) {
		if e.State == string(triage.StateModerated) {
			observability.LogEvent("moderation_audit", map[string]interface{}{
				"tenant_id":      e.TenantID,
				"user_id":        e.UserID,
				"classification": e.Classification,
				"action":         e.Action,
			})
		}
	})

	faqs := faq.NewSystem(nil)
	ruleManager := rules.NewManager(nil)

	pipeline := triage.NewPipeline(triage.Options{
		Detectors:     bank,
		Cache:         responseCache,
		Knowledge:     knowledge,
		FAQs:          faqs,
		Rules:         ruleManager,
		Classifier:    client,
		Responder:     client,
		Tracker:       tracker,
		Analytics:     stats,
		Bus:           bus,
		CheapCost:     cfg.Models.CheapCost,
		ExpensiveCost: cfg.Models.ExpensiveCost,
	})

	// Start admin API server if enabled
	if *enableAPI {
		go func() {
			observability.Infof("Starting admin API server on port %d", *apiPort)
			if err := api.StartAdminAPI(api.Options{
				Tracker:   tracker,
				Analytics: stats,
				Knowledge: knowledge,
				Rules:     ruleManager,
				FAQs:      faqs,
			}, *apiPort); err != nil {
				observability.Errorf("Admin API server error: %v", err)
			}
		}()
	}

	// Background maintenance: detector window sweeps and analytics flushes.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Detectors.SweepSchedule, bank.Sweep); err != nil {
		observability.Fatalf("Invalid detector sweep schedule %q: %v", cfg.Detectors.SweepSchedule, err)
	}
	if _, err := scheduler.AddFunc(cfg.Analytics.FlushSchedule, func() {
		stats.Flush(context.Background(), analytics.LogStore{})
	}); err != nil {
		observability.Fatalf("Invalid analytics flush schedule %q: %v", cfg.Analytics.FlushSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		observability.Infof("Received signal %v, shutting down", sig)
		report := tracker.Report()
		observability.LogEvent("session_report", map[string]interface{}{
			"cheap_calls":     report.CheapCalls,
			"expensive_calls": report.ExpensiveCalls,
			"cache_hit_rate":  report.CacheHitRate,
			"total_cost":      report.TotalCost,
		})
		os.Exit(0)
	}()

	observability.Infof("Triage pipeline ready (tenant %s); type messages, ctrl-d to quit", *tenantID)
	runConsole(ctx, pipeline, *tenantID)

	report := tracker.Report()
	fmt.Printf("session: %d cheap calls, %d expensive calls, %.0f%% cache hit rate, %.5f cost units\n",
		report.CheapCalls, report.ExpensiveCalls, report.CacheHitRate*100, report.TotalCost)
}

// runConsole reads messages from stdin and prints pipeline outcomes. It
// stands in for a chat gateway, which delivers responses and enforces
// moderation actions out of process.
func runConsole(ctx context.Context, pipeline *triage.Pipeline, tenantID string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		msg := triage.Message{TenantID: tenantID, UserID: "console", ChannelID: "console", Text: text}
		per := persona.Get(persona.Select(text))
		out := pipeline.Process(ctx, msg, per)

		switch out.State {
		case triage.StateSilent:
			fmt.Printf("[%s/%s] (no response)\n", out.State, out.Source)
		default:
			fmt.Printf("[%s/%s] %s\n", out.State, out.Source, out.Response)
		}
		if out.ModerationAction != triage.ActionNone {
			fmt.Printf("  moderation: %s (%s)\n", out.ModerationAction, out.Classification)
		}
	}
	if err := scanner.Err(); err != nil {
		observability.Errorf("Console input error: %v", err)
	}
}

func buildCache(ctx context.Context, cfg *config.Config) *cache.ResponseCache {
	switch cfg.Cache.Backend {
	case "redis":
		backend, err := cache.NewRedisBackend(ctx, cfg.Cache.RedisURL)
		if err != nil {
			observability.Warnf("Redis unavailable, falling back to in-memory cache: %v", err)
			return cache.New(cache.NewMemoryBackend(cache.MemoryBackendOptions{
				MaxEntries:     cfg.Cache.MaxEntries,
				EvictionPolicy: cfg.Cache.EvictionPolicy,
			}), cfg.Cache.TTLDuration())
		}
		observability.Infof("Response cache: redis")
		return cache.New(backend, cfg.Cache.TTLDuration())
	case "memory":
		observability.Infof("Response cache: memory (policy %s)", cfg.Cache.EvictionPolicy)
		return cache.New(cache.NewMemoryBackend(cache.MemoryBackendOptions{
			MaxEntries:     cfg.Cache.MaxEntries,
			EvictionPolicy: cfg.Cache.EvictionPolicy,
		}), cfg.Cache.TTLDuration())
	default:
		observability.Infof("Response cache disabled")
		return cache.New(nil, 0)
	}
}

func buildKnowledge(ctx context.Context, cfg *config.Config) *rag.System {
	embedder := rag.NewOpenAIEmbedder(rag.OpenAIEmbedderOptions{
		Endpoint: cfg.Models.Endpoint,
		Model:    cfg.Models.EmbeddingModel,
		Timeout:  cfg.Models.TimeoutDuration(),
	})

	var store rag.ChunkStore
	if cfg.Knowledge.Backend == "milvus" {
		milvus, err := rag.NewMilvusStore(ctx, rag.MilvusStoreOptions{
			Endpoint:   cfg.Knowledge.MilvusAddress,
			Collection: cfg.Knowledge.Collection,
			Dimension:  cfg.Knowledge.VectorDim,
		})
		if err != nil {
			observability.Warnf("Milvus unavailable, knowledge base falls back to memory: %v", err)
		} else {
			observability.Infof("Knowledge store: milvus at %s", cfg.Knowledge.MilvusAddress)
			store = milvus
		}
	}

	return rag.NewSystem(rag.SystemOptions{
		Store:       store,
		Embedder:    embedder,
		ChunkTokens: cfg.Knowledge.ChunkTokens,
	})
}
