package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"catalog-agent/internal/agents/intent"
	"catalog-agent/internal/agents/response"
	"catalog-agent/internal/agents/retrieval"
	"catalog-agent/internal/catalog"
	"catalog-agent/internal/common/config"
	"catalog-agent/internal/common/credentials"
	"catalog-agent/internal/common/logger"
	"catalog-agent/internal/common/observability"
	"catalog-agent/internal/content"
	"catalog-agent/internal/delivery"
	"catalog-agent/internal/llm"
	"catalog-agent/internal/orchestrator"
	"catalog-agent/internal/provider"
	"catalog-agent/internal/sessionlog"
)

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting agent runner...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.Agent.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	creds := credentials.NewEnvStore().Get(cfg.Agent.Name)

	cat := catalog.Default()
	if cfg.Agent.CatalogFile != "" {
		cat, err = catalog.Load(cfg.Agent.CatalogFile)
		if err != nil {
			zapLog.Fatal("catalog load failed", zap.Error(err))
		}
	}

	templates := response.TemplateSet{}
	if cfg.Agent.TemplatesFile != "" {
		templates, err = response.LoadTemplates(cfg.Agent.TemplatesFile)
		if err != nil {
			zapLog.Fatal("templates load failed", zap.Error(err))
		}
	}

	var client llm.Client
	switch cfg.Classifier.Backend {
	case "anthropic":
		client = llm.NewAnthropicClient(creds.ClassifierAPIKey)
	default:
		client = llm.NewOpenAIClient(creds.ClassifierAPIKey)
	}

	source, err := buildProvider(ctx, cfg, cfg.Providers.Active, log)
	if err != nil {
		zapLog.Fatal("provider init failed", zap.Error(err))
	}
	verifyProviderData(ctx, source, zapLog)

	parser := intent.NewParser(cfg.Classifier, cfg.Agent.DefaultLanguage, client, log)
	retriever := retrieval.NewRetriever(cfg.Search, source, log)
	generator := response.NewGenerator(cfg.Agent, cfg.Generative, cfg.Search.MaxDisplayResults, templates, cat, client, log)
	generator.AdaptForChat = cfg.Delivery.Enabled && cfg.Delivery.Channel != ""

	var deliverer delivery.Deliverer
	if cfg.Delivery.Enabled && cfg.Delivery.WebhookURL != "" {
		deliverer = delivery.NewChat(cfg.Delivery, creds.DeliveryBotToken, log)
	}
	var fanout *delivery.Fanout
	if len(cfg.Delivery.FanoutURLs) > 0 {
		fanout = delivery.NewFanout(cfg.Delivery.FanoutURLs, config.GetDuration(cfg.Delivery.TimeoutMillis), log)
	}
	var snsPub *delivery.SNSPublisher
	if cfg.Delivery.SNS.Enabled {
		snsPub, err = delivery.NewSNSPublisher(ctx, cfg.Delivery.SNS, log)
		if err != nil {
			zapLog.Fatal("sns init failed", zap.Error(err))
		}
	}

	var sink sessionlog.Sink
	switch {
	case cfg.SessionLog.Enabled && cfg.SessionLog.Backend == "sheets":
		sink, err = sessionlog.NewSheets(ctx, cfg.Providers.Sheets, log)
		if err != nil {
			zapLog.Fatal("session log init failed", zap.Error(err))
		}
	case cfg.SessionLog.Enabled:
		sink = sessionlog.NewConsole(log)
	}

	orch := orchestrator.New(cfg, cat, parser, retriever, generator, deliverer, fanout, snsPub, sink, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ask", askHandler(orch, cfg, obs))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Agent runner stopped")
}

type askRequest struct {
	Input     string `json:"input"`
	Channel   string `json:"channel,omitempty"`
	User      string `json:"user,omitempty"`
	ThreadRef string `json:"thread_ref,omitempty"`
}

func askHandler(orch *orchestrator.Orchestrator, cfg *config.Config, obs *observability.Observability) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		start := time.Now()
		result := orch.Run(r.Context(), req.Input, orchestrator.RunOptions{
			Channel:   req.Channel,
			ThreadRef: req.ThreadRef,
			User:      req.User,
		})

		outcome := "success"
		if !result.Success {
			outcome = "failure"
		}
		obs.RecordRequest(r.Context(), outcome)
		obs.RecordDuration(r.Context(), time.Since(start), outcome)

		w.Header().Set("Content-Type", "application/json")
		if !result.Success {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
		json.NewEncoder(w).Encode(result)
	}
}

// buildProvider resolves the configured provider name, recursively for the
// multi-source aggregate.
func buildProvider(ctx context.Context, cfg *config.Config, name string, log logger.Logger) (provider.Provider, error) {
	switch name {
	case "sample", "":
		return provider.NewSample(), nil
	case "static":
		items := make([]content.Item, 0, len(cfg.Providers.Static.Items))
		for _, record := range cfg.Providers.Static.Items {
			item := make(content.Item, len(record))
			for key, value := range record {
				item[content.NormalizeFieldKey(key)] = value
			}
			items = append(items, item)
		}
		return provider.NewStatic("static", items), nil
	case "http":
		return provider.NewHTTP(cfg.Providers.HTTP), nil
	case "sheets":
		return provider.NewSheets(ctx, cfg.Providers.Sheets)
	case "redis":
		return provider.NewRedis(cfg.Providers.Redis), nil
	case "elasticsearch":
		return provider.NewElastic(cfg.Providers.Elasticsearch)
	case "postgres":
		return provider.NewPostgres(cfg.Providers.Postgres)
	case "multi":
		sources := make([]provider.Provider, 0, len(cfg.Providers.Multi))
		for _, inner := range cfg.Providers.Multi {
			p, err := buildProvider(ctx, cfg, inner, log)
			if err != nil {
				return nil, err
			}
			sources = append(sources, p)
		}
		return provider.NewMulti(log, sources...), nil
	default:
		return provider.NewSample(), nil
	}
}

// verifyProviderData loads the active provider once at startup and reports
// records that fail provider validation or the item schema.
func verifyProviderData(ctx context.Context, source provider.Provider, zapLog *zap.Logger) {
	items, err := source.LoadData(ctx)
	if err != nil {
		zapLog.Warn("initial provider load failed", zap.Error(err))
		return
	}
	problems := source.ValidateData(items)
	problems = append(problems, provider.ValidateSchema(items)...)
	for _, problem := range problems {
		zapLog.Warn("provider data issue", zap.String("issue", problem))
	}
	zapLog.Info("provider data verified",
		zap.String("provider", source.Metadata().Name),
		zap.Int("items", len(items)),
		zap.Int("issues", len(problems)))
}
