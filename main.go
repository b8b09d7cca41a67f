package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	routerx "github.com/frontdeskhq/frontdesk/agent/agents/router"
	analyticsx "github.com/frontdeskhq/frontdesk/agent/analytics"
	auditx "github.com/frontdeskhq/frontdesk/agent/audit"
	classifierx "github.com/frontdeskhq/frontdesk/agent/classifier"
	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	llmx "github.com/frontdeskhq/frontdesk/agent/llm"
	specialistx "github.com/frontdeskhq/frontdesk/agent/specialist"
	statex "github.com/frontdeskhq/frontdesk/agent/state"
	summaryx "github.com/frontdeskhq/frontdesk/agent/summary"
	configx "github.com/frontdeskhq/frontdesk/pkg/config"
	_ "github.com/frontdeskhq/frontdesk/pkg/logger/autoload"
	openrouterx "github.com/frontdeskhq/frontdesk/pkg/openrouter"
	webhookx "github.com/frontdeskhq/frontdesk/pkg/webhook"
)

type AppConfig struct {
	StoreBackend     string `envconfig:"STORE_BACKEND" default:"memory"`
	AnalyticsBackend string `envconfig:"ANALYTICS_BACKEND" default:"log"`
	AnalyticsBuffer  int    `envconfig:"ANALYTICS_BUFFER" default:"256"`
	AuditBackend     string `envconfig:"AUDIT_BACKEND" default:"memory"`

	// Offline runs rules-only classification with no model calls.
	Offline bool `envconfig:"OFFLINE" default:"false"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")

	catalogCfg := configx.MustNew[specialistx.CatalogConfig]("CATALOG")
	catalog, err := specialistx.LoadCatalog(*catalogCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load specialist catalog")
	}
	registry, err := specialistx.NewRegistry(catalog.Specialists)
	if err != nil {
		log.Fatal().Err(err).Msg("build specialist registry")
	}

	store := buildStore(appCfg.StoreBackend)
	classifier, summarizer := buildClassification(ctx, appCfg.Offline)
	sink := buildSink(appCfg)
	auditLog := buildAuditLog(ctx, appCfg.AuditBackend)

	routerCfg := configx.MustNew[routerx.Config]("ROUTER")
	routerCfg.RepresentativeID = catalog.Representative

	svc, err := routerx.New(store, classifier, registry, summarizer, sink, auditLog, *routerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}
	svc.StartReaper(ctx)

	runConsole(ctx, svc, registry)

	// Stop the reaper before the sink so shutdown sweeps have nowhere left
	// to record into.
	stop()
	closeSink(sink)
}

func buildStore(backend string) statex.Store {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return statex.NewMemoryStore()
	case "redis":
		redisCfg := configx.MustNew[statex.RedisConfig]("REDIS")
		store, err := statex.NewRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build redis store")
		}
		return store
	default:
		log.Fatal().Str("backend", backend).Msg("unknown store backend")
		return nil
	}
}

func buildClassification(ctx context.Context, offline bool) (contractx.IntentClassifier, contractx.Summarizer) {
	rules, err := classifierx.NewRuleClassifier(classifierx.DefaultRules())
	if err != nil {
		log.Fatal().Err(err).Msg("compile routing rules")
	}

	if offline {
		return classifierx.NewHybridClassifier(rules, nil), summaryx.NewTruncatingSummarizer(0)
	}

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("validate llm config")
	}

	classifierModelCfg := llmCfg.OpenRouterFor(llmx.RoleClassifier)
	chatModel, err := classifierModelCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build classifier model")
	}
	llmClassifier, err := classifierx.NewLLMClassifier(ctx, chatModel)
	if err != nil {
		log.Fatal().Err(err).Msg("build llm classifier")
	}

	summarizerModelCfg := llmCfg.OpenRouterFor(llmx.RoleSummarizer)
	client := openrouterx.NewClient(summarizerModelCfg)
	if client == nil {
		log.Fatal().Msg("build openrouter client")
	}
	summarizer, err := summaryx.NewLLMSummarizer(client, summarizerModelCfg.Model, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("build summarizer")
	}

	return classifierx.NewHybridClassifier(rules, llmClassifier), summarizer
}

func buildSink(appCfg *AppConfig) analyticsx.Sink {
	var backend analyticsx.Backend
	switch strings.ToLower(strings.TrimSpace(appCfg.AnalyticsBackend)) {
	case "", "log":
		backend = analyticsx.LogBackend{}
	case "redis":
		streamCfg := configx.MustNew[analyticsx.RedisStreamConfig]("ANALYTICS_REDIS")
		b, err := analyticsx.NewRedisStreamBackend(*streamCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build redis stream backend")
		}
		backend = b
	case "amqp":
		amqpCfg := configx.MustNew[analyticsx.AMQPConfig]("ANALYTICS_AMQP")
		b, err := analyticsx.NewAMQPBackend(*amqpCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build amqp backend")
		}
		backend = b
	case "webhook":
		webhookCfg := configx.MustNew[webhookx.Config]("ANALYTICS_WEBHOOK")
		client, err := webhookx.NewClient(*webhookCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build webhook client")
		}
		backend = analyticsx.NewWebhookBackend(client)
	default:
		log.Fatal().Str("backend", appCfg.AnalyticsBackend).Msg("unknown analytics backend")
	}
	return analyticsx.NewAsyncSink(backend, appCfg.AnalyticsBuffer)
}

func closeSink(sink analyticsx.Sink) {
	if async, ok := sink.(*analyticsx.AsyncSink); ok {
		async.Close()
	}
}

func buildAuditLog(ctx context.Context, backend string) auditx.Log {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return auditx.NewMemoryLog()
	case "postgres":
		pgCfg := configx.MustNew[auditx.PostgresConfig]("POSTGRES")
		pg, err := auditx.NewPostgresLog(*pgCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build postgres audit log")
		}
		if err := pg.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("init postgres audit log")
		}
		return pg
	default:
		log.Fatal().Str("backend", backend).Msg("unknown audit backend")
		return nil
	}
}

// runConsole is a minimal interactive front: one conversation per run, each
// line routed through the full pipeline.
func runConsole(ctx context.Context, svc *routerx.Router, registry specialistx.Registry) {
	conversationID := uuid.NewString()
	fmt.Printf("conversation %s started (/close to close, /exit to quit)\n", conversationID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit":
			return
		case "/close":
			if err := svc.CloseConversation(ctx, conversationID); err != nil {
				fmt.Printf("close failed: %v\n", err)
				continue
			}
			fmt.Println("conversation closed")
			conversationID = uuid.NewString()
			fmt.Printf("conversation %s started\n", conversationID)
			continue
		}

		decision, err := svc.Route(ctx, conversationID, line)
		if err != nil {
			fmt.Printf("routing failed: %v\n", err)
			continue
		}

		name := decision.Owner
		if snap, ok := registry.Get(decision.Owner); ok && snap.DisplayName != "" {
			name = snap.DisplayName
		}
		switch {
		case decision.Handoff && decision.PreviousOwner != "":
			fmt.Printf("[transferred to %s, %s]\n", name, decision.Department)
		case decision.Handoff:
			fmt.Printf("[%s will take this, %s]\n", name, decision.Department)
		default:
			fmt.Printf("[%s, %s]\n", name, decision.Department)
		}
		if decision.Degraded {
			fmt.Println("(classification unavailable, staying the course)")
		}
		if decision.Overflow {
			fmt.Println("(specialists are busy, you are in line)")
		}
	}
}
