/**
 * @description
 * This is the main entry point for the gateway. It is responsible for
 * initializing all components: configuration, the three lazy database pools,
 * the upstream TMS client, the Kubernetes operations client, the user store,
 * the submission orchestrator, and the HTTP server. It wires everything
 * together and starts the service with graceful shutdown.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5/pgxpool: PostgreSQL connection pools.
 * - github.com/joho/godotenv: Optional .env loading for local development.
 * - internal/api, internal/app, internal/cluster, internal/config,
 *   internal/store, internal/users, pkg/tmsclient: Internal packages.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/walinzi/tps-gateway/internal/api"
	"github.com/walinzi/tps-gateway/internal/app"
	"github.com/walinzi/tps-gateway/internal/cluster"
	"github.com/walinzi/tps-gateway/internal/config"
	"github.com/walinzi/tps-gateway/internal/store"
	"github.com/walinzi/tps-gateway/internal/users"
	"github.com/walinzi/tps-gateway/pkg/tmsclient"
)

// lazyPool builds a pool that connects on first use. The gateway must boot
// with its databases down; a cold pipeline is a normal state here.
func lazyPool(name, dsn string) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database dsn parse failed\" db=%s err=%v", name, err)
	}
	poolConfig.MinConns = 0
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"pool init failed\" db=%s err=%v", name, err)
	}
	return pool
}

func main() {
	// Load an optional .env file before viper reads the environment.
	if err := godotenv.Load(); err == nil {
		log.Println("level=info component=bootstrap msg=\".env file loaded\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	apiKeys := cfg.ParsedAPIKeys()
	if len(apiKeys) == 0 {
		log.Println("level=warn component=bootstrap msg=\"no api keys configured; only session auth will work\" env=API_KEYS")
	}

	log.Printf("level=info component=bootstrap msg=\"starting tps-gateway\" port=%s tenant=%s", cfg.ServerPort, cfg.DefaultTenantID)

	// Three independent databases: evaluation results, processor config, and
	// event history. All pools are lazy.
	evalPool := lazyPool("evaluation", cfg.EvalDSN())
	defer evalPool.Close()
	configPool := lazyPool("configuration", cfg.ConfigDSN())
	defer configPool.Close()
	eventPool := lazyPool("event_history", cfg.EventDSN())
	defer eventPool.Close()

	evalStore := store.NewEvaluationStore(evalPool)
	eventStore := store.NewEventHistoryStore(eventPool)

	// Upstream evaluation service client.
	tms := tmsclient.NewClient(cfg.TMSBaseURL, time.Duration(cfg.TMSTimeoutSeconds)*time.Second)
	log.Printf("level=info component=bootstrap msg=\"tms client ready\" base_url=%s timeout_s=%d", cfg.TMSBaseURL, cfg.TMSTimeoutSeconds)

	// Kubernetes operations are optional; without credentials the system
	// endpoints answer 503 and everything else works.
	clusterClient, err := cluster.New(cfg.K8sInCluster, cfg.K8sKubeconfig, cfg.K8sNamespace)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"kubernetes client unavailable; system endpoints disabled\" err=%v", err)
		clusterClient = nil
	} else {
		log.Printf("level=info component=bootstrap msg=\"kubernetes client ready\" namespace=%s", cfg.K8sNamespace)
	}

	// User store and session tokens.
	userStore := users.NewStore(cfg.UsersFile)
	if err := userStore.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"admin seed failed\" err=%v", err)
	}
	tokens, err := users.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTExpireHours)*time.Hour)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"token manager init failed\" err=%v", err)
	}

	// The submission orchestrator.
	service := app.NewService(tms, cfg.DefaultTenantID)

	handlers := api.NewHandlers(
		service,
		evalStore,
		eventStore,
		clusterClient,
		userStore,
		tokens,
		apiKeys,
		cfg.DefaultTenantID,
		map[string]api.Pinger{
			"evaluation":    evalPool,
			"configuration": configPool,
			"event_history": eventPool,
		},
	)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: api.Routes(handlers),
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server failed\" err=%v", err)
		}
	}()

	// Wait for an interrupt and shut down gracefully.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("level=info component=http msg=\"shutting down\"")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("level=fatal component=http msg=\"forced shutdown\" err=%v", err)
	}
	log.Println("level=info component=http msg=\"server stopped\"")
}
