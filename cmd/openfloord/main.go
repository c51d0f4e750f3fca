package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/openfloor/openfloor/internal/config"
	"github.com/openfloor/openfloor/internal/server"
	"github.com/openfloor/openfloor/internal/server/auth"
	"github.com/openfloor/openfloor/internal/server/hub"
	"github.com/openfloor/openfloor/internal/server/store"
)

func main() {
	// 1. Load configuration (file, overridden by OPENFLOOR_* variables)
	configFile := os.Getenv("OPENFLOOR_CONFIG")
	if configFile == "" {
		configFile = "openfloor.yml"
	}

	cfg, err := config.LoadOrEnv(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Server == nil {
		fmt.Fprintf(os.Stderr, "Error: No server section configured (set OPENFLOOR_JWT_SECRET or add a server block to %s)\n", configFile)
		os.Exit(1)
	}

	// 2. Connect to Redis
	st, err := store.NewStore(&redis.Options{Addr: cfg.Server.RedisAddr}, cfg.Server.Namespace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	// 3. Verify Redis connectivity
	ctx := context.Background()
	if err := st.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Redis not accessible at %s: %v\n", cfg.Server.RedisAddr, err)
		os.Exit(1)
	}

	// 4. Build the auth service and push hub
	authSvc, err := auth.NewService(st, cfg.Server.JWTSecret, cfg.Server.TokenTTL.Std())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create auth service: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.New(st, authSvc, hub.New(), cfg.Server.ListenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to create server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("openfloord starting on %s (namespace %q, redis %s)\n",
		cfg.Server.ListenAddr, cfg.Server.Namespace, cfg.Server.RedisAddr)

	// 5. Setup graceful shutdown
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	// 6. Start the server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(runCtx)
	}()

	// 7. Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		fmt.Printf("Received signal %v, shutting down gracefully...\n", sig)
		cancel()
		<-errCh
	case runErr := <-errCh:
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", runErr)
			os.Exit(1)
		}
	}

	fmt.Println("openfloord stopped")
}
