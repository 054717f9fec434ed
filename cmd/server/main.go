// Package main provides the unified engine host that runs all components:
// - Tick scheduler (continuous): 60-second sweep over active sessions
// - Cleanup (scheduled): removal of ended and expired sessions
// - Ops surface: /health, /status, /metrics
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"chartpulse/internal/device"
	"chartpulse/internal/domain"
	"chartpulse/internal/marketdata"
	"chartpulse/internal/observability"
	"chartpulse/internal/session"
	"chartpulse/internal/storage"
	chstore "chartpulse/internal/storage/clickhouse"
	"chartpulse/internal/storage/memory"
	"chartpulse/internal/storage/migrations"
	pgstore "chartpulse/internal/storage/postgres"
)

// Server holds all components of the engine host.
type Server struct {
	// Configuration
	candlesEndpoint string
	deviceEndpoint  string
	postgresDSN     string
	clickhouseDSN   string
	useMemory       bool
	tickInterval    time.Duration
	cleanupInterval time.Duration

	// Components
	stores  *allStores
	manager *session.Manager
	logger  *log.Logger

	// State
	mu           sync.Mutex
	started      time.Time
	lastSweep    time.Time
	lastCleanup  time.Time
	sweepRuns    int
	cleanupRuns  int
	sweepRunning bool
}

// allStores holds all storage implementations.
type allStores struct {
	archive storage.SessionArchiveStore
	journal storage.CommandJournalStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	candlesEndpoint := flag.String("candles-endpoint", os.Getenv("CANDLES_ENDPOINT"), "Market data HTTP endpoint")
	deviceEndpoint := flag.String("device-endpoint", os.Getenv("DEVICE_WS_ENDPOINT"), "Device WebSocket endpoint (empty disables delivery)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	tickInterval := flag.Duration("tick-interval", domain.TickIntervalMs*time.Millisecond, "Session tick sweep interval")
	cleanupInterval := flag.Duration("cleanup-interval", 60*time.Second, "Expired session cleanup interval")
	demoMints := flag.String("demo-mint", "", "Comma-separated token mints to start sessions for at boot")
	demoState := flag.String("demo-state", "demo", "Session state ID prefix for --demo-mint sessions")
	httpAddr := flag.String("http-addr", ":8080", "HTTP ops address (health/status/metrics)")
	verbose := flag.Bool("verbose", false, "Enable per-tick logging")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *candlesEndpoint == "" {
		logger.Fatal("--candles-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Create device transport
	var transport device.Transport
	if *deviceEndpoint != "" {
		wst, err := device.NewWSTransport(ctx, *deviceEndpoint, nil)
		if err != nil {
			logger.Fatalf("Failed to connect to device: %v", err)
		}
		defer wst.Close()
		transport = wst
		logger.Printf("Device connected at %s", *deviceEndpoint)
	} else {
		logger.Println("No device endpoint configured, commands will not be delivered")
	}

	// Create session manager
	manager := session.New(session.Options{
		Candles: marketdata.NewHTTPClient(*candlesEndpoint),
		Device:  transport,
		Archive: stores.archive,
		Journal: stores.journal,
		Verbose: *verbose,
	})

	// Create server
	server := &Server{
		candlesEndpoint: *candlesEndpoint,
		deviceEndpoint:  *deviceEndpoint,
		postgresDSN:     *postgresDSN,
		clickhouseDSN:   *clickhouseDSN,
		useMemory:       *useMemory,
		tickInterval:    *tickInterval,
		cleanupInterval: *cleanupInterval,
		stores:          stores,
		manager:         manager,
		logger:          logger,
		started:         time.Now(),
	}

	// Start demo sessions
	for i, mint := range resolveMints(*demoMints) {
		stateID := fmt.Sprintf("%s-%03d", *demoState, i+1)
		s := manager.CreateSession(ctx, stateID, mint, time.Time{})
		logger.Printf("Started demo session %s for %s (seed=%d)", s.SessionID, mint, s.Seed)
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*httpAddr)

	// Run the engine host
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// resolveMints splits and dedups the --demo-mint list.
func resolveMints(mints string) []string {
	seen := make(map[string]bool)
	var list []string
	for _, m := range strings.Split(mints, ",") {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		list = append(list, m)
	}
	return list
}

// createStores creates all required stores, applying migrations for the
// database-backed ones.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			archive: memory.NewSessionArchiveStore(),
			journal: memory.NewCommandJournalStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &allStores{
		archive: pgstore.NewSessionArchiveStore(pool),
		journal: chstore.NewCommandJournalStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// Run starts the engine host with all components.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting engine host...")

	// Create error channel for goroutines
	errCh := make(chan error, 2)

	// Start tick scheduler in background
	go func() {
		err := s.runTickScheduler(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("tick scheduler: %w", err)
		}
	}()

	// Start cleanup scheduler in background
	go func() {
		err := s.runCleanupScheduler(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("cleanup scheduler: %w", err)
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runTickScheduler sweeps all active sessions on the tick cadence. The
// first evaluation lands one interval after boot, matching the session
// contract of a first tick at start + interval.
func (s *Server) runTickScheduler(ctx context.Context) error {
	s.logger.Printf("Starting tick scheduler (interval: %v)...", s.tickInterval)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep ticks every active session in parallel. A sweep that outlasts the
// interval causes the next one to be skipped rather than stacked.
func (s *Server) sweep(ctx context.Context) {
	s.mu.Lock()
	if s.sweepRunning {
		s.mu.Unlock()
		s.logger.Println("Tick sweep already running, skipping...")
		return
	}
	s.sweepRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.sweepRunning = false
		s.lastSweep = time.Now()
		s.sweepRuns++
		s.mu.Unlock()
	}()

	sessions := s.manager.GetAllActiveSessions()
	if len(sessions) == 0 {
		return
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, sess := range sessions {
		wg.Add(1)
		go func(sessionID string) {
			defer wg.Done()
			s.manager.ProcessTick(ctx, sessionID)
		}(sess.SessionID)
	}
	wg.Wait()

	s.logger.Printf("Tick sweep completed in %v: %d sessions", time.Since(start), len(sessions))
}

// runCleanupScheduler removes ended and expired sessions on schedule.
func (s *Server) runCleanupScheduler(ctx context.Context) error {
	s.logger.Printf("Starting cleanup scheduler (interval: %v)...", s.cleanupInterval)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := s.manager.CleanupExpiredSessions(ctx)
			s.mu.Lock()
			s.lastCleanup = time.Now()
			s.cleanupRuns++
			s.mu.Unlock()
			if removed > 0 {
				s.logger.Printf("Cleanup removed %d sessions", removed)
			}
		}
	}
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	Storage         string    `json:"storage"`
	DeviceConnected bool      `json:"device_connected"`
	ActiveSessions  int       `json:"active_sessions"`
	LastTickSweep   time.Time `json:"last_tick_sweep,omitempty"`
	LastCleanup     time.Time `json:"last_cleanup,omitempty"`
	TickSweeps      int       `json:"tick_sweeps"`
	CleanupRuns     int       `json:"cleanup_runs"`
	SweepRunning    bool      `json:"sweep_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	active := len(s.manager.GetAllActiveSessions())

	s.mu.Lock()
	defer s.mu.Unlock()

	storageKind := "postgres+clickhouse"
	if s.useMemory {
		storageKind = "memory"
	}

	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).String(),
		Storage:         storageKind,
		DeviceConnected: s.deviceEndpoint != "",
		ActiveSessions:  active,
		LastTickSweep:   s.lastSweep,
		LastCleanup:     s.lastCleanup,
		TickSweeps:      s.sweepRuns,
		CleanupRuns:     s.cleanupRuns,
		SweepRunning:    s.sweepRunning,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
