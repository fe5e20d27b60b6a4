package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/architeacher/gateways/internal/config"
	"github.com/architeacher/gateways/internal/seed"
)

type ServiceCtx struct {
	config            *config.ServiceConfig
	dependencyOptions []DependencyOption

	deps            *dependencies
	shutdownChannel chan os.Signal
	serverCtx       context.Context
	serverStopFunc  context.CancelFunc
	serverReady     chan struct{}
	readyOnce       sync.Once
	serverErrors    chan error

	mu         sync.RWMutex
	publicAddr net.Addr
	adminAddr  net.Addr
}

func New(opts ...ServiceOption) *ServiceCtx {
	ctx := &ServiceCtx{
		shutdownChannel: make(chan os.Signal, 1),
		serverErrors:    make(chan error, 2),
	}

	for _, opt := range opts {
		opt(ctx)
	}

	return ctx
}

// Run wires the service, serves until a termination signal or a server failure
// and then shuts down gracefully.
func (c *ServiceCtx) Run() error {
	defer c.markReady()

	if err := c.build(); err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}

	if err := c.startService(); err != nil {
		c.shutdown()

		return err
	}

	c.shutdownHook()
	c.monitorConfigChanges()

	var runErr error

	// Waits for one of the following shutdown conditions to happen.
	select {
	case <-c.serverCtx.Done():
	case <-c.shutdownChannel:
	case err := <-c.serverErrors:
		runErr = err
	}

	c.shutdown()

	return runErr
}

func (c *ServiceCtx) build() error {
	c.serverCtx, c.serverStopFunc = context.WithCancel(context.Background())

	opts := append(serveOptions(c.serverCtx), c.dependencyOptions...)

	deps, err := initializeDependencies(c.config, opts...)
	if err != nil {
		deps.cleanup(context.Background())
		c.serverStopFunc()

		return fmt.Errorf("initializing dependencies: %w", err)
	}

	c.deps = deps

	return nil
}

func (c *ServiceCtx) startService() error {
	listener, err := net.Listen("tcp", c.deps.infra.publicHttpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.deps.infra.publicHttpServer.Addr, err)
	}

	c.setAddr(&c.publicAddr, listener.Addr())
	c.serve("http server", c.deps.infra.publicHttpServer, listener)

	if err := c.startAdminServer(); err != nil {
		return err
	}

	c.markReady()

	return nil
}

func (c *ServiceCtx) startAdminServer() error {
	if c.deps.infra.adminHttpServer == nil {
		return nil
	}

	listener, err := net.Listen("tcp", c.deps.infra.adminHttpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on admin server %s: %w", c.deps.infra.adminHttpServer.Addr, err)
	}

	c.setAddr(&c.adminAddr, listener.Addr())
	c.serve("admin http server", c.deps.infra.adminHttpServer, listener)

	return nil
}

func (c *ServiceCtx) serve(name string, server *http.Server, listener net.Listener) {
	c.deps.infra.logger.Info().
		Str("address", listener.Addr().String()).
		Msg("starting the " + name)

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.serverErrors <- fmt.Errorf("%s: %w", name, err)
		}
	}()
}

func (c *ServiceCtx) monitorConfigChanges() {
	if c.deps.configLoader == nil {
		return
	}

	reloadErrors := c.deps.configLoader.WatchConfigSignals(c.serverCtx)
	go func() {
		for err := range reloadErrors {
			if err != nil {
				c.deps.infra.logger.Error().Err(err).Msg("config reload failed")
			} else {
				c.deps.infra.logger.Info().Msg("config reloaded successfully")
			}
		}
	}()
}

func (c *ServiceCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *ServiceCtx) shutdown() {
	log := c.deps.infra.logger

	log.Info().Msg("shutting down service...")

	signal.Stop(c.shutdownChannel)

	// Cancel context that underlying processes would start cleanup.
	c.serverStopFunc()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.config.PublicHTTPServer.ShutdownTimeout)
	defer cancel()

	for name, server := range map[string]*http.Server{
		"http server":       c.deps.infra.publicHttpServer,
		"admin http server": c.deps.infra.adminHttpServer,
	} {
		if server == nil {
			continue
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Str("server", name).Msg("graceful shutdown failed, closing connections")
			_ = server.Close()
		}
	}

	c.cleanup(shutdownCtx)

	log.Info().Msg("service shutdown complete")
}

// markReady releases WaitForServer callers. It also runs when Run gives up
// before listening, so waiters never block forever.
func (c *ServiceCtx) markReady() {
	if c.serverReady == nil {
		return
	}

	c.readyOnce.Do(func() {
		close(c.serverReady)
	})
}

// WaitForServer blocks until the http servers are listening.
// If you want to be notified when the server is running,
// make sure you instantiate your server with WithWaitingForServer.
//
// Example:
//
//	srv := runtime.New(WithWaitingForServer())
//	go func() {
//		_ = srv.Run()
//	}()
//
//	srv.WaitForServer()
func (c *ServiceCtx) WaitForServer() {
	if c.serverReady != nil {
		<-c.serverReady
	}
}

// PublicAddr is the bound address of the public server, nil before it listens.
func (c *ServiceCtx) PublicAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.publicAddr
}

func (c *ServiceCtx) AdminAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.adminAddr
}

func (c *ServiceCtx) setAddr(dst *net.Addr, addr net.Addr) {
	c.mu.Lock()
	defer c.mu.Unlock()

	*dst = addr
}

func (c *ServiceCtx) cleanup(shutdownCtx context.Context) {
	c.deps.infra.logger.Info().Msg("cleaning up resources...")

	c.deps.cleanup(shutdownCtx)

	c.deps.infra.logger.Info().Msg("cleanup completed")
}

// Seed wires the store and the domain services, loads the demo inventory and
// releases everything again. A nil cfg reads the environment.
func Seed(ctx context.Context, cfg *config.ServiceConfig) (seed.Result, error) {
	deps, err := initializeDependencies(cfg, storeOptions(ctx)...)
	if err != nil {
		deps.cleanup(ctx)

		return seed.Result{}, fmt.Errorf("initializing dependencies: %w", err)
	}

	defer deps.cleanup(ctx)

	return deps.seeder().Run(ctx, seed.Demo())
}
