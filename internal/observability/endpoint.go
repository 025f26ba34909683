package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rouletteai/roulette-client/internal/logger"
	metricspkg "github.com/rouletteai/roulette-client/internal/observability/metrics"
)

const readHeaderTimeout = 5 * time.Second

// Endpoint serves /metrics on its own listener. The console command uses it;
// the display server mounts the handler on its own router instead.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
	listener      net.Listener
	mu            sync.Mutex
}

// NewEndpoint creates an Endpoint for listenAddress.
func NewEndpoint(listenAddress string, metrics *Metrics) (*Endpoint, error) {
	if listenAddress == "" {
		return nil, errors.New("metrics listen address is empty")
	}
	if metrics == nil {
		return nil, errors.New("metrics are nil")
	}
	return &Endpoint{listenAddress: listenAddress, metrics: metrics}, nil
}

// Start binds the listener and serves in the background until ctx is done.
func (e *Endpoint) Start(ctx context.Context, wg *sync.WaitGroup) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", e.listenAddress)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	e.mu.Lock()
	e.listener = ln
	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	server := e.server
	e.mu.Unlock()

	wg.Go(func() {
		log.Info("Metrics endpoint starting", logger.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics HTTP server error", logger.Error(err))
		}
	})

	wg.Go(func() {
		<-ctx.Done()
		e.shutdown()
	})

	return nil
}

// Addr returns the bound address, or "" before Start.
func (e *Endpoint) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

func (e *Endpoint) shutdown() {
	log.Info("Stopping metrics endpoint")
	ctx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()

	e.mu.Lock()
	server := e.server
	e.mu.Unlock()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Metrics endpoint shutdown error", logger.Error(err))
	}
}
