package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/san-kum/esail/internal/logging"
)

// Serve exposes /metrics on addr until ctx is done. It returns once the
// listener is bound; serving continues in the background. The returned
// address is the bound one, which differs from addr when addr asks for port 0.
func (c *SolverCollector) Serve(ctx context.Context, addr string) (string, error) {
	log := logging.FromContext(ctx)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server stopped", logging.Err(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info(ctx, "serving metrics", logging.String("addr", ln.Addr().String()))
	return ln.Addr().String(), nil
}
