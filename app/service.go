// Package app wires configuration into a running forecast service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/wellcast/api/predict"
	"github.com/kilianp07/wellcast/config"
	coremetrics "github.com/kilianp07/wellcast/core/metrics"
	"github.com/kilianp07/wellcast/core/model"
	coremon "github.com/kilianp07/wellcast/core/monitoring"
	"github.com/kilianp07/wellcast/core/prediction"
	"github.com/kilianp07/wellcast/core/predictionlog"
	"github.com/kilianp07/wellcast/infra/logger"
	"github.com/kilianp07/wellcast/infra/metrics"
	"github.com/kilianp07/wellcast/infra/monitoring"
	"github.com/kilianp07/wellcast/infra/mqtt"
	"github.com/kilianp07/wellcast/infra/predictor"
	"github.com/kilianp07/wellcast/internal/eventbus"
)

// Service owns the prediction pipeline and its HTTP server.
type Service struct {
	Predictions *prediction.Service

	cfg       *config.Config
	client    *predictor.Client
	sink      coremetrics.MetricsSink
	store     predictionlog.LogStore
	bus       *eventbus.Bus[model.PredictionEvent]
	publisher *mqtt.Publisher
	mon       coremon.Monitor
	log       logger.Logger

	mu    sync.Mutex
	addr  string
	ready chan struct{}
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := predictionlog.NewStore(cfg.Logging.Module())
	if err != nil {
		return nil, fmt.Errorf("prediction log: %w", err)
	}

	s := &Service{
		cfg:   cfg,
		sink:  sink,
		store: store,
		bus:   eventbus.New[model.PredictionEvent](),
		mon:   mon,
		log:   log,
		addr:  cfg.Server.Address,
		ready: make(chan struct{}),
	}

	var upstream prediction.Upstream
	if cfg.Predictor.Mode == prediction.ModeRemote {
		opts := []predictor.Option{predictor.WithLogger(logger.New("predictor"))}
		if rec, ok := sink.(coremetrics.UpstreamRecorder); ok {
			opts = append(opts, predictor.WithRecorder(rec))
		}
		s.client = predictor.New(cfg.Predictor, cfg.Band.MAE, opts...)
		upstream = s.client
		log.Debugf("forwarding predictions to %s", s.client.Endpoint())
	}

	s.Predictions, err = prediction.NewService(prediction.Config{
		Mode:     cfg.Predictor.Mode,
		MAE:      cfg.Band.MAE,
		Strict:   cfg.Predictor.StrictResponse,
		Fallback: cfg.Fallback.Enabled,
	}, cfg.Baseline.Estimator(), upstream, logger.New("prediction"),
		prediction.WithMetrics(sink),
		prediction.WithBus(s.bus),
		prediction.WithMonitor(mon),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	if cfg.Publisher.Enabled {
		s.publisher, err = mqtt.NewPublisher(cfg.Publisher, logger.New("mqtt"), mon)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}
	return s, nil
}

// Handler returns the HTTP routes of the service.
func (s *Service) Handler() (http.Handler, error) {
	endpoint := ""
	if s.client != nil {
		endpoint = s.client.Endpoint()
	}
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if s.cfg.Metrics.HasSink("prometheus") {
		hm, err := metrics.NewHTTPMetrics(nil)
		if err != nil {
			return nil, fmt.Errorf("http metrics: %w", err)
		}
		r.Use(hm.Middleware)
		r.Handle(s.cfg.Metrics.Path, promhttp.Handler())
	}

	// The predict handler answers every method so that 405 responses carry
	// the request id and source headers too.
	r.Handle("/predict", predict.NewPredictHandler(s.Predictions, logger.New("api")))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodGet, "/model", predict.NewModelHandler(predict.DescribeModel(s.Predictions, endpoint)))
		r.Method(http.MethodGet, "/predictions/logs", predict.NewLogHandler(s.store, s.cfg.Server.LogsToken))
	})
	return r, nil
}

// Run serves HTTP and drives the event consumers until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	recorder := predictionlog.NewRecorder(s.store, logger.New("prediction-log"))
	logEvents := s.bus.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		recorder.Run(ctx, logEvents)
	}()
	if p, ok := s.store.(predictionlog.Pruner); ok && s.cfg.Logging.Retention() > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.prune(ctx, p, time.Hour)
		}()
	}
	if s.publisher != nil {
		pubEvents := s.bus.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.publisher.Run(ctx, pubEvents)
		}()
	}

	srv := &http.Server{
		Handler:      handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout(),
		WriteTimeout: s.cfg.Server.WriteTimeout(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
	}()

	s.log.Infof("wellcast listening on %s (mode %s)", s.Addr(), s.cfg.Predictor.Mode)
	close(s.ready)
	err = srv.Serve(ln)
	cancel()
	wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// prune drops records older than the retention horizon now and then on
// every tick until ctx is done.
func (s *Service) prune(ctx context.Context, p predictionlog.Pruner, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		n, err := p.Prune(ctx, time.Now().Add(-s.cfg.Logging.Retention()))
		if err != nil {
			s.log.Errorf("prune prediction log: %v", err)
		} else if n > 0 {
			s.log.Infof("pruned %d prediction log records", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Ready is closed once the listener is bound.
func (s *Service) Ready() <-chan struct{} { return s.ready }

// Addr returns the listening address once Ready is closed.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.mon.Flush(2 * time.Second)
	if dropped := s.bus.Dropped(); dropped > 0 {
		s.log.Warnf("%d prediction events were dropped by slow consumers", dropped)
	}
	return s.store.Close()
}
