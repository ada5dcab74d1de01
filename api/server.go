package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/thisisjab/telemeter/entity"
	"github.com/thisisjab/telemeter/querier"
)

// Storage is the executor compiled descriptors are handed to. The api
// layer never retries or times out these calls; failures propagate to
// the caller unchanged.
type Storage interface {
	GetSamples(ctx context.Context, meter string, d querier.Descriptor, limit uint64) ([]entity.Sample, error)
	StoreSamples(ctx context.Context, samples ...entity.Sample) error
	GetMeters(ctx context.Context, d querier.Descriptor) ([]entity.Meter, error)
	GetResources(ctx context.Context, d querier.Descriptor) ([]entity.Resource, error)
	GetAlarms(ctx context.Context, d querier.Descriptor) ([]entity.Alarm, error)
	StoreAlarm(ctx context.Context, alarm entity.Alarm) error
	DeleteAlarm(ctx context.Context, alarmID string) error
	GetAlarmChanges(ctx context.Context, alarmID, onBehalfOf string, d querier.Descriptor) ([]entity.AlarmChange, error)
	RecordAlarmChange(ctx context.Context, change entity.AlarmChange) error
	GetMeterStatistics(ctx context.Context, meter string, d querier.Descriptor, period int, groupBy []string) ([]entity.Statistics, error)
}

type server struct {
	cfg      Config
	logger   *slog.Logger
	storage  Storage
	compiler *querier.Compiler
	metrics  *metrics
}

func NewServer(cfg Config, logger *slog.Logger, storage Storage) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &server{
		cfg:      cfg,
		logger:   logger,
		storage:  storage,
		compiler: querier.NewCompiler(logger),
		metrics:  newMetrics(),
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)
	mux.Handle("GET /metrics", s.metrics.handler())

	mux.HandleFunc("GET /v2/meters", s.listMetersHandler)
	mux.HandleFunc("GET /v2/meters/{meter}", s.listSamplesHandler)
	mux.HandleFunc("POST /v2/meters/{meter}", s.postSamplesHandler)
	mux.HandleFunc("GET /v2/meters/{meter}/statistics", s.statisticsHandler)

	mux.HandleFunc("GET /v2/resources", s.listResourcesHandler)
	mux.HandleFunc("GET /v2/resources/{resource_id}", s.getResourceHandler)

	mux.HandleFunc("GET /v2/alarms", s.listAlarmsHandler)
	mux.HandleFunc("POST /v2/alarms", s.postAlarmHandler)
	mux.HandleFunc("GET /v2/alarms/{alarm_id}", s.getAlarmHandler)
	mux.HandleFunc("PUT /v2/alarms/{alarm_id}", s.putAlarmHandler)
	mux.HandleFunc("DELETE /v2/alarms/{alarm_id}", s.deleteAlarmHandler)
	mux.HandleFunc("GET /v2/alarms/{alarm_id}/history", s.alarmHistoryHandler)

	return s.recoverPanicMiddleware(s.requestLoggerMiddleware(s.metricsMiddleware(s.corsMiddleware(mux))))
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && serverErr != http.ErrServerClosed {
		return serverErr
	}

	return nil
}
