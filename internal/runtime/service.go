package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/drblury/mqflow/internal/runtime/blobstore"
	configpkg "github.com/drblury/mqflow/internal/runtime/config"
	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/handlers"
	loggingpkg "github.com/drblury/mqflow/internal/runtime/logging"
	"github.com/drblury/mqflow/internal/runtime/metrics"
	"github.com/drblury/mqflow/internal/runtime/mqclient"
	"github.com/drblury/mqflow/internal/runtime/poller"
	"github.com/drblury/mqflow/internal/runtime/sink"
	"github.com/drblury/mqflow/transport"
)

// BlobKeyPrefix namespaces blob store documents in redis.
const BlobKeyPrefix = "mqflow:blob:"

// ServiceDependencies holds the optional collaborators that the Service can use.
// Nil fields are built from the configuration.
type ServiceDependencies struct {
	// Client replaces the watermill queue client.
	Client mqclient.Client
	// Sink replaces the stdout stream writer or the broker publisher sink.
	Sink sink.Sink
	// BlobStore replaces the redis store built from RedisURL.
	BlobStore  blobstore.Store
	Handlers   *handlers.Registry
	Transports *transport.Registry
	// Metrics replaces the collector registered on the default registerer
	// when metrics are enabled.
	Metrics *metrics.Metrics
	Hooks   poller.DispatchHooks
	// Output is where the stream writer sink writes. Defaults to os.Stdout.
	Output io.Writer
	// PollerOptions are applied to every poller after the service's own.
	PollerOptions []poller.Option
}

// Service runs the poller groups of one input.
type Service struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	client     mqclient.Client
	sink       sink.Sink
	blobs      blobstore.Store
	registry   *handlers.Registry
	metrics    *metrics.Metrics
	hooks      poller.DispatchHooks
	pollerOpts []poller.Option

	closers []func() error

	pollers   []*PollerInfo
	pollersMu sync.RWMutex

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex
}

// PollerInfo describes one poller started by the service.
type PollerInfo struct {
	Key        string    `json:"key"`
	Handler    string    `json:"handler"`
	Targets    []string  `json:"targets"`
	Generation string    `json:"generation"`
	StartedAt  time.Time `json:"started_at"`
	Running    bool      `json:"running"`
	Error      string    `json:"error,omitempty"`
}

// NewService validates conf and builds the collaborators it names. Handlers
// are built per poller when Start is called.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) (*Service, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	c := conf.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, errspkg.NewConfigValidationError(err)
	}

	log = log.With(loggingpkg.LogFields{"input": c.Name, "manager": c.QueueManager})
	log.Info("Creating poll service", loggingpkg.LogFields{
		"broker": c.Broker,
		"config": c.String(),
	})

	s := &Service{
		Conf:       &c,
		Logger:     log,
		client:     deps.Client,
		sink:       deps.Sink,
		blobs:      deps.BlobStore,
		registry:   deps.Handlers,
		metrics:    deps.Metrics,
		pollerOpts: deps.PollerOptions,
	}
	if s.registry == nil {
		s.registry = handlers.NewRegistry()
	}

	transports := deps.Transports
	if transports == nil {
		transports = transport.DefaultRegistry
	}

	if err := s.buildClient(transports); err != nil {
		return nil, err
	}
	if err := s.buildSink(ctx, transports, deps.Output); err != nil {
		s.close()
		return nil, err
	}
	if err := s.buildBlobStore(); err != nil {
		s.close()
		return nil, err
	}
	if err := s.buildMetrics(); err != nil {
		s.close()
		return nil, err
	}

	s.hooks = poller.LoggingHooks(log).Merge(deps.Hooks)
	return s, nil
}

func (s *Service) buildClient(transports *transport.Registry) error {
	if s.client != nil {
		return nil
	}
	client, err := mqclient.NewWatermillClient(s.Conf, s.Logger, mqclient.WithRegistry(transports))
	if err != nil {
		return fmt.Errorf("failed to create queue client: %w", err)
	}
	s.client = client
	return nil
}

func (s *Service) buildSink(ctx context.Context, transports *transport.Registry, out io.Writer) error {
	if s.sink != nil {
		return nil
	}
	if s.Conf.SinkTopic == "" {
		if out == nil {
			out = os.Stdout
		}
		s.sink = sink.NewStreamWriter(out).WithStanza(s.Conf.Stanza)
		return nil
	}

	tr, err := transports.Build(ctx, s.Conf, loggingpkg.NewWatermillAdapter(s.Logger))
	if err != nil {
		return fmt.Errorf("failed to build sink transport: %w", err)
	}
	s.closers = append(s.closers, tr.Close)
	publisherSink, err := sink.NewPublisherSink(tr.Publisher, s.Conf.SinkTopic, s.Conf.Stanza)
	if err != nil {
		return err
	}
	s.sink = publisherSink
	return nil
}

func (s *Service) buildBlobStore() error {
	if s.blobs != nil || s.Conf.RedisURL == "" {
		return nil
	}
	store, err := blobstore.NewRedisStoreFromURL(s.Conf.RedisURL, BlobKeyPrefix)
	if err != nil {
		return errspkg.NewConfigValidationError(err)
	}
	s.closers = append(s.closers, store.Close)
	s.blobs = store
	return nil
}

func (s *Service) buildMetrics() error {
	if s.metrics == nil {
		if !s.Conf.MetricsEnabled {
			return nil
		}
		s.metrics = metrics.New(nil)
	}
	if err := s.metrics.Register(); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	if s.Conf.MetricsPort > 0 {
		s.RegisterHTTPHandler(s.Conf.MetricsPort, "/metrics", promhttp.Handler())
		s.registerStatusHandlers(s.Conf.MetricsPort)
	}
	return nil
}

// Metrics returns the collector, or nil when metrics are disabled.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Start builds every poller and runs them until ctx is cancelled or one of
// them fails. Pollers superseded by a newer generation stop without error.
func (s *Service) Start(ctx context.Context) error {
	defer s.close()

	pollers, infos, err := s.buildPollers()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.startHTTPServers(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range pollers {
		info := infos[i]
		g.Go(func() error {
			err := p.Run(gctx)
			s.markStopped(info, err)
			if errors.Is(err, poller.ErrSuperseded) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("poller %s: %w", info.Key, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// group is a set of targets polled over one connection.
type group struct {
	scope   string
	targets []poller.Target
}

func (s *Service) groups(kind handlers.Kind) ([]group, error) {
	names := s.Conf.Queues
	if kind == handlers.KindStatus {
		names = s.Conf.Channels
	}
	if len(names) == 0 {
		return nil, errspkg.NewConfigValidationError(fmt.Errorf("%w for the %s handler", errspkg.ErrTargetsRequired, s.Conf.Handler))
	}

	targets := make([]poller.Target, len(names))
	for i, name := range names {
		targets[i] = poller.Target{Name: name, Kind: kind}
	}
	if !s.Conf.ProcessPerQueue {
		return []group{{targets: targets}}, nil
	}
	out := make([]group, len(targets))
	for i, t := range targets {
		out[i] = group{scope: t.Name, targets: []poller.Target{t}}
	}
	return out, nil
}

func (s *Service) handlerDeps() handlers.Deps {
	return handlers.Deps{
		Sink:      s.sink,
		Logger:    s.Logger,
		BlobStore: s.blobs,
	}
}

// buildPollers returns the pollers of every group with their status entries,
// index for index. s.pollers is replaced only when every poller was built.
func (s *Service) buildPollers() ([]*poller.Poller, []*PollerInfo, error) {
	probe, err := s.registry.New(s.Conf.Handler, s.Conf.HandlerArgs, s.handlerDeps())
	if err != nil {
		return nil, nil, err
	}
	groups, err := s.groups(probe.Kind())
	if err != nil {
		return nil, nil, err
	}

	host := s.Conf.Host
	if host == "" {
		host, _ = os.Hostname()
	}

	var (
		out   []*poller.Poller
		infos []*PollerInfo
	)
	for _, g := range groups {
		for n := 0; n < s.Conf.NumberOfProcesses; n++ {
			key := s.Conf.LivenessKey(g.scope, n)
			p, info, err := s.buildPoller(key, host, g.targets)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, p)
			infos = append(infos, info)
		}
	}

	s.pollersMu.Lock()
	s.pollers = infos
	s.pollersMu.Unlock()
	return out, infos, nil
}

func (s *Service) buildPoller(key, host string, targets []poller.Target) (*poller.Poller, *PollerInfo, error) {
	// Every poller owns its handler instance.
	h, err := s.registry.New(s.Conf.Handler, s.Conf.HandlerArgs, s.handlerDeps())
	if err != nil {
		return nil, nil, err
	}

	var live poller.Generations
	if s.Conf.LivenessDir != "" {
		live = poller.NewFileLiveness(s.Conf.LivenessDir, key)
	} else {
		live = &poller.MemoryLiveness{}
	}
	gen, err := live.Start()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to write liveness token %s: %w", key, err)
	}

	opts := []poller.Option{
		poller.WithLogger(s.Logger.With(loggingpkg.LogFields{"poller": key})),
		poller.WithHooks(s.hooks),
	}
	if s.metrics != nil {
		opts = append(opts, poller.WithMetrics(s.metrics))
	}
	opts = append(opts, s.pollerOpts...)

	p, err := poller.New(s.client, h, live, poller.Config{
		Manager:     s.Conf.QueueManager,
		Credentials: s.Conf.GetCredentials(),
		Host:        host,
		Targets:     targets,
		Interval:    s.Conf.PollInterval,
		Persistent:  s.Conf.PersistentConnection,
		Generation:  gen,
	}, opts...)
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Name
	}
	return p, &PollerInfo{
		Key:        key,
		Handler:    h.Name(),
		Targets:    names,
		Generation: gen,
		StartedAt:  time.Now(),
		Running:    true,
	}, nil
}

func (s *Service) markStopped(info *PollerInfo, err error) {
	s.pollersMu.Lock()
	defer s.pollersMu.Unlock()
	info.Running = false
	if err != nil {
		info.Error = err.Error()
	}
}

// Pollers returns a copy of the started pollers' descriptions.
func (s *Service) Pollers() []PollerInfo {
	s.pollersMu.RLock()
	defer s.pollersMu.RUnlock()
	out := make([]PollerInfo, len(s.pollers))
	for i, p := range s.pollers {
		out[i] = *p
		out[i].Targets = append([]string(nil), p.Targets...)
	}
	return out
}

func (s *Service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.Logger.Warn("Failed to close resource", loggingpkg.LogFields{"error": err.Error()})
		}
	}
	s.closers = nil
}

func (s *Service) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	if s.httpServers == nil {
		s.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := s.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		s.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (s *Service) startHTTPServers(ctx context.Context) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	for port, mux := range s.httpServers {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": srv.Addr})
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": srv.Addr})
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}
}
