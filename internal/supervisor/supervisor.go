// Package supervisor wires the broker, pipeline, dispatcher, scheduler
// and service registry together and drives the daemon's startup and
// shutdown lifecycle.
package supervisor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/warnbridge/warnbridge/internal/broker"
	"github.com/warnbridge/warnbridge/internal/config"
	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/dispatch"
	"github.com/warnbridge/warnbridge/internal/helper"
	"github.com/warnbridge/warnbridge/internal/metrics"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
	"github.com/warnbridge/warnbridge/internal/plugin"
	"github.com/warnbridge/warnbridge/internal/scheduler"
	"github.com/warnbridge/warnbridge/internal/service"
)

// Supervisor owns the full set of long-running components and brings
// them up and down in a fixed order: the service registry and dispatch
// workers first (so nothing can be dropped on the floor), then the
// scheduler, then the broker connection and its subscriptions last.
// Shutdown runs in reverse, with the broker disconnected before
// anything downstream of it stops.
type Supervisor struct {
	rt  *config.Runtime
	log *logger.Logger
	met *metrics.Metrics

	matcher    *core.Matcher
	pipeline   *core.Pipeline
	helpers    *helper.Registry
	registry   *service.Registry
	dispatcher *dispatch.Dispatcher
	scheduler  *scheduler.Scheduler
	brk        broker.Broker

	admin *http.Server
}

// New builds every component from rt and doc, initializing the
// configured services against factories, but does not connect to the
// broker or start any goroutine yet.
func New(ctx context.Context, rt *config.Runtime, doc *config.RoutingDocument, helpers *helper.Registry, factories map[string]plugin.Factory, log *logger.Logger) (*Supervisor, error) {
	met := metrics.New(rt.MetricsNamespace)

	registry := service.NewRegistry(log, rt.AppVersion)
	if err := registry.Load(ctx, doc.ServiceConfigs(), factories); err != nil {
		return nil, fmt.Errorf("supervisor: loading services: %w", err)
	}
	if err := registry.ValidateTargets(doc.AllTargetRefs(), doc.Strict); err != nil {
		return nil, fmt.Errorf("supervisor: validating targets: %w", err)
	}

	dispatcher := dispatch.NewDispatcher(registry, dispatch.Options{
		Capacity:     rt.QueueCapacity,
		MaxRetries:   rt.QueueMaxRetries,
		RetryBackoff: rt.QueueRetryBackoff,
		RateLimit:    rt.QueueRateLimit,
	}, log)
	failover := dispatch.NewFailoverRoute(dispatcher, doc.Failover, log.Component("failover"))
	dispatcher.SetFailover(failover)

	routes := doc.CoreRoutes()
	matcher, err := core.NewMatcher(routes, 256)
	if err != nil {
		return nil, fmt.Errorf("supervisor: building matcher: %w", err)
	}
	pipeline := core.NewPipeline(helpers, registry, log.Component("pipeline"))
	if rt.TimestampsUTC {
		pipeline.SetLocation(time.UTC)
	}

	s := &Supervisor{
		rt:         rt,
		log:        log,
		met:        met,
		matcher:    matcher,
		pipeline:   pipeline,
		helpers:    helpers,
		registry:   registry,
		dispatcher: dispatcher,
	}

	s.scheduler = scheduler.New(doc.PeriodicTasks(), helpers, s, log.Component("scheduler"))
	s.brk = broker.NewPahoBroker(broker.Config{
		BrokerURL:    rt.BrokerURL,
		ClientID:     rt.ClientID,
		Username:     rt.Username,
		Password:     rt.Password,
		CleanSession: rt.CleanSession,
		KeepAlive:    rt.KeepAlive,
		TLSInsecure:  rt.TLSInsecure,
	}, log.Component("broker"))

	s.brk.OnMessage(s.handleMessage)
	s.brk.OnDisconnect(s.handleDisconnect)

	s.admin = s.buildAdminServer()

	return s, nil
}

// Inject implements scheduler.Injector: a periodic task's output is
// routed through the same pipeline as a broker-delivered message.
func (s *Supervisor) Inject(msg *core.Message) {
	s.handleMessage(msg.Topic, msg.Payload, msg.QoS, msg.Retained)
}

func (s *Supervisor) handleMessage(topic string, payload []byte, qos byte, retained bool) {
	msg := &core.Message{Topic: topic, Payload: payload, QoS: qos, Retained: retained, Received: time.Now()}
	for _, route := range s.matcher.Match(topic) {
		s.met.MessagesReceived.WithLabelValues(route.Name).Inc()
		jobs, err := s.pipeline.Run(route, msg)
		if err != nil {
			s.log.Warn("pipeline error", "route", route.Name, "topic", topic, "error", err)
			continue
		}
		for _, job := range jobs {
			s.met.JobsEnqueued.WithLabelValues(job.Service, job.Target).Inc()
			s.dispatcher.Enqueue(job)
		}
	}
}

func (s *Supervisor) handleDisconnect(err error) {
	s.met.BrokerConnected.Set(0)
	s.log.Warn("broker disconnected, reconnecting", "error", err)
	go s.reconnect(context.Background())
}

// reconnect retries Connect with exponential backoff until it
// succeeds or ctx is cancelled, then resubscribes to every pattern the
// configured routes need.
func (s *Supervisor) reconnect(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0 // retry forever, the daemon has no other job to do

	op := func() error {
		if err := s.brk.Connect(ctx); err != nil {
			return err
		}
		return s.brk.Subscribe(ctx, s.matcher.SubscriptionPatterns(), 1)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		s.log.Warn("reconnect attempt failed, backing off", "error", err, "wait", wait)
	})
	if err != nil {
		s.log.Error("reconnect abandoned", "error", err)
		return
	}
	s.met.BrokerConnected.Set(1)
	s.log.Info("broker reconnected")
}

func (s *Supervisor) buildAdminServer() *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		if s.brk.IsConnected() {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "broker disconnected"})
	})
	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.dispatcher.Stats())
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.met.Registry(), promhttp.HandlerOpts{})))

	return &http.Server{Addr: s.rt.AdminListenAddr, Handler: r}
}

// Run connects to the broker, starts the scheduler and admin server,
// and blocks until ctx is cancelled or a termination signal arrives,
// then shuts every component down in reverse startup order.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("admin server listening", "address", s.rt.AdminListenAddr)
		if err := s.admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	s.scheduler.Start(gctx)

	if err := s.brk.Connect(gctx); err != nil {
		return fmt.Errorf("supervisor: initial broker connect: %w", err)
	}
	if err := s.brk.Subscribe(gctx, s.matcher.SubscriptionPatterns(), 1); err != nil {
		return fmt.Errorf("supervisor: initial subscribe: %w", err)
	}
	s.met.BrokerConnected.Set(1)

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			s.log.Info("received shutdown signal", "signal", sig)
		case <-gctx.Done():
		}
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Supervisor) shutdown() error {
	s.log.Info("shutting down")

	s.brk.Disconnect(context.Background())
	s.scheduler.Stop()
	s.dispatcher.Shutdown(s.rt.ShutdownGrace)
	s.registry.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.admin.Shutdown(ctx); err != nil {
		s.log.Error("admin server shutdown failed", "error", err)
	}

	s.log.Info("shutdown complete")
	return nil
}
