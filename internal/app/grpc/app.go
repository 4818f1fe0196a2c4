package grpcapp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"

	"estatemetrics/internal/interceptors"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/realip"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service entry reported for the whole process.
const ServiceName = "estatemetrics"

type App struct {
	log        *slog.Logger
	gRPCServer *grpc.Server
	health     *health.Server
	port       int
}

func InterceptorLogger(l *slog.Logger) logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		maskedFields := maskSensitiveFields(fields)
		l.Log(ctx, slog.Level(lvl), msg, maskedFields...)
	})
}

// New creates the ops gRPC server. It serves the standard health service,
// NOT_SERVING until SetServing is called.
func New(log *slog.Logger, port int, trusted []string) *App {
	loggingOpts := []logging.Option{
		logging.WithLogOnEvents(
			logging.StartCall, logging.FinishCall,
		),
	}

	recoveryOpts := []recovery.Option{
		recovery.WithRecoveryHandler(func(p interface{}) (err error) {
			log.Error("Recovered from panic", slog.Any("panic", p))

			return status.Errorf(codes.Internal, "internal error")
		}),
	}

	trustedPeers := []netip.Prefix{netip.MustParsePrefix("127.0.0.1/32")}
	for _, t := range trusted {
		prefix, err := netip.ParsePrefix(t)
		if err != nil {
			log.Warn("skipping invalid trusted peer", slog.String("peer", t))
			continue
		}
		trustedPeers = append(trustedPeers, prefix)
	}
	headers := []string{realip.XForwardedFor, realip.XRealIp}

	realIpOpts := []realip.Option{
		realip.WithTrustedPeers(trustedPeers),
		realip.WithHeaders(headers),
		realip.WithTrustedProxiesCount(1),
	}

	logHeadersInterceptor := interceptors.NewLogHeadersInterceptor(log)

	gRPCServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		recovery.UnaryServerInterceptor(recoveryOpts...),
		realip.UnaryServerInterceptorOpts(realIpOpts...),
		logHeadersInterceptor.LogHeadersUnary(),
		logging.UnaryServerInterceptor(InterceptorLogger(log), loggingOpts...),
	))

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(gRPCServer, healthServer)

	return &App{
		log:        log,
		gRPCServer: gRPCServer,
		health:     healthServer,
		port:       port,
	}
}

// Server exposes the underlying server, e.g. to serve on a bufconn listener.
func (a *App) Server() *grpc.Server {
	return a.gRPCServer
}

func (a *App) SetServing() {
	a.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	a.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Drain reports NOT_SERVING so that load balancers stop routing here
// before the server stops.
func (a *App) Drain() {
	a.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	a.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	const op = "grpcapp.Run"

	l, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("grpc server started", slog.String("addr", l.Addr().String()))

	a.SetServing()

	if err := a.gRPCServer.Serve(l); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GracefulStop waits for in-flight calls to finish.
func (a *App) GracefulStop() {
	const op = "grpcapp.GracefulStop"

	a.log.With(slog.String("op", op)).
		Info("stopping gRPC server", slog.Int("port", a.port))

	a.health.Shutdown()
	a.gRPCServer.GracefulStop()
}

// Stop closes all connections at once.
func (a *App) Stop() {
	a.gRPCServer.Stop()
}
