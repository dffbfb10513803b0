package srv

import (
	"context"
	"errors"

	"github.com/sandevgo/tuskqa/pkg/log"
)

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// errForegroundDone ends Run when a foreground service returns without error.
var errForegroundDone = errors.New("foreground service finished")

type foreground struct {
	Service
}

// Foreground marks a service whose return from Start ends the whole run,
// like an interactive prompt the user exits.
func Foreground(s Service) Service {
	return foreground{s}
}

// StartServices starts every service in its own goroutine. A failing
// service, or a finished foreground one, calls stop.
func StartServices(ctx context.Context, services []Service, stop context.CancelCauseFunc) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			err := service.Start(ctx)
			switch {
			case err != nil && ctx.Err() == nil:
				logger.Error().Err(err).Msgf("%T failed", service)
				stop(err)
			case isForeground(service):
				stop(errForegroundDone)
			}
		}(service)
	}
}

func isForeground(s Service) bool {
	_, ok := s.(foreground)
	return ok
}

// ShutdownServices waits for ctx to end, then shuts services down in reverse start order.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()
	shutdownCtx := context.WithoutCancel(ctx)
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(shutdownCtx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", services[i])
		}
	}
}

// Run starts services and blocks until ctx ends, a service fails or a
// foreground service finishes. The failure, if any, is returned.
func Run(parent context.Context, services []Service) error {
	ctx, stop := context.WithCancelCause(parent)
	defer stop(nil)

	StartServices(ctx, services, stop)
	ShutdownServices(ctx, services)

	if parent.Err() != nil {
		return nil
	}
	if cause := context.Cause(ctx); !errors.Is(cause, errForegroundDone) {
		return cause
	}
	return nil
}
