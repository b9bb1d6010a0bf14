// Package httpserver runs the service's http.Server with graceful shutdown
// and exposes liveness and readiness handlers.
//
//	srv := httpserver.New(cfg, log)
//	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	return srv.Run(ctx, router)
//
// Run blocks until ctx is cancelled, then drains in-flight requests for up to
// Config.ShutdownTimeout.
package httpserver
