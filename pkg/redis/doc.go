// Package redis provides connection helpers for the Redis-backed replay
// guard and attempt limiter.
//
// The package wraps the go-redis client and adds:
//
//   - Robust `Connect` which retries the connection using the supplied
//     configuration.
//   - Health-check helpers to integrate Redis into liveness / readiness
//     probes.
//
// Configuration is described by the `Config` struct whose fields can be
// populated from environment variables via github.com/caarlos0/env.
//
// # Usage
//
// Import the package:
//
//	import (
//		"github.com/dmitrymomot/mfakit/pkg/attempts"
//		"github.com/dmitrymomot/mfakit/pkg/redis"
//		"github.com/dmitrymomot/mfakit/pkg/replayguard"
//	)
//
// Connect with auto-retry:
//
//	ctx := context.Background()
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL:  "redis://localhost:6379/0",
//		RetryAttempts:  3,
//		RetryInterval:  5 * time.Second,
//		ConnectTimeout: 30 * time.Second,
//	})
//	if err != nil {
//		// handle error, probably terminate the application
//	}
//	defer client.Close()
//
// Hand the client to the components that need shared state across replicas:
//
//	guard := replayguard.NewRedisGuard(client)
//	limiter := attempts.NewRedisLimiter(client)
//
// Register a health-check in your observability stack:
//
//	checker := redis.Healthcheck(client)
//	if err := checker(ctx); err != nil {
//		// redis is not healthy
//	}
//
// # Errors
//
// The package defines sentinel errors (e.g. ErrRedisNotReady) that wrap the
// underlying go-redis errors using errors.Join, so they can be compared with
// errors.Is and unwrapped.
package redis
