// Package mongo provides MongoDB connection management for the persistent
// two-factor authentication stores and the audit event storage.
//
// The package wraps the official driver with environment-based configuration,
// retry logic for transient startup failures, and connection pool defaults
// that work well without manual tuning.
//
// # Usage
//
//	import (
//		"context"
//
//		"github.com/dmitrymomot/mfakit/pkg/mongo"
//		"github.com/dmitrymomot/mfakit/pkg/twofa"
//	)
//
//	func main() {
//		cfg := mongo.Config{
//			ConnectionURL: "mongodb://localhost:27017",
//			RetryAttempts: 3,
//		}
//
//		db, err := mongo.ConnectDatabase(context.Background(), cfg, "auth")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer db.Client().Disconnect(context.Background())
//
//		store := twofa.NewMongoStore(db)
//
//		// Wire health check
//		health := mongo.Healthcheck(db.Client())
//		if err := health(context.Background()); err != nil {
//			log.Println("mongo is unavailable:", err)
//		}
//	}
//
// # Configuration
//
// Configuration is entirely environment-driven so the same binary can run
// unchanged across development, staging, and production. Credentials stay in
// environment variables or a secret manager rather than config files.
//
// # Error Handling
//
// Connection failures are wrapped in package-level sentinel errors. Use
// errors.Is() to check for specific failure scenarios and implement
// appropriate retry or fallback logic.
package mongo
