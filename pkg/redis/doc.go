// Package redis opens go-redis clients for the Redis version store.
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Open retries the initial ping with linear backoff so workers can start
// before Redis is ready. Healthcheck adapts the client to readiness probes
// and Shutdown to shutdown hooks.
package redis
