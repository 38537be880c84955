// Package health serves liveness and readiness probes for the worker.
//
//	r.Get("/healthz", health.LivenessHandler())
//	r.Get("/readyz", health.ReadinessHandler(health.Checks{
//		"postgres": db.Healthcheck(pool),
//		"jobs":     job.Healthcheck(manager),
//	}, health.WithTimeout(3*time.Second)))
//
// Both handlers answer plain text unless the client asks for JSON through
// the Accept header or ?format=json. Run executes the same checks without
// HTTP, e.g. for a container health command.
package health
