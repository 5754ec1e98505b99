// Package metrics defines the prometheus collectors exposed by the
// check operator. They are registered with controller-runtime's metrics
// registry and served from the manager's metrics endpoint.
package metrics
