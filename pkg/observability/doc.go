/*
Package observability exposes study execution as Prometheus metrics.

Metrics are fed by the flow runtime's lifecycle hooks (block enter/end,
progress) and by the result transmitter. Collectors are registered on a
caller-supplied registry so tests and servers can keep them isolated.
*/
package observability
