package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	HandlerLatency    = metric.NewHistogram("1m1s")
	MessageSize       = metric.NewHistogram("10s1s")
	MessagesSent      = metric.NewCounter("10s1s")
	MessagesDelivered = metric.NewCounter("10s1s")
	BytesSent         = metric.NewCounter("10s1s")
	RoutesInstalled   = metric.NewCounter("10s1s")
	RoutesWithdrawn   = metric.NewCounter("10s1s")
	LinkChanges       = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("routesim:MessageSize", MessageSize)

	expvar.Publish("routesim:MessagesSent/s", MessagesSent)
	expvar.Publish("routesim:MessagesDelivered/s", MessagesDelivered)
	expvar.Publish("routesim:BytesSent/s", BytesSent)
	expvar.Publish("routesim:RoutesInstalled/s", RoutesInstalled)
	expvar.Publish("routesim:RoutesWithdrawn/s", RoutesWithdrawn)
	expvar.Publish("routesim:LinkChanges/s", LinkChanges)
	expvar.Publish("routesim:HandlerLatency (µs)", HandlerLatency)
}
