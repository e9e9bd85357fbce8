package access

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "charitydesk_access_denied_total",
	Help: "Authorization checks that were denied, by role and capability",
}, []string{"role", "capability"})
