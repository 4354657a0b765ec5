package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	acceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrosense_ingest_accepted_total",
		Help: "Readings accepted into the commit queue.",
	})
	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrosense_ingest_rejected_total",
		Help: "Readings rejected during validation, by reason.",
	}, []string{"reason"})
	batchesCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrosense_ingest_batches_committed_total",
		Help: "Batches committed to the sensor store.",
	})
	batchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrosense_ingest_batch_retries_total",
		Help: "Transactional batch commit retries.",
	})
)
