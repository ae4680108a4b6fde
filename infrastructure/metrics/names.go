package metrics

const (
	HTTPRequestsTotal   = "http_requests_total"
	HTTPRequestDuration = "http_request_duration_seconds"
	GRPCRequestsTotal   = "grpc_requests_total"
	GRPCRequestDuration = "grpc_request_duration_seconds"

	AuditEntriesWritten  = "audit_entries_written_total"
	AuditEntriesRejected = "audit_entries_rejected_total"
	AuditQueryDuration   = "audit_query_duration_seconds"

	SearchRequestsTotal = "search_requests_total"
	SearchDuration      = "search_duration_seconds"
	SearchIndexWrites   = "search_index_writes_total"
	SearchIndexDocs     = "search_index_documents"
	SearchEngineState   = "search_engine_state"

	ConsumerMessagesTotal = "consumer_messages_total"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

// RegisterDefaults creates every instrument the service records.
func RegisterDefaults(m Manager) {
	m.NewGauge("app_go_routines", "Number of goroutines")
	m.NewGauge("app_sys_memory_alloc", "Bytes allocated and in use")
	m.NewGauge("app_sys_total_alloc", "Total bytes allocated")
	m.NewGauge("app_go_numGC", "Number of completed GC cycles")
	m.NewGauge("app_go_sys", "Total bytes of memory obtained from OS")

	m.NewCounter(HTTPRequestsTotal, "Total number of HTTP requests")
	m.NewHistogram(HTTPRequestDuration, "HTTP request duration in seconds", latencyBuckets...)
	m.NewCounter(GRPCRequestsTotal, "Total number of gRPC requests")
	m.NewHistogram(GRPCRequestDuration, "gRPC request duration in seconds", latencyBuckets...)

	m.NewCounter(AuditEntriesWritten, "Audit entries persisted")
	m.NewCounter(AuditEntriesRejected, "Audit entries skipped inside batches")
	m.NewHistogram(AuditQueryDuration, "GetLogs duration in seconds", latencyBuckets...)

	m.NewCounter(SearchRequestsTotal, "Message searches by path")
	m.NewHistogram(SearchDuration, "Message search duration in seconds", latencyBuckets...)
	m.NewCounter(SearchIndexWrites, "Text index writes by outcome")
	m.NewGauge(SearchIndexDocs, "Documents in the text index")
	m.NewGauge(SearchEngineState, "Search engine state (0 uninitialized, 1 ready, 2 unavailable)")

	m.NewCounter(ConsumerMessagesTotal, "Messages consumed from kafka by topic and outcome")
}
