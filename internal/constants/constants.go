package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	CacheKeyPrefixDedup = "dedup:"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// MaxFieldLength caps every normalized postback string field.
	MaxFieldLength = 256

	// MaxPostbackBodyBytes bounds the request body accepted by the
	// ingestion endpoint.
	MaxPostbackBodyBytes = 64 << 10
)

const (
	DefaultRateLimitRPS = 27
	DefaultDedupTTLSec  = 3600
)

const (
	DefaultPersistTimeout  = 3 * time.Second
	DefaultDeliveryTimeout = 10 * time.Second
)

const (
	FallbackAllow = "allow"
	FallbackDeny  = "deny"
)

const (
	DefaultEventStreamTopic = "postback_events"
)
