package redisx

import "time"

const (
	// Stored record: coffee:{collection}:{key} -> JSON document
	KeyRecord = "coffee:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup      = 48 * time.Hour
	TTLTabSession = 12 * time.Hour
)

const (
	// Customer notifications, newest first: inbox:{email} -> list of JSON messages
	KeyInbox = "inbox:%s"

	InboxLimit = 50
)
