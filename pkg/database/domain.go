package database

import "time"

// Connection dsn plus retry policy, RetryInterval is in seconds
type Connection struct {
	ConnectStr string

	RetryCount    int
	RetryInterval time.Duration
}
