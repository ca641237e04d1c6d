package database

// DefaultMinConnections keeps a couple of warm connections so webhook
// bursts do not pay connection setup latency.
const DefaultMinConnections = 2

// Error messages for pool construction
const (
	ErrMsgFailedToParseConnString = "failed to parse connection string"
	ErrMsgFailedToCreatePool      = "failed to create connection pool"
	ErrMsgFailedToPingDatabase    = "failed to ping database"
)

// Log Messages
const (
	LogMsgSuccessfullyConnectedToDatabase = "Successfully connected to the database"
)
