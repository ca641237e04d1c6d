package config

const (
	// DefaultServiceName is reported in log base attributes
	DefaultServiceName = "chanbridge"

	// TokenSealKeyLength is the secretbox key size in bytes
	TokenSealKeyLength = 32

	// DefaultWorkerCeiling caps the sync worker pool regardless of core count
	DefaultWorkerCeiling = 8

	// DefaultWorkerQueue is the buffered job queue size for webhook processing
	DefaultWorkerQueue = 256
)
