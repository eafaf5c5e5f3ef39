package config

import "github.com/JonMunkholm/batchingest/internal/core"

// Engine returns the engine tunables carried by the upload and import
// sections.
func (c *Config) Engine() core.ServiceConfig {
	return core.ServiceConfig{
		UploadWorkers:     c.Upload.Workers,
		BatchSize:         c.Import.BatchSize,
		UploadTimeout:     c.Upload.Timeout,
		ImportTimeout:     c.Import.Timeout,
		MaxConcurrentRuns: c.Upload.MaxConcurrent,
		MaxWaitTime:       c.Upload.MaxWaitTime,
		Retention:         c.Upload.Retention,
	}
}
