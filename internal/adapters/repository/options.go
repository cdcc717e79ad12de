package repository

// storeConfig carries construction options shared by store implementations.
type storeConfig struct {
	shardCount    int
	busyTimeoutMS int
}

// Option applies a configuration option to a store under construction.
type Option func(*storeConfig)

// WithShardCount sets the number of shards in the memory store.
func WithShardCount(count int) Option {
	return func(c *storeConfig) {
		if count > 0 {
			c.shardCount = count
		}
	}
}

// WithBusyTimeout sets the SQLite busy timeout in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(c *storeConfig) {
		if ms > 0 {
			c.busyTimeoutMS = ms
		}
	}
}
