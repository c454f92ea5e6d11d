package bench

// benchmarksConfig holds all parameters for each benchmark.
type benchmarksConfig struct {
	benchmarkSimpleConfig
	benchmarkManyConfig
	benchmarkLargeConfig
}

func getMattnConfig() benchmarksConfig {
	return benchmarksConfig{
		benchmarkSimpleConfig: benchmarkSimpleConfig{
			insertXUsers:     100_000,
			insertGoroutines: 1,
		},

		benchmarkManyConfig: benchmarkManyConfig{
			insertXUsers:     1_000,
			queryUsersYTimes: 1_000,
			insertGoroutines: 1,
			queryGoroutines:  1,
		},

		benchmarkLargeConfig: benchmarkLargeConfig{
			insertXUsers:     10_000,
			insertYBytes:     10_000,
			insertGoroutines: 1,
		},
	}
}

func getCqliteConfig() benchmarksConfig {
	cfg := getMattnConfig()
	cfg.benchmarkManyConfig.queryGoroutines = 10
	return cfg
}

type benchmarkPoolConfig struct {
	insertXUsers int
	poolSize     int
}

func getPoolConfig() benchmarkPoolConfig {
	return benchmarkPoolConfig{
		insertXUsers: 100_000,
		poolSize:     4,
	}
}
