package cfg

type Cfg struct {
	// Database configuration
	DBPath         string
	UseMemoryStore bool

	// Application configuration
	Port          string
	APIAccessKey  string
	PortalsDir    string
	PortalID      string
	EncryptionKey string

	// Ingestion configuration
	SyncMaxAttempts     int
	SyncRetryDelay      int
	SeasonBoundaryMonth int

	// Background scheduler configuration
	WorkerCount       int
	SchedulerInterval int

	// Weather configuration
	WeatherLatitude  float64
	WeatherLongitude float64

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
