package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	SourcesDir    string
	Port          string
	APIAccessKey  string
	WorkerCount   int
	RefreshHour   int
	DailyCeiling  int
	RetentionDays int
	PageSize      int
	FetchMin      int
	FetchMax      int

	// NewsAPI configuration
	NewsAPIKey     string
	NewsAPIBaseURL string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
