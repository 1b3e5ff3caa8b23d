package config

import "time"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Providers ProvidersConfig `yaml:"providers"`
	Routing   RoutingConfig   `yaml:"routing"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Agent     AgentConfig     `yaml:"agent"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + itoa(d.Port) + "/" + d.Name + "?sslmode=disable"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	s := ""
	for i > 0 {
		s = string(rune('0'+i%10)) + s
		i /= 10
	}
	return s
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type TelemetryConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsPort int    `yaml:"metrics_port"`
}

type ProvidersConfig struct {
	Local LocalProviderConfig `yaml:"local"`
	Cloud CloudProviderConfig `yaml:"cloud"`
}

// LocalProviderConfig describes the on-device Ollama-compatible backend.
type LocalProviderConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	Confidence float64       `yaml:"confidence"`
}

// CloudProviderConfig describes the chat-completions style cloud backend.
type CloudProviderConfig struct {
	BaseURL    string            `yaml:"base_url"`
	APIKey     string            `yaml:"api_key"`
	Model      string            `yaml:"model"`
	Timeout    time.Duration     `yaml:"timeout"`
	Confidence float64           `yaml:"confidence"`
	Headers    map[string]string `yaml:"headers,omitempty"`
}

type RoutingConfig struct {
	FallbackEnabled     bool          `yaml:"fallback_enabled"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	LocalTimeout        time.Duration `yaml:"local_timeout"`
	StreamReadTimeout   time.Duration `yaml:"stream_read_timeout"`
	Cache               CacheConfig   `yaml:"cache"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type RetrievalConfig struct {
	MaxDocuments      int           `yaml:"max_documents"`
	MinRelevanceScore float64       `yaml:"min_relevance_score"`
	MinReliability    float64       `yaml:"min_reliability"`
	Rerank            RerankConfig  `yaml:"rerank"`
	EmbedModel        string        `yaml:"embed_model"`
	EmbedTimeout      time.Duration `yaml:"embed_timeout"`
}

// RerankConfig holds the blended-score weights. The defaults are heuristic
// tuning values with no documented derivation, so they stay configurable.
type RerankConfig struct {
	Enabled      bool    `yaml:"enabled"`
	VectorWeight float64 `yaml:"vector_weight"`
	TermWeight   float64 `yaml:"term_weight"`
	DomainBoost  float64 `yaml:"domain_boost"`
}

type AgentConfig struct {
	IncludeDisclaimer bool               `yaml:"include_disclaimer"`
	EmergencyContacts []EmergencyContact `yaml:"emergency_contacts"`
}

type EmergencyContact struct {
	Name   string `yaml:"name"`
	Number string `yaml:"number"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     120 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "halcyon",
			User:            "halcyon",
			MaxOpenConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			DB:       0,
			PoolSize: 50,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			MetricsPort: 9090,
		},
		Providers: ProvidersConfig{
			Local: LocalProviderConfig{
				BaseURL:    "http://localhost:11434",
				Model:      "llama3.2",
				Timeout:    300 * time.Second,
				Confidence: 0.75,
			},
			Cloud: CloudProviderConfig{
				Model:      "gpt-4o",
				Timeout:    60 * time.Second,
				Confidence: 0.92,
			},
		},
		Routing: RoutingConfig{
			FallbackEnabled:     true,
			ConfidenceThreshold: 0.7,
			LocalTimeout:        15 * time.Second,
			StreamReadTimeout:   15 * time.Second,
			Cache: CacheConfig{
				TTL:        time.Hour,
				MaxEntries: 1000,
			},
		},
		Retrieval: RetrievalConfig{
			MaxDocuments:      5,
			MinRelevanceScore: 0.5,
			MinReliability:    0.7,
			Rerank: RerankConfig{
				Enabled:      true,
				VectorWeight: 0.7,
				TermWeight:   0.3,
				DomainBoost:  1.2,
			},
			EmbedModel:   "nomic-embed-text",
			EmbedTimeout: 10 * time.Second,
		},
		Agent: AgentConfig{
			IncludeDisclaimer: true,
			EmergencyContacts: []EmergencyContact{
				{Name: "Emergency Services", Number: "911"},
				{Name: "Suicide & Crisis Lifeline", Number: "988"},
				{Name: "Poison Control", Number: "1-800-222-1222"},
			},
		},
	}
}
