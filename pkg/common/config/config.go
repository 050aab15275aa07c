package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	ServerHost     string
	ServerPort     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers     []string
	KafkaGroupID     string
	ImportKafkaTopic string
	ImportDLQTopic   string

	// LLM
	LLMAPIKey         string
	LLMBaseURL        string
	LLMModelName      string
	LLMRequestTimeout time.Duration

	// Import pipeline
	ImportTimeBudget    time.Duration
	ImportMaxErrors     int
	QuestionCatalogPath string

	// Analysis pipeline
	AnalysisBatchSize  int
	ScorerSessionPage  int
	PopulationCacheTTL time.Duration
}

func Load() *Config {
	return &Config{
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 60*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 16*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "tracker"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "tracker123"),
		PostgresDB:       getEnv("POSTGRES_DB", "program_tracker"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:     getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "program-tracker"),
		ImportKafkaTopic: getEnv("IMPORT_KAFKA_TOPIC", "survey.imports"),
		ImportDLQTopic:   getEnv("IMPORT_DLQ_TOPIC", ""),

		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMBaseURL:        getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModelName:      getEnv("LLM_MODEL_NAME", "gpt-4o-mini"),
		LLMRequestTimeout: getDuration("LLM_REQUEST_TIMEOUT", 30*time.Second),

		ImportTimeBudget:    getDuration("IMPORT_TIME_BUDGET", 5*time.Minute),
		ImportMaxErrors:     getIntEnv("IMPORT_MAX_ERRORS", 25),
		QuestionCatalogPath: getEnv("QUESTION_CATALOG_PATH", ""),

		AnalysisBatchSize:  getIntEnv("ANALYSIS_BATCH_SIZE", 30),
		ScorerSessionPage:  getIntEnv("SCORER_SESSION_PAGE", 50),
		PopulationCacheTTL: getDuration("POPULATION_CACHE_TTL", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
