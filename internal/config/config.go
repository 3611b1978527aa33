package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	SupabaseURL     string
	SupabaseAnonKey string

	// AccessToken optionally restores a previous session at startup.
	AccessToken string

	SearchDebounce time.Duration
	SearchLimit    int
	SampleLimit    int

	HTTPTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	if supabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}

	supabaseAnonKey := os.Getenv("SUPABASE_ANON_KEY")
	if supabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}

	debounceMS, err := strconv.Atoi(os.Getenv("SEARCH_DEBOUNCE_MS"))
	if err != nil || debounceMS <= 0 {
		debounceMS = 300
	}

	searchLimit, err := strconv.Atoi(os.Getenv("SEARCH_LIMIT"))
	if err != nil || searchLimit <= 0 {
		searchLimit = 50
	}

	sampleLimit, err := strconv.Atoi(os.Getenv("SAMPLE_LIMIT"))
	if err != nil || sampleLimit <= 0 {
		sampleLimit = 20
	}

	timeoutSeconds, err := strconv.Atoi(os.Getenv("HTTP_TIMEOUT_SECONDS"))
	if err != nil || timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	return &Config{
		SupabaseURL:     supabaseURL,
		SupabaseAnonKey: supabaseAnonKey,

		AccessToken: os.Getenv("SUPABASE_ACCESS_TOKEN"),

		SearchDebounce: time.Duration(debounceMS) * time.Millisecond,
		SearchLimit:    searchLimit,
		SampleLimit:    sampleLimit,

		HTTPTimeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}
