package main

import (
	"flag"
	"log"
	"os"
	"strings"
)

var (
	port           int
	cachePath      string
	tempDir        string
	sampleRate     int
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&cachePath, "cache", getEnvOrDefault("MIXCUE_CACHE_PATH", "mixcue-cache.sqlite3"), "Path to recognition cache database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("MIXCUE_TEMP_DIR", "/tmp/mixcue"), "Temporary directory")
	flag.IntVar(&sampleRate, "rate", 11025, "Analysis sample rate")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	config := &ServerConfig{
		Port:           port,
		CachePath:      cachePath,
		TempDir:        tempDir,
		SampleRate:     sampleRate,
		AllowedOrigins: origins,
	}

	server := NewServer(config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
