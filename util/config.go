package util

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server config
	ListenAddr string
	BaseURL    string

	// Database config
	DBPath string

	// Redis config (optional, enables the background worker)
	RedisAddr string

	// Email config (optional, enables the welcome email task)
	SMTPHost    string
	SMTPPort    string
	Email       string
	AppPassword string

	// Security config
	SecretKey              []byte
	TokenExpiration        time.Duration
	RefreshTokenExpiration time.Duration

	// Rate limiting config
	MaxRequest int
	RefillRate time.Duration

	// How long an ephemeral status post stays up
	StatusTTL time.Duration
}

func LoadConfig(path string) *Config {
	err := godotenv.Load(path)
	if err != nil {
		return &Config{
			ListenAddr:             ":8080",
			BaseURL:                "localhost:8080",
			DBPath:                 "titan.db",
			RedisAddr:              os.Getenv("REDIS_ADDRESS"),
			SMTPHost:               "smtp.gmail.com",
			SMTPPort:               "587",
			Email:                  os.Getenv("EMAIL"),
			AppPassword:            os.Getenv("APP_PASSWORD"),
			SecretKey:              []byte(os.Getenv("SECRET_KEY")),
			TokenExpiration:        time.Hour,
			RefreshTokenExpiration: time.Hour * 24,
			MaxRequest:             100,
			RefillRate:             time.Second * 10,
			StatusTTL:              time.Hour * 24,
		}
	}

	// Try get and parse data
	tokenExpiration, err := strconv.Atoi(os.Getenv("TOKEN_EXPIRATION"))
	if err != nil {
		// Fallback to default value (60 minutes)
		tokenExpiration = 60
	}

	refreshTokenExpiration, err := strconv.Atoi(os.Getenv("REFRESH_TOKEN_EXPIRATION"))
	if err != nil {
		// Fallback to default value (1440 minutes = 24 hours)
		refreshTokenExpiration = 1440
	}

	maxRequest, err := strconv.Atoi(os.Getenv("MAX_REQUEST"))
	if err != nil {
		maxRequest = 100
	}

	refillRate, err := strconv.Atoi(os.Getenv("REFILL_RATE"))
	if err != nil {
		// Fallback to default value (10 seconds)
		refillRate = 10
	}

	statusTTL, err := strconv.Atoi(os.Getenv("STATUS_TTL_HOURS"))
	if err != nil {
		// Fallback to default value (24 hours)
		statusTTL = 24
	}

	listenAddr := os.Getenv("LISTEN_ADDRESS")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "titan.db"
	}

	return &Config{
		ListenAddr:             listenAddr,
		BaseURL:                os.Getenv("BASE_URL"),
		DBPath:                 dbPath,
		RedisAddr:              os.Getenv("REDIS_ADDRESS"),
		SMTPHost:               os.Getenv("SMTP_HOST"),
		SMTPPort:               os.Getenv("SMTP_PORT"),
		Email:                  os.Getenv("EMAIL"),
		AppPassword:            os.Getenv("APP_PASSWORD"),
		SecretKey:              []byte(os.Getenv("SECRET_KEY")),
		TokenExpiration:        time.Minute * time.Duration(tokenExpiration),
		RefreshTokenExpiration: time.Minute * time.Duration(refreshTokenExpiration),
		MaxRequest:             maxRequest,
		RefillRate:             time.Second * time.Duration(refillRate),
		StatusTTL:              time.Hour * time.Duration(statusTTL),
	}
}
