package config

import (
	"os"
	"strconv"
)

type Config struct {
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	ValkeyAddr     string
	JWTSecret      string
	DeviceHashSalt string
	ServerPort     string
	TickRate       int
	TicketTTLSec   int
}

func Load() *Config {
	return &Config{
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "partyquiz"),
		ValkeyAddr:     getEnv("VALKEY_ADDR", "localhost:6379"),
		JWTSecret:      getEnv("JWT_SECRET", "super-secret-key-change-me"),
		DeviceHashSalt: getEnv("DEVICE_HASH_SALT", "device-salt-change-me"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		TickRate:       getEnvInt("GAME_TICK_RATE", 20),
		TicketTTLSec:   getEnvInt("REJOIN_TICKET_TTL", 60),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
