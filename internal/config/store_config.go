package config

import (
	"os"
	"path/filepath"
)

const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type StoreConfig interface {
	GetStoreKind() string
	GetSessionFile() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreKind() string {
	return GetEnv("ACADEMY_STORE", StoreFile)
}

func (Store) GetSessionFile() string {
	if file := os.Getenv("ACADEMY_SESSION_FILE"); file != "" {
		return file
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".academy-session.json"
	}
	return filepath.Join(dir, "academy", "session.json")
}

func (Store) GetRedisAddr() string {
	return GetEnv("ACADEMY_REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPrefix() string {
	return GetEnv("ACADEMY_REDIS_PREFIX", "academy:session:")
}
