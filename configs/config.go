package config

import (
	"os"
	"strconv"
)

type S3 struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type Bot struct {
	Token     string
	ChannelID string
	APIURL    string
}

type Config struct {
	Port            string
	DBDriver        string
	DBURI           string
	RedisURI        string
	StorageDriver   string
	UploadDir       string
	PublicBaseURL   string
	PublicDir       string
	FrontendURL     string
	Discord         OAuthProvider
	Google          OAuthProvider
	S3              S3
	Bot             Bot
	SecretKey       string
	CookieName      string
	ServiceKey      string
	DraftTTLHours   int
	HistoryDays     int
	SessionTTLHours int
}

func LoadConfig() *Config {
	return &Config{
		Port:          getEnv("PORT", "3000"),
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBURI:         getEnv("DB_URI", "beardedvibes.db"),
		RedisURI:      getEnv("REDIS_URI", ""),
		StorageDriver: getEnv("STORAGE_DRIVER", "disk"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		PublicDir:     getEnv("PUBLIC_DIR", "public"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
		Discord: OAuthProvider{
			ClientID:     getEnv("DISCORD_CLIENT_ID", ""),
			ClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("DISCORD_REDIRECT_URI", ""),
		},
		Google: OAuthProvider{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		},
		S3: S3{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "auto"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
		Bot: Bot{
			Token:     getEnv("DISCORD_BOT_TOKEN", ""),
			ChannelID: getEnv("DISCORD_CHANNEL_ID", ""),
			APIURL:    getEnv("API_URL", "http://localhost:3000"),
		},
		SecretKey:       getEnv("SECRET_KEY", ""),
		CookieName:      getEnv("COOKIE_NAME", "bv_session"),
		ServiceKey:      getEnv("SERVICE_KEY", ""),
		DraftTTLHours:   getEnvInt("DRAFT_TTL_HOURS", 168),
		HistoryDays:     getEnvInt("HISTORY_RETENTION_DAYS", 90),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 168),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
