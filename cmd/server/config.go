package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	BufferSize           int           `env:"BUFFER_SIZE,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,required=true"`
	HealthInterval       time.Duration `env:"HEALTH_INTERVAL,default=30s"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	SearchLimit          int           `env:"SEARCH_LIMIT,default=50"`
	RoomCreateAttempts   int           `env:"ROOM_CREATE_ATTEMPTS,default=5"`
	AuthSecret           string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	TranslateEndpoint    string        `env:"TRANSLATE_ENDPOINT,required=true"`
	TranslateAPIKey      string        `env:"TRANSLATE_API_KEY"`
	TranslateTimeout     time.Duration `env:"TRANSLATE_TIMEOUT,default=10s"`
	SupportedLanguages   string        `env:"SUPPORTED_LANGUAGES"`
}
