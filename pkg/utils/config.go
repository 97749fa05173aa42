package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Review   ReviewConfig
	OpenAI   OpenAIConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type JWTConfig struct {
	Secret string
}

// ReviewConfig holds the trust-engine knobs.
type ReviewConfig struct {
	PendingHours    int     // pending reviews older than this get auto-approved
	SweepSchedule   string  // cron expression for the auto-approval sweep
	WeightNeutral   float64 // bonus for long but emotionally neutral text
	WeightDetailed  float64 // bonus for detailed text
	WeightAnonymous float64 // discount for anonymous submitters
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	TimeoutSeconds int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("REVIEW_PENDING_HOURS", 24)
	viper.SetDefault("REVIEW_SWEEP_SCHEDULE", "@hourly")
	viper.SetDefault("REVIEW_WEIGHT_NEUTRAL", 1.2)
	viper.SetDefault("REVIEW_WEIGHT_DETAILED", 1.5)
	viper.SetDefault("REVIEW_WEIGHT_NEW_USER", 0.5)
	viper.SetDefault("OPENAI_REVIEW_MODEL", "gpt-3.5-turbo")
	viper.SetDefault("OPENAI_TIMEOUT_SECONDS", 10)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Review: ReviewConfig{
			PendingHours:    viper.GetInt("REVIEW_PENDING_HOURS"),
			SweepSchedule:   viper.GetString("REVIEW_SWEEP_SCHEDULE"),
			WeightNeutral:   viper.GetFloat64("REVIEW_WEIGHT_NEUTRAL"),
			WeightDetailed:  viper.GetFloat64("REVIEW_WEIGHT_DETAILED"),
			WeightAnonymous: viper.GetFloat64("REVIEW_WEIGHT_NEW_USER"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         viper.GetString("OPENAI_API_KEY"),
			Model:          viper.GetString("OPENAI_REVIEW_MODEL"),
			TimeoutSeconds: viper.GetInt("OPENAI_TIMEOUT_SECONDS"),
		},
	}

	return config, nil
}
