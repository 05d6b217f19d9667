package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// Best effort, the token usually comes from the real environment.
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("database_path", "DATABASE_PATH")
		viper.BindEnv("poll_interval_seconds", "POLL_INTERVAL_SECONDS")
		viper.BindEnv("candle_interval", "CANDLE_INTERVAL")
		viper.BindEnv("candle_history_size", "CANDLE_HISTORY_SIZE")
		viper.BindEnv("history_window", "HISTORY_WINDOW")
		viper.BindEnv("duplicate_policy", "DUPLICATE_POLICY")

		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("database_path", "./data/pricewatch.db")
		viper.SetDefault("poll_interval_seconds", 29)
		viper.SetDefault("candle_interval", "5")
		viper.SetDefault("candle_history_size", 2)
		viper.SetDefault("history_window", 50)
		viper.SetDefault("duplicate_policy", "reject")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
