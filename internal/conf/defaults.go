// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "roulette-client")

	viper.SetDefault("backend.url", "https://roulette-ai-mvp-production.up.railway.app")
	viper.SetDefault("backend.apiprefix", "")
	viper.SetDefault("backend.timeout", 15*time.Second)
	viper.SetDefault("backend.historylimit", 50)
	viper.SetDefault("backend.sessionid", "")
	viper.SetDefault("backend.snapshotcachettl", 5*time.Second)
	viper.SetDefault("backend.useragent", "roulette-client")
	viper.SetDefault("backend.ratelimit", 0.0)

	viper.SetDefault("session.windowsize", 50)

	viper.SetDefault("webserver.enabled", false)
	viper.SetDefault("webserver.listen", "127.0.0.1:8080")
	viper.SetDefault("webserver.allowedorigins", []string{})

	viper.SetDefault("preferences.backend", "sqlite")
	viper.SetDefault("preferences.sqlite.path", "roulette-client.db")
	viper.SetDefault("preferences.redis.addr", "localhost:6379")
	viper.SetDefault("preferences.redis.password", "")
	viper.SetDefault("preferences.redis.db", 0)
	viper.SetDefault("preferences.redis.prefix", "roulette-client:pref:")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "roulette")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.retain", false)
	viper.SetDefault("mqtt.qos", 0)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
	viper.SetDefault("logging.timezone", "Local")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "127.0.0.1:8090")
}
