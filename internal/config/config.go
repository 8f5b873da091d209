// /internal/config/config.go
package config

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN,required"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	// YouTubeProxy optionally routes YouTube API traffic through an
	// http(s):// or socks5:// proxy.
	YouTubeProxy string `env:"YOUTUBE_PROXY"`

	KeepAliveAddr string `env:"KEEPALIVE_ADDR" envDefault:":8080"`
	// KeepAlivePingURL is the public URL the self-pinger hits every five
	// minutes to keep the host awake; empty disables the pinger.
	KeepAlivePingURL string `env:"KEEPALIVE_PING_URL"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal(err)
	}
	return cfg
}
