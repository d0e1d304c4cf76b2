package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Postgres struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p Postgres) ConnStr() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s", p.Host, p.User, p.Password, p.DBName, p.Port, p.SSLMode)
}

type Nats struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Stream           string `mapstructure:"stream"`
	DecisionsSubject string `mapstructure:"decisionsSubject"`
}

func (n Nats) ConnStr() string {
	return fmt.Sprintf("nats://%s:%s", n.Host, n.Port)
}

// Enabled reports whether decision events should be published at all.
// Leaving the host empty in config turns the publisher off.
func (n Nats) Enabled() bool {
	return n.Host != ""
}

type DeepSeek struct {
	BaseURL        string `mapstructure:"baseUrl"`
	APIKey         string `mapstructure:"apiKey"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
}

func (d *DeepSeek) Timeout() time.Duration {
	if d.TimeoutSeconds < 1 {
		return 30 * time.Second
	}

	return time.Duration(d.TimeoutSeconds) * time.Second
}

type Server struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Config struct {
	Postgres Postgres `mapstructure:"postgres"`
	Nats     Nats     `mapstructure:"nats"`
	DeepSeek DeepSeek `mapstructure:"deepseek"`
	Server   Server   `mapstructure:"server"`
}

func LoadConfig() *Config {
	viper.SetConfigFile("./config/config.yaml")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatal(err)
	}

	return &config
}
