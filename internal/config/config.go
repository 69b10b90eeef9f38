package config

import (
	"fmt"
	"os"

	"github.com/go-yaml/yaml"

	"github.com/vessel-net/vessel"
)

type Config struct {
	NodeInfo NodeInfo `yaml:"nodeInfo"`
	Server   Server   `yaml:"server"`
}

type NodeInfo struct {
	FQDN        string `yaml:"fqdn"`
	URL         string `yaml:"url"`
	PrivateKey  string `yaml:"privatekey"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	// ---
	Address string
}

type Server struct {
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	TokenSecret   string `yaml:"tokenSecret"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	address, err := vessel.PrivKeyToAddr(config.NodeInfo.PrivateKey)
	if err != nil {
		return Config{}, fmt.Errorf("failed to derive node address: %w", err)
	}
	config.NodeInfo.Address = address

	if config.NodeInfo.URL == "" {
		config.NodeInfo.URL = "https://" + config.NodeInfo.FQDN
	}

	return config, nil
}
