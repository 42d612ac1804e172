package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/diwise/ngsi-ld-client/internal/pkg/application/config"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/auth"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/joho/godotenv"
)

type FlagType int
type FlagMap map[FlagType]string

const (
	configPath FlagType = iota
	envFile

	brokerURL
	tenant
	debugHTTP

	authMode
	authToken
	authServerURL
	clientID
	clientSecret

	outputFormat
	entityType
	query
	lastN
)

func DefaultFlags() FlagMap {
	return FlagMap{
		envFile:      ".env",
		outputFormat: "json",
	}
}

// parseExternalConfig reads command line flags, an optional dotenv file and the
// environment. Values given on the command line take precedence.
func parseExternalConfig(ctx context.Context, flags FlagMap, args []string) (FlagMap, []string, error) {
	fs := flag.NewFlagSet("ngsild-cli", flag.ContinueOnError)

	apply := func(f FlagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	fs.Func("config", "yaml file with broker settings, entities and subscriptions", apply(configPath))
	fs.Func("env", "dotenv file to load before reading the environment (default .env)", apply(envFile))
	fs.Func("broker", "context broker url (NGSI_CB_URL)", apply(brokerURL))
	fs.Func("tenant", "tenant to send requests to (NGSI_TENANT)", apply(tenant))
	fs.Func("o", "output format, json or geojson", apply(outputFormat))
	fs.Func("type", "entity type to query", apply(entityType))
	fs.Func("q", "query expression", apply(query))
	fs.Func("lastN", "number of temporal instances to retrieve", apply(lastN))

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if err := godotenv.Load(flags[envFile]); err != nil && !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("failed to load %s: %w", flags[envFile], err)
	}

	fromEnv := map[FlagType]string{
		brokerURL:     "NGSI_CB_URL",
		tenant:        "NGSI_TENANT",
		debugHTTP:     "NGSI_CB_DEBUG",
		authMode:      "AUTH_MODE",
		authToken:     "AUTH_TOKEN",
		authServerURL: "AUTH_SERVER_URL",
		clientID:      "AUTH_CLIENT_ID",
		clientSecret:  "AUTH_CLIENT_SECRET",
	}

	for f, name := range fromEnv {
		if _, ok := flags[f]; !ok {
			if value := env.GetVariableOrDefault(ctx, name, ""); value != "" {
				flags[f] = value
			}
		}
	}

	return flags, fs.Args(), nil
}

// loadConfig merges the yaml configuration, if any, with the flags
func loadConfig(flags FlagMap) (*config.Config, error) {
	cfg := &config.Config{}

	if path, ok := flags[configPath]; ok && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open configuration file: %w", err)
		}
		defer f.Close()

		cfg, err = config.LoadConfiguration(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	override := func(target *string, f FlagType) {
		if value, ok := flags[f]; ok && value != "" {
			*target = value
		}
	}

	override(&cfg.Broker.URL, brokerURL)
	override(&cfg.Broker.Tenant, tenant)
	override(&cfg.Auth.Mode, authMode)
	override(&cfg.Auth.Token, authToken)
	override(&cfg.Auth.ServerURL, authServerURL)
	override(&cfg.Auth.ClientID, clientID)
	override(&cfg.Auth.ClientSecret, clientSecret)

	if flags[debugHTTP] == "true" {
		cfg.Broker.Debug = true
	}

	if cfg.Broker.URL == "" {
		return nil, fmt.Errorf("no context broker url configured")
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = string(auth.None)
	}

	return cfg, nil
}
