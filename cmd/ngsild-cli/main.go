package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/diwise/ngsi-ld-client/internal/pkg/application/config"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/auth"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/client"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/geojson"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types"
	"github.com/diwise/ngsi-ld-client/pkg/ngsild/types/entities"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/fatih/color"
)

const (
	appName string = "ngsild-cli"
)

const usage string = `usage: ngsild-cli [flags] <command> [args]

commands:
  get <entity id>        retrieve a single entity
  query                  query entities, filtered with -type and -q
  upsert                 upsert the entities in the -config file
  subscribe              create the subscriptions in the -config file
  delete <entity id>...  delete entities in a batch
  temporal <entity id>   retrieve the temporal evolution of an entity
`

var (
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
)

func main() {
	appVersion := buildinfo.SourceVersion()

	ctx, log, cleanup := o11y.Init(context.Background(), appName, appVersion, "json")
	defer cleanup()

	flags, args, err := parseExternalConfig(ctx, DefaultFlags(), os.Args[1:])
	if err != nil {
		log.Error("failed to parse configuration", "err", err.Error())
		os.Exit(2)
	}

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		log.Error("invalid configuration", "err", err.Error())
		os.Exit(1)
	}

	cbClient, err := newClient(cfg)
	if err != nil {
		log.Error("failed to create context broker client", "err", err.Error())
		os.Exit(1)
	}

	err = run(ctx, cbClient, cfg, flags, args, os.Stdout)
	if err != nil {
		failure.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newClient(cfg *config.Config) (client.ContextBrokerClient, error) {
	tp, err := auth.New(cfg.Auth.TokenProviderConfig())
	if err != nil {
		return nil, err
	}

	linkContext := cfg.Broker.Context
	if linkContext == "" {
		linkContext = types.CoreContextURL
	}

	return client.NewContextBrokerClient(cfg.Broker.URL,
		client.WithTokenProvider(tp),
		client.Tenant(cfg.Broker.Tenant),
		client.LinkContext(linkContext),
		client.Debug(strconv.FormatBool(cfg.Broker.Debug)),
		client.TolerateExistingSubscriptions(),
	), nil
}

func run(ctx context.Context, c client.ContextBrokerClient, cfg *config.Config, flags FlagMap, args []string, out io.Writer) error {
	headers := cfg.Broker.RequestHeaders()

	switch args[0] {
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("get requires an entity id")
		}

		e, err := c.RetrieveEntity(ctx, args[1], headers)
		if err != nil {
			return err
		}

		return write(out, flags[outputFormat], e)

	case "query":
		params := []client.RequestDecoratorFunc{}
		if t := flags[entityType]; t != "" {
			params = append(params, client.Types([]string{t}))
		}
		if q := flags[query]; q != "" {
			params = append(params, client.Query(q))
		}

		found := []*entities.Entity{}
		_, err := client.ForEachEntity(ctx, c, client.DefaultPageSize, func(e *entities.Entity) error {
			found = append(found, e)
			return nil
		}, headers, params...)
		if err != nil {
			return err
		}

		return write(out, flags[outputFormat], found...)

	case "upsert":
		batch := make([]*entities.Entity, 0, len(cfg.Entities))
		for _, ec := range cfg.Entities {
			e, err := ec.Entity()
			if err != nil {
				return err
			}
			batch = append(batch, e)
		}

		if len(batch) == 0 {
			return fmt.Errorf("no entities configured")
		}

		result, err := c.BatchUpsert(ctx, batch, headers)
		if err != nil {
			return err
		}

		for _, e := range result.Errors {
			failure.Fprintf(out, "failed to upsert %s: %s\n", e.EntityID, e.Error.Title)
		}
		success.Fprintf(out, "upserted %d entities\n", len(batch)-len(result.Errors))

	case "subscribe":
		for _, sc := range cfg.Subscriptions {
			result, err := c.CreateSubscription(ctx, sc.Subscription(), headers)
			if err != nil {
				return err
			}

			if result.AlreadyExisted() {
				fmt.Fprintf(out, "subscription %s already exists\n", result.Location())
				continue
			}
			success.Fprintf(out, "created subscription %s\n", result.Location())
		}

	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("delete requires at least one entity id")
		}

		result, err := c.BatchDelete(ctx, args[1:], headers)
		if err != nil {
			return err
		}

		for _, e := range result.Errors {
			failure.Fprintf(out, "failed to delete %s: %s\n", e.EntityID, e.Error.Title)
		}
		success.Fprintf(out, "deleted %d entities\n", len(args)-1-len(result.Errors))

	case "temporal":
		if len(args) != 2 {
			return fmt.Errorf("temporal requires an entity id")
		}

		params := []client.RequestDecoratorFunc{}
		if n := flags[lastN]; n != "" {
			count, err := strconv.ParseUint(n, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid lastN %q: %w", n, err)
			}
			params = append(params, client.LastN(count))
		}

		e, err := c.RetrieveTemporalEvolutionOfEntity(ctx, args[1], headers, params...)
		if err != nil {
			return err
		}

		return write(out, "json", e)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}

	return nil
}

func write(out io.Writer, format string, found ...*entities.Entity) error {
	var v any

	switch format {
	case "geojson":
		fc := geojson.NewFeatureCollection()
		for _, e := range found {
			if err := fc.Add(e); err != nil {
				return err
			}
		}
		v = fc
	case "json", "":
		if len(found) == 1 {
			v = found[0]
		} else {
			v = found
		}
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
