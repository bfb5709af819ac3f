package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/internal/server"
	"github.com/matzehuels/orrery/pkg/catalog"
	"github.com/matzehuels/orrery/pkg/catalog/mongo"
)

// Environment variables read by the serve command. Flags take precedence.
const (
	envAddr      = "ORRERY_ADDR"
	envOrigins   = "ORRERY_ALLOWED_ORIGINS"
	envRedisURL  = "ORRERY_REDIS_URL"
	envMongoURI  = "ORRERY_MONGO_URI"
	envMongoDB   = "ORRERY_MONGO_DB"
	envDotenvOff = "ORRERY_NO_DOTENV"
)

// serveFlags are the options of the serve command.
type serveFlags struct {
	addr    string
	origins []string
	rps     float64
	burst   int
	mongo   string
}

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve the layout API over HTTP.

Settings are read from flags, then from the environment (a .env file in the
working directory is loaded first):

  ORRERY_ADDR              listen address (default :8080)
  ORRERY_ALLOWED_ORIGINS   comma-separated CORS origins (default: any)
  ORRERY_REDIS_URL         share the layout cache through redis
  ORRERY_MONGO_URI         serve catalogs stored in MongoDB
  ORRERY_MONGO_DB          MongoDB database (default orrery)
  ORRERY_NO_DOTENV         skip loading .env

MongoDB catalogs shadow the --catalogs directory, which shadows the built-ins.`,
		Example: `  orrery serve
  orrery serve --addr :9000 --origins https://orrery.example
  ORRERY_MONGO_URI=mongodb://localhost:27017 orrery serve --redis redis://localhost:6379/0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default "+server.DefaultAddr+")")
	cmd.Flags().StringSliceVar(&flags.origins, "origins", nil, "allowed CORS origins")
	cmd.Flags().Float64Var(&flags.rps, "rps", server.DefaultRequestsPerSecond, "requests per second per client (negative disables)")
	cmd.Flags().IntVar(&flags.burst, "burst", server.DefaultBurst, "request burst per client")
	cmd.Flags().StringVar(&flags.mongo, "mongo", "", "MongoDB URI for stored catalogs")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, flags serveFlags) error {
	ctx := cmd.Context()

	if os.Getenv(envDotenvOff) == "" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			c.Logger.Warn("could not load .env", "error", err)
		}
	}
	applyServeEnv(cmd, &flags)
	if c.redisURL == "" {
		c.redisURL = os.Getenv(envRedisURL)
	}

	svc, err := c.newService(ctx)
	if err != nil {
		return fmt.Errorf("initialize service: %w", err)
	}
	defer svc.Close()

	store, closeStore, err := c.serveStore(ctx, flags.mongo)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := server.New(svc, store, server.Options{
		Addr:              flags.addr,
		AllowedOrigins:    flags.origins,
		RequestsPerSecond: flags.rps,
		Burst:             flags.burst,
		Logger:            c.Logger,
	})
	if err != nil {
		return err
	}

	printInfo("Serving on %s", StyleHighlight.Render(displayAddr(flags.addr)))
	return srv.ListenAndServe(ctx)
}

// applyServeEnv fills flags the user did not set from the environment.
func applyServeEnv(cmd *cobra.Command, flags *serveFlags) {
	if !cmd.Flags().Changed("addr") {
		flags.addr = os.Getenv(envAddr)
	}
	if !cmd.Flags().Changed("origins") {
		if v := os.Getenv(envOrigins); v != "" {
			flags.origins = splitList(v)
		}
	}
	if !cmd.Flags().Changed("mongo") {
		flags.mongo = os.Getenv(envMongoURI)
	}
}

// serveStore chains MongoDB, when configured, before the local catalogs.
func (c *CLI) serveStore(ctx context.Context, mongoURI string) (catalog.Store, func(), error) {
	local := c.catalogStore()
	if mongoURI == "" {
		return local, func() {}, nil
	}
	db := os.Getenv(envMongoDB)
	if db == "" {
		db = mongo.DefaultDatabase
	}
	ms, err := mongo.Connect(ctx, mongoURI, db)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	c.Logger.Info("serving catalogs from mongo", "database", db)
	return catalog.Chain{ms, local}, func() {
		if err := ms.Close(context.Background()); err != nil {
			c.Logger.Warn("mongo disconnect failed", "error", err)
		}
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func displayAddr(addr string) string {
	if addr == "" {
		addr = server.DefaultAddr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
