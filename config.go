/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind               string
	databaseURL        string
	logFile            string
	port               int
	prefix             string
	profile            bool
	roomIdleTimeout    time.Duration
	sharedAccessTokens []string
	tlsCert            string
	tlsKey             string
	verbose            bool
	version            bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.roomIdleTimeout < 0 {
		return fmt.Errorf("invalid room idle timeout: %s", c.roomIdleTimeout)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DUETBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "duetbox",
		Short:         "A pair of realtime two-player cooperative minigames, packed in a single modular webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: DUETBOX_BIND)")
	fs.StringVar(&cfg.databaseURL, "database-url", "", "postgres DSN for match records; persistence is disabled when empty (env: DUETBOX_DATABASE_URL)")
	fs.StringVar(&cfg.logFile, "log-file", "", "path to rolling log file; logs to stderr when empty (env: DUETBOX_LOG_FILE)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: DUETBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: DUETBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: DUETBOX_PROFILE)")
	fs.DurationVar(&cfg.roomIdleTimeout, "room-idle-timeout", 60*time.Minute, "time before idle game rooms are ended (env: DUETBOX_ROOM_IDLE_TIMEOUT)")
	fs.StringSliceVar(&cfg.sharedAccessTokens, "shared-access-tokens", nil, "access tokens for the shared control game; open to everyone when empty (env: DUETBOX_SHARED_ACCESS_TOKENS)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: DUETBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: DUETBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: DUETBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: DUETBOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("duetbox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
