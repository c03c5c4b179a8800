package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/posmart/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the inventory server
//	-t string   access token
//	-i int      online check interval in seconds
//	-d string   local database file
//	-g string   worker gateway listen address
//	-o string   asset origin proxied by the gateway
//	-v string   cache version
//	-l string   log level
//
// Flags defined elsewhere (-c/-config) are skipped by flagx.Parse.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.GatewayAddr, "g", cfg.GatewayAddr, "worker gateway address")
	fs.StringVar(&cfg.AssetOrigin, "o", cfg.AssetOrigin, "asset origin")
	fs.StringVar(&cfg.CacheVersion, "v", cfg.CacheVersion, "cache version")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := flagx.Parse(fs, os.Args[1:]); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
