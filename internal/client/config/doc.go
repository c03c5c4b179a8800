// Package config loads runtime configuration for the posmart client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c/-config or the
//     POSMART_CONFIG variable.
//  3. POSMART_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the inventory server
//	-t string   access token
//	-i int      online status check interval (seconds)
//	-d string   local database file
//	-g string   worker gateway address
//	-o string   asset origin
//	-v string   cache version
//	-l string   log level
//
// # JSON schema
//
// Intervals accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "posmart.db",
//	  "cache_version": "v2",
//	  "s3_bucket": "pos-archive"
//	}
package config
