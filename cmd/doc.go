// Package cmd provides CLI commands for onionnet services.
//
// # Commands
//
// registry: The relay directory.
//
//	go run ./cmd/registry --addr=:8080
//
// relay: A single relay listening on ports.base_relay + id.
//
//	go run ./cmd/relay --id=1 --registry=http://localhost:8080
//
// user: A single user endpoint listening on ports.base_user + id.
//
//	go run ./cmd/user --id=0 --registry=http://localhost:8080
//
// multiservice: Registry, relays and users in one process.
//
//	go run ./cmd/multiservice --relays=10 --users=2
//
// # Configuration
//
// All commands support YAML configuration files via the --config flag. Flags
// override values from the file. See common.Config for the format.
package cmd
