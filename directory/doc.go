// Package directory is the relay registrar.
//
// A single trusted Registry maps relay ids to base64 SPKI public keys,
// first writer wins. Registrations are validated (the key must parse) but not
// authenticated. Registry exposes the reference HTTP API:
//
//   - GET /status - liveness, replies "live"
//   - POST /registerNode - {"nodeId": 1, "pubKey": "..."}; 400 on missing field, 409 on duplicate id
//   - GET /getNodeRegistry - {"nodes": [{"nodeId": 1, "pubKey": "..."}]}
//
// Client implements the same Directory interface over HTTP, and Snapshot turns a
// directory listing into the relay identities the onion builder consumes.
//
// A Store may back the registry. InMemoryStore is the default; PostgresStore is
// available for deployments that want registrations to survive a registry restart.
package directory
