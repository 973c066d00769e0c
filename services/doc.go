/*
# onionnet Services Package

The services package exposes the onion routing core over HTTP.

## Components

1. **Relay** (`relay.go`)
  - Generates its key pair at construction and registers the public half with the directory in Start
  - Peels one layer per inbound packet and forwards the inner payload, waiting for the result
  - Endpoints:
  - `GET /status` - Liveness
  - `GET /getLastReceivedEncryptedMessage` - Last inbound packet, base64 or null
  - `GET /getLastReceivedDecryptedMessage` - Last peeled payload, base64 or null
  - `GET /getLastMessageDestination` - Last next-hop address or null
  - `GET /getPrivateKey` - Relay private key, only when Debug is set
  - `POST /message` - Inbound packet

2. **User** (`user.go`)
  - Builds packets for outgoing messages and receives delivered plaintext
  - Endpoints:
  - `GET /status` - Liveness
  - `GET /getLastReceivedMessage`, `GET /getLastSentMessage`, `GET /getLastCircuit`
  - `POST /message` - Final delivery
  - `POST /sendMessage` - Wrap and send `{message, destinationUserId}`

## Errors

Failed requests answer with `{"error": ..., "class": ...}` where class is one of
precondition (400), crypto (500), delivery (502), directory (503) or internal (500).
The class is that of the hop where the failure started: when the middle relay cannot
open its layer, the entry relay and the sender both answer crypto, not delivery. A
sender can therefore tell a tampered or misrouted packet from an unreachable hop.

## Metrics

Counters and histograms are registered with the default Prometheus registry under
the `onionnet` namespace and served by the metrics listener of api/httpserver.
*/
package services
