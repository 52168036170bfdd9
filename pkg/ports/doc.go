// Package ports defines the interfaces between the realtime client and the
// adapters that back it (transports, event bus, storage, metrics).
package ports
