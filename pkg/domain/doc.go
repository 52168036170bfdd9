// Package domain holds the value types shared between the realtime client,
// its collaborators and the API surfaces.
package domain
