package backend

import (
	"fmt"
	"time"
)

// Config holds what backend creation needs. The concrete implementation is
// selected in the command entrypoints to keep this package import-light.
type Config struct {
	Type Type

	// GraphQL specific
	GraphQLEndpoint string
	GraphQLTimeout  time.Duration
	AuthToken       string
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == TypeGraphQL && c.GraphQLEndpoint == "" {
		return fmt.Errorf("GraphQL endpoint is required for graphql backend")
	}
	return nil
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{TypeGraphQL, TypeMemory}
}
