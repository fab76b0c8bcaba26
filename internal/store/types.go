package store

import "github.com/tradesparky/pricewatch/internal/store/shared"

// Re-export shared types for convenience
type ProviderType = shared.ProviderType
type ProviderConfig = shared.ProviderConfig

// Re-export constants
const (
	ProviderPostgres = shared.ProviderPostgres
	ProviderMemory   = shared.ProviderMemory
)
