package shared

// ProviderType identifies a store backend.
type ProviderType string

const (
	ProviderPostgres ProviderType = "postgres"
	ProviderMemory   ProviderType = "memory"
	// Add more store backends here as you implement them
)

func (p ProviderType) String() string {
	return string(p)
}

func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderPostgres, ProviderMemory:
		return true
	default:
		return false
	}
}

// ProviderConfig is the JSON configuration for building a store provider.
type ProviderConfig struct {
	Provider     ProviderType           `json:"provider"`
	ExtraDetails map[string]interface{} `json:"extra_details"`
}
