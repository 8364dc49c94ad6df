package widgetbridge

import "github.com/embedkit/widgetbridge/internal/adapter"

// AdapterConfig parameterizes the generated compatibility shim.
type AdapterConfig = adapter.Config

// Intent handling modes for navigation intents delivered into the shim.
const (
	IntentPrompt = adapter.IntentPrompt
	IntentIgnore = adapter.IntentIgnore
)

// DefaultShimTimeoutMs is the correlated-call deadline baked into the shim
// when the config leaves it unset.
const DefaultShimTimeoutMs = adapter.DefaultTimeoutMs

// GenerateShim renders the foreign-convention script with the resolved
// config embedded as a literal JSON object.
func GenerateShim(cfg AdapterConfig) (string, error) {
	return adapter.GenerateScript(cfg)
}

// WrapMarkup injects the generated shim into widget markup so it runs before
// widget code. Disabled configs return the markup unchanged.
func WrapMarkup(markup string, cfg AdapterConfig) (string, error) {
	return adapter.WrapMarkup(markup, cfg)
}
