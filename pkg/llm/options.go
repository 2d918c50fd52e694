// Functional options for per-call generation parameters.
//
// Defaults come from config.yaml; prompt files and callers override
// them per request through these options.
package llm

// GenerateOptions collects per-request generation parameters.
type GenerateOptions struct {
	// Model overrides the configured model identifier.
	Model string

	// Temperature controls sampling randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens caps the response length.
	MaxTokens int

	// Format requests a response format; "json_object" forces JSON output.
	Format string
}

// GenerateOption mutates GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithModel overrides the model for a single request.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// WithFormat requests a response format ("json_object" for strict JSON).
func WithFormat(format string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Format = format
	}
}

// ApplyOptions собирает GenerateOptions из смешанного списка opts.
//
// Не-GenerateOption значения (например, []tools.ToolDefinition)
// игнорируются — их разбирает адаптер провайдера.
func ApplyOptions(opts ...any) GenerateOptions {
	var result GenerateOptions
	for _, opt := range opts {
		if genOpt, ok := opt.(GenerateOption); ok {
			genOpt(&result)
		}
	}
	return result
}
