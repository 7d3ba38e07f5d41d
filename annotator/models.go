package annotator

import (
	"fmt"
)

// MessageFormat selects how message content is laid out for a model family.
type MessageFormat int

const (
	// FormatFlat sends content as a plain string.
	FormatFlat MessageFormat = iota
	// FormatContentParts sends content as a list of typed content blocks.
	FormatContentParts
)

func (f MessageFormat) String() string {
	switch f {
	case FormatFlat:
		return "flat"
	case FormatContentParts:
		return "content_parts"
	default:
		return "unknown"
	}
}

// ModelSpec describes a supported model.
type ModelSpec struct {
	Name    string        // Short name used on the command line and in output file names
	ModelID string        // Provider identifier sent to the backend
	Format  MessageFormat // Message layout expected by the model's chat template
}

var modelRegistry = []ModelSpec{
	{Name: "EuroLLM", ModelID: "utter-project/EuroLLM-9B-Instruct", Format: FormatFlat},
	{Name: "Gemma-3-1b", ModelID: "google/gemma-3-1b-it", Format: FormatContentParts},
	{Name: "Gemma-3-4b", ModelID: "google/gemma-3-4b-it", Format: FormatContentParts},
	{Name: "Llama-3.1-8B", ModelID: "meta-llama/Meta-Llama-3.1-8B-Instruct", Format: FormatFlat},
	{Name: "Llama-3.2-3B", ModelID: "meta-llama/Llama-3.2-3B-Instruct", Format: FormatFlat},
	{Name: "Mistral", ModelID: "mistralai/Ministral-8B-Instruct-2410", Format: FormatFlat},
}

// ModelNames returns the supported short model names in registry order.
func ModelNames() []string {
	names := make([]string, len(modelRegistry))
	for i, spec := range modelRegistry {
		names[i] = spec.Name
	}
	return names
}

// ResolveModel maps a short model name to its spec.
func ResolveModel(name string) (ModelSpec, error) {
	for _, spec := range modelRegistry {
		if spec.Name == name {
			return spec, nil
		}
	}
	return ModelSpec{}, fmt.Errorf("%w: %q (expected one of %v)", ErrUnknownModel, name, ModelNames())
}
