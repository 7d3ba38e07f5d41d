package annotator

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/sashabaranov/go-openai"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var promptTemplates *template.Template
var promptLoadError error

func init() {
	// Load prompt templates during package initialization
	promptTemplates, promptLoadError = template.ParseFS(promptFS, "prompts/*.tmpl")
	if promptLoadError != nil {
		promptLoadError = fmt.Errorf("failed to load prompt templates: %w", promptLoadError)
	}
}

// itemTemplates maps a target item type to its system and user template names.
var itemTemplates = map[string][2]string{
	ItemTypeBWSTuples: {"bws_system.tmpl", "bws_user.tmpl"},
}

// Prompt holds the rendered instruction text for one item.
type Prompt struct {
	System string
	User   string
}

type promptData struct {
	Domain string
	Item   string
}

// SupportedItemTypes returns the item types a prompt can be rendered for.
func SupportedItemTypes() []string {
	types := make([]string, 0, len(itemTemplates))
	for t := range itemTemplates {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ValidateItemType returns ErrUnsupportedItemType for item types without templates.
func ValidateItemType(itemType string) error {
	if _, ok := itemTemplates[itemType]; !ok {
		return fmt.Errorf("%w: %q should be one of %v", ErrUnsupportedItemType, itemType, SupportedItemTypes())
	}
	return nil
}

// RenderPrompt fills the item type's templates with the domain and item text.
func RenderPrompt(itemType, domain, item string) (Prompt, error) {
	if err := ValidateItemType(itemType); err != nil {
		return Prompt{}, err
	}
	if promptLoadError != nil {
		return Prompt{}, promptLoadError
	}

	names := itemTemplates[itemType]
	data := promptData{Domain: domain, Item: item}

	system, err := execTemplate(names[0], data)
	if err != nil {
		return Prompt{}, err
	}
	user, err := execTemplate(names[1], data)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{System: system, User: user}, nil
}

func execTemplate(name string, data promptData) (string, error) {
	var sb strings.Builder
	if err := promptTemplates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template %s: %w", name, err)
	}
	return sb.String(), nil
}

// BuildMessages lays out the prompt in the message format the model expects.
func BuildMessages(format MessageFormat, p Prompt) []openai.ChatCompletionMessage {
	if format == FormatContentParts {
		return []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleSystem,
				MultiContent: []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: p.System}},
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: p.User}},
			},
		}
	}

	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: p.System},
		{Role: openai.ChatMessageRoleUser, Content: p.User},
	}
}

// BuildPrompt renders the prompt for an item and formats it for the given model.
func BuildPrompt(spec ModelSpec, itemType, domain, item string) ([]openai.ChatCompletionMessage, error) {
	p, err := RenderPrompt(itemType, domain, item)
	if err != nil {
		return nil, err
	}
	return BuildMessages(spec.Format, p), nil
}

// MessageText returns the text carried by a message regardless of its layout.
func MessageText(msg openai.ChatCompletionMessage) string {
	if len(msg.MultiContent) == 0 {
		return msg.Content
	}
	var sb strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
