package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/flowlayer/flowengine/internal/domain"
)

// OpenAIChatExecutor renders config["prompt"] as a template, substituting
// "{{key}}" placeholders from a Context input (other input variants supply
// no variables and are not included in the prompt), and calls the OpenAI
// chat completion API, returning the trimmed reply as Text.
// Grounded on the config>context>default API-key resolution priority and
// defaulted model/fields of an OpenAI completion node executor.
type OpenAIChatExecutor struct {
	DefaultAPIKey string
	Client        *openai.Client
}

func (e OpenAIChatExecutor) Run(ctx context.Context, config map[string]any, input domain.NodeOutput) (domain.NodeOutput, error) {
	promptTemplate, _ := config["prompt"].(string)
	if promptTemplate == "" {
		return domain.Empty, fmt.Errorf("openai-chat requires config[\"prompt\"]")
	}

	model, _ := config["model"].(string)
	if model == "" {
		model = openai.GPT4o
	}

	apiKey, _ := config["api_key"].(string)
	vars := domain.AsContext(input)
	if apiKey == "" {
		apiKey = vars["openai_api_key"]
	}
	if apiKey == "" {
		apiKey = e.DefaultAPIKey
	}
	if apiKey == "" {
		return domain.Empty, fmt.Errorf("openai-chat: no API key in config, context or default")
	}

	prompt := renderTemplate(promptTemplate, vars)

	client := e.Client
	if client == nil {
		client = openai.NewClient(apiKey)
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return domain.Empty, domain.NewEngineError(domain.ErrNodeRun, "openai-chat: API call failed", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Empty, domain.NewEngineError(domain.ErrNodeRun, "openai-chat: no choices returned", nil)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	return domain.NewText(content, &domain.ExecutionResult{Turns: 1, Duration: elapsed.Seconds()}), nil
}

// renderTemplate substitutes "{{key}}" placeholders with vars[key],
// grounded on the original prompt-template renderer this engine's
// Context-to-prompt rendering is modeled on, generalized from a single
// caller's fixed template to any runner that needs variable substitution.
func renderTemplate(template string, vars map[string]string) string {
	result := template
	for k, v := range vars {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}
