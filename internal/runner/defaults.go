package runner

// Builtin kind names for the reference runners this package ships.
const (
	KindManualTrigger  = "manual-trigger"
	KindTimerTrigger   = "timer-trigger"
	KindPollingTrigger = "polling-trigger"
	KindWebhookTrigger = "webhook-trigger"
	KindHTTPPoll       = "http-poll"
	KindExprFilter     = "expr-filter"
	KindAssistantCLI   = "assistant-cli"
	KindOpenAIChat     = "openai-chat"
	KindStdoutSink     = "stdout-sink"
	KindWebhookSink    = "webhook-sink"
)

// RegisterDefaults wires every reference runner this package ships into
// reg under its builtin kind name. Callers that need only a subset, or
// that want to override an adapter, can register kinds individually
// instead of calling this helper.
func RegisterDefaults(reg *Registry) error {
	runners := map[string]Runner{
		KindManualTrigger:  ManualTrigger{},
		KindTimerTrigger:   TimerTrigger{},
		KindPollingTrigger: ItemTrigger{},
		KindWebhookTrigger: ItemTrigger{},
		KindHTTPPoll:       HTTPPollSource{},
		KindExprFilter:     ExprFilter{},
		KindAssistantCLI:   AssistantCLIExecutor{},
		KindOpenAIChat:     OpenAIChatExecutor{},
		KindStdoutSink:     StdoutSink{},
		KindWebhookSink:    WebhookSink{},
	}
	for kind, r := range runners {
		if err := reg.Register(kind, r); err != nil {
			return err
		}
	}
	return nil
}
