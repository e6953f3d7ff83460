package domain

import "strings"

// OutputKind is the discriminator of the NodeOutput tagged union.
type OutputKind string

const (
	OutputItems   OutputKind = "items"
	OutputText    OutputKind = "text"
	OutputContext OutputKind = "context"
	OutputEmpty   OutputKind = "empty"
	OutputFailed  OutputKind = "failed"
)

// ContentItem is a single record flowing through an Items output.
type ContentItem struct {
	Title     string
	URL       string
	Summary   string
	Timestamp *int64 // unix seconds, optional
	Image     string // optional
}

// ExecutionResult is provenance attached to a Text output, typically
// produced by an executor runner that shells out to an external process.
type ExecutionResult struct {
	Cost     float64
	Turns    int
	Duration float64 // seconds
}

// NodeOutput is the tagged union of values that flow on edges between
// nodes. Exactly one of the payload fields is meaningful for a given Kind.
type NodeOutput struct {
	Kind    OutputKind
	Items   []ContentItem
	Text    string
	Result  *ExecutionResult
	Context map[string]string
}

// Empty is the NodeOutput carrying no meaningful payload.
var Empty = NodeOutput{Kind: OutputEmpty}

// Failed is the sentinel meaning "this upstream failed; skip me".
var Failed = NodeOutput{Kind: OutputFailed}

// NewItems builds an Items output.
func NewItems(items []ContentItem) NodeOutput {
	return NodeOutput{Kind: OutputItems, Items: items}
}

// NewText builds a Text output, with optional provenance.
func NewText(text string, result *ExecutionResult) NodeOutput {
	return NodeOutput{Kind: OutputText, Text: text, Result: result}
}

// NewContext builds a Context output.
func NewContext(vars map[string]string) NodeOutput {
	return NodeOutput{Kind: OutputContext, Context: vars}
}

// ItemFormatter renders a ContentItem as a line of text, used by AsText
// when projecting an Items output. The zero value of formatter is
// DefaultItemFormatter.
type ItemFormatter func(ContentItem) string

// DefaultItemFormatter renders "title — url" when a URL is present, else
// just the title.
func DefaultItemFormatter(item ContentItem) string {
	if item.URL != "" {
		return item.Title + " — " + item.URL
	}
	return item.Title
}

// Merge combines a bag of parent outputs into one NodeOutput for a
// downstream node, following the rules of the NodeOutput algebra:
//  1. an empty input list merges to Empty;
//  2. any Failed present merges to Failed (short-circuit);
//  3. otherwise the richest present variant wins, precedence
//     Items > Text > Context > Empty, and same-variant payloads are
//     combined (Items concatenates, Text joins with "\n" and drops
//     ExecutionResult, Context folds left-to-right last-writer-wins).
func Merge(outputs []NodeOutput) NodeOutput {
	if len(outputs) == 0 {
		return Empty
	}
	for _, o := range outputs {
		if o.Kind == OutputFailed {
			return Failed
		}
	}

	var items []ContentItem
	var texts []string
	ctx := map[string]string{}
	haveItems, haveText, haveContext := false, false, false

	for _, o := range outputs {
		switch o.Kind {
		case OutputItems:
			haveItems = true
			items = append(items, o.Items...)
		case OutputText:
			haveText = true
			texts = append(texts, o.Text)
		case OutputContext:
			haveContext = true
			for k, v := range o.Context {
				ctx[k] = v
			}
		case OutputEmpty:
			// contributes nothing
		}
	}

	switch {
	case haveItems:
		return NewItems(items)
	case haveText:
		return NewText(strings.Join(texts, "\n"), nil)
	case haveContext:
		return NewContext(ctx)
	default:
		return Empty
	}
}

// AsText projects a NodeOutput to a plain string. Items are rendered one
// per line via formatter (DefaultItemFormatter if nil); Text returns its
// payload directly; Context renders as "key=value" lines; Empty/Failed
// return "".
func AsText(o NodeOutput, formatter ItemFormatter) string {
	if formatter == nil {
		formatter = DefaultItemFormatter
	}
	switch o.Kind {
	case OutputItems:
		lines := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, formatter(it))
		}
		return strings.Join(lines, "\n")
	case OutputText:
		return o.Text
	case OutputContext:
		lines := make([]string, 0, len(o.Context))
		for k, v := range o.Context {
			lines = append(lines, k+"="+v)
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// AsItems projects a NodeOutput to a slice of ContentItem. Non-Items
// variants yield an empty slice.
func AsItems(o NodeOutput) []ContentItem {
	if o.Kind == OutputItems {
		return o.Items
	}
	return nil
}

// AsContext projects a NodeOutput to a variable mapping. Non-Context
// variants yield an empty map.
func AsContext(o NodeOutput) map[string]string {
	if o.Kind == OutputContext {
		return o.Context
	}
	return map[string]string{}
}
