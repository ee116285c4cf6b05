// Package chain models prompt chains: ordered prompts where each prompt may
// be built from the response to the one before it.
//
// An Item is either a literal template or a transform function. The kind is
// fixed when the item is constructed, so rendering never has to inspect the
// value at run time.
//
//	items := []chain.Item{
//	    chain.Literal("Summarise the Go memory model"),
//	    chain.Transform(func(prev string) string { return prev + "\n\nShorter." }),
//	    chain.Literal("Translate to German: {{previous}}"),
//	}
package chain

// Kind identifies which variant an Item holds.
type Kind int

const (
	// KindLiteral is a template string rendered with the previous response
	KindLiteral Kind = iota
	// KindTransform is a function from the previous response to the next prompt
	KindTransform
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindTransform:
		return "transform"
	default:
		return "unknown"
	}
}

// TransformFunc builds the next prompt from the previous response.
type TransformFunc func(previous string) string

// Item is one step of a prompt chain.
type Item struct {
	kind      Kind
	template  string
	transform TransformFunc
}

// Literal returns a template item.
func Literal(template string) Item {
	return Item{kind: KindLiteral, template: template}
}

// Transform returns a function item. A nil fn renders as the empty prompt.
func Transform(fn TransformFunc) Item {
	return Item{kind: KindTransform, transform: fn}
}

// Parse turns plain prompt strings into literal items.
func Parse(prompts []string) []Item {
	items := make([]Item, len(prompts))
	for i, p := range prompts {
		items[i] = Literal(p)
	}
	return items
}

// Kind returns the variant held by the item.
func (i Item) Kind() Kind {
	return i.kind
}

// Template returns the literal template; empty for transform items.
func (i Item) Template() string {
	return i.template
}

// Render produces the prompt to send given the previous response.
func (i Item) Render(previous string) string {
	switch i.kind {
	case KindTransform:
		if i.transform == nil {
			return ""
		}
		return i.transform(previous)
	default:
		return Substitute(i.template, previous)
	}
}
