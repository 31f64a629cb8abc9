package pipeline

// Item is one extracted data record. Field values are constrained by the
// spider's declared schema (see FieldTypes) when they round-trip through
// the cache.
type Item map[string]any

// Kind tags the variant of an Object.
type Kind string

const (
	// KindRequest marks a follow-up request produced by a crawl step.
	KindRequest Kind = "request"

	// KindItem marks an extracted item produced by a crawl step.
	KindItem Kind = "item"
)

// Object is the closed tagged union of everything a crawl step can
// produce. Exactly one of Request and Item is set, matching Kind.
// Ordering among the objects of one step is significant and is
// preserved through capture and replay.
type Object struct {
	Kind    Kind
	Request *Request
	Item    Item
}

// RequestObject wraps a follow-up request as an Object.
func RequestObject(r *Request) Object {
	return Object{Kind: KindRequest, Request: r}
}

// ItemObject wraps an extracted item as an Object.
func ItemObject(it Item) Object {
	return Object{Kind: KindItem, Item: it}
}
