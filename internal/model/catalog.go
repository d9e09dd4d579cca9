package model

import "fmt"

// MessageKind classifies a catalog message.
type MessageKind string

const (
	MessageCommand   MessageKind = "command"
	MessageEvent     MessageKind = "event"
	MessageRejection MessageKind = "rejection"
)

// Message is a message type known to the module.
type Message struct {
	Name    string
	Kind    MessageKind
	Context string
}

// IsEventLike reports whether the message can be reacted or subscribed to.
// Rejections are events emitted when a command is refused.
func (m Message) IsEventLike() bool {
	return m.Kind == MessageEvent || m.Kind == MessageRejection
}

// Catalog is the set of messages declared by the module, in declaration order.
// A nil Catalog is empty.
type Catalog struct {
	order    []string
	messages map[string]Message
}

// NewCatalog builds a catalog. Messages without a context are owned by
// defaultContext. Declaring the same name twice with different kinds is an error;
// repeated identical declarations are ignored.
func NewCatalog(defaultContext string, messages ...Message) (*Catalog, error) {
	c := &Catalog{messages: make(map[string]Message)}
	for _, m := range messages {
		if err := c.add(defaultContext, m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(defaultContext string, m Message) error {
	if m.Name == "" {
		return fmt.Errorf("%s message without a name", m.Kind)
	}
	if m.Context == "" {
		m.Context = defaultContext
	}
	if prev, exists := c.messages[m.Name]; exists {
		if prev.Kind != m.Kind {
			return fmt.Errorf("message %q declared as both %s and %s", m.Name, prev.Kind, m.Kind)
		}
		return nil
	}
	c.messages[m.Name] = m
	c.order = append(c.order, m.Name)
	return nil
}

// Lookup returns the message with the given name.
func (c *Catalog) Lookup(name string) (Message, bool) {
	if c == nil {
		return Message{}, false
	}
	m, ok := c.messages[name]
	return m, ok
}

// Messages returns all messages in declaration order.
func (c *Catalog) Messages() []Message {
	if c == nil {
		return nil
	}
	out := make([]Message, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.messages[name])
	}
	return out
}

// Len returns the number of messages.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
