package model

import (
	"fmt"
	"strings"
)

// Capability is a bit set of the roles a domain type plays.
type Capability uint8

const (
	// Aggregate marks a type that handles commands and applies its own events.
	Aggregate Capability = 1 << iota
	// CommandHandler marks a stateless command handling type.
	CommandHandler
	// ProcessManager marks a type coordinating work across aggregates.
	ProcessManager
	// Projection marks a read-side type built from subscribed events.
	Projection
	// EventReactor marks a type that reacts to events by producing messages.
	EventReactor
	// EventSubscriber marks a type that only consumes events.
	EventSubscriber
)

// AnyCapability matches every type.
const AnyCapability Capability = 0

// capabilityNames lists capabilities in declaration order together with the
// manifest section each one is loaded from.
var capabilityNames = []struct {
	cap     Capability
	name    string
	section string
}{
	{Aggregate, "aggregate", "aggregates"},
	{CommandHandler, "command_handler", "command_handlers"},
	{ProcessManager, "process_manager", "process_managers"},
	{Projection, "projection", "projections"},
	{EventReactor, "event_reactor", "event_reactors"},
	{EventSubscriber, "event_subscriber", "event_subscribers"},
}

// Has reports whether every capability in other is set in c.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// Intersects reports whether c and other share at least one capability.
// AnyCapability intersects everything.
func (c Capability) Intersects(other Capability) bool {
	if other == AnyCapability {
		return true
	}
	return c&other != 0
}

// Names returns the names of the set capabilities in declaration order.
func (c Capability) Names() []string {
	var names []string
	for _, cn := range capabilityNames {
		if c&cn.cap != 0 {
			names = append(names, cn.name)
		}
	}
	return names
}

// String returns the set capabilities joined with "|", or "any" when none are set.
func (c Capability) String() string {
	if c == AnyCapability {
		return "any"
	}
	return strings.Join(c.Names(), "|")
}

// ParseCapability parses a capability name (e.g. "aggregate").
func ParseCapability(s string) (Capability, error) {
	for _, cn := range capabilityNames {
		if cn.name == s {
			return cn.cap, nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", s)
}

// sectionCapability returns the capability loaded from a manifest section.
func sectionCapability(section string) (Capability, bool) {
	for _, cn := range capabilityNames {
		if cn.section == section {
			return cn.cap, true
		}
	}
	return 0, false
}

// Sections returns the manifest section names in the order the loader visits them.
func Sections() []string {
	sections := make([]string, 0, len(capabilityNames))
	for _, cn := range capabilityNames {
		sections = append(sections, cn.section)
	}
	return sections
}

// HandlerKind identifies what a handler method does with its message.
type HandlerKind string

const (
	// KindCommand handles a command.
	KindCommand HandlerKind = "command"
	// KindApply applies an event to aggregate state.
	KindApply HandlerKind = "apply"
	// KindReact reacts to an event, possibly producing messages.
	KindReact HandlerKind = "react"
	// KindSubscribe consumes an event without producing anything.
	KindSubscribe HandlerKind = "subscribe"
)

// ValidHandlerKinds lists all handler kinds.
var ValidHandlerKinds = []HandlerKind{KindCommand, KindApply, KindReact, KindSubscribe}

// IsValid returns true if the kind is a known handler kind.
func (k HandlerKind) IsValid() bool {
	for _, valid := range ValidHandlerKinds {
		if k == valid {
			return true
		}
	}
	return false
}

// Access is the declared access modifier of a handler method.
type Access string

const (
	AccessPrivate   Access = "private"
	AccessPackage   Access = "package"
	AccessProtected Access = "protected"
	AccessPublic    Access = "public"
)

// IsValid returns true if the access modifier is known.
func (a Access) IsValid() bool {
	switch a {
	case AccessPrivate, AccessPackage, AccessProtected, AccessPublic:
		return true
	default:
		return false
	}
}

// SourceLocation points at where a type was declared.
type SourceLocation struct {
	File string
	Line int
}

// String renders the location as file:line, or just the file when the line is unknown.
func (s SourceLocation) String() string {
	if s.File == "" {
		return ""
	}
	if s.Line > 0 {
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return s.File
}

// Handler is one message handling method of a domain type.
type Handler struct {
	// Method is the handler method name.
	Method string
	// Kind is what the handler does with Message.
	Kind HandlerKind
	// Message is the handled message type.
	Message string
	// Produces lists messages the handler may emit.
	Produces []string
	// Throws lists declared throwables.
	Throws []string
	// Access is the declared access modifier; empty input is loaded as AccessPackage.
	Access Access
	// External marks a handler for signals originating in another bounded context.
	External bool
}

// key identifies a handler for deduplication.
func (h Handler) key() string {
	return string(h.Kind) + "\x00" + h.Message + "\x00" + h.Method
}

// TypeDescriptor describes one domain type of the model.
type TypeDescriptor struct {
	// Name is the fully qualified type name.
	Name string
	// Context is the bounded context owning the type.
	Context string
	// Capabilities is the set of roles the type plays.
	Capabilities Capability
	// Handlers lists the type's handler methods in declaration order.
	Handlers []Handler
	// Source is where the type was declared.
	Source SourceLocation
	// Index is the position of the type in graph order.
	Index int
}

// Is reports whether the type has all of the given capabilities.
func (t *TypeDescriptor) Is(c Capability) bool {
	return t.Capabilities.Has(c)
}

// HandlersOf returns the handlers of the given kind in declaration order.
func (t *TypeDescriptor) HandlersOf(kind HandlerKind) []Handler {
	var handlers []Handler
	for _, h := range t.Handlers {
		if h.Kind == kind {
			handlers = append(handlers, h)
		}
	}
	return handlers
}

// HandledMessages returns the distinct messages handled by handlers of the given kind.
func (t *TypeDescriptor) HandledMessages(kind HandlerKind) []string {
	var messages []string
	seen := make(map[string]bool)
	for _, h := range t.HandlersOf(kind) {
		if !seen[h.Message] {
			seen[h.Message] = true
			messages = append(messages, h.Message)
		}
	}
	return messages
}

// ProducedMessages returns the distinct messages produced by any handler of the type.
func (t *TypeDescriptor) ProducedMessages() []string {
	var messages []string
	seen := make(map[string]bool)
	for _, h := range t.Handlers {
		for _, m := range h.Produces {
			if !seen[m] {
				seen[m] = true
				messages = append(messages, m)
			}
		}
	}
	return messages
}

// clone returns a deep copy of the descriptor.
func (t TypeDescriptor) clone() TypeDescriptor {
	out := t
	out.Handlers = make([]Handler, len(t.Handlers))
	for i, h := range t.Handlers {
		h.Produces = append([]string(nil), h.Produces...)
		h.Throws = append([]string(nil), h.Throws...)
		out.Handlers[i] = h
	}
	return out
}
