package rules

import (
	"strings"

	"github.com/ariel-frischer/modelverifier/internal/model"
)

// Built-in rule ids.
const (
	AggregateHandlesCommand     = "aggregate-handles-command"
	ApplierCoverage             = "applier-coverage"
	ApplierSignature            = "applier-signature"
	CommandHandlerOutput        = "command-handler-output"
	ProhibitedThrowable         = "prohibited-throwable"
	HandlerAccess               = "handler-access"
	SignalOrigin                = "signal-origin"
	UnknownMessage              = "unknown-message"
	DuplicateHandlerMethod      = "duplicate-handler-method"
	ProcessManagerHandlesSignal = "process-manager-handles-signal"
	ProjectionSubscribes        = "projection-subscribes"
	DuplicateCommandHandler     = "duplicate-command-handler"
)

// Builtin returns a new registry holding the built-in rules.
func Builtin() *Registry {
	return NewRegistry().MustRegister(BuiltinRules()...)
}

// BuiltinRules returns the built-in rules in their canonical order.
func BuiltinRules() []Rule {
	return []Rule{
		{
			ID:          AggregateHandlesCommand,
			Description: "An aggregate handles at least one command",
			Severity:    SeverityError,
			AppliesTo:   model.Aggregate,
			Check:       checkAggregateHandlesCommand,
		},
		{
			ID:          ApplierCoverage,
			Description: "Every event produced by an aggregate has an applier in that aggregate",
			Severity:    SeverityError,
			AppliesTo:   model.Aggregate,
			Check:       checkApplierCoverage,
		},
		{
			ID:          ApplierSignature,
			Description: "Event appliers live in aggregates, produce nothing and throw nothing",
			Severity:    SeverityError,
			AppliesTo:   model.AnyCapability,
			Check:       checkApplierSignature,
		},
		{
			ID:          CommandHandlerOutput,
			Description: "A command handler produces at least one message",
			Severity:    SeverityError,
			AppliesTo:   model.AnyCapability,
			Check:       checkCommandHandlerOutput,
		},
		{
			ID:          ProhibitedThrowable,
			Description: "Only command handlers and reactors may throw, and only rejections",
			Severity:    SeverityError,
			AppliesTo:   model.AnyCapability,
			Check:       checkProhibitedThrowable,
		},
		{
			ID:          HandlerAccess,
			Description: "Appliers are private; other handlers are package-private or public",
			Severity:    SeverityWarning,
			AppliesTo:   model.AnyCapability,
			Check:       checkHandlerAccess,
		},
		{
			ID:          SignalOrigin,
			Description: "Handlers of events from another bounded context are external, others are not",
			Severity:    SeverityError,
			AppliesTo:   model.AnyCapability,
			Check:       checkSignalOrigin,
		},
		{
			ID:          UnknownMessage,
			Description: "Handled and produced messages are declared in the catalog with the expected kind",
			Severity:    SeverityError,
			AppliesTo:   model.AnyCapability,
			Check:       checkUnknownMessage,
		},
		{
			ID:          DuplicateHandlerMethod,
			Description: "A type has at most one handler per kind and message",
			Severity:    SeverityError,
			AppliesTo:   model.AnyCapability,
			Check:       checkDuplicateHandlerMethod,
		},
		{
			ID:          ProcessManagerHandlesSignal,
			Description: "A process manager handles a command or reacts to an event",
			Severity:    SeverityError,
			AppliesTo:   model.ProcessManager,
			Check:       checkProcessManagerHandlesSignal,
		},
		{
			ID:          ProjectionSubscribes,
			Description: "A projection subscribes to at least one event",
			Severity:    SeverityWarning,
			AppliesTo:   model.Projection,
			Check:       checkProjectionSubscribes,
		},
		{
			ID:          DuplicateCommandHandler,
			Description: "Each command is handled by exactly one type",
			Severity:    SeverityError,
			CheckGraph:  checkDuplicateCommandHandler,
		},
	}
}

// methodName renders a handler as `Type.method`.
func methodName(t *model.TypeDescriptor, h model.Handler) string {
	method := h.Method
	if method == "" {
		method = string(h.Kind) + "(" + h.Message + ")"
	}
	return "`" + t.Name + "." + method + "`"
}

func checkAggregateHandlesCommand(t *model.TypeDescriptor, _ *model.Graph) ([]Finding, error) {
	if len(t.HandlersOf(model.KindCommand)) > 0 {
		return nil, nil
	}
	return []Finding{Findingf(t, "The aggregate `%s` does not handle any command.", t.Name)}, nil
}

func checkApplierCoverage(t *model.TypeDescriptor, g *model.Graph) ([]Finding, error) {
	applied := make(map[string]bool)
	for _, m := range t.HandledMessages(model.KindApply) {
		applied[m] = true
	}

	var findings []Finding
	seen := make(map[string]bool)
	for _, h := range t.Handlers {
		if h.Kind != model.KindCommand && h.Kind != model.KindReact {
			continue
		}
		for _, produced := range h.Produces {
			msg, ok := g.Catalog().Lookup(produced)
			if !ok || msg.Kind != model.MessageEvent || applied[produced] || seen[produced] {
				continue
			}
			seen[produced] = true
			findings = append(findings, Findingf(t,
				"The aggregate `%s` produces `%s` in %s but has no applier for it.",
				t.Name, produced, methodName(t, h)))
		}
	}
	return findings, nil
}

func checkApplierSignature(t *model.TypeDescriptor, _ *model.Graph) ([]Finding, error) {
	var findings []Finding
	for _, h := range t.HandlersOf(model.KindApply) {
		if !t.Is(model.Aggregate) {
			findings = append(findings, Findingf(t,
				"The applier %s is declared outside of an aggregate.", methodName(t, h)))
		}
		if len(h.Produces) > 0 {
			findings = append(findings, Findingf(t,
				"The applier %s must not produce messages, but produces %s.",
				methodName(t, h), enumerate(h.Produces)))
		}
		if len(h.Throws) > 0 {
			findings = append(findings, Findingf(t,
				"The applier %s must not throw, but throws %s.",
				methodName(t, h), enumerate(h.Throws)))
		}
	}
	return findings, nil
}

func checkCommandHandlerOutput(t *model.TypeDescriptor, _ *model.Graph) ([]Finding, error) {
	var findings []Finding
	for _, h := range t.HandlersOf(model.KindCommand) {
		if len(h.Produces) == 0 {
			findings = append(findings, Findingf(t,
				"The command handler %s for `%s` does not produce any message.",
				methodName(t, h), h.Message))
		}
	}
	return findings, nil
}

func checkProhibitedThrowable(t *model.TypeDescriptor, g *model.Graph) ([]Finding, error) {
	var findings []Finding
	for _, h := range t.Handlers {
		if len(h.Throws) == 0 {
			continue
		}
		if h.Kind != model.KindCommand && h.Kind != model.KindReact {
			// Appliers are reported by the applier signature rule.
			if h.Kind != model.KindApply {
				findings = append(findings, Findingf(t,
					"The method %s throws %s. But throwing is not allowed for this kind of methods.",
					methodName(t, h), enumerate(h.Throws)))
			}
			continue
		}
		var prohibited []string
		for _, thrown := range h.Throws {
			msg, ok := g.Catalog().Lookup(thrown)
			if !ok || msg.Kind != model.MessageRejection {
				prohibited = append(prohibited, thrown)
			}
		}
		if len(prohibited) > 0 {
			findings = append(findings, Findingf(t,
				"The method %s throws %s. But only rejections are allowed for this kind of methods.",
				methodName(t, h), enumerate(prohibited)))
		}
	}
	return findings, nil
}

func checkHandlerAccess(t *model.TypeDescriptor, _ *model.Graph) ([]Finding, error) {
	var findings []Finding
	for _, h := range t.Handlers {
		switch {
		case h.Kind == model.KindApply && h.Access != model.AccessPrivate:
			findings = append(findings, Findingf(t,
				"The access modifier of %s method is `%s`. We recommend it to be `%s`.",
				methodName(t, h), h.Access, model.AccessPrivate))
		case h.Kind != model.KindApply && (h.Access == model.AccessPrivate || h.Access == model.AccessProtected):
			findings = append(findings, Findingf(t,
				"The access modifier of %s method is `%s`. We recommend it to be `%s`.",
				methodName(t, h), h.Access, model.AccessPackage))
		}
	}
	return findings, nil
}

func checkSignalOrigin(t *model.TypeDescriptor, g *model.Graph) ([]Finding, error) {
	var findings []Finding
	for _, h := range t.Handlers {
		if h.Kind != model.KindReact && h.Kind != model.KindSubscribe {
			continue
		}
		msg, ok := g.Catalog().Lookup(h.Message)
		if !ok {
			continue
		}
		expected := msg.Context != t.Context
		if h.External != expected {
			findings = append(findings, Findingf(t,
				"Mismatch of `external` value for the handler method %s. Expected `external = %t`, but got `%t`.",
				methodName(t, h), expected, h.External))
		}
	}
	return findings, nil
}

// acceptedKinds lists the catalog kinds each handler kind may handle.
var acceptedKinds = map[model.HandlerKind][]model.MessageKind{
	model.KindCommand:   {model.MessageCommand},
	model.KindApply:     {model.MessageEvent},
	model.KindReact:     {model.MessageEvent, model.MessageRejection},
	model.KindSubscribe: {model.MessageEvent, model.MessageRejection},
}

func checkUnknownMessage(t *model.TypeDescriptor, g *model.Graph) ([]Finding, error) {
	var findings []Finding
	for _, h := range t.Handlers {
		msg, ok := g.Catalog().Lookup(h.Message)
		switch {
		case !ok:
			findings = append(findings, Findingf(t,
				"The handler %s handles `%s`, which is not declared in the message catalog.",
				methodName(t, h), h.Message))
		case !kindAccepted(h.Kind, msg.Kind):
			findings = append(findings, Findingf(t,
				"The %s handler %s handles `%s`, declared as %s.",
				h.Kind, methodName(t, h), h.Message, msg.Kind))
		}
		for _, produced := range h.Produces {
			msg, ok := g.Catalog().Lookup(produced)
			switch {
			case !ok:
				findings = append(findings, Findingf(t,
					"The handler %s produces `%s`, which is not declared in the message catalog.",
					methodName(t, h), produced))
			case msg.Kind == model.MessageRejection:
				findings = append(findings, Findingf(t,
					"The handler %s produces the rejection `%s`; rejections are thrown, not produced.",
					methodName(t, h), produced))
			}
		}
	}
	return findings, nil
}

func kindAccepted(handler model.HandlerKind, message model.MessageKind) bool {
	for _, k := range acceptedKinds[handler] {
		if k == message {
			return true
		}
	}
	return false
}

func checkDuplicateHandlerMethod(t *model.TypeDescriptor, _ *model.Graph) ([]Finding, error) {
	type key struct {
		kind    model.HandlerKind
		message string
	}
	methods := make(map[key][]string)
	var order []key
	for _, h := range t.Handlers {
		k := key{h.Kind, h.Message}
		if _, ok := methods[k]; !ok {
			order = append(order, k)
		}
		methods[k] = append(methods[k], h.Method)
	}

	var findings []Finding
	for _, k := range order {
		if len(methods[k]) > 1 {
			findings = append(findings, Findingf(t,
				"The type `%s` has %d %s handlers for `%s`: %s.",
				t.Name, len(methods[k]), k.kind, k.message, enumerate(methods[k])))
		}
	}
	return findings, nil
}

func checkProcessManagerHandlesSignal(t *model.TypeDescriptor, _ *model.Graph) ([]Finding, error) {
	if len(t.HandlersOf(model.KindCommand)) > 0 || len(t.HandlersOf(model.KindReact)) > 0 {
		return nil, nil
	}
	return []Finding{Findingf(t,
		"The process manager `%s` neither handles commands nor reacts to events.", t.Name)}, nil
}

func checkProjectionSubscribes(t *model.TypeDescriptor, _ *model.Graph) ([]Finding, error) {
	if len(t.HandlersOf(model.KindSubscribe)) > 0 {
		return nil, nil
	}
	return []Finding{Findingf(t, "The projection `%s` does not subscribe to any event.", t.Name)}, nil
}

func checkDuplicateCommandHandler(g *model.Graph) ([]Finding, error) {
	owners := make(map[string]*model.TypeDescriptor)
	var findings []Finding
	for _, t := range g.Types() {
		for _, command := range t.HandledMessages(model.KindCommand) {
			first, taken := owners[command]
			if !taken {
				owners[command] = t
				continue
			}
			findings = append(findings, Findingf(t,
				"The command `%s` is handled by `%s` and `%s`. A command must have exactly one handler.",
				command, first.Name, t.Name))
		}
	}
	return findings, nil
}

// enumerate renders names as a comma separated list of backticked items.
func enumerate(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	return strings.Join(quoted, ", ")
}
