package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestNames lists the manifest file names the loader looks for, in order.
var ManifestNames = []string{"model.yaml", "model.yml", "model.json"}

// debugLogger is a function that logs debug messages when debug mode is enabled.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for model loading.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// descriptorFile is the document shape shared by manifests and included fragments.
type descriptorFile struct {
	Module         string          `yaml:"module"`
	BoundedContext string          `yaml:"bounded_context"`
	Messages       messagesSection `yaml:"messages"`
	Types          yaml.Node       `yaml:"types"`
	Include        []string        `yaml:"include"`
}

type messagesSection struct {
	Commands   []messageYAML `yaml:"commands"`
	Events     []messageYAML `yaml:"events"`
	Rejections []messageYAML `yaml:"rejections"`
}

// messageYAML accepts either a bare name or a {name, context} mapping.
type messageYAML struct {
	Name    string `yaml:"name"`
	Context string `yaml:"context"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *messageYAML) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m.Name = node.Value
		return nil
	}
	type plain messageYAML
	return node.Decode((*plain)(m))
}

type typeYAML struct {
	Name     string        `yaml:"name"`
	Context  string        `yaml:"context"`
	Source   *sourceYAML   `yaml:"source"`
	Handlers []handlerYAML `yaml:"handlers"`
}

type sourceYAML struct {
	File string `yaml:"file"`
	Line int    `yaml:"line"`
}

type handlerYAML struct {
	Method   string   `yaml:"method"`
	Kind     string   `yaml:"kind"`
	Message  string   `yaml:"message"`
	Produces []string `yaml:"produces"`
	Throws   []string `yaml:"throws"`
	Access   string   `yaml:"access"`
	External bool     `yaml:"external"`
}

// loadState accumulates descriptors and messages across the manifest and its fragments.
type loadState struct {
	root     string
	messages []Message
	types    []TypeDescriptor
}

// Load reads the compiled model of one module from dir.
// Missing, unreadable or malformed artifacts yield a *LoadError.
func Load(dir string) (*Graph, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Path: dir, Message: "module directory is not accessible", Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Path: dir, Message: "module path is not a directory"}
	}

	manifestPath, err := findManifest(dir)
	if err != nil {
		return nil, err
	}
	logDebug("[model] loading manifest %s", manifestPath)

	manifest, err := parseDescriptorFile(manifestPath)
	if err != nil {
		return nil, err
	}

	state := &loadState{root: dir}
	if err := state.collect(manifestPath, manifest); err != nil {
		return nil, err
	}

	fragments, err := resolveIncludes(dir, manifestPath, manifest.Include)
	if err != nil {
		return nil, err
	}
	for _, path := range fragments {
		logDebug("[model] loading fragment %s", path)
		fragment, err := parseDescriptorFile(path)
		if err != nil {
			return nil, err
		}
		if len(fragment.Include) > 0 {
			return nil, &LoadError{Path: path, Message: "nested include is not supported"}
		}
		if err := state.collect(path, fragment); err != nil {
			return nil, err
		}
	}

	module := manifest.Module
	if module == "" {
		module = filepath.Base(filepath.Clean(dir))
	}

	catalog, err := NewCatalog(manifest.BoundedContext, state.messages...)
	if err != nil {
		return nil, &LoadError{Path: manifestPath, Message: "invalid message catalog", Err: err}
	}

	g := NewGraph(module, manifest.BoundedContext, catalog, state.types...)
	logDebug("[model] loaded %d types and %d messages for module %s", g.Len(), catalog.Len(), module)
	return g, nil
}

// findManifest returns the first manifest found in dir.
func findManifest(dir string) (string, error) {
	for _, name := range ManifestNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", &LoadError{
		Path:    dir,
		Message: fmt.Sprintf("expected one of %s", strings.Join(ManifestNames, ", ")),
		Err:     ErrManifestNotFound,
	}
}

// parseDescriptorFile reads and decodes one manifest or fragment.
// JSON documents are valid YAML and go through the same decoder.
func parseDescriptorFile(path string) (*descriptorFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "reading descriptor", Err: err}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &LoadError{Path: path, Message: "parsing descriptor", Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &LoadError{Path: path, Message: "empty descriptor"}
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &LoadError{Path: path, Line: doc.Line, Message: "expected mapping at document root"}
	}

	var df descriptorFile
	if err := doc.Decode(&df); err != nil {
		return nil, &LoadError{Path: path, Message: "decoding descriptor", Err: err}
	}
	return &df, nil
}

// resolveIncludes expands include patterns relative to the manifest directory.
// Literal paths must exist; glob patterns may match nothing.
func resolveIncludes(dir, manifestPath string, patterns []string) ([]string, error) {
	var paths []string
	seen := map[string]bool{filepath.Clean(manifestPath): true}

	for _, pattern := range patterns {
		full := filepath.Join(dir, pattern)
		matches, err := filepath.Glob(full)
		if err != nil {
			return nil, &LoadError{Path: manifestPath, Message: fmt.Sprintf("invalid include pattern %q", pattern), Err: err}
		}
		if len(matches) == 0 && !hasGlobMeta(pattern) {
			return nil, &LoadError{Path: full, Message: "included descriptor not found", Err: os.ErrNotExist}
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[\`)
}

// collect appends the messages and types declared by one descriptor file.
func (s *loadState) collect(path string, df *descriptorFile) error {
	for _, group := range []struct {
		kind MessageKind
		list []messageYAML
	}{
		{MessageCommand, df.Messages.Commands},
		{MessageEvent, df.Messages.Events},
		{MessageRejection, df.Messages.Rejections},
	} {
		for _, m := range group.list {
			s.messages = append(s.messages, Message{Name: m.Name, Kind: group.kind, Context: m.Context})
		}
	}

	if df.Types.Kind == 0 {
		return nil
	}
	if df.Types.Kind != yaml.MappingNode {
		return &LoadError{Path: path, Line: df.Types.Line, Message: "expected mapping for 'types' field"}
	}

	sections := make(map[string]*yaml.Node)
	for i := 0; i+1 < len(df.Types.Content); i += 2 {
		key := df.Types.Content[i]
		if _, ok := sectionCapability(key.Value); !ok {
			return &LoadError{
				Path:    path,
				Line:    key.Line,
				Message: fmt.Sprintf("unknown type section %q; valid sections: %s", key.Value, strings.Join(Sections(), ", ")),
			}
		}
		if _, dup := sections[key.Value]; dup {
			return &LoadError{Path: path, Line: key.Line, Message: fmt.Sprintf("duplicate type section %q", key.Value)}
		}
		sections[key.Value] = df.Types.Content[i+1]
	}

	for _, section := range Sections() {
		node, ok := sections[section]
		if !ok {
			continue
		}
		capability, _ := sectionCapability(section)
		if err := s.collectSection(path, section, capability, node); err != nil {
			return err
		}
	}
	return nil
}

// collectSection decodes the type list of one classification section.
func (s *loadState) collectSection(path, section string, capability Capability, node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		return &LoadError{Path: path, Line: node.Line, Message: fmt.Sprintf("expected sequence for 'types.%s'", section)}
	}

	for _, item := range node.Content {
		var ty typeYAML
		if err := item.Decode(&ty); err != nil {
			return &LoadError{Path: path, Line: item.Line, Message: fmt.Sprintf("decoding type in %q", section), Err: err}
		}
		td, err := s.toDescriptor(path, item.Line, capability, ty)
		if err != nil {
			return err
		}
		s.types = append(s.types, td)
	}
	return nil
}

// toDescriptor validates a decoded type and converts it into a TypeDescriptor.
func (s *loadState) toDescriptor(path string, line int, capability Capability, ty typeYAML) (TypeDescriptor, error) {
	if strings.TrimSpace(ty.Name) == "" {
		return TypeDescriptor{}, &LoadError{Path: path, Line: line, Message: "type without a name"}
	}

	td := TypeDescriptor{
		Name:         ty.Name,
		Context:      ty.Context,
		Capabilities: capability,
	}

	if ty.Source != nil && ty.Source.File != "" {
		td.Source = SourceLocation{File: ty.Source.File, Line: ty.Source.Line}
	} else {
		td.Source = SourceLocation{File: s.relative(path), Line: line}
	}

	for _, h := range ty.Handlers {
		handler, err := toHandler(h)
		if err != nil {
			return TypeDescriptor{}, &LoadError{Path: path, Line: line, Message: fmt.Sprintf("type %q", ty.Name), Err: err}
		}
		td.Handlers = append(td.Handlers, handler)
	}
	return td, nil
}

func toHandler(h handlerYAML) (Handler, error) {
	kind := HandlerKind(h.Kind)
	if !kind.IsValid() {
		return Handler{}, fmt.Errorf("handler %q has unknown kind %q", h.Method, h.Kind)
	}
	if h.Message == "" {
		return Handler{}, fmt.Errorf("handler %q has no message", h.Method)
	}
	access := Access(h.Access)
	if access == "" {
		access = AccessPackage
	}
	if !access.IsValid() {
		return Handler{}, fmt.Errorf("handler %q has unknown access modifier %q", h.Method, h.Access)
	}
	return Handler{
		Method:   h.Method,
		Kind:     kind,
		Message:  h.Message,
		Produces: h.Produces,
		Throws:   h.Throws,
		Access:   access,
		External: h.External,
	}, nil
}

// relative returns path relative to the module directory when possible.
func (s *loadState) relative(path string) string {
	if rel, err := filepath.Rel(s.root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
