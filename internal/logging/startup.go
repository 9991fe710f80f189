package logging

import (
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects run identity, inputs, outputs and feature flags,
// then emits a single structured event describing how a batch was
// configured.
type StartupLogger struct {
	name      string
	version   string
	runID     string
	startedAt time.Time

	inputs   map[string]string
	outputs  map[string]string
	ssmParams map[string]string
	features map[string]bool
	config   map[string]string
}

// NewStartupLogger creates a StartupLogger for the named command.
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:      name,
		inputs:    make(map[string]string),
		outputs:   make(map[string]string),
		ssmParams: make(map[string]string),
		features:  make(map[string]bool),
		config:    make(map[string]string),
	}
}

// Version sets the build version.
func (s *StartupLogger) Version(v string) *StartupLogger {
	s.version = v
	return s
}

// Run sets the run identifier and start time.
func (s *StartupLogger) Run(id string, startedAt time.Time) *StartupLogger {
	s.runID = id
	s.startedAt = startedAt
	return s
}

// Input registers an input location, e.g. the media root or reference table.
func (s *StartupLogger) Input(label, path string) *StartupLogger {
	s.inputs[label] = path
	return s
}

// Output registers an output destination.
func (s *StartupLogger) Output(label, path string) *StartupLogger {
	s.outputs[label] = path
	return s
}

// SSMParam registers an SSM parameter path. Only the path is logged, never
// the value.
func (s *StartupLogger) SSMParam(label, path string) *StartupLogger {
	s.ssmParams[label] = path
	return s
}

// Feature registers a boolean feature flag.
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// Log emits a single structured INFO event with all collected information.
func (s *StartupLogger) Log() {
	evt := log.Info()

	identity := zerolog.Dict().
		Str("name", s.name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", zerolog.GlobalLevel().String())
	if s.version != "" {
		identity = identity.Str("version", s.version)
	}
	if s.runID != "" {
		identity = identity.Str("runId", s.runID)
	}
	if !s.startedAt.IsZero() {
		identity = identity.Time("startedAt", s.startedAt)
	}
	evt = evt.Dict("run", identity)

	if len(s.inputs) > 0 {
		evt = evt.Dict("inputs", dictFromMap(s.inputs))
	}
	if len(s.outputs) > 0 {
		evt = evt.Dict("outputs", dictFromMap(s.outputs))
	}
	if len(s.ssmParams) > 0 {
		evt = evt.Dict("ssmParams", dictFromMap(s.ssmParams))
	}
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for _, k := range sortedKeys(s.features) {
			d = d.Bool(k, s.features[k])
		}
		evt = evt.Dict("features", d)
	}
	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}

	evt.Msg("Batch starting")
}

func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for _, k := range sortedKeys(m) {
		d = d.Str(k, m[k])
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
