// Package pipeline wires verification into a build as a graph of stages.
//
// A stage declares the named artifacts it consumes and produces. A pipeline
// checks that the stages form a well-formed graph (unique names, one producer
// per artifact, every input produced or supplied externally, no cycles) and
// then runs them in dependency order. A stage whose predecessor failed is
// blocked and does not run.
//
// Two stages are built in: ArtifactsStage, which asserts that outputs of an
// earlier build step exist on disk, and VerifyStage, which runs a verification
// session against a compiled model directory. Pipelines can also be described
// in YAML and built with Build.
package pipeline
