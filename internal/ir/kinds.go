package ir

import "fmt"

// RawSource wraps a Dir loaded from a source input path. It is the
// representation tools consume as the starting point of a pipeline run.
type RawSource struct {
	Tree *Dir
}

// Kind satisfies Representation.
func (RawSource) Kind() string { return "RawSource" }

// Render satisfies Representation.
func (r RawSource) Render() string { return r.Tree.Render() }

// Materialize satisfies Representation by recreating the source tree.
func (r RawSource) Materialize(path string) error { return r.Tree.Materialize(path) }

// CargoPackage wraps a Dir intended to be a buildable Rust package: a
// Cargo.toml at its root plus a src/ tree.
type CargoPackage struct {
	Tree *Dir
}

// Kind satisfies Representation.
func (CargoPackage) Kind() string { return "CargoPackage" }

// Render satisfies Representation.
func (c CargoPackage) Render() string { return c.Tree.Render() }

// Materialize satisfies Representation by recreating the package tree.
func (c CargoPackage) Materialize(path string) error { return c.Tree.Materialize(path) }

// BuildArtifact is one compiled artifact path produced by a successful
// cargo build, relative to the build's target directory.
type BuildArtifact struct {
	Path string
}

// CargoBuildResult is the outcome of attempting to build a CargoPackage:
// either a list of artifact paths (success) or a diagnostic string
// (failure). Exactly one of Artifacts or Diagnostic is meaningful,
// selected by Ok.
type CargoBuildResult struct {
	Ok         bool
	Artifacts  []BuildArtifact
	Diagnostic string
}

// Kind satisfies Representation.
func (CargoBuildResult) Kind() string { return "CargoBuildResult" }

// Render satisfies Representation.
func (c CargoBuildResult) Render() string {
	if c.Ok {
		return fmt.Sprintf("build ok: %d artifacts", len(c.Artifacts))
	}

	return "build failed:\n" + c.Diagnostic
}

// Materialize is a no-op: the build itself, not its result record, is the
// materialization, per the spec's representation-kinds table.
func (CargoBuildResult) Materialize(_ string) error { return nil }

// ProjectKindValue distinguishes a buildable library crate from a
// buildable binary crate.
type ProjectKindValue int

const (
	// ProjectKindLibrary marks a package with no executable entry point.
	ProjectKindLibrary ProjectKindValue = iota
	// ProjectKindExecutable marks a package that builds to a binary.
	ProjectKindExecutable
)

// String renders the project kind value.
func (v ProjectKindValue) String() string {
	if v == ProjectKindExecutable {
		return "Executable"
	}

	return "Library"
}

// ProjectKind records whether the source project is a library or an
// executable, as inferred by a tool inspecting the build description.
type ProjectKind struct {
	Value ProjectKindValue
}

// Kind satisfies Representation.
func (ProjectKind) Kind() string { return "ProjectKind" }

// Render satisfies Representation.
func (p ProjectKind) Render() string { return p.Value.String() }

// Materialize writes a sentinel file named after the project kind, per
// the spec's representation-kinds table.
func (p ProjectKind) Materialize(path string) error {
	sentinel := "library"
	if p.Value == ProjectKindExecutable {
		sentinel = "executable"
	}

	return MaterializeRendered(path+"/"+sentinel, "")
}
