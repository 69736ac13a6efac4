package domain

import "go.trai.ch/zerr"

var (
	// ErrScriptCompilationFailed is returned when the build script does not parse or resolve.
	ErrScriptCompilationFailed = zerr.New("script compilation failed")

	// ErrDuplicateDeclaration is returned when two task or variable declarations share a name.
	ErrDuplicateDeclaration = zerr.New("duplicate declaration")

	// ErrInvalidDeclaration is returned when a task or env marker is malformed.
	ErrInvalidDeclaration = zerr.New("invalid declaration")

	// ErrRewrittenScriptCompilationFailed is returned when the generated module does not compile.
	ErrRewrittenScriptCompilationFailed = zerr.New("rewritten script compilation failed")

	// ErrModuleLoadFailed is returned when an emitted module or one of its dependencies cannot be loaded.
	ErrModuleLoadFailed = zerr.New("module load failed")

	// ErrEntryPointMissing is returned when a generated binding cannot be found in the loaded module.
	ErrEntryPointMissing = zerr.New("entry point missing")

	// ErrModuleNotFound is returned when a load statement names a module that is not referenced.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrLoadCycle is returned when modules load each other in a cycle.
	ErrLoadCycle = zerr.New("load cycle detected")

	// ErrEvaluationFailed is returned when a task's callable raises an error.
	ErrEvaluationFailed = zerr.New("script evaluation failed")

	// ErrDependencyResolutionFailed is returned when the dependencies of a script cannot be resolved.
	ErrDependencyResolutionFailed = zerr.New("dependency resolution failed")

	// ErrReferenceHashFailed is returned when the digest of a referenced module cannot be computed.
	ErrReferenceHashFailed = zerr.New("failed to hash reference")

	// ErrSourceReadFailed is returned when a script file cannot be read.
	ErrSourceReadFailed = zerr.New("failed to read script")

	// ErrEmitFailed is returned when a compiled program cannot be serialized.
	ErrEmitFailed = zerr.New("failed to emit module")

	// ErrSymbolsDecodeFailed is returned when a debug symbol stream cannot be decoded.
	ErrSymbolsDecodeFailed = zerr.New("failed to decode debug symbols")

	// ErrTaskNotBound is returned when a task descriptor is invoked before it was bound to an entry point.
	ErrTaskNotBound = zerr.New("task is not bound to an entry point")

	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not declared by the script.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrNoTargetsSpecified is returned when no targets are specified for the run command.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrTaskExecutionFailed is returned when a task execution fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrBuildExecutionFailed is returned when a run fails after its tasks were reported to the renderer.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrArtifactExportFailed is returned when an emitted module cannot be written to the output directory.
	ErrArtifactExportFailed = zerr.New("failed to export artifact")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConstraint is returned when the requires field is not a valid version constraint.
	ErrInvalidConstraint = zerr.New("invalid version constraint")

	// ErrVersionMismatch is returned when the running engine does not satisfy the project's constraint.
	ErrVersionMismatch = zerr.New("engine version does not satisfy project constraint")

	// ErrReferenceNotFound is returned when a configured reference matches no file.
	ErrReferenceNotFound = zerr.New("reference not found")

	// ErrInvalidNamespace is returned when a configured namespace is not a valid identifier.
	ErrInvalidNamespace = zerr.New("namespace must be a valid identifier")

	// ErrScriptNotFound is returned when the configured build script does not exist.
	ErrScriptNotFound = zerr.New("build script not found")

	// ErrStoreCreateFailed is returned when the artifact store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create artifact store directory")

	// ErrStoreReadFailed is returned when an artifact cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read artifact")

	// ErrStoreUnmarshalFailed is returned when an artifact manifest cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal artifact manifest")

	// ErrStoreMarshalFailed is returned when an artifact manifest cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal artifact manifest")

	// ErrStoreWriteFailed is returned when an artifact cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write artifact")

	// ErrShellParseFailed is returned when a shell command passed to sh() cannot be parsed.
	ErrShellParseFailed = zerr.New("failed to parse shell command")

	// ErrShellCommandFailed is returned when a shell command exits with an error.
	ErrShellCommandFailed = zerr.New("shell command failed")

	// ErrWatcherCreateFailed is returned when the file system watcher cannot be created.
	ErrWatcherCreateFailed = zerr.New("failed to create file watcher")

	// ErrWatcherAddFailed is returned when a path cannot be added to the watcher.
	ErrWatcherAddFailed = zerr.New("failed to add path to watcher")

	// ErrWatcherStopFailed is returned when the file system watcher cannot be stopped.
	ErrWatcherStopFailed = zerr.New("failed to stop file watcher")
)
