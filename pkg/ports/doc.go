/*
Package ports defines the driven ports (interfaces) of the timbre study engine.

These interfaces decouple the flow runtime from the rendering substrate,
the content source and the storage backends.

# Key Interfaces

  - TemplateProvider: resolves a symbolic step name into its content.
  - ScreenHost: presents a running step and returns the participant's input.
  - SpecSource: retrieves the session's ExperimentSpec.
  - ResultSink: submits collected responses at the end of a session.
  - ResultStore: server-side persistence of submissions.
  - Exporter: local fallback when a submission fails.
*/
package ports
