/*
Package runner implements terminal ScreenHosts for the timbre study engine.

A host presents one running step at a time and turns the participant's typed
input into a domain.Response. Content is passed through an optional
ContentRenderer (markdown via glamour in the CLI) before it is printed.

# Hosts

  - TextHost: interactive prompts on a terminal.
  - JSONHost: JSON-Lines in and out, for scripted sessions and automation.

# Usage

	host := runner.NewTextHost(os.Stdin, os.Stdout,
		runner.WithRenderer(tui.NewRenderer()),
	)
	study, _ := timbre.New(source, host, timbre.WithSink(sink))
*/
package runner
