/*
Package timbre runs randomized perceptual-rating studies.

A session fetches an ExperimentSpec (all pairwise dissimilarity trials over a
set of audio stimuli, a fixed practice set and a shuffled descriptor
vocabulary), composes it into a tree of Blocks and runs that tree against a
ScreenHost. The tree branches on the participant's language screening: only
the selected arm is built, when it is entered. Progress is computed from
explicit block events and, when the experiment ends without being stopped,
the collected responses are submitted to a ResultSink with a local export as
fallback.

# Usage

	gen := trialgen.New(trialgen.WithDir("./audio"))
	study, err := timbre.New(gen, runner.NewTextHost(os.Stdin, os.Stdout),
		timbre.WithSink(httpadapter.NewClient("https://study.example.org")),
		timbre.WithExporter(file.NewExporter(".")),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := study.Run(ctx); err != nil && !errors.Is(err, domain.ErrCancelled) {
		log.Fatal(err)
	}
	fmt.Println(study.Result().Status)

Calling Stop from another goroutine (a signal handler, a stop button) ends
the active chain, suppresses transmission and shows the stop screen.
*/
package timbre
