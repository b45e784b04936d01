/*
Package domain contains the core models of the timbre study engine.

It defines the randomized experiment specification, the records collected
while a participant works through the flow, and the events the flow runtime
emits. The package is kept free of I/O so that the generator, the flow runtime
and every adapter can share it.

# Key Entities

  - ExperimentSpec: the immutable randomized session definition.
  - Trial / SemanticTrial: one pairwise or descriptor rating.
  - Step: the scoped state of a Leaf while it is running.
  - ResponseRecord: one recorded answer, append-only.
  - Submission: the payload sent to the results endpoint.
*/
package domain
