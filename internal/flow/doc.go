/*
Package flow implements the study's block tree and its state machine.

A flow is a tree of Blocks: Leaf (one interactive step), Sequence (ordered
children) and Loop (one child materialized per parameter). Every block moves
Idle -> Running -> Ended exactly once. Entering Running fires the block's
on-enter observers; reaching Ended fires its on-end observers, after which the
parent advances to the next child.

End may be called at any time. It cancels the block's context, which unwinds
every running descendant; the parent of the ended block carries on with its
next child. Cancellation of a whole session is a flag on the Session plus an
End on the cancel target (see Runtime.Cancel).

Execution is cooperative: the only suspension points are ScreenHost.Present
calls. A Leaf appends its ResponseRecord to the Session before its on-end
notification fires.
*/
package flow
