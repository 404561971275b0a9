// Package conversation assembles and dispatches single-turn inference
// requests.
//
// Each user message is handled statelessly: the service authorizes the
// user, snapshots the active provider selection and the user's resolved
// system prompt into an immutable request, and hands it to the matching
// backend client. Configuration changes made after the snapshot apply to
// the next message, never to one in flight. Nothing is retained between
// turns; there is no session or history on this path.
package conversation
