// Package assist implements the conversational SQL query engine.
//
// The [Assistant] is the top-level per-request state machine: it classifies
// incoming queries, short-circuits small talk, resolves follow-up questions
// against session history, drives the SQL generation and execution pipeline,
// and narrates retrieved rows back as a natural-language answer. Every chat
// invocation appends exactly one user turn and one assistant turn to the
// session log, including on error paths, and never returns an error to
// its caller; failures surface inside the structured [Outcome].
//
// The engine talks to two external collaborators, both injected: the
// language-model oracle ([github.com/opsdesk/opsdesk/internal/oracle.Oracle])
// and the relational store ([QueryStore]). Both are treated as unreliable;
// degradation policy lives here, per failure mode:
//
//   - Query understanding and follow-up rewriting degrade silently to safe
//     defaults.
//   - The conversational reply path falls back to a canned response.
//   - SQL execution failures get exactly one correction retry, then become
//     a terminal pipeline error converted into an apology outcome.
package assist
