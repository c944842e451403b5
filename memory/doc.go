// Package memory builds and serves the club's semantic finance index.
//
// Raw account and transaction rows are rendered into narrative text
// (accounts, per-transaction lines, per-member monthly summaries), embedded,
// and assembled into an in-process corpus backed by chromem-go. The corpus
// is rebuilt wholesale, never upserted incrementally.
//
// Components:
//   - Builder: one all-or-nothing fetch/narrate/embed/assemble pass
//   - Registry: process-wide holder of the current Store with a one-shot,
//     retryable bootstrap
//   - SearchService: the semantic query surface exposed to the agent
//
// Collaborators are injected: Source supplies rows (see source/sqlite),
// Embedder supplies vectors (see embedder/openai and embedder/mock).
package memory
