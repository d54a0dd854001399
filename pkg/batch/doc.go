// Package batch defines the core types of the drey batch-formation engine.
// A batch is a durable grouping of related issues that should be addressed
// together rather than one at a time. Batches are produced by the engine in
// internal/engine, persisted through internal/store, and then driven through
// a fixed lifecycle by downstream tooling (spec creation, build, QA, PR).
//
// The types here are the shared contract between the engine, its stores, and
// the CLI: every persisted record is the JSON form of a Batch, and the
// issue-to-batch Index guarantees that no issue is ever owned by two active
// batches at once.
//
// Key types:
//   - Issue: a read-only unit of work from an external tracker
//   - Batch: the persisted grouping, anchored on a primary issue
//   - Member: one issue inside a batch with its similarity to the primary
//   - Status: the closed lifecycle enum with an enforced transition table
//   - SimilarityJudgment: the similarity oracle's verdict for an issue pair
package batch
