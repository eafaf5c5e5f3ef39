// Package core provides the batch reconciliation and bulk-import engine.
//
// It has no transport dependencies: web handlers, the CLI and tests all drive
// it through [Service] or the orchestrators directly.
//
// # Media reconciliation
//
// Each uploaded filename carries a participant code ("QR" plus seven digits).
// [ExtractCode] pulls it out, an [EntityIndex] resolves it, and
// [MediaUploader] stores the bytes in a [BlobStore] before writing the
// metadata row to a [RecordStore]. When the metadata write fails the blob is
// deleted again. Files without a resolvable code are reported as orphans.
//
// # Bulk import
//
// [ReadTabular] parses a comma-separated file against a [ColumnContract];
// headers are matched by alias, ignoring case and accents. [BatchImporter]
// inserts the rows in batches of [DefaultBatchSize], concurrently within a
// batch, and reports per-row failures by source line.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError].
// Codes are grouped by category:
//
//   - DB001-DB007: database constraints and connectivity
//   - VAL001-VAL004: scope and header validation
//   - FILE001-FILE005: uploaded file handling
//   - MED001-MED004: media reconciliation
//   - RUN001-RUN005: background runs
package core
