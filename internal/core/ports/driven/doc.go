// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for ingestion and answering to function:
//
//   - PageRenderer: Rasterises PDF pages (poppler pdftoppm)
//   - TextExtractor: Extracts per-page plain text from a PDF
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - ManualStore: Manual registry persistence
//   - ProgressReporter: Ingest status snapshot
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VisionService: Icon classification. Without it, no icons are classified
//     and manuals are indexed on their text alone.
//   - LLMService: Intent classification and answers. Without it, only search works.
//   - Metrics: Pipeline instrumentation.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
