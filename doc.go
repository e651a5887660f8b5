// Package talentvec is a resume ingestion and semantic search service.
//
// Resumes are ingested from files (PDF, DOCX, legacy DOC, images, HTML,
// plain text), run through text extraction with OCR fallback, classified
// into a category taxonomy, and mined for structured fields by a fleet of
// LLM extractors. The extracted text is chunked, embedded, and upserted
// into per-category Pinecone namespaces; structured fields land in MySQL.
//
// Search accepts free-text queries, parses them into structured filters,
// and fans out across candidate namespaces, combining vector similarity
// with rule-based relevance scoring into a single fit tier per candidate.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/talentvec/talentvec/cmd/talentvec@latest
//
// Initialize the vector indexes, then ingest and search:
//
//	talentvec init-vectors
//	talentvec ingest ./resumes
//	talentvec search "senior python developer with 5 years in bangalore"
//
// Or run the HTTP API:
//
//	talentvec serve --port 8080
//
// Configuration is environment-driven; see pkg/config for the full set of
// variables.
package talentvec
