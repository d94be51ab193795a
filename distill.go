// Package distill turns a URL or an uploaded file into a single block of
// clean, normalized plain text suitable for downstream summarization.
//
// URL extraction escalates through increasingly expensive providers (static
// fetch, JavaScript rendering, a reader proxy) until a quality gate accepts
// the text. File extraction routes documents, images and audio to hosted
// OCR and transcription services. A premium tier runs a fetch-and-render
// provider behind authentication, subscription and monthly quota checks.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., readability/, rod/, sqlite/).
package distill
