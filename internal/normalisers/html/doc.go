// Package html provides a Normaliser implementation for HTML documents.
// It parses the markup with goquery and keeps the readable text, dropping
// scripts, styles and other non-content elements.
package html
