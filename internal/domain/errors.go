package domain

import "errors"

var (
	// ErrUnreadablePDF is returned when the PDF cannot be opened at all.
	ErrUnreadablePDF = errors.New("unreadable pdf")

	// ErrNoExtractableText is returned when a PDF opens but holds no text.
	ErrNoExtractableText = errors.New("no extractable text in document")

	// ErrDocumentLoaded is returned when a session already holds an index.
	ErrDocumentLoaded = errors.New("a document is already loaded in this session")

	// ErrIndexBuild wraps any failure while embedding or indexing chunks.
	ErrIndexBuild = errors.New("error creating vector store")

	// ErrEmptyCorpus is returned when there is nothing to index.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrMissingCredential is returned at startup when a required secret is unset.
	ErrMissingCredential = errors.New("missing credential")
)
