package ports

// Ingestor is a long-running receipt intake surface (SMTP server,
// mailbox poller, HTTP API). The daemon starts every configured
// ingestor and stops them all on shutdown.
type Ingestor interface {
	// Start begins accepting or polling for receipts
	Start() error

	// Stop shuts the ingestor down
	Stop() error
}
