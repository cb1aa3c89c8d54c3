package port

import "context"

type Mail struct {
	Subject string
	Body    string
	From    string
	To      []string
}

// Mailer delivers receipts. Send failures must surface to the caller;
// checkout depends on that to abort its transaction.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// Announcer posts free text plus an optional media file to an external
// service. Callers treat it as best-effort and discard errors.
type Announcer interface {
	Post(ctx context.Context, text, mediaPath string) error
}
