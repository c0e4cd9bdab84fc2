package push

// Config carries the server-wide VAPID key pair and delivery options. It is
// passed explicitly into whatever needs it so tests can inject a disabled or
// mock transport.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	// Subscriber is the contact address required by push services (mailto: URL).
	Subscriber string
	// TTL is how many seconds a push service may hold an undelivered message.
	TTL int
}

// Enabled reports whether the VAPID pair is configured. When it is not, push
// delivery is skipped entirely and notifications rely on the durable inbox.
func (c Config) Enabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
