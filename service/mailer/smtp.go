package mailer

import (
	"crypto/tls"
	"net"
	"net/smtp"
	"strconv"
)

// smtpTransport is the real SMTP delivery path. It speaks plain SMTP with an
// optional STARTTLS upgrade before authenticating.
type smtpTransport struct {
	host     string
	port     int
	username string
	password string
	useTLS   bool
}

func (t *smtpTransport) Send(from, to string, msg []byte) error {
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))

	c, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if t.useTLS {
		if err := c.StartTLS(&tls.Config{ServerName: t.host}); err != nil {
			return err
		}
	}

	auth := smtp.PlainAuth("", t.username, t.password, t.host)
	if err := c.Auth(auth); err != nil {
		return err
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}
