package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
)

// EmailSender delivers over SMTP with implicit TLS (port 465).
type EmailSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewEmailSender(host, port, username, password, from string) *EmailSender {
	if from == "" {
		from = username
	}
	return &EmailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (e *EmailSender) Name() string { return "email" }

func (e *EmailSender) Send(ctx context.Context, recipient string, msg Message) error {
	payload := []byte(
		fmt.Sprintf("From: %s\r\n", e.from) +
			fmt.Sprintf("To: %s\r\n", recipient) +
			fmt.Sprintf("Subject: %s\r\n", msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
			"\r\n" +
			msg.Body,
	)

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: e.host}}
	conn, err := dialer.DialContext(ctx, "tcp", e.host+":"+e.port)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", e.username, e.password, e.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(e.from); err != nil {
		return err
	}
	if err := client.Rcpt(recipient); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Close()
}
