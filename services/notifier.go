package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/clubarena/clubarena/config"
)

// SMTPNotifier emails platform admins. Port 465 uses a direct TLS dial,
// anything else STARTTLS.
type SMTPNotifier struct {
	cfg *config.Config
}

func NewSMTPNotifier(cfg *config.Config) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) NotifyAdmins(ctx context.Context, subject, body string) error {
	msg := []byte("To: " + n.cfg.AdminEmail + "\r\n" +
		"From: " + n.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)
	tlsConfig := &tls.Config{ServerName: n.cfg.SMTPHost}

	var client *smtp.Client
	if n.cfg.SMTPPort == 465 {
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial failed: %w", err)
		}
		client, err = smtp.NewClient(conn, n.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("smtp client creation failed: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp STARTTLS failed: %w", err)
		}
	}
	defer client.Close()

	auth := smtp.PlainAuth("", n.cfg.SMTPUser, n.cfg.SMTPPass, n.cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	if err := client.Mail(n.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("smtp MAIL failed: %w", err)
	}
	if err := client.Rcpt(n.cfg.AdminEmail); err != nil {
		return fmt.Errorf("smtp RCPT failed: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("smtp write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close failed: %w", err)
	}
	return client.Quit()
}

// LogNotifier stands in when SMTP is not configured; conflicts still land in
// the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) NotifyAdmins(ctx context.Context, subject, body string) error {
	n.Logger.Info("admin notification",
		slog.String("subject", subject),
		slog.String("body", body),
	)
	return nil
}
