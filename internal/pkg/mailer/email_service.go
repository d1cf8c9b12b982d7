// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"

	"nova-drive-be/internal/entity"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/repository/contract"

	"gopkg.in/gomail.v2"
)

const emergencySubject = "🚨 Emergency Alert: Driver Unresponsive"

type IEmailService interface {
	SendEmergencyEmail(ctx context.Context, streamURL, toEmail string) error
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer      Dialer
	senderEmail string
	senderName  string
	locations   contract.ILocationRepository
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string, locations contract.ILocationRepository, log logger.ILogger) IEmailService {
	d := gomail.NewDialer(host, port, username, password)
	return NewEmailServiceWithDialer(d, senderEmail, senderName, locations, log)
}

func NewEmailServiceWithDialer(d Dialer, senderEmail, senderName string, locations contract.ILocationRepository, log logger.ILogger) IEmailService {
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
		locations:   locations,
		logger:      log,
	}
}

func (s *emailService) SendEmergencyEmail(ctx context.Context, streamURL, toEmail string) error {
	if toEmail == "" {
		return errors.New("no receiver email configured")
	}

	loc, err := s.locations.Load(ctx)
	if err != nil && !errors.Is(err, contract.ErrLocationNotFound) {
		s.logger.Warn("MAILER", "Last location unavailable", map[string]interface{}{"error": err.Error()})
	}
	if err != nil {
		loc = nil
	}

	m := BuildEmergencyMessage(s.senderEmail, s.senderName, toEmail, streamURL, loc)
	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("MAILER", "Failed to send emergency email", map[string]interface{}{
			"to":    toEmail,
			"error": err.Error(),
		})
		return fmt.Errorf("send emergency email: %w", err)
	}

	s.logger.Info("MAILER", "Emergency email sent", map[string]interface{}{"to": toEmail})
	return nil
}

// MapLink pins loc on Google Maps, or opens the bare map when loc is nil.
func MapLink(loc *entity.Location) string {
	if loc == nil {
		return "https://www.google.com/maps"
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", loc.Latitude, loc.Longitude)
}

// BuildEmergencyMessage renders the alert with a plain text part and an HTML
// alternative.
func BuildEmergencyMessage(from, fromName, to, streamURL string, loc *entity.Location) *gomail.Message {
	position := "Unknown"
	address := entity.UnknownAddress
	if loc != nil {
		position = fmt.Sprintf("%.6f, %.6f", loc.Latitude, loc.Longitude)
		if loc.Address != "" {
			address = loc.Address
		}
	}
	mapURL := MapLink(loc)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", emergencySubject)

	m.SetBody("text/plain", fmt.Sprintf(
		"ALERT! The driver may be asleep.\nAddress: %s\nLocation: %s\nStream: %s\nLive Map: %s\n",
		address, position, streamURL, mapURL,
	))

	body := fmt.Sprintf(`
		<div style="max-width: 600px; margin: 40px auto; font-family: 'Segoe UI', Arial, sans-serif; color: #222;">
			<div style="background: #1a1a2e; padding: 24px; text-align: center;">
				<h2 style="color: #ffffff; margin: 0;">🚨 Driver Safety Alert</h2>
			</div>
			<div style="padding: 30px;">
				<p style="font-size: 17px;">
					<strong>Alert:</strong> The driver appears to be <span style="color: #e63946;"><strong>unresponsive</strong></span>.
				</p>
				<p style="font-size: 15px; color: #444;"><strong>Last known address:</strong> %s</p>
				<p style="font-size: 15px; color: #444;"><strong>Coordinates:</strong> <span style="color: #1a8cff;">%s</span></p>
				<div style="text-align: center; margin: 20px 0;">
					<a href="%s" style="background: #ffc107; color: black; padding: 12px 24px; text-decoration: none; font-weight: bold; border-radius: 30px;">📍 Live Location</a>
				</div>
				<div style="text-align: center; margin: 20px 0;">
					<a href="%s" style="background: #1a8cff; color: white; padding: 14px 28px; text-decoration: none; font-weight: bold; border-radius: 30px;">▶️ Live Streaming</a>
				</div>
				<hr style="border: none; border-top: 1px solid #e0e0e0; margin: 30px 0;">
				<p style="font-size: 13px; color: #888; text-align: center;">
					Sent automatically by your Driver Monitoring System. Please do not reply.
				</p>
			</div>
		</div>
	`, html.EscapeString(address), position, html.EscapeString(mapURL), html.EscapeString(streamURL))

	m.AddAlternative("text/html", body)
	return m
}
