package email

import (
	"fmt"
	"net/smtp"

	"github.com/clubcashin/credit-service/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPreApprovalEmail notifies an applicant that their credit request has
// been pre-approved
func (s *Sender) SendPreApprovalEmail(to, name string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Credit application pre-approved"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Thank you for applying with Club Cash In. Your credit application "+
			"has been pre-approved.\n"+
			"We will contact you shortly to complete the process.\n"+
			"\nBest regards,\nClub Cash In",
		name,
	)
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
