package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// Mailer sends emails over SMTP. Every send is fire-and-forget: failures are
// logged and never surfaced to the caller's primary operation.
type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

func NewMailer() *Mailer {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")

	enabled := host != "" && port != "" && user != "" && pass != "" && from != ""
	if !enabled {
		log.Println("mailer disabled: missing SMTP environment variables")
	}

	return &Mailer{
		Host:     host,
		Port:     port,
		Username: user,
		Password: pass,
		From:     from,
		Enabled:  enabled,
	}
}

// SendAsync sends an HTML email in a background goroutine.
func (m *Mailer) SendAsync(to []string, subject, body string) {
	if m == nil || !m.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)
		addr := fmt.Sprintf("%s:%s", m.Host, m.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: Sociafy <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), m.From, subject, mime, body))

		if err := smtp.SendMail(addr, auth, m.From, to, msg); err != nil {
			log.Printf("failed to send email to %v: %v", to, err)
		}
	}()
}

func (m *Mailer) SendWelcomeEmail(email, firstName string) {
	body := fmt.Sprintf("<p>Hi %s,</p><p>Welcome to Sociafy! Your account is ready.</p>", firstName)
	m.SendAsync([]string{email}, "Welcome to Sociafy", body)
}

func (m *Mailer) SendMentionEmail(email, actorName, entityType string) {
	body := fmt.Sprintf("<p>%s mentioned you in a %s.</p>", actorName, entityType)
	m.SendAsync([]string{email}, fmt.Sprintf("%s mentioned you on Sociafy", actorName), body)
}

func (m *Mailer) SendFriendRequestEmail(email, actorName string) {
	body := fmt.Sprintf("<p>%s sent you a friend request.</p>", actorName)
	m.SendAsync([]string{email}, "New friend request on Sociafy", body)
}
