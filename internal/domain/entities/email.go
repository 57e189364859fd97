package entities

// EmailMessage is what the notification dispatcher needs to deliver one e-mail.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}
