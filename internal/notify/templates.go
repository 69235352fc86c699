package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const (
	// DefaultFromName is the display name on outgoing clinic email.
	DefaultFromName = "MediBook"

	SubjectConfirmation = "Appointment Confirmation - MediBook"
	SubjectReminder     = "Appointment Reminder - MediBook"

	clinicPhone        = "(555) 123-4567"
	clinicPhoneTel     = "+15551234567"
	clinicAddress      = "123 Medical Center Drive, Healthcare City, HC 12345"
	confirmationNotice = "Please arrive 15 minutes early and bring your insurance card and a valid ID."
	reminderNotice     = "Your appointment is in a few hours. Please don't forget!"
	rescheduleNotice   = "If you need to reschedule or cancel your appointment, please contact us at least 24 hours in advance."
)

// Rendered is a ready-to-send email body.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type emailView struct {
	Heading     string
	PatientName string
	Intro       string
	DoctorName  string
	Date        string
	Time        string
	Notice      string
	NoticeBG    template.CSS
	NoticeBar   template.CSS
	NoticeColor template.CSS
	Reschedule  string
	Phone       string
	PhoneTel    string
	Address     string
	Year        int
}

var emailTemplate = template.Must(template.New("appointment").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f8fafc;">
  <div style="background: linear-gradient(135deg, #3b82f6, #06b6d4); padding: 30px; border-radius: 12px 12px 0 0; text-align: center;">
    <h1 style="color: white; margin: 0; font-size: 28px;">MediBook</h1>
    <p style="color: white; margin: 10px 0 0 0; opacity: 0.9;">Your Healthcare Partner</p>
  </div>
  <div style="background: white; padding: 30px; border-radius: 0 0 12px 12px;">
    <h2 style="color: #1e40af; margin-bottom: 20px;">{{.Heading}}</h2>
    <p style="color: #374151; line-height: 1.6;">Dear {{.PatientName}},</p>
    <p style="color: #374151; line-height: 1.6;">{{.Intro}}</p>
    <div style="background: #f1f5f9; padding: 20px; border-radius: 8px; margin-bottom: 25px;">
      <h3 style="color: #1e40af; margin: 0 0 15px 0;">Appointment Details:</h3>
      <p style="margin: 8px 0; color: #374151;"><strong>Doctor:</strong> Dr. {{.DoctorName}}</p>
      <p style="margin: 8px 0; color: #374151;"><strong>Date:</strong> {{.Date}}</p>
      <p style="margin: 8px 0; color: #374151;"><strong>Time:</strong> {{.Time}}</p>
    </div>
    <div style="background: {{.NoticeBG}}; border-left: 4px solid {{.NoticeBar}}; padding: 15px; margin-bottom: 25px;">
      <p style="margin: 0; color: {{.NoticeColor}}; font-weight: 500;">{{.Notice}}</p>
    </div>
    <p style="color: #374151; line-height: 1.6;">{{.Reschedule}}</p>
    <div style="text-align: center; margin-bottom: 25px;">
      <a href="tel:{{.PhoneTel}}" style="background: #3b82f6; color: white; padding: 12px 25px; text-decoration: none; border-radius: 6px;">Call Us: {{.Phone}}</a>
    </div>
    <p style="color: #6b7280; font-size: 14px; text-align: center;">Thank you for choosing MediBook for your healthcare needs.</p>
  </div>
  <div style="text-align: center; margin-top: 20px; color: #9ca3af; font-size: 12px;">
    <p>&copy; {{.Year}} MediBook. All rights reserved.</p>
    <p>{{.Address}}</p>
  </div>
</div>`))

// Render builds the subject and bodies for a notification request.
func Render(req Request, now time.Time) (*Rendered, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	view := emailView{
		PatientName: req.PatientName,
		DoctorName:  req.DoctorName,
		Date:        FormatLongDate(req.AppointmentDate),
		Time:        req.AppointmentTime,
		Reschedule:  rescheduleNotice,
		Phone:       clinicPhone,
		PhoneTel:    clinicPhoneTel,
		Address:     clinicAddress,
		Year:        now.Year(),
	}
	subject := SubjectConfirmation
	if req.Type == TypeReminder {
		subject = SubjectReminder
		view.Heading = "Appointment Reminder"
		view.Intro = "This is a friendly reminder about your upcoming appointment."
		view.Notice = reminderNotice
		view.NoticeBG, view.NoticeBar, view.NoticeColor = "#fef3c7", "#f59e0b", "#92400e"
	} else {
		view.Heading = "Appointment Confirmed!"
		view.Intro = "Your appointment has been successfully scheduled with our medical team."
		view.Notice = confirmationNotice
		view.NoticeBG, view.NoticeBar, view.NoticeColor = "#dbeafe", "#3b82f6", "#1e40af"
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("notify: render %s email: %w", req.Type, err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s\n\nDear %s,\n\n%s\n\n", view.Heading, view.PatientName, view.Intro)
	fmt.Fprintf(&text, "Doctor: Dr. %s\nDate: %s\nTime: %s\n\n", view.DoctorName, view.Date, view.Time)
	fmt.Fprintf(&text, "%s\n\n%s\nCall us: %s\n", view.Notice, view.Reschedule, view.Phone)

	return &Rendered{Subject: subject, HTML: buf.String(), Text: text.String()}, nil
}

// FormatLongDate renders 2025-03-10 as "Monday, March 10, 2025". Unparseable input is returned unchanged.
func FormatLongDate(date string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}
