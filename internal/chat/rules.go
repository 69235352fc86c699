package chat

import "strings"

// Greeting opens every widget session.
const Greeting = "Hello! I'm here to help you with any questions about our medical services, appointments, or doctors. How can I assist you today?"

// DefaultReply is used when no rule matches.
const DefaultReply = "I'm your MediBook assistant! I can help you with booking appointments, finding doctors, understanding our services, checking hours, insurance questions, and general information about our medical center. What would you like to know?"

// Rule maps keywords to a canned reply.
type Rule struct {
	Topic    string
	Keywords []string
	Reply    string
}

// DefaultRules are evaluated in order; the first rule with a keyword
// contained in the lowercased message wins.
var DefaultRules = []Rule{
	{
		Topic:    "appointment",
		Keywords: []string{"appointment", "book", "schedule"},
		Reply:    "To book an appointment, scroll down to the 'Book Your Appointment' section or click 'Book Appointment' next to any doctor in our 'Meet Our Expert Doctors' section. Follow the 3-step process: Select Doctor → Choose Date & Time → Confirm Details.",
	},
	{
		Topic:    "doctors",
		Keywords: []string{"doctor", "physician", "specialist"},
		Reply:    "Our expert doctors include Dr. Sarah Johnson (Cardiologist), Dr. Michael Chen (Neurologist), Dr. Emily Rodriguez (Pediatrician), and Dr. James Wilson (Orthopedic Surgeon). You can view their full profiles and book directly with them in the 'Meet Our Expert Doctors' section.",
	},
	{
		Topic:    "emergency",
		Keywords: []string{"emergency", "urgent"},
		Reply:    "For medical emergencies, please call 911 immediately or visit your nearest emergency room. For urgent but non-emergency care, you can call our emergency hotline at (555) 123-4567.",
	},
	{
		Topic:    "hours",
		Keywords: []string{"hours", "time", "open"},
		Reply:    "Our clinic is open Monday to Friday 9:00 AM - 6:00 PM, and Saturday 9:00 AM - 2:00 PM. We're closed on Sundays. Available appointment slots are 9:00 AM - 11:30 AM and 2:00 PM - 4:30 PM.",
	},
	{
		Topic:    "insurance",
		Keywords: []string{"insurance", "coverage"},
		Reply:    "We accept most major insurance plans including Blue Cross, Aetna, Cigna, and United Healthcare. Please bring your insurance card to your appointment. You can select your insurance carrier during the booking process.",
	},
	{
		Topic:    "services",
		Keywords: []string{"service", "treatment"},
		Reply:    "We offer comprehensive medical services including routine checkups, preventive care, specialist consultations (Cardiology, Neurology, Pediatrics, Orthopedics), diagnostic tests, and emergency care. Each doctor specializes in specific treatments.",
	},
	{
		Topic:    "contact",
		Keywords: []string{"contact", "phone", "address"},
		Reply:    "You can reach us at (555) 123-4567 or email us at info@medibook.com. Our clinic is located at 123 Medical Center Drive. You can also book appointments directly through this website.",
	},
	{
		Topic:    "fees",
		Keywords: []string{"fee", "cost", "price", "payment"},
		Reply:    "Consultation fees vary by specialist: Dr. Johnson (Cardiology) - $120, Dr. Chen (Neurology) - $110, Dr. Rodriguez (Pediatrics) - $100, Dr. Wilson (Orthopedics) - $130. Fees are displayed when you select a doctor.",
	},
	{
		Topic:    "booking",
		Keywords: []string{"how to book", "booking process", "steps"},
		Reply:    "Our 3-step booking process is: 1) Select your preferred doctor from our expert team, 2) Choose your preferred date and time (we're available Monday-Saturday), 3) Fill in your personal details and confirm. You'll receive email confirmation and reminders.",
	},
	{
		Topic:    "notifications",
		Keywords: []string{"notification", "reminder", "confirmation"},
		Reply:    "After booking, you'll receive an immediate email confirmation. We also send reminder notifications 2 hours before your scheduled appointment to both your email and phone number.",
	},
	{
		Topic:    "admin",
		Keywords: []string{"admin", "approval", "confirm"},
		Reply:    "Appointments require admin approval. After booking, an admin will review and either confirm or reschedule your appointment based on availability. You'll be notified of the status change.",
	},
}

// Engine answers messages from an ordered rule list.
type Engine struct {
	rules []Rule
}

// NewEngine uses DefaultRules when rules is empty.
func NewEngine(rules []Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Engine{rules: rules}
}

// Reply returns the matched topic ("default" when nothing matched) and the answer.
func (e *Engine) Reply(text string) (string, string) {
	lower := strings.ToLower(text)
	for _, rule := range e.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Topic, rule.Reply
			}
		}
	}
	return "default", DefaultReply
}
