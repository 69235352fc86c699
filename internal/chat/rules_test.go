package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineReply(t *testing.T) {
	e := NewEngine(nil)
	cases := []struct {
		text  string
		topic string
	}{
		{"How do I BOOK a visit?", "appointment"},
		{"I need to schedule something", "appointment"},
		{"Which doctor is best?", "doctors"},
		{"This is urgent", "emergency"},
		{"When are you open?", "hours"},
		{"Do you take my insurance?", "insurance"},
		{"What treatment options exist?", "services"},
		{"What's your phone number?", "contact"},
		{"How much does it cost?", "fees"},
		{"What are the steps?", "booking"},
		{"Will I get a reminder?", "notifications"},
		{"Who needs to confirm?", "admin"},
		{"hello there", "default"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			topic, reply := e.Reply(tc.text)
			assert.Equal(t, tc.topic, topic)
			assert.NotEmpty(t, reply)
		})
	}
}

func TestEngineFirstMatchWins(t *testing.T) {
	e := NewEngine(nil)
	// "booking process" contains "book", so the appointment rule answers first.
	topic, _ := e.Reply("explain the booking process")
	assert.Equal(t, "appointment", topic)

	// "doctor" precedes "fee".
	topic, _ = e.Reply("doctor fee")
	assert.Equal(t, "doctors", topic)
}

func TestEngineDefaultReply(t *testing.T) {
	_, reply := NewEngine(nil).Reply("")
	assert.Equal(t, DefaultReply, reply)
}

func TestEngineCustomRules(t *testing.T) {
	e := NewEngine([]Rule{{Topic: "parking", Keywords: []string{"parking"}, Reply: "Free parking on site."}})
	topic, reply := e.Reply("Is there PARKING?")
	assert.Equal(t, "parking", topic)
	assert.Equal(t, "Free parking on site.", reply)

	topic, _ = e.Reply("book")
	assert.Equal(t, "default", topic)
}
