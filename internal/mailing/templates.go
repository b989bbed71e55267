package mailing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meleemajors/meleemajors/internal/placeholder"
	"github.com/meleemajors/meleemajors/internal/tournament"
)

// Template file names inside the email template directory.
const (
	ReminderSubjectFile = "reminderSubject.txt"
	ReminderFile        = "reminder.html"
	Top8SubjectFile     = "top8Subject.txt"
	Top8File            = "top8.html"
	Top8StreamFile      = "top8Stream.html"
)

// Templates are the email subjects and bodies. Top8Stream is appended to the
// top 8 body when the tournament has a stream.
type Templates struct {
	ReminderSubject string
	Reminder        string
	Top8Subject     string
	Top8            string
	Top8Stream      string
}

// LoadTemplates reads the email templates from dir and validates their
// placeholders.
func LoadTemplates(dir string) (*Templates, error) {
	t := &Templates{}
	files := []struct {
		name string
		dst  *string
	}{
		{ReminderSubjectFile, &t.ReminderSubject},
		{ReminderFile, &t.Reminder},
		{Top8SubjectFile, &t.Top8Subject},
		{Top8File, &t.Top8},
		{Top8StreamFile, &t.Top8Stream},
	}

	known := tournament.FieldNames()
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			return nil, fmt.Errorf("failed to read email template: %w", err)
		}
		text := string(data)
		if strings.HasSuffix(f.name, ".txt") {
			text = strings.TrimSpace(text)
		}
		if err := placeholder.Validate(text, known); err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = text
	}
	return t, nil
}
