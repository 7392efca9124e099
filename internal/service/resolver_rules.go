package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ReplyRephrase answers input too short to act on.
const ReplyRephrase = "Can you please rephrase that? 😊"

const (
	replyGreeting      = "Hey there! 😊 How can I help you today?"
	replyIdentity      = "CodeIt AI is a smart learning assistant created to help students explore courses, mentors, and everything about CodeIt Institute in a simple way! 🤖✨"
	replySelfIntro     = "I'm CodeIt AI 🤖 — your friendly learning assistant here to help you explore courses, mentors, and all things CodeIt Institute!"
	replyGratitude     = "You're very welcome! 💫"
	replyWellbeing     = "I'm great and ready to help you learn! What about you?"
	replyNoOwner       = "Sorry, I couldn't find information about the owner."
	replyNoMentors     = "No mentor info available."
	replyDemo          = "Yes, demo classes are available."
	replyCertificate   = "Yes! You will receive an official completion certificate after finishing the course. 🎓"
	replyBeginner      = "Yes, we have beginner-friendly courses."
	replyPayment       = "We accept eSewa, Khalti, bank deposits, and in-person payments."
	replyProjects      = "Yes — students work on real projects during the course. Ask me about projects in a specific course!"
	replyWhichCourse   = "Which course are you asking about?"
	replyStillLearning = "I'm still learning — I don't have an answer for that yet. 😊"
)

// courseTitleCutoff is the minimum close-match ratio for a course title hit.
const courseTitleCutoff = 0.5

const (
	maxProjectMatches = 3
	maxProjectTitles  = 4
	maxListedCourses  = 12
)

var (
	greetingPrefixes = []string{"hi", "hello", "hey"}

	contactPhrases = []string{
		"contact number", "contact info", "how do i contact", "institute contact",
		"contact details", "phone number", "contact us", "how to contact",
	}

	locationPhrases = []string{
		"where are you located", "where is your institute", "your location",
		"institute location", "center location", "where is codeit", "located at",
	}
)

func (r *AnswerResolver) greeting(_ context.Context, q *Query) (string, bool, error) {
	for _, prefix := range greetingPrefixes {
		if strings.HasPrefix(q.Normalized, prefix) {
			return replyGreeting, true, nil
		}
	}
	return "", false, nil
}

func (r *AnswerResolver) identity(_ context.Context, q *Query) (string, bool, error) {
	if containsAny(q.Normalized, "what is codeit ai", "codeit ai") {
		return replyIdentity, true, nil
	}
	return "", false, nil
}

func (r *AnswerResolver) selfIntro(_ context.Context, q *Query) (string, bool, error) {
	if containsAny(q.Normalized, "who are you", "who r u") {
		return replySelfIntro, true, nil
	}
	return "", false, nil
}

func (r *AnswerResolver) gratitude(_ context.Context, q *Query) (string, bool, error) {
	if containsAny(q.Normalized, "thank", "thanks") {
		return replyGratitude, true, nil
	}
	return "", false, nil
}

func (r *AnswerResolver) wellbeing(_ context.Context, q *Query) (string, bool, error) {
	if strings.Contains(q.Normalized, "how are you") {
		return replyWellbeing, true, nil
	}
	return "", false, nil
}

func (r *AnswerResolver) contact(_ context.Context, q *Query) (string, bool, error) {
	if !containsAny(q.Normalized, contactPhrases...) {
		return "", false, nil
	}
	c := r.dataset.Company.Contact
	return fmt.Sprintf("Email: %s | Phones: %s | Working hours: %s",
		c.Email, strings.Join(c.Phones, ", "), c.WorkingHours), true, nil
}

func (r *AnswerResolver) location(_ context.Context, q *Query) (string, bool, error) {
	if !containsAny(q.Normalized, locationPhrases...) {
		return "", false, nil
	}
	return fmt.Sprintf("Our company is located at %s.", r.dataset.Company.Location), true, nil
}

func (r *AnswerResolver) ownership(_ context.Context, q *Query) (string, bool, error) {
	if !containsAny(q.Normalized, ownershipKeywords...) {
		return "", false, nil
	}

	company := r.dataset.Company
	for _, m := range company.Mentors {
		if isOwnerRole(m.Role.String()) {
			r.rememberPerson(m)
			return fmt.Sprintf("%s is the %s of %s with %s experience.", m.Name, m.Role, company.Name, m.Experience), true, nil
		}
	}
	return replyNoOwner, true, nil
}

func (r *AnswerResolver) mentors(_ context.Context, q *Query) (string, bool, error) {
	if !strings.Contains(q.Normalized, "mentor") || strings.Contains(q.Normalized, "who is") {
		return "", false, nil
	}

	mentors := r.dataset.Company.Mentors
	if len(mentors) == 0 {
		return replyNoMentors, true, nil
	}
	lines := make([]string, 0, len(mentors))
	for _, m := range mentors {
		lines = append(lines, fmt.Sprintf("%s - %s (%s)", m.Name, m.Role, m.Experience))
	}
	return "Some mentors:\n" + joinLines(lines), true, nil
}

// keywordReply answers with a canned reply when any keyword occurs.
func keywordReply(reply string, keywords ...string) func(context.Context, *Query) (string, bool, error) {
	return func(_ context.Context, q *Query) (string, bool, error) {
		if containsAny(q.Normalized, keywords...) {
			return reply, true, nil
		}
		return "", false, nil
	}
}

func (r *AnswerResolver) projects(_ context.Context, q *Query) (string, bool, error) {
	if !strings.Contains(q.Normalized, "project") || strings.Contains(q.Normalized, "price") {
		return "", false, nil
	}

	var found []string
	for _, p := range r.dataset.Projects {
		if mentions(q.Normalized, p.Title.String()) || mentions(q.Normalized, p.Course.String()) {
			found = append(found, fmt.Sprintf("- %s (%s)", p.Title, p.Course))
		}
	}
	if len(found) > 0 {
		return "Here are some relevant projects:\n" + joinLines(found[:min(len(found), maxProjectMatches)]), true, nil
	}

	if containsAny(q.Normalized, "what projects", "list projects") {
		projects := r.dataset.Projects[:min(len(r.dataset.Projects), maxProjectTitles)]
		titles := make([]string, len(projects))
		for i, p := range projects {
			titles[i] = p.Title.String()
		}
		return "We have many projects like: " + strings.Join(titles, ", ") + "...", true, nil
	}

	return replyProjects, true, nil
}

func (r *AnswerResolver) courseTitle(_ context.Context, q *Query) (string, bool, error) {
	for _, category := range r.dataset.Courses {
		titles := make([]string, len(category.Courses))
		for i, c := range category.Courses {
			titles[i] = strings.ToLower(c.Title.String())
		}

		match, ok := closeMatch(q.Normalized, titles, courseTitleCutoff)
		if !ok {
			continue
		}
		for _, c := range category.Courses {
			if strings.ToLower(c.Title.String()) != match {
				continue
			}
			r.rememberTopic(c.Title.String())
			price := c.Price.String()
			if price == "" {
				price = "N/A"
			}
			return fmt.Sprintf("%s — Price: %s. %s", c.Title, price, c.URL), true, nil
		}
	}
	return "", false, nil
}

func (r *AnswerResolver) courseListing(_ context.Context, q *Query) (string, bool, error) {
	if !containsAny(q.Normalized, "course", "training", "offer") {
		return "", false, nil
	}

	for _, category := range r.dataset.Courses {
		name := categoryLabel(category.Name)
		if !mentions(q.Normalized, name) {
			continue
		}
		items := make([]string, 0, len(category.Courses))
		for _, c := range category.Courses {
			items = append(items, fmt.Sprintf("- %s (%s)", c.Title, c.Price))
		}
		return titleCase(name) + " Courses:\n" + joinLines(items), true, nil
	}

	var out []string
	for _, category := range r.dataset.Courses {
		label := titleCase(categoryLabel(category.Name))
		for _, c := range category.Courses {
			out = append(out, fmt.Sprintf("- %s (%s)", c.Title, label))
		}
	}
	return "Available courses:\n" + joinLines(out[:min(len(out), maxListedCourses)]) + "\n...and more!", true, nil
}

func (r *AnswerResolver) instructor(_ context.Context, q *Query) (string, bool, error) {
	if !containsAny(q.Normalized, "teach", "trainer", "instructor") {
		return "", false, nil
	}

	for _, category := range r.dataset.Courses {
		for _, c := range category.Courses {
			if !mentions(q.Normalized, c.Title.String()) {
				continue
			}
			if teacher := c.Teacher(); teacher != "" {
				return fmt.Sprintf("%s teaches %s.", teacher, c.Title), true, nil
			}
			return fmt.Sprintf("I don't have instructor info for %s.", c.Title), true, nil
		}
	}
	return replyWhichCourse, true, nil
}

func (r *AnswerResolver) structure(_ context.Context, q *Query) (string, bool, error) {
	if !containsAny(q.Normalized, "structure", "duration", "benefits") {
		return "", false, nil
	}
	cs := r.dataset.CourseStructure
	return fmt.Sprintf("Session: %s, Daily: %s", cs.SessionLength, cs.DailyDuration), true, nil
}

// mentions reports whether the normalized query contains a non-empty name,
// compared case-insensitively.
func mentions(normalized, name string) bool {
	name = strings.ToLower(name)
	return name != "" && strings.Contains(normalized, name)
}

func categoryLabel(category string) string {
	return strings.ToLower(strings.ReplaceAll(category, "_", " "))
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

