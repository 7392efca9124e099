package service

import (
	"fmt"
	"strings"

	"codeit-chatbot/internal/models"
)

type faqEntry struct {
	question string
	answer   string
}

// staticFAQ is appended to every knowledge base in this order.
var staticFAQ = []faqEntry{
	{"online classes", "Yes, we offer online and onsite classes."},
	{"demo class", "Yes, demo classes are available."},
	{"certificate", "A completion certificate is provided after finishing the course."},
	{"refund", "Refunds depend on institute policy. Please contact the admin office for details."},
	{"internship", "Internship opportunities are provided to top-performing students."},
	{"payment methods", "We accept eSewa, Khalti, bank deposits, and in-person payments."},
	{"beginner", "Yes, we have courses suitable for beginners with no prior experience."},
	{"support", "We provide doubt-support during and after the course."},
	{"enroll", "You can enroll via our website or by visiting our institute."},
	{"projects", "Yes — students work on real projects during the course."},
}

var ownershipKeywords = []string{"ceo", "founder", "owner"}

// BuildKnowledgeBase derives the question/answer pairs used for semantic
// retrieval. It is deterministic: the same dataset always yields the same
// pairs in the same order, which is what keeps the embedding cache valid.
func BuildKnowledgeBase(ds *models.Dataset) *models.KnowledgeBase {
	kb := &models.KnowledgeBase{}
	if ds == nil {
		ds = &models.Dataset{}
	}

	company := ds.Company
	if !company.IsEmpty() {
		addCompanyEntries(kb, company)
	}

	addMentorEntries(kb, company.Mentors)

	if cs := ds.CourseStructure; !cs.IsEmpty() {
		kb.Add("course duration", fmt.Sprintf("Session length: %s , Daily: %s", cs.SessionLength, cs.DailyDuration))
		if len(cs.Benefits) > 0 {
			kb.Add("course benefits", "Benefits: "+strings.Join(cs.Benefits, "; "))
		}
	}

	for _, category := range ds.Courses {
		for _, course := range category.Courses {
			addCourseEntries(kb, category.Name, course)
		}
	}

	for _, faq := range staticFAQ {
		kb.Add(faq.question, faq.answer)
	}

	addProjectEntries(kb, ds.Projects)

	return kb
}

func addCompanyEntries(kb *models.KnowledgeBase, company models.Company) {
	if company.Name != "" {
		identity := fmt.Sprintf("%s - %s. %s", company.Name, company.Tagline, company.About)
		kb.Add("what is "+company.Name.String(), identity)
		kb.Add("what is codeit", identity)
		kb.Add("who are you", "I am CodeIt AI 🤖 — your friendly learning assistant!")
		kb.Add("what is codeit ai", "CodeIt AI is a smart assistant that helps students learn about courses, mentors, fees, and more!")
	}

	contact := company.Contact
	kb.Add("where are you located", company.Address())
	kb.Add("contact", fmt.Sprintf("Email: %s. Phones: %s", contact.Email, strings.Join(contact.Phones, ", ")))
	kb.Add("working hours", contact.WorkingHours.String())
}

func addMentorEntries(kb *models.KnowledgeBase, mentors []models.Mentor) {
	if len(mentors) == 0 {
		return
	}

	lines := make([]string, 0, len(mentors))
	for _, m := range mentors {
		lines = append(lines, mentorLine(m))
	}
	kb.Add("mentors", strings.Join(lines, "\n"))

	for _, m := range mentors {
		if m.Name != "" {
			kb.Add("who is "+m.Name.String(), mentorLine(m))
			kb.Add("who is "+m.Role.String(), mentorLine(m))
		}
		if isOwnerRole(m.Role.String()) {
			kb.Add("who is the ceo", mentorLine(m))
			kb.Add("who is the founder", mentorLine(m))
			kb.Add("who is the owner", mentorLine(m))
		}
	}
}

func addCourseEntries(kb *models.KnowledgeBase, category string, course models.Course) {
	title := strings.TrimSpace(course.Title.String())
	if title == "" {
		return
	}
	price := course.Price.String()

	summary := fmt.Sprintf("%s — Price: %s. URL: %s", title, price, course.URL)
	kb.Add(title, summary)
	kb.Add("price of "+title, fmt.Sprintf("The price of '%s' is %s.", title, price))
	if blurb := course.Blurb(); blurb != "" {
		kb.Add("what is "+title, fmt.Sprintf("%s: %s Price: %s. URL: %s", title, blurb, price, course.URL))
	} else {
		kb.Add("what is "+title, summary)
	}
	kb.Add(fmt.Sprintf("%s course %s", category, title), fmt.Sprintf("%s — %s. %s", title, price, course.URL))
}

func addProjectEntries(kb *models.KnowledgeBase, projects []models.Project) {
	if len(projects) == 0 {
		return
	}

	kb.Add("what projects will i do",
		"You will work on real-world projects like E-Commerce Platforms, Management Systems, and Portfolios depending on your course.")

	for _, p := range projects {
		if p.Title == "" {
			continue
		}
		kb.Add("project "+p.Title.String(), fmt.Sprintf("Project: %s (Course: %s) — %s", p.Title, p.Course, p.Description))
		kb.Add("projects in "+p.Course.String(), fmt.Sprintf("In %s, you might work on projects like: %s — %s", p.Course, p.Title, p.Description))
	}
}

func mentorLine(m models.Mentor) string {
	return fmt.Sprintf("%s — %s (%s)", m.Name, m.Role, m.Experience)
}

func isOwnerRole(role string) bool {
	return containsAny(strings.ToLower(role), ownershipKeywords...)
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
