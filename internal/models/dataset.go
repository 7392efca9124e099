package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Dataset is the institute description the whole bot answers from. It is
// loaded once at startup and never mutated afterwards.
//
// Decoding is lenient: a section of the wrong shape is left at its zero value
// and noted in Anomalies, a list element of the wrong shape is dropped, and
// scalar fields accept strings, numbers and booleans.
type Dataset struct {
	Company         Company         `json:"company" yaml:"company"`
	Courses         Catalog         `json:"courses" yaml:"courses"`
	CourseStructure CourseStructure `json:"course_structure" yaml:"course_structure"`
	Projects        List[Project]   `json:"projects" yaml:"projects"`

	Anomalies []string `json:"-" yaml:"-"`
}

func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dataset: expected an object: %w", err)
	}

	var ds Dataset
	for key, target := range ds.sections() {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			ds.resetSection(key)
			ds.Anomalies = append(ds.Anomalies, fmt.Sprintf("%s: %v", key, err))
		}
	}

	*d = ds
	return nil
}

func (d *Dataset) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("dataset: expected a mapping at line %d", value.Line)
	}

	var ds Dataset
	sections := ds.sections()
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		target, ok := sections[key]
		if !ok {
			continue
		}
		if err := value.Content[i+1].Decode(target); err != nil {
			ds.resetSection(key)
			ds.Anomalies = append(ds.Anomalies, fmt.Sprintf("%s: %v", key, err))
		}
	}

	*d = ds
	return nil
}

func (d *Dataset) sections() map[string]any {
	return map[string]any{
		"company":          &d.Company,
		"courses":          &d.Courses,
		"course_structure": &d.CourseStructure,
		"projects":         &d.Projects,
	}
}

func (d *Dataset) resetSection(key string) {
	switch key {
	case "company":
		d.Company = Company{}
	case "courses":
		d.Courses = nil
	case "course_structure":
		d.CourseStructure = CourseStructure{}
	case "projects":
		d.Projects = nil
	}
}

type Company struct {
	Name     FlexString   `json:"name" yaml:"name"`
	Tagline  FlexString   `json:"tagline" yaml:"tagline"`
	About    FlexString   `json:"about" yaml:"about"`
	Location FlexString   `json:"location" yaml:"location"`
	Contact  Contact      `json:"contact" yaml:"contact"`
	Mentors  List[Mentor] `json:"mentors" yaml:"mentors"`

	// present is set when the decoded section had at least one key.
	present bool
}

func (c *Company) UnmarshalJSON(data []byte) error {
	type plain Company
	var p plain
	keys, err := decodeObject(data, &p)
	if err != nil {
		return err
	}
	*c = Company(p)
	c.present = keys > 0
	return nil
}

func (c *Company) UnmarshalYAML(value *yaml.Node) error {
	type plain Company
	var p plain
	keys, err := decodeMapping(value, &p)
	if err != nil {
		return err
	}
	*c = Company(p)
	c.present = keys > 0
	return nil
}

// IsEmpty reports whether the company section was absent or an empty object.
// A section with only blank values still counts as present.
func (c Company) IsEmpty() bool {
	return !c.present && c.Name == "" && c.Tagline == "" && c.About == "" && c.Location == "" &&
		c.Contact.IsEmpty() && len(c.Mentors) == 0
}

// Address returns the explicit location, falling back to the contact address.
func (c Company) Address() string {
	if c.Location != "" {
		return c.Location.String()
	}
	return c.Contact.Address.String()
}

type Contact struct {
	Email        FlexString  `json:"email" yaml:"email"`
	Phones       FlexStrings `json:"phones" yaml:"phones"`
	WorkingHours FlexString  `json:"working_hours" yaml:"working_hours"`
	Address      FlexString  `json:"address" yaml:"address"`
}

// A contact block that is not an object decodes to an empty contact.
func (c *Contact) UnmarshalJSON(data []byte) error {
	type plain Contact
	var p plain
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
	}
	*c = Contact(p)
	return nil
}

func (c *Contact) UnmarshalYAML(value *yaml.Node) error {
	type plain Contact
	var p plain
	if value.Kind == yaml.MappingNode {
		if err := value.Decode(&p); err != nil {
			return err
		}
	}
	*c = Contact(p)
	return nil
}

func (c Contact) IsEmpty() bool {
	return c.Email == "" && len(c.Phones) == 0 && c.WorkingHours == "" && c.Address == ""
}

type Mentor struct {
	Name       FlexString `json:"name" yaml:"name"`
	Role       FlexString `json:"role" yaml:"role"`
	Experience FlexString `json:"experience" yaml:"experience"`
}

type Course struct {
	Title            FlexString `json:"title" yaml:"title"`
	Price            FlexString `json:"price" yaml:"price"`
	URL              FlexString `json:"url" yaml:"url"`
	Description      FlexString `json:"description" yaml:"description"`
	ShortDescription FlexString `json:"short_description" yaml:"short_description"`
	Summary          FlexString `json:"summary" yaml:"summary"`
	Instructor       FlexString `json:"instructor" yaml:"instructor"`
	Mentor           FlexString `json:"mentor" yaml:"mentor"`
}

// Blurb is the first non-empty descriptive field of the course.
func (c Course) Blurb() string {
	switch {
	case c.Description != "":
		return c.Description.String()
	case c.ShortDescription != "":
		return c.ShortDescription.String()
	default:
		return c.Summary.String()
	}
}

// Teacher is the instructor, or the mentor when no instructor is recorded.
func (c Course) Teacher() string {
	if c.Instructor != "" {
		return c.Instructor.String()
	}
	return c.Mentor.String()
}

type CourseCategory struct {
	Name    string
	Courses []Course
}

// Catalog keeps course categories in the order the dataset file lists them.
// Knowledge base order, fuzzy matching precedence and course listings all
// depend on that order, so it cannot be a Go map. Anything other than an
// object of arrays decodes to an empty catalog, and categories whose value is
// not an array are skipped.
type Catalog []CourseCategory

func (c *Catalog) UnmarshalJSON(data []byte) error {
	*c = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("courses: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	var catalog Catalog
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("courses: %w", err)
		}
		name, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("courses %q: %w", name, err)
		}
		if !isJSONArray(value) {
			continue
		}

		var courses List[Course]
		if err := json.Unmarshal(value, &courses); err != nil {
			return fmt.Errorf("courses %q: %w", name, err)
		}
		catalog = append(catalog, CourseCategory{Name: name, Courses: courses})
	}

	*c = catalog
	return nil
}

func (c *Catalog) UnmarshalYAML(value *yaml.Node) error {
	*c = nil
	if value.Kind != yaml.MappingNode {
		return nil
	}

	catalog := make(Catalog, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value
		if value.Content[i+1].Kind != yaml.SequenceNode {
			continue
		}
		var courses List[Course]
		if err := value.Content[i+1].Decode(&courses); err != nil {
			return fmt.Errorf("courses %q: %w", name, err)
		}
		catalog = append(catalog, CourseCategory{Name: name, Courses: courses})
	}

	*c = catalog
	return nil
}

type CourseStructure struct {
	SessionLength FlexString  `json:"session_length" yaml:"session_length"`
	DailyDuration FlexString  `json:"daily_duration" yaml:"daily_duration"`
	Benefits      FlexStrings `json:"benefits" yaml:"benefits"`

	present bool
}

func (cs *CourseStructure) UnmarshalJSON(data []byte) error {
	type plain CourseStructure
	var p plain
	keys, err := decodeObject(data, &p)
	if err != nil {
		return err
	}
	*cs = CourseStructure(p)
	cs.present = keys > 0
	return nil
}

func (cs *CourseStructure) UnmarshalYAML(value *yaml.Node) error {
	type plain CourseStructure
	var p plain
	keys, err := decodeMapping(value, &p)
	if err != nil {
		return err
	}
	*cs = CourseStructure(p)
	cs.present = keys > 0
	return nil
}

// IsEmpty reports whether the section was absent or an empty object.
func (cs CourseStructure) IsEmpty() bool {
	return !cs.present && cs.SessionLength == "" && cs.DailyDuration == "" && len(cs.Benefits) == 0
}

type Project struct {
	Title       FlexString `json:"title" yaml:"title"`
	Course      FlexString `json:"course" yaml:"course"`
	Description FlexString `json:"description" yaml:"description"`
}

// List decodes a sequence leniently: a value that is not a sequence becomes
// an empty list, and null elements or elements that do not decode as T are
// dropped.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	if !isJSONArray(data) {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(List[T], 0, len(items))
	for _, item := range items {
		if isJSONNull(item) {
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

func (l *List[T]) UnmarshalYAML(value *yaml.Node) error {
	*l = nil
	if value.Kind != yaml.SequenceNode {
		return nil
	}

	out := make(List[T], 0, len(value.Content))
	for _, item := range value.Content {
		if item.Tag == "!!null" {
			continue
		}
		var v T
		if err := item.Decode(&v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// FlexString accepts JSON strings, numbers and booleans; null becomes "".
// Prices and durations are written both ways in real datasets. Objects and
// arrays also become "".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isJSONNull(data) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '{', '[':
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*f = FlexString(n.String())
		} else if b, err := strconv.ParseBool(string(data)); err == nil {
			*f = FlexString(strconv.FormatBool(b))
		}
	}
	return nil
}

func (f *FlexString) UnmarshalYAML(value *yaml.Node) error {
	*f = ""
	if value.Kind == yaml.ScalarNode && value.Tag != "!!null" {
		*f = FlexString(value.Value)
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// FlexStrings accepts a list of scalars, a single scalar, or null. Blank
// entries are dropped.
type FlexStrings []string

func (fs *FlexStrings) UnmarshalJSON(data []byte) error {
	*fs = nil
	var items []FlexString
	if isJSONArray(data) {
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
	} else {
		var single FlexString
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		items = []FlexString{single}
	}
	fs.set(items)
	return nil
}

func (fs *FlexStrings) UnmarshalYAML(value *yaml.Node) error {
	*fs = nil
	var items []FlexString
	switch value.Kind {
	case yaml.SequenceNode:
		if err := value.Decode(&items); err != nil {
			return err
		}
	case yaml.ScalarNode:
		var single FlexString
		if err := value.Decode(&single); err != nil {
			return err
		}
		items = []FlexString{single}
	}
	fs.set(items)
	return nil
}

func (fs *FlexStrings) set(items []FlexString) {
	for _, item := range items {
		if item != "" {
			*fs = append(*fs, item.String())
		}
	}
}

// decodeObject decodes a JSON object into v and reports how many keys it had.
func decodeObject(data []byte, v any) (int, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return 0, err
	}
	return len(raw), nil
}

// decodeMapping is decodeObject for YAML mappings.
func decodeMapping(value *yaml.Node, v any) (int, error) {
	if value.Kind != yaml.MappingNode {
		return 0, fmt.Errorf("expected a mapping at line %d", value.Line)
	}
	if err := value.Decode(v); err != nil {
		return 0, err
	}
	return len(value.Content) / 2, nil
}

func isJSONArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}

func isJSONNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
