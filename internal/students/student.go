// Package students is a small in-memory student directory exposed as MCP
// tools. It is the demo tool host for the chat client.
package students

import (
	"strings"

	"github.com/samber/lo"
)

// Student is serialized with camelCase keys
type Student struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	School    string `json:"school"`
}

// FullName joins first and last name
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Service answers queries over a fixed roster. Name and school matching
// ignores case and surrounding whitespace.
type Service struct {
	roster []Student
}

// NewService creates a service over roster, or the built-in roster when nil
func NewService(roster []Student) *Service {
	if roster == nil {
		roster = DefaultRoster()
	}
	return &Service{roster: append([]Student(nil), roster...)}
}

// DefaultRoster returns the built-in demo students
func DefaultRoster() []Student {
	return []Student{
		{ID: 1, FirstName: "Ann", LastName: "Lee", School: "Nursing"},
		{ID: 2, FirstName: "Bob", LastName: "Ray", School: "Mining"},
		{ID: 3, FirstName: "Cathy", LastName: "Wu", School: "Business"},
		{ID: 4, FirstName: "Dan", LastName: "Lee", School: "Computing"},
		{ID: 5, FirstName: "Eva", LastName: "Sanchez", School: "Nursing"},
		{ID: 6, FirstName: "Fay", LastName: "Grant", School: "Medicine"},
		{ID: 7, FirstName: "Ann", LastName: "Mills", School: "Computing"},
		{ID: 8, FirstName: "Gus", LastName: "Patel", School: "Business"},
	}
}

// All returns every student
func (s *Service) All() []Student {
	return append([]Student(nil), s.roster...)
}

// ByID finds a student by id
func (s *Service) ByID(id int) (Student, bool) {
	return lo.Find(s.roster, func(st Student) bool { return st.ID == id })
}

// ByFullName finds a student by "First Last"
func (s *Service) ByFullName(name string) (Student, bool) {
	return lo.Find(s.roster, func(st Student) bool { return matches(st.FullName(), name) })
}

// BySchool lists the students of a school
func (s *Service) BySchool(school string) []Student {
	return s.filter(func(st Student) string { return st.School }, school)
}

// ByLastName lists the students with the given last name
func (s *Service) ByLastName(lastName string) []Student {
	return s.filter(func(st Student) string { return st.LastName }, lastName)
}

// ByFirstName lists the students with the given first name
func (s *Service) ByFirstName(firstName string) []Student {
	return s.filter(func(st Student) string { return st.FirstName }, firstName)
}

func (s *Service) filter(field func(Student) string, want string) []Student {
	return lo.Filter(s.roster, func(st Student, _ int) bool { return matches(field(st), want) })
}

func matches(have, want string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(have), " "), strings.Join(strings.Fields(want), " "))
}
