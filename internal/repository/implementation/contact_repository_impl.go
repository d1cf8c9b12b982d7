package implementation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"nova-drive-be/internal/repository/contract"
	"nova-drive-be/pkg/assistant"

	"gopkg.in/yaml.v3"
)

// DefaultContacts is used when no contacts file exists.
var DefaultContacts = []assistant.Contact{
	{Name: "nada", Number: "+201093661321"},
	{Name: "mama", Number: "+201270509918"},
}

type contactFile struct {
	Contacts []assistant.Contact `yaml:"contacts"`
}

type contactRepository struct {
	contacts []assistant.Contact
}

// NewContactRepository loads contacts from a YAML file of the form
//
//	contacts:
//	  - name: mama
//	    number: "+201270509918"
//
// A missing file yields DefaultContacts.
func NewContactRepository(path string) (contract.IContactRepository, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewContactRepositoryFrom(DefaultContacts), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read contacts: %w", err)
	}

	var f contactFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse contacts: %w", err)
	}
	for i, c := range f.Contacts {
		if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Number) == "" {
			return nil, fmt.Errorf("contact %d: name and number are required", i)
		}
	}
	return NewContactRepositoryFrom(f.Contacts), nil
}

func NewContactRepositoryFrom(contacts []assistant.Contact) contract.IContactRepository {
	list := make([]assistant.Contact, 0, len(contacts))
	for _, c := range contacts {
		list = append(list, assistant.Contact{
			Name:   strings.ToLower(strings.TrimSpace(c.Name)),
			Number: strings.TrimSpace(c.Number),
		})
	}
	return &contactRepository{contacts: list}
}

// Match returns the first contact, in file order, whose lower-cased name
// occurs anywhere in text.
func (r *contactRepository) Match(text string) (assistant.Contact, bool) {
	lower := strings.ToLower(text)
	for _, c := range r.contacts {
		if c.Name != "" && strings.Contains(lower, c.Name) {
			return c, true
		}
	}
	return assistant.Contact{}, false
}

func (r *contactRepository) FindAll() []assistant.Contact {
	out := make([]assistant.Contact, len(r.contacts))
	copy(out, r.contacts)
	return out
}
