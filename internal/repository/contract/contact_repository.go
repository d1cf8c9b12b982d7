package contract

import "nova-drive-be/pkg/assistant"

type IContactRepository interface {
	assistant.ContactBook
	FindAll() []assistant.Contact
}
