package constants

// ChangeType is the discriminator carried by every realtime change event.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

func (c ChangeType) Valid() bool {
	return c == ChangeInsert || c == ChangeUpdate || c == ChangeDelete
}
