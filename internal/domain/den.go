package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Den is the top-level community grouping, the server equivalent.
// Dens are never mutated after creation, only deleted.
type Den struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	OwnerID     string    `json:"ownerId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewDen builds a den with a generated id. When icon is empty the
// initials of the name are used, matching the original client.
func NewDen(name, icon, description, ownerID string) Den {
	if icon == "" {
		icon = initials(name)
	}
	return Den{
		ID:          fmt.Sprintf("den-%s", uuid.New().String()),
		Name:        name,
		Icon:        icon,
		OwnerID:     ownerID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}

func initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteRune(r)
			break
		}
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return strings.ToUpper(b.String())
}
