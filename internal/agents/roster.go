// Package agents defines the fixed debate roster and its turn rotation.
package agents

import (
	"fmt"

	"dev.helix.deliberation/internal/models"
)

// roster is the fixed persona set. Declaration order is rotation order.
var roster = []models.Persona{
	{
		Name: "Economist",
		Role: "Economic policy expert",
		Bias: "Focused on economic efficiency and market dynamics",
	},
	{
		Name: "Ethicist",
		Role: "Moral philosophy specialist",
		Bias: "Concerned with ethical implications and human rights",
	},
	{
		Name: "Environmentalist",
		Role: "Environmental policy expert",
		Bias: "Prioritizes ecological sustainability and climate impact",
	},
	{
		Name: "Social Worker",
		Role: "Social policy specialist",
		Bias: "Focused on social welfare and community impact",
	},
}

// Roster returns a copy of the fixed persona set in rotation order.
func Roster() []models.Persona {
	out := make([]models.Persona, len(roster))
	copy(out, roster)
	return out
}

// First returns the persona that opens every debate.
func First() models.Persona {
	return roster[0]
}

// Next returns the persona that speaks after the named one, wrapping
// cyclically. It fails when the name is not in the roster.
func Next(name string) (models.Persona, error) {
	for i, p := range roster {
		if p.Name == name {
			return roster[(i+1)%len(roster)], nil
		}
	}
	return models.Persona{}, fmt.Errorf("agent %q is not in the roster", name)
}
