package dialogue

import "github.com/fintora/voxassist/internal/lang"

// fallbackMessage is the retry prompt returned when a clarification response
// matched no option.
func fallbackMessage(l lang.Language) string {
	if l == lang.Spanish {
		return "No entendí tu elección. Di un número o describe la opción que prefieres."
	}
	return "I didn't catch your choice. Please say a number or describe the option you want."
}

// confirmNudge is returned when a confirmation response was neither a yes
// nor a no.
func confirmNudge(l lang.Language) string {
	if l == lang.Spanish {
		return "¿Eso es un sí o un no?"
	}
	return "Is that a yes or a no?"
}
