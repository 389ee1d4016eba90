package lang

// WordList holds the weighted indicators for one language. Words score 1 per
// exact token match; Phrases score 2 per substring occurrence in the full
// normalized text.
type WordList struct {
	Words   []string
	Phrases []string
}

// spanishDiacritics are characters unique to Spanish among the two supported
// languages. Any occurrence adds a 2-point bonus to the Spanish score.
const spanishDiacritics = "áéíóúüñ¿¡"

// defaultWordLists returns the built-in indicator lists. They are tuned for a
// personal-finance assistant: question words, common function words, and the
// finance vocabulary users actually say.
func defaultWordLists() map[Language]WordList {
	return map[Language]WordList{
		English: {
			Words: []string{
				"the", "and", "what", "how", "much", "many", "where", "when",
				"show", "me", "my", "this", "that", "month", "week", "money",
				"spend", "spent", "spending", "add", "expense", "expenses",
				"income", "budget", "savings", "help", "please", "want",
				"need", "can", "you", "about", "with", "for",
			},
			Phrases: []string{
				"how much", "show me", "take me", "this month", "last month",
				"add an expense", "what is", "i want", "i need",
			},
		},
		Spanish: {
			Words: []string{
				"el", "la", "los", "las", "una", "qué", "que", "cómo", "como",
				"cuánto", "cuanto", "dónde", "donde", "cuándo", "cuando",
				"muéstrame", "muestrame", "mis", "este", "esta", "mes",
				"semana", "dinero", "gasto", "gastos", "gasté", "gaste",
				"gastar", "agregar", "añadir", "ingreso", "ingresos",
				"presupuesto", "ahorros", "ayuda", "favor", "quiero",
				"necesito", "puedes", "sobre", "con", "para",
			},
			Phrases: []string{
				"cuánto gasté", "cuanto gaste", "muéstrame", "llévame a",
				"este mes", "el mes pasado", "agregar un gasto", "qué es",
				"por favor", "quiero ver",
			},
		},
	}
}

// switchCommands maps literal "switch language" phrases, in either language,
// to the language they request. Matching is by substring on the normalized
// text and bypasses detection scoring entirely.
var switchCommands = map[string]Language{
	"switch to english": English,
	"in english":        English,
	"speak english":     English,
	"english please":    English,
	"cambia a inglés":   English,
	"cambia a ingles":   English,
	"en inglés":         English,
	"en ingles":         English,
	"habla inglés":      English,
	"habla ingles":      English,
	"switch to spanish": Spanish,
	"in spanish":        Spanish,
	"speak spanish":     Spanish,
	"spanish please":    Spanish,
	"cambia a español":  Spanish,
	"cambia a espanol":  Spanish,
	"cambiar a español": Spanish,
	"en español":        Spanish,
	"en espanol":        Spanish,
	"habla español":     Spanish,
	"español por favor": Spanish,
}

// switchedMessage returns the user-facing confirmation for a committed
// language switch, phrased in the new language.
func switchedMessage(to Language) string {
	if to == Spanish {
		return "Cambiado a español."
	}
	return "Switched to English."
}
