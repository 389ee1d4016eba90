package dialogue

import (
	"testing"

	"github.com/fintora/voxassist/internal/lang"
)

func demoOptions() []Option {
	return []Option{
		{ID: "nav", Label: "Take me to Expenses", Action: ActionNavigate, Target: "expenses", Route: "/expenses"},
		{ID: "explain", Label: "Explain it here", Action: ActionExplain, Target: "expenses"},
	}
}

func demoOptionsES() []Option {
	return []Option{
		{ID: "nav", Label: "Llévame a Gastos", Action: ActionNavigate, Target: "expenses", Route: "/expenses"},
		{ID: "explain", Label: "Explícalo aquí", Action: ActionExplain, Target: "expenses"},
	}
}

func budgetOptions() []Option {
	return []Option{
		{ID: "overview", Label: "Budget overview", Action: ActionNavigate, Route: "/budget"},
		{ID: "breakdown", Label: "Category breakdown", Action: ActionExplain},
		{ID: "trends", Label: "Spending trends", Action: ActionNavigate, Route: "/trends"},
		{ID: "export", Label: "Export as spreadsheet", Action: ActionNavigate, Route: "/export"},
	}
}

func budgetOptionsES() []Option {
	return []Option{
		{ID: "overview", Label: "Resumen del presupuesto", Action: ActionNavigate, Route: "/budget"},
		{ID: "breakdown", Label: "Desglose por categoría", Action: ActionExplain},
		{ID: "trends", Label: "Tendencias de gasto", Action: ActionNavigate, Route: "/trends"},
		{ID: "export", Label: "Exportar como hoja de cálculo", Action: ActionNavigate, Route: "/export"},
	}
}

func TestMatchOption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		language lang.Language
		options  []Option
		wantID   string
		wantOK   bool
	}{
		{"bare number first", "1", lang.English, demoOptions(), "nav", true},
		{"bare number second", "2", lang.English, demoOptions(), "explain", true},
		{"bare number with whitespace", "  2  ", lang.English, demoOptions(), "explain", true},
		{"bare number third", "3", lang.English, budgetOptions(), "trends", true},
		{"bare number fourth", "4", lang.English, budgetOptions(), "export", true},
		{"single option by number", "1", lang.English, demoOptions()[:1], "nav", true},
		{"single option out of range", "2", lang.English, demoOptions()[:1], "", false},
		{"ordinal english", "the first one", lang.English, demoOptions(), "nav", true},
		{"ordinal english numeric suffix", "2nd", lang.English, demoOptions(), "explain", true},
		{"ordinal english third", "the third one", lang.English, budgetOptions(), "trends", true},
		{"ordinal english fourth", "fourth", lang.English, budgetOptions(), "export", true},
		{"ordinal beyond list falls through", "the fourth one", lang.English, demoOptions(), "", false},
		{"ordinal spanish feminine", "la segunda", lang.Spanish, demoOptionsES(), "explain", true},
		{"ordinal spanish masculine", "el primero", lang.Spanish, demoOptionsES(), "nav", true},
		{"ordinal spanish third", "la tercera", lang.Spanish, budgetOptionsES(), "trends", true},
		{"ordinal spanish fourth", "el cuarto", lang.Spanish, budgetOptionsES(), "export", true},
		{"fuzzy label overlap", "take me to the expenses page", lang.English, demoOptions(), "nav", true},
		{"fuzzy single significant word", "explain", lang.English, demoOptions(), "explain", true},
		{"action keyword navigate", "go to it", lang.English, demoOptions(), "nav", true},
		{"action keyword explain spanish", "dime más", lang.Spanish, demoOptionsES(), "explain", true},
		{"cancellation english", "nevermind, forget it", lang.English, demoOptions(), "cancel", true},
		{"cancellation spanish", "olvídalo", lang.Spanish, demoOptionsES(), "cancel", true},
		{"cancellation beats number", "cancel 1", lang.English, demoOptions(), "cancel", true},
		{"out of range number falls through", "7", lang.English, demoOptions(), "", false},
		{"gibberish", "purple monkey dishwasher", lang.English, demoOptions(), "", false},
		{"empty", "   ", lang.English, demoOptions(), "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opt, ok := matchOption(tt.response, tt.options, tt.language)
			if ok != tt.wantOK {
				t.Fatalf("matchOption(%q) ok = %v, want %v", tt.response, ok, tt.wantOK)
			}
			if ok && opt.ID != tt.wantID {
				t.Errorf("matchOption(%q) = %q, want %q", tt.response, opt.ID, tt.wantID)
			}
		})
	}
}

func TestMatchOptionFuzzyTieBreak(t *testing.T) {
	t.Parallel()

	// Both labels share the significant word "report"; the response names the
	// monthly one, so similarity decides.
	options := []Option{
		{ID: "monthly", Label: "Monthly spending report", Action: ActionNavigate},
		{ID: "yearly", Label: "Yearly spending report", Action: ActionNavigate},
	}

	opt, ok := matchOption("the monthly spending report", options, lang.English)
	if !ok {
		t.Fatal("no match")
	}
	if opt.ID != "monthly" {
		t.Errorf("matched %q, want monthly", opt.ID)
	}
}

func TestMatchOptionActionKeywordOrderStable(t *testing.T) {
	t.Parallel()

	// "show me" implies navigate and "here" implies explain. The navigate
	// reading must win, on every call.
	for i := 0; i < 100; i++ {
		opt, ok := matchOption("show me here", demoOptions(), lang.English)
		if !ok {
			t.Fatalf("iteration %d: no match", i)
		}
		if opt.ID != "nav" {
			t.Fatalf("iteration %d: matched %q, want nav", i, opt.ID)
		}
	}
}

func TestMatchYesNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		response      string
		language      lang.Language
		wantConfirmed bool
		wantOK        bool
	}{
		{"yes", lang.English, true, true},
		{"Yeah, do it!", lang.English, true, true},
		{"ok", lang.English, true, true},
		{"no", lang.English, false, true},
		{"nope", lang.English, false, true},
		{"no, do it later", lang.English, false, true},
		{"sí", lang.Spanish, true, true},
		{"¡Claro!", lang.Spanish, true, true},
		{"mejor no", lang.Spanish, false, true},
		{"cancela", lang.Spanish, false, true},
		{"maybe tomorrow", lang.English, false, false},
		{"", lang.English, false, false},
	}

	for _, tt := range tests {
		confirmed, ok := matchYesNo(tt.response, tt.language)
		if ok != tt.wantOK {
			t.Errorf("matchYesNo(%q, %s) ok = %v, want %v", tt.response, tt.language, ok, tt.wantOK)
			continue
		}
		if ok && confirmed != tt.wantConfirmed {
			t.Errorf("matchYesNo(%q, %s) = %v, want %v", tt.response, tt.language, confirmed, tt.wantConfirmed)
		}
	}
}

func TestMatchYesNoNoWinsInsideLongerAnswer(t *testing.T) {
	t.Parallel()

	// "no" and "sure" both present: the negative reading wins.
	confirmed, ok := matchYesNo("no thanks, sure about that", lang.English)
	if !ok || confirmed {
		t.Errorf("matchYesNo = (%v, %v), want (false, true)", confirmed, ok)
	}
}
