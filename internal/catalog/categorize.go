package catalog

import "strings"

// DefaultCategory is used when no keyword matches.
const DefaultCategory = "altro"

// Categorize suggests a catalog category for the given item name.
// It performs case-insensitive matching: exact match first, then substring
// match. Falls back to DefaultCategory if nothing matches.
func Categorize(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return DefaultCategory
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	// Substring pass, more specific keywords first.
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return DefaultCategory
}

var exactMatch = map[string]string{
	// Verdure
	"pomodori":  "verdure",
	"pomodoro":  "verdure",
	"insalata":  "verdure",
	"zucchine":  "verdure",
	"melanzane": "verdure",
	"peperoni":  "verdure",
	"cipolle":   "verdure",
	"carote":    "verdure",
	"patate":    "verdure",
	"funghi":    "verdure",
	"spinaci":   "verdure",
	"aglio":     "verdure",
	"verdure":   "verdure",

	// Latticini
	"mozzarella": "latticini",
	"burro":      "latticini",
	"latte":      "latticini",
	"formaggio":  "latticini",
	"panna":      "latticini",
	"ricotta":    "latticini",
	"parmigiano": "latticini",
	"pecorino":   "latticini",
	"yogurt":     "latticini",

	// Erbe
	"basilico":   "erbe",
	"prezzemolo": "erbe",
	"rosmarino":  "erbe",
	"salvia":     "erbe",
	"origano":    "erbe",
	"timo":       "erbe",
	"menta":      "erbe",

	// Condimenti
	"olio d'oliva": "condimenti",
	"olio":         "condimenti",
	"aceto":        "condimenti",
	"sale":         "condimenti",
	"pepe":         "condimenti",
	"zucchero":     "condimenti",

	// Cereali
	"pasta":  "cereali",
	"pane":   "cereali",
	"riso":   "cereali",
	"farina": "cereali",
	"orzo":   "cereali",

	// Proteine
	"carne":   "proteine",
	"pesce":   "proteine",
	"uova":    "proteine",
	"pollo":   "proteine",
	"manzo":   "proteine",
	"maiale":  "proteine",
	"tonno":   "proteine",
	"salmone": "proteine",

	// Salumi
	"prosciutto": "salumi",
	"salame":     "salumi",
	"pancetta":   "salumi",
	"speck":      "salumi",
	"mortadella": "salumi",
	"bresaola":   "salumi",
}

var substringMatches = []struct {
	keyword  string
	category string
}{
	{"prosciutt", "salumi"},
	{"parmigian", "latticini"},
	{"mozzarell", "latticini"},
	{"gorgonzola", "latticini"},
	{"formagg", "latticini"},
	{"pomodor", "verdure"},
	{"zucchin", "verdure"},
	{"melanzan", "verdure"},
	{"peperon", "verdure"},
	{"cipoll", "verdure"},
	{"carot", "verdure"},
	{"patat", "verdure"},
	{"insalat", "verdure"},
	{"gamber", "proteine"},
	{"pesce", "proteine"},
	{"carne", "proteine"},
	{"farina", "cereali"},
	{"pane", "cereali"},
	{"pasta", "cereali"},
	{"olio", "condimenti"},
	{"aceto", "condimenti"},
}
