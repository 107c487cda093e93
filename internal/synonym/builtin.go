package synonym

var builtin = map[string][]string{
	"secure":      {"obtain", "acquire", "get", "gain"},
	"abandon":     {"desert", "leave", "forsake", "quit"},
	"accurate":    {"precise", "exact", "correct", "right"},
	"adequate":    {"sufficient", "enough", "ample", "satisfactory"},
	"allocate":    {"assign", "distribute", "allot", "designate"},
	"anticipate":  {"expect", "foresee", "predict", "await"},
	"assess":      {"evaluate", "judge", "appraise", "gauge"},
	"assume":      {"suppose", "presume", "believe", "take"},
	"beneficial":  {"advantageous", "helpful", "useful", "favorable"},
	"brief":       {"short", "concise", "succinct", "quick"},
	"candid":      {"frank", "honest", "open", "direct"},
	"cease":       {"stop", "halt", "end", "discontinue"},
	"comprehend":  {"understand", "grasp", "follow", "apprehend"},
	"concede":     {"admit", "acknowledge", "grant", "allow"},
	"crucial":     {"vital", "essential", "critical", "key"},
	"curb":        {"restrain", "limit", "check", "control"},
	"decline":     {"decrease", "drop", "fall", "diminish"},
	"diligent":    {"hardworking", "industrious", "careful", "assiduous"},
	"enhance":     {"improve", "boost", "strengthen", "augment"},
	"evident":     {"obvious", "clear", "apparent", "plain"},
	"feasible":    {"possible", "viable", "practicable", "achievable"},
	"fragile":     {"delicate", "breakable", "frail", "weak"},
	"hinder":      {"obstruct", "impede", "hamper", "block"},
	"implement":   {"execute", "carry out", "apply", "enforce"},
	"inevitable":  {"unavoidable", "certain", "inescapable", "sure"},
	"mitigate":    {"alleviate", "ease", "reduce", "lessen"},
	"notion":      {"idea", "concept", "belief", "thought"},
	"obtain":      {"get", "acquire", "secure", "gain"},
	"persuade":    {"convince", "induce", "coax", "sway"},
	"prevalent":   {"widespread", "common", "prevailing", "rife"},
	"prohibit":    {"forbid", "ban", "bar", "outlaw"},
	"prompt":      {"immediate", "quick", "swift", "rapid"},
	"reluctant":   {"unwilling", "hesitant", "disinclined", "loath"},
	"resilient":   {"tough", "hardy", "flexible", "buoyant"},
	"scrutinize":  {"examine", "inspect", "study", "investigate"},
	"substantial": {"considerable", "significant", "large", "sizable"},
	"sufficient":  {"enough", "adequate", "ample", "plenty"},
	"tedious":     {"boring", "dull", "monotonous", "tiresome"},
	"thrive":      {"flourish", "prosper", "boom", "succeed"},
	"vague":       {"unclear", "indistinct", "hazy", "ambiguous"},
	"vital":       {"essential", "crucial", "critical", "indispensable"},
	"yield":       {"produce", "generate", "provide", "give"},
}
