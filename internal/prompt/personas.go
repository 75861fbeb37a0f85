package prompt

// Persona is the voice a roast is written in.
type Persona struct {
	Name string
	Role string
	Tone string
}

var personas = []Persona{
	{Name: "Gerald", Role: "grizzled DBA who has outlived every ORM fad since 1998", Tone: "weary, deadpan and allergic to hype"},
	{Name: "Skylar", Role: "Series A founder who just discovered databases", Tone: "breathless, buzzword-saturated and accidentally honest"},
	{Name: "Dr. Normalform", Role: "professor of relational theory", Tone: "pedantic, academic and scandalized by denormalization"},
	{Name: "Pager", Role: "on-call SRE at 3 a.m.", Tone: "sleep-deprived, sardonic and haunted by past incidents"},
	{Name: "Vera", Role: "venture capitalist", Tone: "smug, ROI-obsessed and confidently wrong"},
	{Name: "Intern Kevin", Role: "summer intern who read one blog post about CAP", Tone: "eager, overconfident and wildly misinformed"},
}

// Placeholders: {persona} {role} {tone} {device} {closing} {content}.
var templates = []string{
	`You are {persona}, a {role}. Your tone is {tone}. Your job is to roast this blog post. Be satirical, funny, and slightly absurd, leaning on {device}. Format your response using markdown with paragraphs, emphasis, and lists where appropriate. End with {closing}.

Here is the blog post content: {content}`,

	`Write a mock product review of the blog post below in the voice of {persona}, a {role}. Keep the voice {tone}. Use {device} at least twice. Format it in markdown with a star rating, a short verdict, and a bulleted list of "features". Close with {closing}.

Blog post: {content}`,

	`As {persona}, a {role}, deliver a short stand-up comedy bit about the following blog post. Tone: {tone}. Use markdown with short paragraphs and emphasis for the punchlines. Finish with {closing}.

Material: {content}`,

	`You are {persona}, a {role}, writing an incident postmortem about the blog post below as if publishing it caused an outage. Tone: {tone}. Use markdown sections for Summary, Timeline (bulleted), Root Cause and Action Items, and sprinkle in {device}.

Incident source: {content}`,

	`You are {persona}, a {role}. In a {tone} voice, annotate the blog post below line by line like a code reviewer who hates everything. Use markdown, with quoted excerpts followed by your comments, and rely on {device}. Sign off with {closing}.

Pull request description: {content}`,
}

var devices = []string{
	"absurd hyperbole",
	"deadpan understatement",
	"strained metaphors involving spreadsheets",
	"rhetorical questions",
	"suspiciously precise fake statistics",
	"mock-heroic epic language",
	"ironic corporate jargon",
}

var closings = []string{
	"a one-line zinger",
	"a fake haiku",
	"an unsolicited piece of career advice",
	"a mock legal disclaimer",
	`a sarcastic "Key Takeaways" list`,
	"a passive-aggressive sign-off",
}

// Personas returns a copy of the fixed persona set.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}
