package response

// Template is one per-language, per-type rendering recipe. Placeholder slots
// use {name} syntax and resolve against the item fields or the request
// context, depending on the slot.
type Template struct {
	// Header, ResultFormat and Footer drive results_found rendering:
	// header once, format per item, footer when results exceed the display
	// cap.
	Header       string `json:"header,omitempty" mapstructure:"header"`
	ResultFormat string `json:"result_format,omitempty" mapstructure:"result_format"`
	Footer       string `json:"footer,omitempty" mapstructure:"footer"`

	// Message and Suggestions drive the single-message types (no_results,
	// help, error, fallback).
	Message     string   `json:"message,omitempty" mapstructure:"message"`
	Suggestions []string `json:"suggestions,omitempty" mapstructure:"suggestions"`
}

// TemplateSet maps language code to the templates for each response type.
type TemplateSet map[string]map[Type]Template

// Lookup resolves a template by (response type, language): exact language
// first, then the default language, then the built-in defaults.
func (ts TemplateSet) Lookup(t Type, language, defaultLanguage string) Template {
	for _, lang := range []string{language, defaultLanguage} {
		if lang == "" {
			continue
		}
		if byType, ok := ts[lang]; ok {
			if tpl, ok := byType[t]; ok {
				return tpl
			}
		}
	}
	return defaultTemplates[t]
}

// defaultTemplates is the language-agnostic safety net used when the caller
// supplies no template for a (type, language) pair.
var defaultTemplates = map[Type]Template{
	TypeResultsFound: {
		Header:       "I found {count} result(s) for you:\n\n",
		ResultFormat: "**{title}**\n{description}\n",
		Footer:       "\n...and {remaining} more. Narrow your search to see fewer results.",
	},
	TypeNoResults: {
		Message: "I could not find anything matching \"{query}\".",
		Suggestions: []string{
			"Try different keywords",
			"Ask for \"help\" to see what I can do",
		},
	},
	TypeHelp: {
		Message:     "I am {agent_name}. {agent_description}\n\nHere is what you can ask me:",
		Suggestions: nil,
	},
	TypeError: {
		Message: "Sorry, something went wrong while handling \"{query}\". Please try again or ask for \"help\".",
	},
	TypeFallback: {
		Message: "I am not sure how to handle that. Ask for \"help\" to see what I can do.",
	},
}
