package vanilla

// ChromeClass is a semantic CSS class applied to form chrome.
type ChromeClass string

const (
	ClassForm        ChromeClass = "queryform-form"
	ClassHeader      ChromeClass = "queryform-header"
	ClassField       ChromeClass = "queryform-field"
	ClassDescription ChromeClass = "queryform-description"
	ClassFieldError  ChromeClass = "queryform-field-error"
	ClassErrors      ChromeClass = "queryform-errors"
	ClassActions     ChromeClass = "queryform-actions"
)

func chromeClasses() map[string]string {
	return map[string]string{
		"form":        string(ClassForm),
		"header":      string(ClassHeader),
		"field":       string(ClassField),
		"description": string(ClassDescription),
		"fieldError":  string(ClassFieldError),
		"errors":      string(ClassErrors),
		"actions":     string(ClassActions),
	}
}
