package catalog

import "fmt"

// InvalidServiceTypeError is returned when a template's service type does not
// match the service type of the store it is being added to.
type InvalidServiceTypeError struct {
	Want       string
	Got        string
	TemplateID string
}

func (e *InvalidServiceTypeError) Error() string {
	return fmt.Sprintf("service types do not match: %s != %s (template %s)", e.Got, e.Want, e.TemplateID)
}

// DuplicateTemplateError is returned when a store already holds a template with the same id.
type DuplicateTemplateError struct {
	TemplateID string
}

func (e *DuplicateTemplateError) Error() string {
	return fmt.Sprintf("endpoint template %s already exists", e.TemplateID)
}
