package toolrun

// Validatable is implemented by argument structs that need custom business validation.
// NewTypedTool calls it after unmarshaling the arguments.
type Validatable interface {
	Validate() error
}

// validateCustom runs Validate if args implements Validatable.
func validateCustom(args any) error {
	if v, ok := args.(Validatable); ok {
		return v.Validate()
	}
	return nil
}
