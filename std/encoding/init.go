package encoding

// Initializes component conventions for the NDN library.
func init() {
	initComponentConventions()
}
