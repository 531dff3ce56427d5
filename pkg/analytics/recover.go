// recover.go provides the Recover helper for panics inside component code.

package analytics

import "fmt"

// Recover captures a panic, reports it as an internal ErrorEvent for the
// given component and returns the recovered value. It does not re-panic.
//
// Use in defer:
//
//	func (c *Component) handle() {
//	    defer analytics.Recover(c.reporter, "threeDS2")
//	    // code that might panic
//	}
//
// A nil reporter is tolerated; the panic is still swallowed.
func Recover(reporter Reporter, component string) any {
	r := recover()
	if r == nil {
		return nil
	}
	if reporter != nil {
		reporter.AddError(NewErrorEvent(component, ErrorTypeInternal).WithMessage(formatRecovered(r)))
	}
	return r
}

// formatRecovered formats a recovered panic value as a string.
func formatRecovered(recovered any) string {
	if recovered == nil {
		return "<nil>"
	}
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", recovered)
}
