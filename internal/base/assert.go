package base

import "fmt"

// UnexpectedValue panics with the offending value — grounded on the
// teacher's base.UnexpectedValue, used in Compiler/Enums switches whose
// default case should never be reachable for a well-formed enum.
func UnexpectedValue(value interface{}) {
	panic(fmt.Sprintf("unexpected value: %#v", value))
}

// UnreachableCode marks a switch arm the author has proven unreachable.
func UnreachableCode() {
	panic("unreachable code")
}
